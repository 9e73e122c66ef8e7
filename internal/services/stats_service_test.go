package services

import (
	"context"
	"errors"
	"testing"
	"time"
)

type stubStatsCounter struct {
	joined          time.Time
	joinedErr       error
	patientChats    int
	doctorChats     int
	recipes         int
	recipesByAuthor int
	recipesErr      error
	modules         int
	posts           int
	postsSince      int
	lastChart       *time.Time
	experience      int
	chatsErr        error
}

func (s *stubStatsCounter) JoinedAt(context.Context, int64) (time.Time, error) {
	return s.joined, s.joinedErr
}

func (s *stubStatsCounter) CountConversationsForPatient(context.Context, int64) (int, error) {
	return s.patientChats, s.chatsErr
}

func (s *stubStatsCounter) CountConversationsForDoctor(context.Context, int64) (int, error) {
	return s.doctorChats, s.chatsErr
}

func (s *stubStatsCounter) CountRecipes(context.Context) (int, error) {
	return s.recipes, s.recipesErr
}

func (s *stubStatsCounter) CountRecipesByAuthor(context.Context, int64) (int, error) {
	return s.recipesByAuthor, s.recipesErr
}

func (s *stubStatsCounter) CountCompletedModules(context.Context, int64) (int, error) {
	return s.modules, nil
}

func (s *stubStatsCounter) CountPostsByDoctor(context.Context, int64) (int, error) {
	return s.posts, nil
}

func (s *stubStatsCounter) CountPostsByDoctorSince(context.Context, int64, time.Time) (int, error) {
	return s.postsSince, nil
}

func (s *stubStatsCounter) LastDietChartAt(context.Context, int64) (*time.Time, error) {
	return s.lastChart, nil
}

func (s *stubStatsCounter) DoctorExperienceYears(context.Context, int64) (int, error) {
	return s.experience, nil
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func TestPatientSnapshotDerivesScoreAndDosha(t *testing.T) {
	now := time.Date(2025, 6, 20, 12, 0, 0, 0, time.UTC)
	counter := &stubStatsCounter{
		joined:       now.AddDate(0, 0, -4),
		patientChats: 2,
		modules:      3,
		recipes:      12,
	}
	service := NewStatsService(counter)
	service.now = fixedClock(now)

	stats := service.PatientSnapshot(context.Background(), 7)

	if stats.DaysActive != 4 {
		t.Fatalf("expected 4 days active, got %d", stats.DaysActive)
	}
	// 4*2 + 3*5 + 2*3 = 29
	if stats.WellnessScore != 29 {
		t.Fatalf("expected wellness 29, got %d", stats.WellnessScore)
	}
	if stats.DoshaBalance != "Pitta" {
		t.Fatalf("expected Pitta for day 4, got %q", stats.DoshaBalance)
	}
	if stats.AvailableRecipes != 12 || stats.TotalChats != 2 || stats.CompletedModules != 3 {
		t.Fatalf("unexpected counters: %+v", stats)
	}
}

func TestPatientWellnessScoreClampsAtHundred(t *testing.T) {
	now := time.Date(2025, 6, 20, 12, 0, 0, 0, time.UTC)
	counter := &stubStatsCounter{
		joined:       now.AddDate(0, 0, -300),
		patientChats: 50,
		modules:      40,
	}
	service := NewStatsService(counter)
	service.now = fixedClock(now)

	stats := service.PatientSnapshot(context.Background(), 7)
	if stats.WellnessScore != 100 {
		t.Fatalf("expected wellness clamped to 100, got %d", stats.WellnessScore)
	}
}

func TestPatientSnapshotIsolatesFailingCounter(t *testing.T) {
	now := time.Date(2025, 6, 20, 12, 0, 0, 0, time.UTC)
	counter := &stubStatsCounter{
		joined:       now.AddDate(0, 0, -2),
		patientChats: 5,
		recipes:      9,
		modules:      1,
	}
	service := NewStatsService(counter)
	service.now = fixedClock(now)

	// Seed the cache with a healthy pass.
	first := service.PatientSnapshot(context.Background(), 7)
	if first.AvailableRecipes != 9 {
		t.Fatalf("expected 9 recipes on first pass, got %d", first.AvailableRecipes)
	}

	// One failing query keeps its last value while siblings move.
	counter.recipesErr = errors.New("recipes table offline")
	counter.patientChats = 6
	second := service.PatientSnapshot(context.Background(), 7)

	if second.AvailableRecipes != 9 {
		t.Fatalf("expected recipes to hold at 9 during outage, got %d", second.AvailableRecipes)
	}
	if second.TotalChats != 6 {
		t.Fatalf("expected sibling counter to update to 6, got %d", second.TotalChats)
	}
}

func TestDoctorSnapshotCounters(t *testing.T) {
	now := time.Date(2025, 6, 20, 12, 0, 0, 0, time.UTC)
	counter := &stubStatsCounter{
		doctorChats:     8,
		recipesByAuthor: 4,
		posts:           11,
		postsSince:      3,
		experience:      6,
	}
	service := NewStatsService(counter)
	service.now = fixedClock(now)

	stats := service.DoctorSnapshot(context.Background(), 9)
	if stats.ActivePatients != 8 || stats.TotalChats != 8 {
		t.Fatalf("unexpected patient counters: %+v", stats)
	}
	if stats.RecipesShared != 4 || stats.TotalPosts != 11 || stats.YearsExperience != 6 {
		t.Fatalf("unexpected counters: %+v", stats)
	}
	if stats.PostsThisMonth != 3 || stats.RecentActivity != 3 {
		t.Fatalf("unexpected windowed counters: %+v", stats)
	}
}

func TestSnapshotRejectsUnknownRole(t *testing.T) {
	service := NewStatsService(&stubStatsCounter{})
	if _, err := service.Snapshot(context.Background(), 1, "admin"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}
