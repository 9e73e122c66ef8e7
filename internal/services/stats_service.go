package services

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/arogyam-app/ArogyamBack/internal/models"
	"github.com/arogyam-app/ArogyamBack/internal/realtime"
)

type statsCounter interface {
	JoinedAt(ctx context.Context, userID int64) (time.Time, error)
	CountConversationsForPatient(ctx context.Context, patientID int64) (int, error)
	CountConversationsForDoctor(ctx context.Context, doctorID int64) (int, error)
	CountRecipes(ctx context.Context) (int, error)
	CountRecipesByAuthor(ctx context.Context, authorID int64) (int, error)
	CountCompletedModules(ctx context.Context, patientID int64) (int, error)
	CountPostsByDoctor(ctx context.Context, doctorID int64) (int, error)
	CountPostsByDoctorSince(ctx context.Context, doctorID int64, since time.Time) (int, error)
	LastDietChartAt(ctx context.Context, patientID int64) (*time.Time, error)
	DoctorExperienceYears(ctx context.Context, doctorID int64) (int, error)
}

// StatsTopics is the set of change topics that invalidate dashboard
// counters. The aggregator listens broadly rather than per-row because
// the counters depend on whole tables.
var StatsTopics = []string{
	realtime.TopicMessages,
	realtime.TopicPosts,
	realtime.TopicProgress,
	realtime.TopicRecipes,
}

// StatsService recomputes dashboard counters from aggregate queries.
// Every counter is computed independently: a failing query logs, keeps
// the counter's last known value and never blocks its siblings, so one
// broken table degrades a single number instead of the dashboard.
type StatsService struct {
	repo statsCounter
	now  func() time.Time

	mu           sync.Mutex
	patientCache map[int64]models.PatientStats
	doctorCache  map[int64]models.DoctorStats
}

func NewStatsService(repo statsCounter) *StatsService {
	return &StatsService{
		repo:         repo,
		now:          time.Now,
		patientCache: make(map[int64]models.PatientStats),
		doctorCache:  make(map[int64]models.DoctorStats),
	}
}

func (s *StatsService) counter(name string, userID int64, prev int, value int, err error) int {
	if err != nil {
		log.Printf("stats: %s for user %d: %v", name, userID, err)
		return prev
	}
	return value
}

// PatientSnapshot recomputes every patient counter.
func (s *StatsService) PatientSnapshot(ctx context.Context, patientID int64) models.PatientStats {
	s.mu.Lock()
	prev := s.patientCache[patientID]
	s.mu.Unlock()

	stats := prev

	if joined, err := s.repo.JoinedAt(ctx, patientID); err != nil {
		log.Printf("stats: joined at for user %d: %v", patientID, err)
	} else {
		stats.DaysActive = int(s.now().Sub(joined).Hours() / 24)
		if stats.DaysActive < 0 {
			stats.DaysActive = 0
		}
	}

	recipes, err := s.repo.CountRecipes(ctx)
	stats.AvailableRecipes = s.counter("available recipes", patientID, prev.AvailableRecipes, recipes, err)

	chats, err := s.repo.CountConversationsForPatient(ctx, patientID)
	stats.TotalChats = s.counter("total chats", patientID, prev.TotalChats, chats, err)

	modules, err := s.repo.CountCompletedModules(ctx, patientID)
	stats.CompletedModules = s.counter("completed modules", patientID, prev.CompletedModules, modules, err)

	if lastChart, err := s.repo.LastDietChartAt(ctx, patientID); err != nil {
		log.Printf("stats: last diet chart for user %d: %v", patientID, err)
	} else {
		stats.LastDietChart = lastChart
	}

	stats.WellnessScore = clampScore(stats.DaysActive*2 + stats.CompletedModules*5 + stats.TotalChats*3)
	stats.DoshaBalance = doshaForDay(stats.DaysActive)

	s.mu.Lock()
	s.patientCache[patientID] = stats
	s.mu.Unlock()

	return stats
}

// DoctorSnapshot recomputes every doctor counter.
func (s *StatsService) DoctorSnapshot(ctx context.Context, doctorID int64) models.DoctorStats {
	s.mu.Lock()
	prev := s.doctorCache[doctorID]
	s.mu.Unlock()

	stats := prev
	now := s.now()

	// A doctor has at most one conversation per patient, so the patient
	// and chat counters intentionally read the same count.
	patients, err := s.repo.CountConversationsForDoctor(ctx, doctorID)
	stats.ActivePatients = s.counter("active patients", doctorID, prev.ActivePatients, patients, err)
	stats.TotalChats = s.counter("total chats", doctorID, prev.TotalChats, patients, err)

	recipes, err := s.repo.CountRecipesByAuthor(ctx, doctorID)
	stats.RecipesShared = s.counter("recipes shared", doctorID, prev.RecipesShared, recipes, err)

	startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	monthPosts, err := s.repo.CountPostsByDoctorSince(ctx, doctorID, startOfMonth)
	stats.PostsThisMonth = s.counter("posts this month", doctorID, prev.PostsThisMonth, monthPosts, err)

	totalPosts, err := s.repo.CountPostsByDoctor(ctx, doctorID)
	stats.TotalPosts = s.counter("total posts", doctorID, prev.TotalPosts, totalPosts, err)

	recent, err := s.repo.CountPostsByDoctorSince(ctx, doctorID, now.AddDate(0, 0, -7))
	stats.RecentActivity = s.counter("recent activity", doctorID, prev.RecentActivity, recent, err)

	years, err := s.repo.DoctorExperienceYears(ctx, doctorID)
	stats.YearsExperience = s.counter("experience years", doctorID, prev.YearsExperience, years, err)

	s.mu.Lock()
	s.doctorCache[doctorID] = stats
	s.mu.Unlock()

	return stats
}

// Snapshot recomputes the dashboard for one user by role.
func (s *StatsService) Snapshot(ctx context.Context, userID int64, role string) (any, error) {
	switch role {
	case models.RolePatient:
		return s.PatientSnapshot(ctx, userID), nil
	case models.RoleDoctor:
		return s.DoctorSnapshot(ctx, userID), nil
	default:
		return nil, ErrForbidden
	}
}

// Watch opens one broad subscription per stats topic and recomputes the
// user's whole snapshot on any event. The caller owns the returned
// subscriptions and must close them on teardown.
func (s *StatsService) Watch(
	events *realtime.Dispatcher,
	userID int64,
	role string,
	onSnapshot func(any),
) []*realtime.Subscription {
	subs := make([]*realtime.Subscription, 0, len(StatsTopics))
	for _, topic := range StatsTopics {
		subs = append(subs, events.Subscribe(topic, nil, func(realtime.Event) {
			snapshot, err := s.Snapshot(context.Background(), userID, role)
			if err != nil {
				return
			}
			onSnapshot(snapshot)
		}))
	}
	return subs
}

// clampScore keeps derived scores inside [0, 100] whatever the inputs.
func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

var doshas = [...]string{"Vata", "Pitta", "Kapha"}

func doshaForDay(daysActive int) string {
	if daysActive < 0 {
		daysActive = 0
	}
	return doshas[daysActive%3]
}
