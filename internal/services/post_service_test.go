package services

import (
	"context"
	"errors"
	"testing"

	"github.com/arogyam-app/ArogyamBack/internal/models"
	"github.com/arogyam-app/ArogyamBack/internal/realtime"
)

type stubPostStore struct {
	created []models.DoctorPost
}

func (s *stubPostStore) Create(_ context.Context, doctorID int64, title, body string) (*models.DoctorPost, error) {
	post := models.DoctorPost{ID: int64(len(s.created) + 1), DoctorID: doctorID, Title: title, Body: body}
	s.created = append(s.created, post)
	return &post, nil
}

func (s *stubPostStore) ListRecent(_ context.Context, limit int) ([]models.DoctorPost, error) {
	if limit < len(s.created) {
		return s.created[:limit], nil
	}
	return s.created, nil
}

func TestCreatePostDoctorOnly(t *testing.T) {
	store := &stubPostStore{}
	service := NewPostService(store, realtime.NewDispatcher())

	if _, err := service.Create(context.Background(), 5, models.RolePatient, "title", "body"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for patient author, got %v", err)
	}
	if len(store.created) != 0 {
		t.Fatalf("forbidden create must not reach the store")
	}
}

func TestCreatePostTrimsAndPublishes(t *testing.T) {
	store := &stubPostStore{}
	events := realtime.NewDispatcher()
	service := NewPostService(store, events)

	delivered := make(chan models.DoctorPost, 1)
	sub := events.Subscribe(realtime.TopicPosts, nil, func(event realtime.Event) {
		delivered <- event.Record.(models.DoctorPost)
	})
	defer sub.Close()

	if _, err := service.Create(context.Background(), 9, models.RoleDoctor, "  ", "body"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for blank title, got %v", err)
	}

	post, err := service.Create(context.Background(), 9, models.RoleDoctor, "  Seasonal eating  ", "Favor warm meals in winter.")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if post.Title != "Seasonal eating" {
		t.Fatalf("expected trimmed title, got %q", post.Title)
	}

	got := <-delivered
	if got.ID != post.ID || got.DoctorID != 9 {
		t.Fatalf("unexpected published post: %+v", got)
	}
}
