package services

import (
	"context"
	"strings"

	"github.com/arogyam-app/ArogyamBack/internal/models"
	"github.com/arogyam-app/ArogyamBack/internal/realtime"
)

const DefaultPostFeedLimit = 20

type postStore interface {
	Create(ctx context.Context, doctorID int64, title, body string) (*models.DoctorPost, error)
	ListRecent(ctx context.Context, limit int) ([]models.DoctorPost, error)
}

// PostService handles the doctor community feed. Inserts are published
// on the posts topic, which also feeds the dashboard aggregator.
type PostService struct {
	repo   postStore
	events *realtime.Dispatcher
}

func NewPostService(repo postStore, events *realtime.Dispatcher) *PostService {
	return &PostService{repo: repo, events: events}
}

func (s *PostService) Create(ctx context.Context, actorID int64, role, title, body string) (*models.DoctorPost, error) {
	if role != models.RoleDoctor {
		return nil, ErrForbidden
	}

	title = strings.TrimSpace(title)
	body = strings.TrimSpace(body)
	if title == "" || body == "" {
		return nil, ErrInvalidInput
	}

	post, err := s.repo.Create(ctx, actorID, title, body)
	if err != nil {
		return nil, err
	}

	s.events.Publish(realtime.Event{
		Topic:  realtime.TopicPosts,
		Op:     realtime.OpInsert,
		Record: *post,
	})

	return post, nil
}

func (s *PostService) ListRecent(ctx context.Context, limit int) ([]models.DoctorPost, error) {
	if limit <= 0 {
		limit = DefaultPostFeedLimit
	}
	return s.repo.ListRecent(ctx, limit)
}
