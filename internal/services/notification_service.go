package services

import (
	"context"

	"github.com/arogyam-app/ArogyamBack/internal/models"
	"github.com/arogyam-app/ArogyamBack/internal/realtime"
	"github.com/arogyam-app/ArogyamBack/internal/repository"
)

const DefaultNotificationLimit = 10

type notificationStore interface {
	Create(ctx context.Context, input repository.CreateNotificationInput) (*models.Notification, error)
	ListForUser(ctx context.Context, userID int64, limit int) ([]models.Notification, error)
	CountUnread(ctx context.Context, userID int64) (int, error)
	MarkRead(ctx context.Context, notificationID, userID int64) (*models.Notification, error)
	MarkAllRead(ctx context.Context, userID int64) (int64, error)
}

// NotificationService persists notifications and republishes them on the
// notifications topic for live delivery.
type NotificationService struct {
	repo   notificationStore
	events *realtime.Dispatcher
}

func NewNotificationService(repo notificationStore, events *realtime.Dispatcher) *NotificationService {
	return &NotificationService{repo: repo, events: events}
}

func (s *NotificationService) Create(ctx context.Context, input repository.CreateNotificationInput) (*models.Notification, error) {
	if input.UserID <= 0 || input.Title == "" {
		return nil, ErrInvalidInput
	}

	notification, err := s.repo.Create(ctx, input)
	if err != nil {
		return nil, err
	}

	s.events.Publish(realtime.Event{
		Topic:  realtime.TopicNotifications,
		Op:     realtime.OpInsert,
		Record: *notification,
	})

	return notification, nil
}

type NotificationPage struct {
	Notifications []models.Notification
	UnreadCount   int
}

// List returns the newest page of the actor's notifications plus an
// exact server-side unread count. The page is bounded, so a page-local
// unread count would under-report; the COUNT query costs one index scan
// and avoids that.
func (s *NotificationService) List(ctx context.Context, actorID int64, limit int) (*NotificationPage, error) {
	if actorID <= 0 {
		return nil, ErrInvalidInput
	}
	if limit <= 0 {
		limit = DefaultNotificationLimit
	}

	notifications, err := s.repo.ListForUser(ctx, actorID, limit)
	if err != nil {
		return nil, err
	}

	unread, err := s.repo.CountUnread(ctx, actorID)
	if err != nil {
		return nil, err
	}

	return &NotificationPage{Notifications: notifications, UnreadCount: unread}, nil
}

// MarkRead flips one of the actor's notifications and republishes the
// updated row. The repository scopes the update by owner, so the call
// cannot touch another user's record.
func (s *NotificationService) MarkRead(ctx context.Context, actorID, notificationID int64) (*models.Notification, error) {
	if actorID <= 0 || notificationID <= 0 {
		return nil, ErrInvalidInput
	}

	notification, err := s.repo.MarkRead(ctx, notificationID, actorID)
	if err != nil {
		return nil, err
	}

	s.events.Publish(realtime.Event{
		Topic:  realtime.TopicNotifications,
		Op:     realtime.OpUpdate,
		Record: *notification,
	})

	return notification, nil
}

// MarkAllRead flips every unread notification of the actor in one
// statement, then publishes a single cleared marker so live feeds zero
// their counters. One marker, not one event per row: the flip reaches
// rows no feed page ever held.
func (s *NotificationService) MarkAllRead(ctx context.Context, actorID int64) (int64, error) {
	if actorID <= 0 {
		return 0, ErrInvalidInput
	}

	updated, err := s.repo.MarkAllRead(ctx, actorID)
	if err != nil {
		return 0, err
	}

	s.events.Publish(realtime.Event{
		Topic:  realtime.TopicNotifications,
		Op:     realtime.OpUpdate,
		Record: models.NotificationsCleared{UserID: actorID},
	})

	return updated, nil
}
