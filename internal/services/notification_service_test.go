package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/arogyam-app/ArogyamBack/internal/models"
	"github.com/arogyam-app/ArogyamBack/internal/realtime"
	"github.com/arogyam-app/ArogyamBack/internal/repository"
)

type stubNotificationStore struct {
	created     []repository.CreateNotificationInput
	list        []models.Notification
	unread      int
	marked      *models.Notification
	markedAll   int64
	markAllFrom int64
}

func (s *stubNotificationStore) Create(_ context.Context, input repository.CreateNotificationInput) (*models.Notification, error) {
	s.created = append(s.created, input)
	return &models.Notification{ID: int64(len(s.created)), UserID: input.UserID, Title: input.Title}, nil
}

func (s *stubNotificationStore) ListForUser(_ context.Context, _ int64, limit int) ([]models.Notification, error) {
	if limit < len(s.list) {
		return s.list[:limit], nil
	}
	return s.list, nil
}

func (s *stubNotificationStore) CountUnread(_ context.Context, _ int64) (int, error) {
	return s.unread, nil
}

func (s *stubNotificationStore) MarkRead(_ context.Context, notificationID, userID int64) (*models.Notification, error) {
	if s.marked == nil {
		return nil, errors.New("no such notification")
	}
	if s.marked.ID != notificationID || s.marked.UserID != userID {
		return nil, errors.New("no such notification")
	}
	return s.marked, nil
}

func (s *stubNotificationStore) MarkAllRead(_ context.Context, userID int64) (int64, error) {
	s.markAllFrom = userID
	return s.markedAll, nil
}

func TestNotificationListReportsExactUnreadBeyondPage(t *testing.T) {
	store := &stubNotificationStore{
		list: []models.Notification{
			{ID: 30, UserID: 7}, {ID: 29, UserID: 7}, {ID: 28, UserID: 7},
		},
		unread: 25,
	}
	service := NewNotificationService(store, realtime.NewDispatcher())

	page, err := service.List(context.Background(), 7, 3)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if got := len(page.Notifications); got != 3 {
		t.Fatalf("expected 3 notifications, got %d", got)
	}
	if page.UnreadCount != 25 {
		t.Fatalf("expected unread 25, got %d", page.UnreadCount)
	}
}

func TestNotificationListDefaultsLimit(t *testing.T) {
	store := &stubNotificationStore{list: make([]models.Notification, 15)}
	service := NewNotificationService(store, realtime.NewDispatcher())

	page, err := service.List(context.Background(), 7, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if got := len(page.Notifications); got != DefaultNotificationLimit {
		t.Fatalf("expected %d notifications, got %d", DefaultNotificationLimit, got)
	}
}

func TestNotificationCreateValidatesAndPublishes(t *testing.T) {
	store := &stubNotificationStore{}
	events := realtime.NewDispatcher()
	service := NewNotificationService(store, events)

	delivered := make(chan models.Notification, 1)
	sub := events.Subscribe(realtime.TopicNotifications, NotificationsFilter(7), func(event realtime.Event) {
		delivered <- event.Record.(models.Notification)
	})
	defer sub.Close()

	if _, err := service.Create(context.Background(), repository.CreateNotificationInput{UserID: 0, Title: "x"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for missing user, got %v", err)
	}
	if len(store.created) != 0 {
		t.Fatalf("invalid input must not reach the store")
	}

	if _, err := service.Create(context.Background(), repository.CreateNotificationInput{
		UserID:   7,
		UserRole: models.RolePatient,
		Title:    "New Message",
		Category: models.NotificationMessage,
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got := <-delivered
	if got.UserID != 7 || got.Title != "New Message" {
		t.Fatalf("unexpected published notification: %+v", got)
	}
}

func TestNotificationMarkAllReadScopedToActor(t *testing.T) {
	store := &stubNotificationStore{markedAll: 4}
	service := NewNotificationService(store, realtime.NewDispatcher())

	updated, err := service.MarkAllRead(context.Background(), 7)
	if err != nil {
		t.Fatalf("MarkAllRead: %v", err)
	}
	if updated != 4 {
		t.Fatalf("expected 4 rows, got %d", updated)
	}
	if store.markAllFrom != 7 {
		t.Fatalf("expected store call scoped to user 7, got %d", store.markAllFrom)
	}
}

func TestNotificationMarkAllReadZeroesLiveFeeds(t *testing.T) {
	store := &stubNotificationStore{markedAll: 25}
	events := realtime.NewDispatcher()
	service := NewNotificationService(store, events)

	// A feed holding a bounded page with many more unread rows behind it.
	feed := realtime.NewFeed(7)
	feed.Reset([]models.Notification{
		{ID: 30, UserID: 7}, {ID: 29, UserID: 7},
	}, 25)

	cleared := make(chan struct{}, 1)
	sub := events.Subscribe(realtime.TopicNotifications, NotificationsFilter(7), func(event realtime.Event) {
		if _, ok := event.Record.(models.NotificationsCleared); ok {
			feed.MarkAllRead()
			cleared <- struct{}{}
		}
	})
	defer sub.Close()

	if _, err := service.MarkAllRead(context.Background(), 7); err != nil {
		t.Fatalf("MarkAllRead: %v", err)
	}

	select {
	case <-cleared:
	case <-time.After(time.Second):
		t.Fatalf("expected a cleared marker on the notifications topic")
	}
	if got := feed.UnreadCount(); got != 0 {
		t.Fatalf("expected live feed unread to drop to 0, got %d", got)
	}
}

func TestNotificationsFilterSkipsOtherUsersClearedMarker(t *testing.T) {
	filter := NotificationsFilter(7)

	if !filter(realtime.Event{Record: models.NotificationsCleared{UserID: 7}}) {
		t.Fatalf("expected filter to match the owner's cleared marker")
	}
	if filter(realtime.Event{Record: models.NotificationsCleared{UserID: 8}}) {
		t.Fatalf("expected filter to skip another user's cleared marker")
	}
}
