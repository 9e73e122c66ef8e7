package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/arogyam-app/ArogyamBack/internal/models"
	"github.com/arogyam-app/ArogyamBack/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
)

type stubNotificationService struct {
	page        *services.NotificationPage
	listErr     error
	marked      *models.Notification
	markErr     error
	markedAll   int64
	lastActorID int64
	lastLimit   int64
	lastMarkID  int64
}

func (s *stubNotificationService) List(_ context.Context, actorID int64, limit int) (*services.NotificationPage, error) {
	s.lastActorID = actorID
	s.lastLimit = int64(limit)
	return s.page, s.listErr
}

func (s *stubNotificationService) MarkRead(_ context.Context, actorID, notificationID int64) (*models.Notification, error) {
	s.lastActorID = actorID
	s.lastMarkID = notificationID
	return s.marked, s.markErr
}

func (s *stubNotificationService) MarkAllRead(_ context.Context, actorID int64) (int64, error) {
	s.lastActorID = actorID
	return s.markedAll, nil
}

func newNotificationTestApp(service *stubNotificationService, userID string) (*fiber.App, *NotificationHandler) {
	handler := NewNotificationHandler(service)

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("role", models.RolePatient)
		c.Locals("user_id", userID)
		return c.Next()
	})
	return app, handler
}

func TestListNotificationsReturnsUnreadCount(t *testing.T) {
	service := &stubNotificationService{
		page: &services.NotificationPage{
			Notifications: []models.Notification{
				{ID: 21, UserID: 42, Title: "New Message"},
			},
			UnreadCount: 13,
		},
	}
	app, handler := newNotificationTestApp(service, "42")
	app.Get("/api/v1/notifications", handler.List)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/notifications", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastActorID != 42 {
		t.Fatalf("expected actor 42, got %d", service.lastActorID)
	}

	var body struct {
		Notifications []models.Notification `json:"notifications"`
		UnreadCount   int                   `json:"unread_count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(body.Notifications) != 1 || body.UnreadCount != 13 {
		t.Fatalf("unexpected response: %+v unread=%d", body.Notifications, body.UnreadCount)
	}
}

func TestMarkNotificationReadNotFound(t *testing.T) {
	service := &stubNotificationService{markErr: pgx.ErrNoRows}
	app, handler := newNotificationTestApp(service, "42")
	app.Put("/api/v1/notifications/:id/read", handler.MarkRead)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/notifications/99/read", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestMarkAllNotificationsRead(t *testing.T) {
	service := &stubNotificationService{markedAll: 5}
	app, handler := newNotificationTestApp(service, "42")
	app.Put("/api/v1/notifications/read-all", handler.MarkAllRead)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/notifications/read-all", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		Updated int64 `json:"updated"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if body.Updated != 5 {
		t.Fatalf("expected 5 updated, got %d", body.Updated)
	}
	if service.lastActorID != 42 {
		t.Fatalf("expected actor 42, got %d", service.lastActorID)
	}
}
