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
)

type stubStatsService struct {
	snapshot   any
	err        error
	lastUserID int64
	lastRole   string
}

func (s *stubStatsService) Snapshot(_ context.Context, userID int64, role string) (any, error) {
	s.lastUserID = userID
	s.lastRole = role
	return s.snapshot, s.err
}

func TestDashboardReturnsPatientStats(t *testing.T) {
	service := &stubStatsService{
		snapshot: models.PatientStats{
			DaysActive:    4,
			WellnessScore: 29,
			DoshaBalance:  "Pitta",
		},
	}
	handler := NewStatsHandler(service)

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("role", models.RolePatient)
		c.Locals("user_id", "42")
		return c.Next()
	})
	app.Get("/api/v1/stats/dashboard", handler.Dashboard)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stats/dashboard", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastUserID != 42 || service.lastRole != models.RolePatient {
		t.Fatalf("unexpected forwarded context: %d %q", service.lastUserID, service.lastRole)
	}

	var body struct {
		Stats models.PatientStats `json:"stats"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if body.Stats.WellnessScore != 29 || body.Stats.DoshaBalance != "Pitta" {
		t.Fatalf("unexpected stats: %+v", body.Stats)
	}
}

func TestDashboardRejectsUnknownRole(t *testing.T) {
	service := &stubStatsService{err: services.ErrForbidden}
	handler := NewStatsHandler(service)

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("role", "admin")
		c.Locals("user_id", "42")
		return c.Next()
	})
	app.Get("/api/v1/stats/dashboard", handler.Dashboard)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stats/dashboard", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}
