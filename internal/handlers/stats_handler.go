package handlers

import (
	"context"
	"errors"

	"github.com/arogyam-app/ArogyamBack/internal/services"
	"github.com/gofiber/fiber/v2"
)

type statsApplicationService interface {
	Snapshot(ctx context.Context, userID int64, role string) (any, error)
}

type StatsHandler struct {
	service statsApplicationService
}

func NewStatsHandler(service statsApplicationService) *StatsHandler {
	return &StatsHandler{service: service}
}

// Dashboard returns the role-appropriate counters for the actor.
func (h *StatsHandler) Dashboard(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	userID, ok := parseActorID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	snapshot, err := h.service.Snapshot(c.Context(), userID, role)
	if err != nil {
		if errors.Is(err, services.ErrForbidden) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to build dashboard"})
	}

	return c.JSON(fiber.Map{"stats": snapshot})
}
