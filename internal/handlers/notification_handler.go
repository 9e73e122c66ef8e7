package handlers

import (
	"context"
	"errors"
	"strconv"

	"github.com/arogyam-app/ArogyamBack/internal/models"
	"github.com/arogyam-app/ArogyamBack/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
)

type notificationApplicationService interface {
	List(ctx context.Context, actorID int64, limit int) (*services.NotificationPage, error)
	MarkRead(ctx context.Context, actorID, notificationID int64) (*models.Notification, error)
	MarkAllRead(ctx context.Context, actorID int64) (int64, error)
}

type NotificationHandler struct {
	service notificationApplicationService
}

func NewNotificationHandler(service notificationApplicationService) *NotificationHandler {
	return &NotificationHandler{service: service}
}

func (h *NotificationHandler) List(c *fiber.Ctx) error {
	userID, ok := parseActorID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	limit := parsePositiveInt(c.Query("limit"), services.DefaultNotificationLimit)
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	page, err := h.service.List(c.Context(), userID, limit)
	if err != nil {
		return mapNotificationError(c, err)
	}

	return c.JSON(fiber.Map{
		"notifications": page.Notifications,
		"unread_count":  page.UnreadCount,
	})
}

func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	userID, ok := parseActorID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	notificationID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || notificationID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid notification id"})
	}

	notification, err := h.service.MarkRead(c.Context(), userID, notificationID)
	if err != nil {
		return mapNotificationError(c, err)
	}

	return c.JSON(fiber.Map{"notification": notification})
}

func (h *NotificationHandler) MarkAllRead(c *fiber.Ctx) error {
	userID, ok := parseActorID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	updated, err := h.service.MarkAllRead(c.Context(), userID)
	if err != nil {
		return mapNotificationError(c, err)
	}

	return c.JSON(fiber.Map{"updated": updated})
}

func mapNotificationError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
	case errors.Is(err, pgx.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Notification not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process notification request"})
	}
}
