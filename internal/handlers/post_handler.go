package handlers

import (
	"context"
	"errors"

	"github.com/arogyam-app/ArogyamBack/internal/models"
	"github.com/arogyam-app/ArogyamBack/internal/services"
	"github.com/gofiber/fiber/v2"
)

type postApplicationService interface {
	Create(ctx context.Context, actorID int64, role, title, body string) (*models.DoctorPost, error)
	ListRecent(ctx context.Context, limit int) ([]models.DoctorPost, error)
}

type PostHandler struct {
	service postApplicationService
}

func NewPostHandler(service postApplicationService) *PostHandler {
	return &PostHandler{service: service}
}

type createPostRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

func (h *PostHandler) Create(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != models.RoleDoctor {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	userID, ok := parseActorID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req createPostRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	post, err := h.service.Create(c.Context(), userID, role, req.Title, req.Body)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrForbidden):
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
		case errors.Is(err, services.ErrInvalidInput):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Title and body are required"})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create post"})
		}
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"post": post})
}

func (h *PostHandler) ListRecent(c *fiber.Ctx) error {
	limit := parsePositiveInt(c.Query("limit"), services.DefaultPostFeedLimit)
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	posts, err := h.service.ListRecent(c.Context(), limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list posts"})
	}

	return c.JSON(fiber.Map{"posts": posts})
}
