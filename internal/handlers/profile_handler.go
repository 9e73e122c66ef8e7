package handlers

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/arogyam-app/ArogyamBack/internal/models"
	"github.com/arogyam-app/ArogyamBack/internal/repository"
	"github.com/arogyam-app/ArogyamBack/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
)

const maxAvatarSizeBytes = 5 * 1024 * 1024

type ProfileHandler struct {
	profileService *services.ProfileService
	storageService services.StorageService
}

func NewProfileHandler(profileService *services.ProfileService, storageService services.StorageService) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
		storageService: storageService,
	}
}

type updatePatientProfileRequest struct {
	Name   *string `json:"name"`
	Age    *int    `json:"age"`
	Gender *string `json:"gender"`
}

type updateDoctorProfileRequest struct {
	Name            *string `json:"name"`
	Specialization  *string `json:"specialization"`
	ExperienceYears *int    `json:"experience_years"`
	Degree          *string `json:"degree"`
	Institution     *string `json:"institution"`
}

func (h *ProfileHandler) GetPatientProfile(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != models.RolePatient {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	userID, ok := parseActorID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	profile, err := h.profileService.GetPatientProfile(c.Context(), userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Profile not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch profile"})
	}

	return c.JSON(fiber.Map{
		"profile":             profile,
		"onboarding_complete": profile.OnboardingComplete,
	})
}

func (h *ProfileHandler) GetDoctorProfile(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != models.RoleDoctor {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	userID, ok := parseActorID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	profile, err := h.profileService.GetDoctorProfile(c.Context(), userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Profile not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch profile"})
	}

	return c.JSON(fiber.Map{
		"profile":             profile,
		"onboarding_complete": profile.OnboardingComplete,
	})
}

func (h *ProfileHandler) UpdatePatientProfile(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != models.RolePatient {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	userID, ok := parseActorID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req updatePatientProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Age != nil && (*req.Age < 1 || *req.Age > 120) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Age must be between 1 and 120"})
	}

	profile, err := h.profileService.UpdatePatientProfile(c.Context(), userID, repository.UpdatePatientProfileInput{
		Name:   req.Name,
		Age:    req.Age,
		Gender: req.Gender,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update profile"})
	}

	return c.JSON(fiber.Map{
		"profile":             profile,
		"onboarding_complete": profile.OnboardingComplete,
	})
}

func (h *ProfileHandler) UpdateDoctorProfile(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != models.RoleDoctor {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	userID, ok := parseActorID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req updateDoctorProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.ExperienceYears != nil && (*req.ExperienceYears < 0 || *req.ExperienceYears > 80) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Experience years must be between 0 and 80"})
	}

	profile, err := h.profileService.UpdateDoctorProfile(c.Context(), userID, repository.UpdateDoctorProfileInput{
		Name:            req.Name,
		Specialization:  req.Specialization,
		ExperienceYears: req.ExperienceYears,
		Degree:          req.Degree,
		Institution:     req.Institution,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update profile"})
	}

	return c.JSON(fiber.Map{
		"profile":             profile,
		"onboarding_complete": profile.OnboardingComplete,
	})
}

// ListDoctors serves the patient-facing directory of onboarded doctors.
func (h *ProfileHandler) ListDoctors(c *fiber.Ctx) error {
	doctors, err := h.profileService.ListDoctors(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list doctors"})
	}

	return c.JSON(fiber.Map{"doctors": doctors})
}

func (h *ProfileHandler) UploadPatientAvatar(c *fiber.Ctx) error {
	return h.uploadAvatar(c, models.RolePatient)
}

func (h *ProfileHandler) UploadDoctorAvatar(c *fiber.Ctx) error {
	return h.uploadAvatar(c, models.RoleDoctor)
}

func (h *ProfileHandler) uploadAvatar(c *fiber.Ctx, expectedRole string) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != expectedRole {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}
	if h.storageService == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Storage service is not configured"})
	}

	userID, ok := parseActorID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "avatar file is required"})
	}
	if fileHeader.Size <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "avatar file is empty"})
	}
	if fileHeader.Size > maxAvatarSizeBytes {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "avatar file exceeds 5MB limit"})
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp":
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "avatar must be a jpg, jpeg, png, or webp file"})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to open avatar file"})
	}
	defer file.Close()

	folder, objectName := services.AvatarPath(userID, fileHeader.Filename)
	avatarURL, err := h.storageService.UploadFile(c.Context(), file, objectName, folder)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to upload avatar"})
	}

	var profile any
	if expectedRole == models.RolePatient {
		currentProfile, err := h.profileService.GetPatientProfile(c.Context(), userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch profile"})
		}
		if currentProfile.ProfilePicURL != nil && *currentProfile.ProfilePicURL != "" && *currentProfile.ProfilePicURL != avatarURL {
			_ = h.storageService.DeleteFile(c.Context(), *currentProfile.ProfilePicURL)
		}
		profile, err = h.profileService.UpdatePatientProfile(c.Context(), userID, repository.UpdatePatientProfileInput{
			ProfilePicURL: &avatarURL,
		})
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update profile"})
		}
	} else {
		currentProfile, err := h.profileService.GetDoctorProfile(c.Context(), userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch profile"})
		}
		if currentProfile.ProfilePicURL != nil && *currentProfile.ProfilePicURL != "" && *currentProfile.ProfilePicURL != avatarURL {
			_ = h.storageService.DeleteFile(c.Context(), *currentProfile.ProfilePicURL)
		}
		profile, err = h.profileService.UpdateDoctorProfile(c.Context(), userID, repository.UpdateDoctorProfileInput{
			ProfilePicURL: &avatarURL,
		})
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update profile"})
		}
	}

	return c.JSON(fiber.Map{
		"avatar_url": avatarURL,
		"profile":    profile,
	})
}
