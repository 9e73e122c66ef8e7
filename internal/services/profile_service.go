package services

import (
	"context"

	"github.com/arogyam-app/ArogyamBack/internal/models"
	"github.com/arogyam-app/ArogyamBack/internal/repository"
)

type PatientProfileStore interface {
	GetByUserID(ctx context.Context, userID int64) (*models.PatientProfile, error)
	UpdatePartial(ctx context.Context, userID int64, input repository.UpdatePatientProfileInput) (*models.PatientProfile, error)
}

type DoctorProfileStore interface {
	GetByUserID(ctx context.Context, userID int64) (*models.DoctorProfile, error)
	UpdatePartial(ctx context.Context, userID int64, input repository.UpdateDoctorProfileInput) (*models.DoctorProfile, error)
	ListDirectory(ctx context.Context) ([]models.DoctorListing, error)
}

// ProfileService wraps the two profile repositories. Partial updates
// flip onboarding_complete, which is what gates a doctor's appearance
// in the patient-facing directory.
type ProfileService struct {
	patientRepo PatientProfileStore
	doctorRepo  DoctorProfileStore
}

func NewProfileService(patientRepo PatientProfileStore, doctorRepo DoctorProfileStore) *ProfileService {
	return &ProfileService{patientRepo: patientRepo, doctorRepo: doctorRepo}
}

func (s *ProfileService) GetPatientProfile(ctx context.Context, userID int64) (*models.PatientProfile, error) {
	return s.patientRepo.GetByUserID(ctx, userID)
}

func (s *ProfileService) GetDoctorProfile(ctx context.Context, userID int64) (*models.DoctorProfile, error) {
	return s.doctorRepo.GetByUserID(ctx, userID)
}

func (s *ProfileService) UpdatePatientProfile(
	ctx context.Context,
	userID int64,
	input repository.UpdatePatientProfileInput,
) (*models.PatientProfile, error) {
	return s.patientRepo.UpdatePartial(ctx, userID, input)
}

func (s *ProfileService) UpdateDoctorProfile(
	ctx context.Context,
	userID int64,
	input repository.UpdateDoctorProfileInput,
) (*models.DoctorProfile, error) {
	return s.doctorRepo.UpdatePartial(ctx, userID, input)
}

// ListDoctors returns the onboarded doctor directory patients browse
// before starting a conversation.
func (s *ProfileService) ListDoctors(ctx context.Context) ([]models.DoctorListing, error) {
	return s.doctorRepo.ListDirectory(ctx)
}
