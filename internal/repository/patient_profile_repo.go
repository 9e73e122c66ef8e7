package repository

import (
	"context"

	"github.com/arogyam-app/ArogyamBack/internal/models"
)

type PatientProfileRepository struct {
	db DBTX
}

func NewPatientProfileRepository(db DBTX) *PatientProfileRepository {
	return &PatientProfileRepository{db: db}
}

func (r *PatientProfileRepository) CreateEmpty(ctx context.Context, userID int64) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO patient_profiles (user_id) VALUES ($1)
	`, userID)
	return err
}

func (r *PatientProfileRepository) GetByUserID(ctx context.Context, userID int64) (*models.PatientProfile, error) {
	query := `
		SELECT user_id, name, age, gender, profile_pic_url,
		       onboarding_complete, created_at, updated_at
		FROM patient_profiles
		WHERE user_id = $1
	`

	var profile models.PatientProfile
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&profile.UserID,
		&profile.Name,
		&profile.Age,
		&profile.Gender,
		&profile.ProfilePicURL,
		&profile.OnboardingComplete,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &profile, nil
}

type UpdatePatientProfileInput struct {
	Name          *string
	Age           *int
	Gender        *string
	ProfilePicURL *string
}

// UpdatePartial overwrites only the fields present in the input.
func (r *PatientProfileRepository) UpdatePartial(
	ctx context.Context,
	userID int64,
	input UpdatePatientProfileInput,
) (*models.PatientProfile, error) {
	query := `
		UPDATE patient_profiles
		SET name = COALESCE($2, name),
		    age = COALESCE($3, age),
		    gender = COALESCE($4, gender),
		    profile_pic_url = COALESCE($5, profile_pic_url),
		    onboarding_complete = TRUE,
		    updated_at = NOW()
		WHERE user_id = $1
		RETURNING user_id, name, age, gender, profile_pic_url,
		          onboarding_complete, created_at, updated_at
	`

	var profile models.PatientProfile
	err := r.db.QueryRow(ctx, query,
		userID,
		input.Name,
		input.Age,
		input.Gender,
		input.ProfilePicURL,
	).Scan(
		&profile.UserID,
		&profile.Name,
		&profile.Age,
		&profile.Gender,
		&profile.ProfilePicURL,
		&profile.OnboardingComplete,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &profile, nil
}
