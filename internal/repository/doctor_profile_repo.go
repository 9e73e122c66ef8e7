package repository

import (
	"context"

	"github.com/arogyam-app/ArogyamBack/internal/models"
)

type DoctorProfileRepository struct {
	db DBTX
}

func NewDoctorProfileRepository(db DBTX) *DoctorProfileRepository {
	return &DoctorProfileRepository{db: db}
}

func (r *DoctorProfileRepository) CreateEmpty(ctx context.Context, userID int64) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO doctor_profiles (user_id) VALUES ($1)
	`, userID)
	return err
}

func (r *DoctorProfileRepository) GetByUserID(ctx context.Context, userID int64) (*models.DoctorProfile, error) {
	query := `
		SELECT user_id, name, specialization, experience_years, degree,
		       institution, profile_pic_url, onboarding_complete,
		       created_at, updated_at
		FROM doctor_profiles
		WHERE user_id = $1
	`

	var profile models.DoctorProfile
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&profile.UserID,
		&profile.Name,
		&profile.Specialization,
		&profile.ExperienceYears,
		&profile.Degree,
		&profile.Institution,
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

// ListDirectory returns every onboarded doctor for the patient-facing
// directory, ordered by name.
func (r *DoctorProfileRepository) ListDirectory(ctx context.Context) ([]models.DoctorListing, error) {
	query := `
		SELECT user_id, name, specialization, experience_years, degree,
		       institution, profile_pic_url
		FROM doctor_profiles
		WHERE onboarding_complete = TRUE
		ORDER BY name ASC NULLS LAST, user_id ASC
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	listings := make([]models.DoctorListing, 0)
	for rows.Next() {
		var listing models.DoctorListing
		if err := rows.Scan(
			&listing.UserID,
			&listing.Name,
			&listing.Specialization,
			&listing.ExperienceYears,
			&listing.Degree,
			&listing.Institution,
			&listing.ProfilePicURL,
		); err != nil {
			return nil, err
		}
		listings = append(listings, listing)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return listings, nil
}

type UpdateDoctorProfileInput struct {
	Name            *string
	Specialization  *string
	ExperienceYears *int
	Degree          *string
	Institution     *string
	ProfilePicURL   *string
}

func (r *DoctorProfileRepository) UpdatePartial(
	ctx context.Context,
	userID int64,
	input UpdateDoctorProfileInput,
) (*models.DoctorProfile, error) {
	query := `
		UPDATE doctor_profiles
		SET name = COALESCE($2, name),
		    specialization = COALESCE($3, specialization),
		    experience_years = COALESCE($4, experience_years),
		    degree = COALESCE($5, degree),
		    institution = COALESCE($6, institution),
		    profile_pic_url = COALESCE($7, profile_pic_url),
		    onboarding_complete = TRUE,
		    updated_at = NOW()
		WHERE user_id = $1
		RETURNING user_id, name, specialization, experience_years, degree,
		          institution, profile_pic_url, onboarding_complete,
		          created_at, updated_at
	`

	var profile models.DoctorProfile
	err := r.db.QueryRow(ctx, query,
		userID,
		input.Name,
		input.Specialization,
		input.ExperienceYears,
		input.Degree,
		input.Institution,
		input.ProfilePicURL,
	).Scan(
		&profile.UserID,
		&profile.Name,
		&profile.Specialization,
		&profile.ExperienceYears,
		&profile.Degree,
		&profile.Institution,
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
