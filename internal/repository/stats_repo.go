package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
)

// StatsRepository holds the aggregate count queries behind the dashboard
// metrics. Each method is one cheap COUNT or lookup so a failing counter
// can be isolated without touching its siblings.
type StatsRepository struct {
	db DBTX
}

func NewStatsRepository(db DBTX) *StatsRepository {
	return &StatsRepository{db: db}
}

func (r *StatsRepository) count(ctx context.Context, query string, args ...any) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, query, args...).Scan(&count)
	return count, err
}

func (r *StatsRepository) JoinedAt(ctx context.Context, userID int64) (time.Time, error) {
	var joined time.Time
	err := r.db.QueryRow(ctx, `
		SELECT created_at FROM users WHERE id = $1
	`, userID).Scan(&joined)
	return joined, err
}

func (r *StatsRepository) CountConversationsForPatient(ctx context.Context, patientID int64) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM conversations WHERE patient_id = $1`, patientID)
}

func (r *StatsRepository) CountConversationsForDoctor(ctx context.Context, doctorID int64) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM conversations WHERE doctor_id = $1`, doctorID)
}

func (r *StatsRepository) CountRecipes(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM recipes`)
}

func (r *StatsRepository) CountRecipesByAuthor(ctx context.Context, authorID int64) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM recipes WHERE author_id = $1`, authorID)
}

func (r *StatsRepository) CountCompletedModules(ctx context.Context, patientID int64) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM gyan_progress WHERE patient_id = $1`, patientID)
}

func (r *StatsRepository) CountPostsByDoctor(ctx context.Context, doctorID int64) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM doctor_posts WHERE doctor_id = $1`, doctorID)
}

func (r *StatsRepository) CountPostsByDoctorSince(ctx context.Context, doctorID int64, since time.Time) (int, error) {
	return r.count(ctx, `
		SELECT COUNT(*) FROM doctor_posts
		WHERE doctor_id = $1 AND created_at >= $2
	`, doctorID, since)
}

// LastDietChartAt returns nil when the patient has no diet chart yet.
func (r *StatsRepository) LastDietChartAt(ctx context.Context, patientID int64) (*time.Time, error) {
	var at time.Time
	err := r.db.QueryRow(ctx, `
		SELECT created_at FROM diet_charts
		WHERE patient_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, patientID).Scan(&at)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &at, nil
}

func (r *StatsRepository) DoctorExperienceYears(ctx context.Context, doctorID int64) (int, error) {
	var years *int
	err := r.db.QueryRow(ctx, `
		SELECT experience_years FROM doctor_profiles WHERE user_id = $1
	`, doctorID).Scan(&years)
	if err != nil {
		return 0, err
	}
	if years == nil {
		return 0, nil
	}
	return *years, nil
}
