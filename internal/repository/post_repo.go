package repository

import (
	"context"

	"github.com/arogyam-app/ArogyamBack/internal/models"
)

type PostRepository struct {
	db DBTX
}

func NewPostRepository(db DBTX) *PostRepository {
	return &PostRepository{db: db}
}

func (r *PostRepository) Create(ctx context.Context, doctorID int64, title, body string) (*models.DoctorPost, error) {
	query := `
		INSERT INTO doctor_posts (doctor_id, title, body)
		VALUES ($1, $2, $3)
		RETURNING id, doctor_id, title, body, created_at
	`

	var post models.DoctorPost
	err := r.db.QueryRow(ctx, query, doctorID, title, body).Scan(
		&post.ID,
		&post.DoctorID,
		&post.Title,
		&post.Body,
		&post.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &post, nil
}

func (r *PostRepository) ListRecent(ctx context.Context, limit int) ([]models.DoctorPost, error) {
	query := `
		SELECT id, doctor_id, title, body, created_at
		FROM doctor_posts
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := make([]models.DoctorPost, 0)
	for rows.Next() {
		var post models.DoctorPost
		if err := rows.Scan(&post.ID, &post.DoctorID, &post.Title, &post.Body, &post.CreatedAt); err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return posts, nil
}
