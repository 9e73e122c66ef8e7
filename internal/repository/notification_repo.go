package repository

import (
	"context"

	"github.com/arogyam-app/ArogyamBack/internal/models"
)

type NotificationRepository struct {
	db DBTX
}

func NewNotificationRepository(db DBTX) *NotificationRepository {
	return &NotificationRepository{db: db}
}

type CreateNotificationInput struct {
	UserID   int64
	UserRole string
	Title    string
	Body     string
	Category string
}

func (r *NotificationRepository) Create(ctx context.Context, input CreateNotificationInput) (*models.Notification, error) {
	query := `
		INSERT INTO notifications (user_id, user_role, title, body, category)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, user_id, user_role, title, body, category, is_read, created_at
	`

	var notification models.Notification
	err := r.db.QueryRow(ctx, query,
		input.UserID,
		input.UserRole,
		input.Title,
		input.Body,
		input.Category,
	).Scan(
		&notification.ID,
		&notification.UserID,
		&notification.UserRole,
		&notification.Title,
		&notification.Body,
		&notification.Category,
		&notification.IsRead,
		&notification.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &notification, nil
}

// ListForUser returns the newest notifications for a user, newest first.
func (r *NotificationRepository) ListForUser(ctx context.Context, userID int64, limit int) ([]models.Notification, error) {
	query := `
		SELECT id, user_id, user_role, title, body, category, is_read, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notifications := make([]models.Notification, 0)
	for rows.Next() {
		var notification models.Notification
		if err := rows.Scan(
			&notification.ID,
			&notification.UserID,
			&notification.UserRole,
			&notification.Title,
			&notification.Body,
			&notification.Category,
			&notification.IsRead,
			&notification.CreatedAt,
		); err != nil {
			return nil, err
		}
		notifications = append(notifications, notification)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return notifications, nil
}

func (r *NotificationRepository) CountUnread(ctx context.Context, userID int64) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM notifications
		WHERE user_id = $1 AND is_read = FALSE
	`, userID).Scan(&count)
	return count, err
}

// MarkRead flips one notification, scoped to its owner so a stale or
// hostile id cannot touch someone else's record.
func (r *NotificationRepository) MarkRead(ctx context.Context, notificationID, userID int64) (*models.Notification, error) {
	query := `
		UPDATE notifications
		SET is_read = TRUE
		WHERE id = $1 AND user_id = $2
		RETURNING id, user_id, user_role, title, body, category, is_read, created_at
	`

	var notification models.Notification
	err := r.db.QueryRow(ctx, query, notificationID, userID).Scan(
		&notification.ID,
		&notification.UserID,
		&notification.UserRole,
		&notification.Title,
		&notification.Body,
		&notification.Category,
		&notification.IsRead,
		&notification.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &notification, nil
}

// MarkAllRead flips every unread notification of one user in a single
// statement and reports how many rows changed.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE notifications
		SET is_read = TRUE
		WHERE user_id = $1 AND is_read = FALSE
	`, userID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
