package models

import "time"

const (
	NotificationMessage      = "message"
	NotificationDiet         = "diet"
	NotificationRecipe       = "recipe"
	NotificationProfile      = "profile"
	NotificationConsultation = "consultation_request"
	NotificationPost         = "post"
)

// NotificationsCleared is the live record for a read-all: one event per
// bulk flip instead of one per row, since the flip can reach rows far
// beyond any fetched page.
type NotificationsCleared struct {
	UserID int64 `json:"user_id"`
}

type Notification struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	UserRole  string    `json:"user_role"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Category  string    `json:"category"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}
