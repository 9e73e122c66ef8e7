package models

import "time"

const (
	RolePatient = "patient"
	RoleDoctor  = "doctor"
)

// CounterpartRole returns the role on the other side of a conversation.
func CounterpartRole(role string) string {
	if role == RolePatient {
		return RoleDoctor
	}
	return RolePatient
}

type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
