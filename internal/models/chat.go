package models

import "time"

type Conversation struct {
	ID            int64      `json:"id"`
	PatientID     int64      `json:"patient_id"`
	DoctorID      int64      `json:"doctor_id"`
	CreatedAt     time.Time  `json:"created_at"`
	LastMessageAt *time.Time `json:"last_message_at"`
}

// OtherParticipant returns the participant opposite to userID.
func (c *Conversation) OtherParticipant(userID int64) int64 {
	if userID == c.PatientID {
		return c.DoctorID
	}
	return c.PatientID
}

type ChatMessage struct {
	ID             int64      `json:"id"`
	ConversationID int64      `json:"conversation_id"`
	SenderID       int64      `json:"sender_id"`
	SenderRole     string     `json:"sender_role"`
	ReceiverID     int64      `json:"receiver_id"`
	ReceiverRole   string     `json:"receiver_role"`
	Body           string     `json:"body"`
	AttachmentURL  *string    `json:"attachment_url,omitempty"`
	AttachmentType *string    `json:"attachment_type,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	ReadAt         *time.Time `json:"read_at"`
}

// Before reports whether m precedes other in the conversation's total
// order: created_at ascending, ties broken by lower id.
func (m *ChatMessage) Before(other *ChatMessage) bool {
	if m.CreatedAt.Equal(other.CreatedAt) {
		return m.ID < other.ID
	}
	return m.CreatedAt.Before(other.CreatedAt)
}

type ConversationSummary struct {
	Conversation
	LastMessage *ChatMessage `json:"last_message,omitempty"`
	UnreadCount int          `json:"unread_count"`
}
