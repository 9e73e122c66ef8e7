package repository

import (
	"context"

	"github.com/arogyam-app/ArogyamBack/internal/models"
	"github.com/jackc/pgx/v5"
)

type MessageRepository struct {
	db DBTX
}

func NewMessageRepository(db DBTX) *MessageRepository {
	return &MessageRepository{db: db}
}

type CreateMessageInput struct {
	ConversationID int64
	SenderID       int64
	SenderRole     string
	ReceiverID     int64
	ReceiverRole   string
	Body           string
	AttachmentURL  *string
	AttachmentType *string
}

func (r *MessageRepository) Create(ctx context.Context, input CreateMessageInput) (*models.ChatMessage, error) {
	query := `
		INSERT INTO messages (
			conversation_id, sender_id, sender_role, receiver_id,
			receiver_role, body, attachment_url, attachment_type
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, conversation_id, sender_id, sender_role, receiver_id,
		          receiver_role, body, attachment_url, attachment_type,
		          created_at, read_at
	`

	var message models.ChatMessage
	err := r.db.QueryRow(ctx, query,
		input.ConversationID,
		input.SenderID,
		input.SenderRole,
		input.ReceiverID,
		input.ReceiverRole,
		input.Body,
		input.AttachmentURL,
		input.AttachmentType,
	).Scan(
		&message.ID,
		&message.ConversationID,
		&message.SenderID,
		&message.SenderRole,
		&message.ReceiverID,
		&message.ReceiverRole,
		&message.Body,
		&message.AttachmentURL,
		&message.AttachmentType,
		&message.CreatedAt,
		&message.ReadAt,
	)
	if err != nil {
		return nil, err
	}

	return &message, nil
}

// History returns the full message list of a conversation in its total
// order: created_at ascending, ties broken by id.
func (r *MessageRepository) History(ctx context.Context, conversationID int64) ([]models.ChatMessage, error) {
	query := `
		SELECT id, conversation_id, sender_id, sender_role, receiver_id,
		       receiver_role, body, attachment_url, attachment_type,
		       created_at, read_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.db.Query(ctx, query, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMessages(rows)
}

// ListByConversation pages through a conversation in ascending order and
// also reports the total row count for pagination metadata.
func (r *MessageRepository) ListByConversation(
	ctx context.Context,
	conversationID int64,
	limit int,
	offset int,
) ([]models.ChatMessage, int, error) {
	totalQuery := `
		SELECT COUNT(*)
		FROM messages
		WHERE conversation_id = $1
	`

	var total int
	if err := r.db.QueryRow(ctx, totalQuery, conversationID).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT id, conversation_id, sender_id, sender_role, receiver_id,
		       receiver_role, body, attachment_url, attachment_type,
		       created_at, read_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at ASC, id ASC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, conversationID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	messages, err := scanMessages(rows)
	if err != nil {
		return nil, 0, err
	}

	return messages, total, nil
}

// MarkConversationRead stamps every unread message addressed to readerID
// in the conversation and returns the updated rows so the caller can
// publish them as update events. Repeating the call updates nothing.
func (r *MessageRepository) MarkConversationRead(
	ctx context.Context,
	conversationID int64,
	readerID int64,
) ([]models.ChatMessage, error) {
	query := `
		UPDATE messages
		SET read_at = NOW()
		WHERE conversation_id = $1
		  AND receiver_id = $2
		  AND read_at IS NULL
		RETURNING id, conversation_id, sender_id, sender_role, receiver_id,
		          receiver_role, body, attachment_url, attachment_type,
		          created_at, read_at
	`

	rows, err := r.db.Query(ctx, query, conversationID, readerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMessages(rows)
}

func scanMessages(rows pgx.Rows) ([]models.ChatMessage, error) {
	messages := make([]models.ChatMessage, 0)
	for rows.Next() {
		var message models.ChatMessage
		if err := rows.Scan(
			&message.ID,
			&message.ConversationID,
			&message.SenderID,
			&message.SenderRole,
			&message.ReceiverID,
			&message.ReceiverRole,
			&message.Body,
			&message.AttachmentURL,
			&message.AttachmentType,
			&message.CreatedAt,
			&message.ReadAt,
		); err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return messages, nil
}
