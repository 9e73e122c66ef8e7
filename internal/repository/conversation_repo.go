package repository

import (
	"context"
	"database/sql"

	"github.com/arogyam-app/ArogyamBack/internal/models"
)

type ConversationRepository struct {
	db DBTX
}

func NewConversationRepository(db DBTX) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// CreateOrGet resolves the single conversation for a (patient, doctor)
// pair, creating it on first use. The upsert keeps a racing double-open
// from producing two rows.
func (r *ConversationRepository) CreateOrGet(
	ctx context.Context,
	patientID int64,
	doctorID int64,
) (*models.Conversation, error) {
	query := `
		INSERT INTO conversations (patient_id, doctor_id)
		VALUES ($1, $2)
		ON CONFLICT (patient_id, doctor_id)
		DO UPDATE SET patient_id = conversations.patient_id
		RETURNING id, patient_id, doctor_id, created_at, last_message_at
	`

	var conversation models.Conversation
	err := r.db.QueryRow(ctx, query, patientID, doctorID).Scan(
		&conversation.ID,
		&conversation.PatientID,
		&conversation.DoctorID,
		&conversation.CreatedAt,
		&conversation.LastMessageAt,
	)
	if err != nil {
		return nil, err
	}

	return &conversation, nil
}

func (r *ConversationRepository) GetByIDForParticipant(
	ctx context.Context,
	conversationID int64,
	participantID int64,
) (*models.Conversation, error) {
	query := `
		SELECT id, patient_id, doctor_id, created_at, last_message_at
		FROM conversations
		WHERE id = $1 AND (patient_id = $2 OR doctor_id = $2)
	`

	var conversation models.Conversation
	err := r.db.QueryRow(ctx, query, conversationID, participantID).Scan(
		&conversation.ID,
		&conversation.PatientID,
		&conversation.DoctorID,
		&conversation.CreatedAt,
		&conversation.LastMessageAt,
	)
	if err != nil {
		return nil, err
	}

	return &conversation, nil
}

func (r *ConversationRepository) ListForParticipant(
	ctx context.Context,
	participantID int64,
) ([]models.ConversationSummary, error) {
	query := `
		SELECT
			c.id,
			c.patient_id,
			c.doctor_id,
			c.created_at,
			c.last_message_at,
			lm.id,
			lm.conversation_id,
			lm.sender_id,
			lm.sender_role,
			lm.receiver_id,
			lm.receiver_role,
			lm.body,
			lm.attachment_url,
			lm.attachment_type,
			lm.created_at,
			lm.read_at,
			COALESCE(uc.unread_count, 0)
		FROM conversations c
		LEFT JOIN LATERAL (
			SELECT id, conversation_id, sender_id, sender_role, receiver_id,
			       receiver_role, body, attachment_url, attachment_type,
			       created_at, read_at
			FROM messages
			WHERE conversation_id = c.id
			ORDER BY created_at DESC, id DESC
			LIMIT 1
		) lm ON TRUE
		LEFT JOIN LATERAL (
			SELECT COUNT(*) AS unread_count
			FROM messages
			WHERE conversation_id = c.id
			  AND receiver_id = $1
			  AND read_at IS NULL
		) uc ON TRUE
		WHERE c.patient_id = $1 OR c.doctor_id = $1
		ORDER BY COALESCE(lm.created_at, c.last_message_at, c.created_at) DESC, c.id DESC
	`

	rows, err := r.db.Query(ctx, query, participantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := make([]models.ConversationSummary, 0)
	for rows.Next() {
		var summary models.ConversationSummary
		var messageID sql.NullInt64
		var messageConversationID sql.NullInt64
		var messageSenderID sql.NullInt64
		var messageSenderRole sql.NullString
		var messageReceiverID sql.NullInt64
		var messageReceiverRole sql.NullString
		var messageBody sql.NullString
		var messageAttachmentURL *string
		var messageAttachmentType *string
		var messageCreatedAt sql.NullTime
		var messageReadAt sql.NullTime

		if err := rows.Scan(
			&summary.ID,
			&summary.PatientID,
			&summary.DoctorID,
			&summary.CreatedAt,
			&summary.LastMessageAt,
			&messageID,
			&messageConversationID,
			&messageSenderID,
			&messageSenderRole,
			&messageReceiverID,
			&messageReceiverRole,
			&messageBody,
			&messageAttachmentURL,
			&messageAttachmentType,
			&messageCreatedAt,
			&messageReadAt,
			&summary.UnreadCount,
		); err != nil {
			return nil, err
		}

		if messageID.Valid {
			last := &models.ChatMessage{
				ID:             messageID.Int64,
				ConversationID: messageConversationID.Int64,
				SenderID:       messageSenderID.Int64,
				SenderRole:     messageSenderRole.String,
				ReceiverID:     messageReceiverID.Int64,
				ReceiverRole:   messageReceiverRole.String,
				Body:           messageBody.String,
				AttachmentURL:  messageAttachmentURL,
				AttachmentType: messageAttachmentType,
				CreatedAt:      messageCreatedAt.Time,
			}
			if messageReadAt.Valid {
				readAt := messageReadAt.Time
				last.ReadAt = &readAt
			}
			summary.LastMessage = last
		}

		summaries = append(summaries, summary)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return summaries, nil
}

// Touch advances last_message_at, called on every successful send.
func (r *ConversationRepository) Touch(ctx context.Context, conversationID int64) error {
	_, err := r.db.Exec(ctx, `
		UPDATE conversations
		SET last_message_at = NOW()
		WHERE id = $1
	`, conversationID)
	return err
}
