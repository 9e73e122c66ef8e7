package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/arogyam-app/ArogyamBack/internal/models"
	"github.com/arogyam-app/ArogyamBack/internal/realtime"
	"github.com/arogyam-app/ArogyamBack/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ChatService owns the conversation lifecycle: lazy patient-initiated
// creation, history fetches, sends and read receipts. Every successful
// write is published on the messages topic so live sessions converge on
// the same rows the database holds.
type ChatService struct {
	db               *pgxpool.Pool
	conversationRepo *repository.ConversationRepository
	messageRepo      *repository.MessageRepository
	userRepo         userReader
	notifications    notificationCreator
	events           *realtime.Dispatcher
}

type userReader interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

type notificationCreator interface {
	Create(ctx context.Context, input repository.CreateNotificationInput) (*models.Notification, error)
}

type ChatDelivery struct {
	Conversation *models.Conversation
	Message      *models.ChatMessage
}

func NewChatService(
	db *pgxpool.Pool,
	conversationRepo *repository.ConversationRepository,
	messageRepo *repository.MessageRepository,
	userRepo userReader,
	notifications notificationCreator,
	events *realtime.Dispatcher,
) *ChatService {
	return &ChatService{
		db:               db,
		conversationRepo: conversationRepo,
		messageRepo:      messageRepo,
		userRepo:         userRepo,
		notifications:    notifications,
		events:           events,
	}
}

func (s *ChatService) ListConversations(
	ctx context.Context,
	actorID int64,
	role string,
) ([]models.ConversationSummary, error) {
	if role != models.RolePatient && role != models.RoleDoctor {
		return nil, ErrForbidden
	}

	return s.conversationRepo.ListForParticipant(ctx, actorID)
}

// CreateConversation resolves or lazily creates the single conversation
// between the acting patient and a doctor. Only the patient side may
// originate a conversation.
func (s *ChatService) CreateConversation(
	ctx context.Context,
	actorID int64,
	role string,
	doctorID int64,
) (*models.Conversation, error) {
	if role != models.RolePatient {
		return nil, ErrForbidden
	}
	if doctorID <= 0 || doctorID == actorID {
		return nil, ErrInvalidInput
	}

	doctor, err := s.userRepo.GetByID(ctx, doctorID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}
	if doctor.Role != models.RoleDoctor {
		return nil, ErrInvalidInput
	}

	return s.conversationRepo.CreateOrGet(ctx, actorID, doctorID)
}

// OpenConversation returns the conversation and its full ascending
// history for one participant. Callers wanting live updates subscribe
// to the messages topic before calling this, so an event racing the
// fetch lands in the subscription; the idempotent merge absorbs any
// overlap between the two.
func (s *ChatService) OpenConversation(
	ctx context.Context,
	actorID int64,
	role string,
	conversationID int64,
) (*models.Conversation, []models.ChatMessage, error) {
	if role != models.RolePatient && role != models.RoleDoctor {
		return nil, nil, ErrForbidden
	}
	if conversationID <= 0 {
		return nil, nil, ErrInvalidInput
	}

	conversation, err := s.conversationRepo.GetByIDForParticipant(ctx, conversationID, actorID)
	if err != nil {
		return nil, nil, err
	}

	history, err := s.messageRepo.History(ctx, conversationID)
	if err != nil {
		return nil, nil, err
	}

	return conversation, history, nil
}

func (s *ChatService) ListMessages(
	ctx context.Context,
	actorID int64,
	role string,
	conversationID int64,
	page int,
	limit int,
) ([]models.ChatMessage, int, error) {
	if role != models.RolePatient && role != models.RoleDoctor {
		return nil, 0, ErrForbidden
	}
	if conversationID <= 0 || page <= 0 || limit <= 0 {
		return nil, 0, ErrInvalidInput
	}

	if _, err := s.conversationRepo.GetByIDForParticipant(ctx, conversationID, actorID); err != nil {
		return nil, 0, err
	}

	return s.messageRepo.ListByConversation(ctx, conversationID, limit, (page-1)*limit)
}

type SendMessageInput struct {
	ConversationID int64
	Body           string
	AttachmentURL  *string
	AttachmentType *string
}

// SendMessage validates and persists one message, touches the
// conversation's last-activity timestamp in the same transaction, then
// publishes the insert and notifies the receiver. The sender's own view
// is not updated here; it converges through the published echo.
func (s *ChatService) SendMessage(
	ctx context.Context,
	actorID int64,
	role string,
	input SendMessageInput,
) (*ChatDelivery, error) {
	if role != models.RolePatient && role != models.RoleDoctor {
		return nil, ErrForbidden
	}
	if input.ConversationID <= 0 {
		return nil, ErrInvalidInput
	}

	body := strings.TrimSpace(input.Body)
	if body == "" {
		return nil, ErrInvalidInput
	}

	conversation, err := s.conversationRepo.GetByIDForParticipant(ctx, input.ConversationID, actorID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrForbidden
		}
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txMessageRepo := repository.NewMessageRepository(tx)
	txConversationRepo := repository.NewConversationRepository(tx)

	message, err := txMessageRepo.Create(ctx, repository.CreateMessageInput{
		ConversationID: conversation.ID,
		SenderID:       actorID,
		SenderRole:     role,
		ReceiverID:     conversation.OtherParticipant(actorID),
		ReceiverRole:   models.CounterpartRole(role),
		Body:           body,
		AttachmentURL:  input.AttachmentURL,
		AttachmentType: input.AttachmentType,
	})
	if err != nil {
		return nil, err
	}

	if err := txConversationRepo.Touch(ctx, conversation.ID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.events.Publish(realtime.Event{
		Topic:  realtime.TopicMessages,
		Op:     realtime.OpInsert,
		Record: *message,
	})

	// The receiver's notification is best-effort: a failure here must not
	// undo an already-committed message.
	if _, err := s.notifications.Create(ctx, repository.CreateNotificationInput{
		UserID:   message.ReceiverID,
		UserRole: message.ReceiverRole,
		Title:    "New Message",
		Body:     fmt.Sprintf("You have a new message in conversation %d", conversation.ID),
		Category: models.NotificationMessage,
	}); err != nil {
		log.Printf("chat: create message notification: %v", err)
	}

	return &ChatDelivery{Conversation: conversation, Message: message}, nil
}

// MarkRead stamps every unread message addressed to the actor in the
// conversation. Calling it again changes nothing. Updated rows are
// republished so other sessions see the read receipts.
func (s *ChatService) MarkRead(
	ctx context.Context,
	actorID int64,
	role string,
	conversationID int64,
) (int, error) {
	if role != models.RolePatient && role != models.RoleDoctor {
		return 0, ErrForbidden
	}
	if conversationID <= 0 {
		return 0, ErrInvalidInput
	}

	if _, err := s.conversationRepo.GetByIDForParticipant(ctx, conversationID, actorID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrForbidden
		}
		return 0, err
	}

	updated, err := s.messageRepo.MarkConversationRead(ctx, conversationID, actorID)
	if err != nil {
		return 0, err
	}

	for _, message := range updated {
		s.events.Publish(realtime.Event{
			Topic:  realtime.TopicMessages,
			Op:     realtime.OpUpdate,
			Record: message,
		})
	}

	return len(updated), nil
}

// MessagesFilter builds the subscription filter for one conversation.
func MessagesFilter(conversationID int64) realtime.Filter {
	return func(event realtime.Event) bool {
		message, ok := event.Record.(models.ChatMessage)
		return ok && message.ConversationID == conversationID
	}
}

// NotificationsFilter builds the subscription filter for one user's
// notification stream, matching both row records and bulk read-all
// markers.
func NotificationsFilter(userID int64) realtime.Filter {
	return func(event realtime.Event) bool {
		switch record := event.Record.(type) {
		case models.Notification:
			return record.UserID == userID
		case models.NotificationsCleared:
			return record.UserID == userID
		default:
			return false
		}
	}
}

func FormatChatTimestamp(ts time.Time) string {
	return ts.UTC().Format(time.RFC3339)
}
