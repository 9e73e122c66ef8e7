package services

import (
	"context"
	"errors"
	"testing"

	"github.com/arogyam-app/ArogyamBack/internal/models"
	"github.com/arogyam-app/ArogyamBack/internal/realtime"
	"github.com/jackc/pgx/v5"
)

type stubUserReader struct {
	users map[int64]*models.User
}

func (s *stubUserReader) GetByID(_ context.Context, id int64) (*models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return user, nil
}

// Validation runs before any repository call, so these paths are safe
// to exercise with nil dependencies.
func TestSendMessageRejectsBlankBodyBeforeWriting(t *testing.T) {
	service := NewChatService(nil, nil, nil, nil, nil, realtime.NewDispatcher())

	_, err := service.SendMessage(context.Background(), 1, models.RolePatient, SendMessageInput{
		ConversationID: 3,
		Body:           "   \n\t ",
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for blank body, got %v", err)
	}
}

func TestSendMessageRejectsUnknownRole(t *testing.T) {
	service := NewChatService(nil, nil, nil, nil, nil, realtime.NewDispatcher())

	_, err := service.SendMessage(context.Background(), 1, "admin", SendMessageInput{
		ConversationID: 3,
		Body:           "hello",
	})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestCreateConversationDoctorForbidden(t *testing.T) {
	service := NewChatService(nil, nil, nil, nil, nil, realtime.NewDispatcher())

	_, err := service.CreateConversation(context.Background(), 9, models.RoleDoctor, 1)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for doctor-initiated conversation, got %v", err)
	}
}

func TestCreateConversationRejectsSelfAndBadIDs(t *testing.T) {
	service := NewChatService(nil, nil, nil, nil, nil, realtime.NewDispatcher())

	if _, err := service.CreateConversation(context.Background(), 5, models.RolePatient, 5); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for self-conversation, got %v", err)
	}
	if _, err := service.CreateConversation(context.Background(), 5, models.RolePatient, 0); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for zero doctor id, got %v", err)
	}
}

func TestCreateConversationValidatesCounterpartRole(t *testing.T) {
	users := &stubUserReader{users: map[int64]*models.User{
		2: {ID: 2, Role: models.RolePatient},
	}}
	service := NewChatService(nil, nil, nil, users, nil, realtime.NewDispatcher())

	if _, err := service.CreateConversation(context.Background(), 5, models.RolePatient, 2); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput when target is not a doctor, got %v", err)
	}
	if _, err := service.CreateConversation(context.Background(), 5, models.RolePatient, 99); !errors.Is(err, ErrDoctorNotFound) {
		t.Fatalf("expected ErrDoctorNotFound for missing user, got %v", err)
	}
}

func TestMessagesFilterMatchesConversationOnly(t *testing.T) {
	filter := MessagesFilter(12)

	match := realtime.Event{
		Topic:  realtime.TopicMessages,
		Op:     realtime.OpInsert,
		Record: models.ChatMessage{ID: 1, ConversationID: 12},
	}
	other := realtime.Event{
		Topic:  realtime.TopicMessages,
		Op:     realtime.OpInsert,
		Record: models.ChatMessage{ID: 2, ConversationID: 13},
	}
	foreign := realtime.Event{
		Topic:  realtime.TopicMessages,
		Op:     realtime.OpInsert,
		Record: models.Notification{ID: 3},
	}

	if !filter(match) {
		t.Fatalf("expected conversation 12 event to match")
	}
	if filter(other) {
		t.Fatalf("conversation 13 event must not match")
	}
	if filter(foreign) {
		t.Fatalf("non-message record must not match")
	}
}

func TestListMessagesValidatesPagination(t *testing.T) {
	service := NewChatService(nil, nil, nil, nil, nil, realtime.NewDispatcher())

	if _, _, err := service.ListMessages(context.Background(), 1, models.RolePatient, 3, 0, 10); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for page 0, got %v", err)
	}
	if _, _, err := service.ListMessages(context.Background(), 1, models.RolePatient, 0, 1, 10); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for conversation 0, got %v", err)
	}
}
