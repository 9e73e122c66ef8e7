package chatws

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/arogyam-app/ArogyamBack/internal/models"
	"github.com/arogyam-app/ArogyamBack/internal/realtime"
	"github.com/arogyam-app/ArogyamBack/internal/services"
)

type stubSessionChat struct {
	events  *realtime.Dispatcher
	history []models.ChatMessage
	raced   *models.ChatMessage
}

func (s *stubSessionChat) OpenConversation(_ context.Context, actorID int64, _ string, conversationID int64) (*models.Conversation, []models.ChatMessage, error) {
	// A message committed while the fetch runs: published before the
	// fetch returns, absent from the returned history.
	if s.raced != nil {
		s.events.Publish(realtime.Event{
			Topic:  realtime.TopicMessages,
			Op:     realtime.OpInsert,
			Record: *s.raced,
		})
		s.raced = nil
	}
	return &models.Conversation{ID: conversationID, PatientID: actorID, DoctorID: 9}, s.history, nil
}

func (s *stubSessionChat) SendMessage(context.Context, int64, string, services.SendMessageInput) (*services.ChatDelivery, error) {
	return nil, nil
}

func (s *stubSessionChat) MarkRead(context.Context, int64, string, int64) (int, error) {
	return 0, nil
}

func TestOpenDeliversMessageCommittedDuringHistoryFetch(t *testing.T) {
	events := realtime.NewDispatcher()
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	raced := models.ChatMessage{
		ID: 2, ConversationID: 12, SenderID: 9, ReceiverID: 7,
		Body: "committed mid-fetch", CreatedAt: at.Add(time.Second),
	}
	chat := &stubSessionChat{
		events: events,
		history: []models.ChatMessage{
			{ID: 1, ConversationID: 12, SenderID: 7, ReceiverID: 9, Body: "namaste", CreatedAt: at},
		},
		raced: &raced,
	}
	client := NewClient(NewHub(), nil, 7, models.RolePatient, Deps{Chat: chat, Events: events})

	client.handleOpen(12)

	// The raced message arrives either inside the history frame or as
	// its own frame right after it, depending on which side of the merge
	// the pump lands on. Either way it must reach the wire.
	seen := map[int64]bool{}
	deadline := time.After(time.Second)
	for !(seen[1] && seen[2]) {
		select {
		case payload := <-client.send:
			var frame outboundFrame
			if err := json.Unmarshal(payload, &frame); err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			for _, message := range frame.Messages {
				seen[message.ID] = true
			}
			if frame.Message != nil {
				seen[frame.Message.ID] = true
			}
		case <-deadline:
			t.Fatalf("message committed during the history fetch never reached the session, saw %v", seen)
		}
	}
}

func TestOpenSwitchKeepsExactlyOneSubscription(t *testing.T) {
	events := realtime.NewDispatcher()
	chat := &stubSessionChat{events: events}
	client := NewClient(NewHub(), nil, 7, models.RolePatient, Deps{Chat: chat, Events: events})

	client.handleOpen(1)
	client.handleOpen(2)

	if got := events.SubscriberCount(realtime.TopicMessages); got != 1 {
		t.Fatalf("expected exactly one live messages subscription after a switch, got %d", got)
	}

	client.mu.Lock()
	var conversationID int64
	if client.conversation != nil {
		conversationID = client.conversation.ID
	}
	client.mu.Unlock()
	if conversationID != 2 {
		t.Fatalf("expected session parked on conversation 2, got %d", conversationID)
	}
}

func TestClearedMarkerZeroesSessionFeed(t *testing.T) {
	client := NewClient(NewHub(), nil, 7, models.RolePatient, Deps{})

	feed := realtime.NewFeed(7)
	feed.Reset([]models.Notification{{ID: 4, UserID: 7}}, 12)
	client.mu.Lock()
	client.feed = feed
	client.mu.Unlock()

	client.onNotificationEvent(realtime.Event{
		Topic:  realtime.TopicNotifications,
		Op:     realtime.OpUpdate,
		Record: models.NotificationsCleared{UserID: 7},
	})

	if got := feed.UnreadCount(); got != 0 {
		t.Fatalf("expected unread 0 after read-all, got %d", got)
	}

	select {
	case payload := <-client.send:
		var frame outboundFrame
		if err := json.Unmarshal(payload, &frame); err != nil {
			t.Fatalf("Unmarshal: %v", err)
		}
		if frame.Type != "notification" || frame.Unread == nil || *frame.Unread != 0 {
			t.Fatalf("expected a zero-unread notification frame, got %s", payload)
		}
	default:
		t.Fatalf("expected the session to push the zeroed counter")
	}
}
