package realtime

import (
	"testing"
	"time"

	"github.com/arogyam-app/ArogyamBack/internal/models"
)

func waitEvent(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case event := <-ch:
		return event
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestSubscribeDeliversOnlyMatchingEvents(t *testing.T) {
	d := NewDispatcher()
	received := make(chan Event, 8)

	sub := d.Subscribe(TopicMessages, func(e Event) bool {
		msg, ok := e.Record.(models.ChatMessage)
		return ok && msg.ConversationID == 7
	}, func(e Event) {
		received <- e
	})
	defer sub.Close()

	d.Publish(Event{Topic: TopicMessages, Op: OpInsert, Record: models.ChatMessage{ID: 1, ConversationID: 3}})
	d.Publish(Event{Topic: TopicMessages, Op: OpInsert, Record: models.ChatMessage{ID: 2, ConversationID: 7}})

	event := waitEvent(t, received)
	msg := event.Record.(models.ChatMessage)
	if msg.ID != 2 {
		t.Fatalf("expected message 2, got %d", msg.ID)
	}

	select {
	case extra := <-received:
		t.Fatalf("unexpected extra event: %+v", extra)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestDeliveryPreservesPublishOrder(t *testing.T) {
	d := NewDispatcher()
	received := make(chan Event, 8)

	sub := d.Subscribe(TopicMessages, nil, func(e Event) {
		received <- e
	})
	defer sub.Close()

	for i := int64(1); i <= 5; i++ {
		d.Publish(Event{Topic: TopicMessages, Op: OpInsert, Record: models.ChatMessage{ID: i}})
	}

	for i := int64(1); i <= 5; i++ {
		event := waitEvent(t, received)
		if got := event.Record.(models.ChatMessage).ID; got != i {
			t.Fatalf("expected message %d in order, got %d", i, got)
		}
	}
}

func TestCloseIsIdempotentAndStopsDelivery(t *testing.T) {
	d := NewDispatcher()
	received := make(chan Event, 8)

	sub := d.Subscribe(TopicNotifications, nil, func(e Event) {
		received <- e
	})

	sub.Close()
	sub.Close()

	if count := d.SubscriberCount(TopicNotifications); count != 0 {
		t.Fatalf("expected 0 subscribers after close, got %d", count)
	}

	d.Publish(Event{Topic: TopicNotifications, Op: OpInsert, Record: models.Notification{ID: 1}})
	select {
	case event := <-received:
		t.Fatalf("event delivered after close: %+v", event)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestConversationSwitchLeavesSingleSubscription(t *testing.T) {
	d := NewDispatcher()

	subA := d.Subscribe(TopicMessages, nil, func(Event) {})
	if count := d.SubscriberCount(TopicMessages); count != 1 {
		t.Fatalf("expected 1 subscriber after opening A, got %d", count)
	}

	// Switching conversations closes the old subscription first.
	subA.Close()
	subB := d.Subscribe(TopicMessages, nil, func(Event) {})
	defer subB.Close()

	if count := d.SubscriberCount(TopicMessages); count != 1 {
		t.Fatalf("expected exactly 1 subscriber after switch, got %d", count)
	}
}

func TestPublishWithoutSubscribersIsNoop(t *testing.T) {
	d := NewDispatcher()
	d.Publish(Event{Topic: TopicPosts, Op: OpInsert, Record: models.DoctorPost{ID: 1}})
}
