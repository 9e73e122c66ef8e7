package realtime

import (
	"sync"
	"time"

	"github.com/arogyam-app/ArogyamBack/internal/models"
)

// Timeline is the ordered message view for one open conversation. It
// merges a fetched history with live events: messages are kept in
// (created_at, id) ascending order and an event for an already-known id
// replaces the stored record instead of duplicating it. The backend row
// stays the source of truth; the timeline is a read-through view.
type Timeline struct {
	mu             sync.RWMutex
	conversationID int64
	messages       []models.ChatMessage
	byID           map[int64]int
}

func NewTimeline(conversationID int64) *Timeline {
	return &Timeline{
		conversationID: conversationID,
		byID:           make(map[int64]int),
	}
}

func (t *Timeline) ConversationID() int64 {
	return t.conversationID
}

// Reset replaces the timeline with a freshly fetched history.
func (t *Timeline) Reset(history []models.ChatMessage) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.messages = t.messages[:0]
	t.byID = make(map[int64]int, len(history))
	for _, message := range history {
		if message.ConversationID != t.conversationID {
			continue
		}
		t.insertLocked(message)
	}
}

// Apply merges one live message into the view. It reports whether the
// message was new; a replay of a known id only refreshes the record.
func (t *Timeline) Apply(message models.ChatMessage) bool {
	if message.ConversationID != t.conversationID {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if idx, ok := t.byID[message.ID]; ok {
		t.messages[idx] = message
		return false
	}
	t.insertLocked(message)
	return true
}

// insertLocked places message at its ordered position. New messages are
// almost always the newest, so the scan starts from the tail.
func (t *Timeline) insertLocked(message models.ChatMessage) {
	if idx, ok := t.byID[message.ID]; ok {
		t.messages[idx] = message
		return
	}

	pos := len(t.messages)
	for pos > 0 && message.Before(&t.messages[pos-1]) {
		pos--
	}

	t.messages = append(t.messages, models.ChatMessage{})
	copy(t.messages[pos+1:], t.messages[pos:])
	t.messages[pos] = message
	for i := pos; i < len(t.messages); i++ {
		t.byID[t.messages[i].ID] = i
	}
}

// Messages returns a copy of the ordered view.
func (t *Timeline) Messages() []models.ChatMessage {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]models.ChatMessage, len(t.messages))
	copy(out, t.messages)
	return out
}

func (t *Timeline) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.messages)
}

// UnreadFor counts messages addressed to userID that have no read
// timestamp yet.
func (t *Timeline) UnreadFor(userID int64) int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	unread := 0
	for i := range t.messages {
		if t.messages[i].ReceiverID == userID && t.messages[i].ReadAt == nil {
			unread++
		}
	}
	return unread
}

// MarkReadFor stamps every unread message addressed to userID with at and
// returns how many messages changed. Messages authored by userID are
// never touched, and repeating the call is a no-op.
func (t *Timeline) MarkReadFor(userID int64, at time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	marked := 0
	for i := range t.messages {
		if t.messages[i].ReceiverID == userID && t.messages[i].ReadAt == nil {
			ts := at
			t.messages[i].ReadAt = &ts
			marked++
		}
	}
	return marked
}
