package realtime

import (
	"sort"
	"sync"
	"time"
)

// TypingTimeout is the quiet period after which a typing signal is
// considered stale even if no explicit stop arrives. Presence is
// best-effort: a client that disconnects mid-keystroke never sends its
// stop event, so observers must expire signals on their own.
const TypingTimeout = 3 * time.Second

// TypingTracker holds the ephemeral per-conversation typing state. Nothing
// here is persisted; a fresh subscription starts from an empty set.
type TypingTracker struct {
	mu      sync.Mutex
	signals map[int64]map[int64]time.Time
	now     func() time.Time
}

func NewTypingTracker() *TypingTracker {
	return &TypingTracker{
		signals: make(map[int64]map[int64]time.Time),
		now:     time.Now,
	}
}

// Set records userID's typing state in the conversation. A true signal
// refreshes the staleness window; a false signal clears it immediately.
func (t *TypingTracker) Set(conversationID, userID int64, typing bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	users, ok := t.signals[conversationID]
	if !typing {
		if ok {
			delete(users, userID)
			if len(users) == 0 {
				delete(t.signals, conversationID)
			}
		}
		return
	}

	if !ok {
		users = make(map[int64]time.Time)
		t.signals[conversationID] = users
	}
	users[userID] = t.now()
}

// Typing returns the users currently typing in the conversation,
// excluding exclude (the observer). Signals older than TypingTimeout are
// pruned as a side effect.
func (t *TypingTracker) Typing(conversationID, exclude int64) []int64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	users, ok := t.signals[conversationID]
	if !ok {
		return nil
	}

	cutoff := t.now().Add(-TypingTimeout)
	var typing []int64
	for userID, at := range users {
		if at.Before(cutoff) {
			delete(users, userID)
			continue
		}
		if userID != exclude {
			typing = append(typing, userID)
		}
	}
	if len(users) == 0 {
		delete(t.signals, conversationID)
	}

	sort.Slice(typing, func(i, j int) bool { return typing[i] < typing[j] })
	return typing
}

// ClearUser drops every signal owned by userID, for use on disconnect.
func (t *TypingTracker) ClearUser(userID int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for conversationID, users := range t.signals {
		delete(users, userID)
		if len(users) == 0 {
			delete(t.signals, conversationID)
		}
	}
}
