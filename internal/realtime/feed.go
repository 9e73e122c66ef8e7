package realtime

import (
	"sync"

	"github.com/arogyam-app/ArogyamBack/internal/models"
)

// Feed is the in-memory notification view for one user: a bounded page
// fetched newest-first, merged with live inserts. The unread counter
// starts from the fetched baseline and moves incrementally; live inserts
// prepend without re-sorting or re-fetching.
type Feed struct {
	mu     sync.RWMutex
	userID int64
	items  []models.Notification
	byID   map[int64]int
	unread int
}

func NewFeed(userID int64) *Feed {
	return &Feed{
		userID: userID,
		byID:   make(map[int64]int),
	}
}

// Reset loads a freshly fetched page, ordered newest-first. unread is
// the server-side unread count; pass a negative value to fall back to
// counting only the fetched page.
func (f *Feed) Reset(page []models.Notification, unread int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.items = f.items[:0]
	f.byID = make(map[int64]int, len(page))
	pageUnread := 0
	for _, n := range page {
		if n.UserID != f.userID {
			continue
		}
		f.byID[n.ID] = len(f.items)
		f.items = append(f.items, n)
		if !n.IsRead {
			pageUnread++
		}
	}

	if unread < 0 {
		unread = pageUnread
	}
	f.unread = unread
}

// ApplyInsert merges one live-pushed notification. A notification for a
// different user is ignored outright, and a replay of a known id
// refreshes the record without moving the counter.
func (f *Feed) ApplyInsert(n models.Notification) bool {
	if n.UserID != f.userID {
		return false
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if idx, ok := f.byID[n.ID]; ok {
		f.items[idx] = n
		return false
	}

	f.items = append([]models.Notification{n}, f.items...)
	for id, idx := range f.byID {
		f.byID[id] = idx + 1
	}
	f.byID[n.ID] = 0
	if !n.IsRead {
		f.unread++
	}
	return true
}

// MarkRead flips one notification to read and decrements the unread
// counter, floored at zero.
func (f *Feed) MarkRead(id int64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	idx, ok := f.byID[id]
	if !ok || f.items[idx].IsRead {
		return false
	}
	f.items[idx].IsRead = true
	if f.unread > 0 {
		f.unread--
	}
	return true
}

// MarkAllRead flips every unread notification owned by the feed's user
// and zeroes the counter. Records for other users, if any leaked into a
// stale page, are left untouched.
func (f *Feed) MarkAllRead() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	flipped := 0
	for i := range f.items {
		if f.items[i].UserID != f.userID {
			continue
		}
		if !f.items[i].IsRead {
			f.items[i].IsRead = true
			flipped++
		}
	}
	f.unread = 0
	return flipped
}

func (f *Feed) UnreadCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.unread
}

// Items returns a copy of the feed, newest first.
func (f *Feed) Items() []models.Notification {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]models.Notification, len(f.items))
	copy(out, f.items)
	return out
}
