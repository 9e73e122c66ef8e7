package chatws

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/arogyam-app/ArogyamBack/internal/models"
	"github.com/arogyam-app/ArogyamBack/internal/realtime"
	"github.com/arogyam-app/ArogyamBack/internal/services"
	websocket "github.com/gofiber/contrib/websocket"
)

type chatAPI interface {
	OpenConversation(ctx context.Context, actorID int64, role string, conversationID int64) (*models.Conversation, []models.ChatMessage, error)
	SendMessage(ctx context.Context, actorID int64, role string, input services.SendMessageInput) (*services.ChatDelivery, error)
	MarkRead(ctx context.Context, actorID int64, role string, conversationID int64) (int, error)
}

type notificationAPI interface {
	List(ctx context.Context, actorID int64, limit int) (*services.NotificationPage, error)
}

type statsAPI interface {
	Snapshot(ctx context.Context, userID int64, role string) (any, error)
	Watch(events *realtime.Dispatcher, userID int64, role string, onSnapshot func(any)) []*realtime.Subscription
}

// Deps bundles everything a session needs. The hub handler builds one
// per process and shares it across clients.
type Deps struct {
	Chat          chatAPI
	Notifications notificationAPI
	Stats         statsAPI
	Events        *realtime.Dispatcher
	Typing        *realtime.TypingTracker
}

// Client is one websocket session. It plays the subscriber role end to
// end: it holds the open conversation's timeline, the user's
// notification feed and the typing view, and it keeps them converged
// with published events for as long as the socket lives.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID int64
	role   string
	deps   Deps
	send   chan []byte

	mu           sync.Mutex
	closed       bool
	sendClosed   bool
	conversation *models.Conversation
	timeline     *realtime.Timeline
	timelineLive bool
	messagesSub  *realtime.Subscription
	feed         *realtime.Feed
	notifSub     *realtime.Subscription
	statsSubs    []*realtime.Subscription
	typingTimer  *time.Timer
}

func NewClient(hub *Hub, conn *websocket.Conn, userID int64, role string, deps Deps) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		userID: userID,
		role:   role,
		deps:   deps,
		send:   make(chan []byte, 32),
	}
}

type inboundFrame struct {
	Type           string  `json:"type"`
	ConversationID int64   `json:"conversation_id"`
	Body           string  `json:"body"`
	AttachmentURL  *string `json:"attachment_url,omitempty"`
	AttachmentType *string `json:"attachment_type,omitempty"`
	Typing         bool    `json:"typing"`
}

type outboundFrame struct {
	Type           string                `json:"type"`
	ConversationID int64                 `json:"conversation_id,omitempty"`
	Messages       []models.ChatMessage  `json:"messages,omitempty"`
	Message        *models.ChatMessage   `json:"message,omitempty"`
	Notifications  []models.Notification `json:"notifications,omitempty"`
	Notification   *models.Notification  `json:"notification,omitempty"`
	Unread         *int                  `json:"unread,omitempty"`
	Typing         []int64               `json:"typing,omitempty"`
	Stats          any                   `json:"stats,omitempty"`
	Error          string                `json:"error,omitempty"`
	Timestamp      string                `json:"timestamp,omitempty"`
}

// ReadPump drives the session: it bootstraps the notification feed and
// stats watchers, then serves inbound frames until the socket drops.
func (c *Client) ReadPump() {
	defer c.teardown()

	c.bootstrap()

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var frame inboundFrame
		if err := json.Unmarshal(payload, &frame); err != nil {
			c.sendError("invalid frame")
			continue
		}

		switch frame.Type {
		case "open":
			c.handleOpen(frame.ConversationID)
		case "message":
			c.handleSend(frame)
		case "typing":
			c.handleTyping(frame)
		case "mark_read":
			c.handleMarkRead(frame.ConversationID)
		default:
			c.sendError("unsupported frame type")
		}
	}
}

func (c *Client) WritePump() {
	defer func() {
		_ = c.conn.Close()
	}()

	for payload := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}

// bootstrap loads the notification page, opens the per-user streams and
// pushes the first stats snapshot.
func (c *Client) bootstrap() {
	ctx := context.Background()

	feed := realtime.NewFeed(c.userID)
	page, err := c.deps.Notifications.List(ctx, c.userID, services.DefaultNotificationLimit)
	if err != nil {
		log.Printf("chat session: bootstrap notifications for user %d: %v", c.userID, err)
		feed.Reset(nil, 0)
	} else {
		feed.Reset(page.Notifications, page.UnreadCount)
	}

	notifSub := c.deps.Events.Subscribe(
		realtime.TopicNotifications,
		services.NotificationsFilter(c.userID),
		c.onNotificationEvent,
	)

	statsSubs := c.deps.Stats.Watch(c.deps.Events, c.userID, c.role, c.onStatsSnapshot)

	c.mu.Lock()
	c.feed = feed
	c.notifSub = notifSub
	c.statsSubs = statsSubs
	c.mu.Unlock()

	unread := feed.UnreadCount()
	c.enqueue(outboundFrame{
		Type:          "notifications",
		Notifications: feed.Items(),
		Unread:        &unread,
	})

	if snapshot, err := c.deps.Stats.Snapshot(ctx, c.userID, c.role); err == nil {
		c.enqueue(outboundFrame{Type: "stats", Stats: snapshot})
	}
}

// handleOpen switches the session to a conversation: the previous
// subscription closes before any new state exists so no event for the
// old room lands in the new timeline, and the new subscription opens
// before the history fetch so a message committed mid-fetch arrives
// through it instead of falling between fetch and subscribe. The
// timeline stays quiet (events merge without being framed) until the
// access check passes and the history frame goes out.
func (c *Client) handleOpen(conversationID int64) {
	if conversationID <= 0 {
		c.sendError("invalid conversation id")
		return
	}

	timeline := realtime.NewTimeline(conversationID)

	c.mu.Lock()
	if c.messagesSub != nil {
		c.messagesSub.Close()
		c.messagesSub = nil
	}
	c.conversation = nil
	c.timeline = timeline
	c.timelineLive = false
	c.mu.Unlock()

	sub := c.deps.Events.Subscribe(
		realtime.TopicMessages,
		services.MessagesFilter(conversationID),
		c.onMessageEvent,
	)

	conversation, history, err := c.deps.Chat.OpenConversation(context.Background(), c.userID, c.role, conversationID)
	if err != nil {
		sub.Close()
		c.mu.Lock()
		if c.timeline == timeline {
			c.timeline = nil
		}
		c.mu.Unlock()
		c.sendError("conversation unavailable")
		return
	}

	c.mu.Lock()
	for _, message := range history {
		timeline.Apply(message)
	}
	c.conversation = conversation
	c.messagesSub = sub
	c.timelineLive = true
	c.enqueueLocked(outboundFrame{
		Type:           "history",
		ConversationID: conversationID,
		Messages:       timeline.Messages(),
	})
	c.mu.Unlock()
}

func (c *Client) handleSend(frame inboundFrame) {
	_, err := c.deps.Chat.SendMessage(context.Background(), c.userID, c.role, services.SendMessageInput{
		ConversationID: frame.ConversationID,
		Body:           frame.Body,
		AttachmentURL:  frame.AttachmentURL,
		AttachmentType: frame.AttachmentType,
	})
	if err != nil {
		c.sendError("failed to send message")
		return
	}

	// No local append: the sender's timeline converges through the
	// published echo, the same path every other session takes.

	// Sending implies the author stopped typing.
	c.deps.Typing.Set(frame.ConversationID, c.userID, false)
	c.stopTypingTimer()
	c.notifyTyping(frame.ConversationID)
}

func (c *Client) handleTyping(frame inboundFrame) {
	if frame.ConversationID <= 0 {
		return
	}

	c.mu.Lock()
	authorized := c.conversation != nil && c.conversation.ID == frame.ConversationID
	c.mu.Unlock()
	if !authorized {
		return
	}

	c.deps.Typing.Set(frame.ConversationID, c.userID, frame.Typing)
	c.stopTypingTimer()

	if frame.Typing {
		// Missing stop frames expire server-side too; the timer mirrors
		// the tracker's staleness window so observers get an explicit
		// stop instead of waiting out their own prune.
		c.mu.Lock()
		if !c.closed {
			c.typingTimer = time.AfterFunc(realtime.TypingTimeout, func() {
				c.deps.Typing.Set(frame.ConversationID, c.userID, false)
				c.notifyTyping(frame.ConversationID)
			})
		}
		c.mu.Unlock()
	}

	c.notifyTyping(frame.ConversationID)
}

// notifyTyping pushes the conversation's current typing set to the
// counterpart's sessions.
func (c *Client) notifyTyping(conversationID int64) {
	c.mu.Lock()
	conversation := c.conversation
	c.mu.Unlock()
	if conversation == nil || conversation.ID != conversationID {
		return
	}

	other := conversation.OtherParticipant(c.userID)
	typing := c.deps.Typing.Typing(conversationID, other)

	payload, err := json.Marshal(outboundFrame{
		Type:           "typing",
		ConversationID: conversationID,
		Typing:         typing,
		Timestamp:      services.FormatChatTimestamp(time.Now().UTC()),
	})
	if err != nil {
		return
	}
	c.hub.SendToUser(other, payload)
}

func (c *Client) handleMarkRead(conversationID int64) {
	if conversationID <= 0 {
		c.sendError("invalid conversation id")
		return
	}

	if _, err := c.deps.Chat.MarkRead(context.Background(), c.userID, c.role, conversationID); err != nil {
		c.sendError("failed to mark conversation read")
	}
	// Updated rows come back through the messages subscription.
}

// onMessageEvent runs on the dispatcher pump goroutine. Merge and frame
// happen under one lock so an event either lands in the history frame
// handleOpen is about to send or goes out as its own frame, never
// neither.
func (c *Client) onMessageEvent(event realtime.Event) {
	message, ok := event.Record.(models.ChatMessage)
	if !ok {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timeline == nil || c.timeline.ConversationID() != message.ConversationID {
		return
	}

	c.timeline.Apply(message)
	if !c.timelineLive {
		return
	}

	frameType := "message"
	if event.Op == realtime.OpUpdate {
		frameType = "read"
	}
	c.enqueueLocked(outboundFrame{
		Type:           frameType,
		ConversationID: message.ConversationID,
		Message:        &message,
	})
}

func (c *Client) onNotificationEvent(event realtime.Event) {
	c.mu.Lock()
	feed := c.feed
	c.mu.Unlock()
	if feed == nil {
		return
	}

	switch record := event.Record.(type) {
	case models.NotificationsCleared:
		// Read-all flips rows beyond the fetched page too, so the feed
		// zeroes its counter instead of decrementing per row.
		feed.MarkAllRead()
		unread := feed.UnreadCount()
		c.enqueue(outboundFrame{Type: "notification", Unread: &unread})
	case models.Notification:
		switch event.Op {
		case realtime.OpInsert:
			feed.ApplyInsert(record)
		case realtime.OpUpdate:
			if record.IsRead {
				feed.MarkRead(record.ID)
			}
		}
		unread := feed.UnreadCount()
		c.enqueue(outboundFrame{
			Type:         "notification",
			Notification: &record,
			Unread:       &unread,
		})
	}
}

func (c *Client) onStatsSnapshot(snapshot any) {
	c.enqueue(outboundFrame{Type: "stats", Stats: snapshot})
}

func (c *Client) enqueue(frame outboundFrame) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enqueueLocked(frame)
}

// enqueueLocked requires c.mu. The closed check and the channel send sit
// under the same lock that releaseSend takes before closing, so no
// goroutine can send on the channel after it closes.
func (c *Client) enqueueLocked(frame outboundFrame) {
	if c.closed {
		return
	}

	payload, err := json.Marshal(frame)
	if err != nil {
		log.Printf("chat session: encode %s frame: %v", frame.Type, err)
		return
	}

	select {
	case c.send <- payload:
	default:
		// Slow consumer; the hub drops the session on its next directed
		// delivery, this frame is sacrificed instead of blocking a pump.
	}
}

// releaseSend marks the session closed and closes its send channel,
// exactly once. Only the hub loop calls it, after the session has left
// the registry, so no directed delivery can follow.
func (c *Client) releaseSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if !c.sendClosed {
		c.sendClosed = true
		close(c.send)
	}
}

func (c *Client) sendError(message string) {
	c.enqueue(outboundFrame{
		Type:      "error",
		Error:     message,
		Timestamp: services.FormatChatTimestamp(time.Now().UTC()),
	})
}

func (c *Client) stopTypingTimer() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.typingTimer != nil {
		c.typingTimer.Stop()
		c.typingTimer = nil
	}
}

// teardown closes every subscription before the hub releases the send
// channel, so no pump handler can write into a closed session.
func (c *Client) teardown() {
	c.mu.Lock()
	c.closed = true
	messagesSub := c.messagesSub
	notifSub := c.notifSub
	statsSubs := c.statsSubs
	timer := c.typingTimer
	c.messagesSub = nil
	c.notifSub = nil
	c.statsSubs = nil
	c.typingTimer = nil
	c.mu.Unlock()

	if timer != nil {
		timer.Stop()
	}
	if messagesSub != nil {
		messagesSub.Close()
	}
	if notifSub != nil {
		notifSub.Close()
	}
	for _, sub := range statsSubs {
		sub.Close()
	}

	c.deps.Typing.ClearUser(c.userID)

	c.hub.Unregister(c)
	_ = c.conn.Close()
}
