package chatws

import "log"

// Hub tracks the live sessions of each user. A user may hold several
// sessions (two browser tabs, a phone and a laptop); payloads addressed
// to a user fan out to all of them.
type Hub struct {
	clients    map[int64]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	directed   chan directedPayload
}

type directedPayload struct {
	userID  int64
	payload []byte
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[int64]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		directed:   make(chan directedPayload, 64),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			set, ok := h.clients[client.userID]
			if !ok {
				set = make(map[*Client]struct{})
				h.clients[client.userID] = set
			}
			set[client] = struct{}{}
		case client := <-h.unregister:
			set, ok := h.clients[client.userID]
			if !ok {
				continue
			}
			if _, exists := set[client]; exists {
				delete(set, client)
				client.releaseSend()
			}
			if len(set) == 0 {
				delete(h.clients, client.userID)
			}
		case directed := <-h.directed:
			h.deliver(directed.userID, directed.payload)
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// SendToUser queues a payload for every session the user holds. Safe to
// call from any goroutine; delivery happens on the hub loop.
func (h *Hub) SendToUser(userID int64, payload []byte) {
	select {
	case h.directed <- directedPayload{userID: userID, payload: payload}:
	default:
		log.Printf("chat hub: directed queue full, dropping payload for user %d", userID)
	}
}

func (h *Hub) deliver(userID int64, payload []byte) {
	set, ok := h.clients[userID]
	if !ok {
		return
	}

	for client := range set {
		select {
		case client.send <- payload:
		default:
			// A session that cannot keep up is dropped rather than
			// allowed to stall the hub loop. releaseSend marks the
			// session closed first; dispatcher pump goroutines enqueue
			// concurrently and must never hit a closed channel.
			delete(set, client)
			client.releaseSend()
		}
	}
	if len(set) == 0 {
		delete(h.clients, userID)
	}
}
