package ws

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Hub tracks live connections per user and fans task events out to them.
type Hub struct {
	// clients maps userID → that user's open connections.
	clients map[uuid.UUID]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	broadcast  chan *userMsg
	direct     chan directMsg
	revoke     chan revokeMsg
	stopped    chan struct{}

	logger *zap.Logger
}

type userMsg struct {
	userID uuid.UUID
	data   []byte
}

// revokeMsg closes a user's connections; an empty token closes all of them.
type revokeMsg struct {
	userID uuid.UUID
	token  string
}

// directMsg is a reply to one connection, such as a pong.
type directMsg struct {
	client *Client
	data   []byte
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *userMsg, 256),
		direct:     make(chan directMsg, 64),
		revoke:     make(chan revokeMsg),
		stopped:    make(chan struct{}),
		logger:     logger,
	}
}

// Run is the hub's event loop. It returns when ctx is done, closing every
// remaining connection.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.stopped)

	for {
		select {
		case client := <-h.register:
			conns, ok := h.clients[client.userID]
			if !ok {
				conns = make(map[*Client]struct{})
				h.clients[client.userID] = conns
			}
			conns[client] = struct{}{}
			h.logger.Debug("ws client connected", zap.Stringer("user_id", client.userID), zap.Int("user_conns", len(conns)))

		case client := <-h.unregister:
			h.remove(client)

		case msg := <-h.broadcast:
			for client := range h.clients[msg.userID] {
				select {
				case client.send <- msg.data:
				default:
					// Client buffer full - disconnect
					h.remove(client)
				}
			}

		case msg := <-h.revoke:
			for client := range h.clients[msg.userID] {
				if msg.token == "" || client.token == msg.token {
					h.remove(client)
				}
			}

		case msg := <-h.direct:
			if _, ok := h.clients[msg.client.userID][msg.client]; !ok {
				continue
			}
			select {
			case msg.client.send <- msg.data:
			default:
			}

		case <-ctx.Done():
			for _, conns := range h.clients {
				for client := range conns {
					h.remove(client)
				}
			}
			return
		}
	}
}

// Register adds a client unless the hub has stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.stopped:
		return false
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.stopped:
	}
}

// CloseSessions disconnects the user's connections opened with token, or
// every connection of the user when token is empty.
func (h *Hub) CloseSessions(userID uuid.UUID, token string) {
	select {
	case h.revoke <- revokeMsg{userID: userID, token: token}:
	case <-h.stopped:
	}
}

// SendToUser queues an event for every connection of userID.
func (h *Hub) SendToUser(userID uuid.UUID, event *Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Warn("ws hub: marshal error", zap.Error(err))
		return
	}
	select {
	case h.broadcast <- &userMsg{userID: userID, data: data}:
	default:
		h.logger.Warn("ws hub: broadcast queue full, event dropped", zap.String("type", event.Type))
	}
}

func (h *Hub) remove(client *Client) {
	conns, ok := h.clients[client.userID]
	if !ok {
		return
	}
	if _, ok := conns[client]; !ok {
		return
	}
	delete(conns, client)
	if len(conns) == 0 {
		delete(h.clients, client.userID)
	}
	close(client.send)
	close(client.done)
	h.logger.Debug("ws client disconnected", zap.Stringer("user_id", client.userID))
}
