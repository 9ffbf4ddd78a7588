package realtime

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"
)

// Subscription filters which events a client receives. Empty fields match
// everything; OrgID is always set server-side from the caller's session.
type Subscription struct {
	OrgID  string
	UserID string
	RoomID string
}

type Client struct {
	ID           string
	Send         chan []byte
	Subscription Subscription
}

// Event carries any marshalable payload; Broadcast serializes the whole
// event once per delivery fan-out.
type Event struct {
	Type      string    `json:"type"`
	OrgID     string    `json:"orgId"`
	UserID    string    `json:"userId,omitempty"`
	RoomID    string    `json:"roomId,omitempty"`
	Payload   any       `json:"payload"`
	CreatedAt time.Time `json:"createdAt"`
}

type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

func New() *Hub {
	return &Hub{clients: make(map[string]*Client)}
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ID] = client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client.ID]; !ok {
		return
	}
	delete(h.clients, client.ID)
	close(client.Send)
}

func (h *Hub) UpdateSubscription(client *Client, sub Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	client.Subscription = sub
}

// Broadcast delivers the event to every matching client. Slow clients are
// dropped rather than backpressured.
func (h *Hub) Broadcast(event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		slog.Warn("realtime event marshal failed", "type", event.Type, "err", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		if !match(client.Subscription, event) {
			continue
		}
		select {
		case client.Send <- payload:
		default:
			slog.Warn("realtime client send buffer full, dropping message", "clientId", client.ID)
		}
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func match(sub Subscription, event Event) bool {
	if sub.OrgID != "" && event.OrgID != sub.OrgID {
		return false
	}
	// Targeted events reach only the addressed user.
	if event.UserID != "" && event.UserID != sub.UserID {
		return false
	}
	// Room events reach only clients explicitly subscribed to that room.
	if event.RoomID != "" && event.RoomID != sub.RoomID {
		return false
	}
	return true
}

type SubscribeMessage struct {
	Action string `json:"action"`
	RoomID string `json:"roomId"`
}

func ParseSubscribe(data []byte) (SubscribeMessage, bool) {
	var msg SubscribeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return SubscribeMessage{}, false
	}
	if msg.Action != "subscribe" && msg.Action != "unsubscribe" {
		return SubscribeMessage{}, false
	}
	return msg, true
}
