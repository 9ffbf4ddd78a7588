package ws

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"wfm/internal/platform/metrics"
	"wfm/internal/platform/realtime"
	"wfm/internal/transport/http/api"
	"wfm/internal/transport/http/middleware"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
	sendBufferSize = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Auth is bearer-token based (header or, for browsers, the token query
	// parameter), never cookie based, so cross-origin connects carry no
	// ambient credentials.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// RoomMembership answers whether a profile belongs to a chat room.
type RoomMembership interface {
	IsParticipant(ctx context.Context, roomID, profileID string) (bool, error)
}

type Handler struct {
	Hub   *realtime.Hub
	Rooms RoomMembership
}

func NewHandler(hub *realtime.Hub, rooms RoomMembership) *Handler {
	return &Handler{Hub: hub, Rooms: rooms}
}

// ServeHTTP upgrades the request and keeps the connection subscribed to
// the caller's organization until either side closes it.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := &realtime.Client{
		ID:   uuid.NewString(),
		Send: make(chan []byte, sendBufferSize),
		Subscription: realtime.Subscription{
			OrgID:  user.OrgID,
			UserID: user.ProfileID,
		},
	}
	h.Hub.Register(client)
	metrics.RealtimeClientConnected()
	slog.Info("websocket client connected", "clientId", client.ID, "orgId", user.OrgID)

	go h.writePump(conn, client)
	h.readPump(conn, client, user.OrgID, user.ProfileID)
}

func (h *Handler) readPump(conn *websocket.Conn, client *realtime.Client, orgID, profileID string) {
	defer func() {
		h.Hub.Unregister(client)
		metrics.RealtimeClientDisconnected()
		conn.Close()
		slog.Info("websocket client disconnected", "clientId", client.ID)
	}()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("websocket read failed", "clientId", client.ID, "error", err)
			}
			return
		}
		msg, ok := realtime.ParseSubscribe(data)
		if !ok {
			continue
		}
		sub := realtime.Subscription{OrgID: orgID, UserID: profileID}
		if msg.Action == "subscribe" && msg.RoomID != "" {
			member, err := h.Rooms.IsParticipant(context.Background(), msg.RoomID, profileID)
			if err != nil {
				slog.Warn("room membership lookup failed", "roomId", msg.RoomID, "error", err)
				continue
			}
			if !member {
				slog.Warn("room subscribe denied", "clientId", client.ID, "roomId", msg.RoomID)
				continue
			}
			sub.RoomID = msg.RoomID
		}
		h.Hub.UpdateSubscription(client, sub)
	}
}

func (h *Handler) writePump(conn *websocket.Conn, client *realtime.Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case payload, ok := <-client.Send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
