package chathandler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"wfm/internal/domain/auth"
	"wfm/internal/domain/chat"
	"wfm/internal/transport/http/api"
	"wfm/internal/transport/http/middleware"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

type Handler struct {
	Service *chat.Service
	Perms   middleware.PermissionStore
}

func NewHandler(service *chat.Service, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: service, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/chat", func(r chi.Router) {
		r.Use(middleware.RequirePermission(auth.PermChatUse, h.Perms))
		r.Get("/rooms", h.handleListRooms)
		r.Post("/rooms", h.handleCreateRoom)
		r.Get("/rooms/{roomID}/participants", h.handleListParticipants)
		r.Get("/rooms/{roomID}/messages", h.handleHistory)
		r.Post("/rooms/{roomID}/messages", h.handleSend)
		r.Post("/rooms/{roomID}/read", h.handleMarkRead)
	})
}

func (h *Handler) handleListRooms(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	rooms, err := h.Service.Store.ListRooms(r.Context(), user.OrgID, user.ProfileID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "rooms_list_failed", "failed to list chat rooms", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, rooms, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	var input chat.CreateRoomInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	room, err := h.Service.CreateRoom(r.Context(), user.OrgID, user.ProfileID, input)
	if err != nil {
		h.failChat(w, r, err, "failed to create chat room")
		return
	}
	api.Created(w, room, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListParticipants(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	roomID := chi.URLParam(r, "roomID")
	member, err := h.Service.Store.IsParticipant(r.Context(), roomID, user.ProfileID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "chat_error", "failed to check room membership", middleware.GetRequestID(r.Context()))
		return
	}
	if !member {
		api.Fail(w, http.StatusForbidden, "not_participant", "you are not in this room", middleware.GetRequestID(r.Context()))
		return
	}
	participants, err := h.Service.Store.ListParticipants(r.Context(), roomID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "chat_error", "failed to list participants", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, participants, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	query := r.URL.Query()
	before := time.Time{}
	if raw := query.Get("before"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			api.Fail(w, http.StatusBadRequest, "invalid_before", "before must be an RFC 3339 timestamp", middleware.GetRequestID(r.Context()))
			return
		}
		before = parsed
	}
	limit := defaultHistoryLimit
	if raw := query.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			api.Fail(w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer", middleware.GetRequestID(r.Context()))
			return
		}
		limit = parsed
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	messages, err := h.Service.History(r.Context(), user.OrgID, chi.URLParam(r, "roomID"), user.ProfileID, before, limit)
	if err != nil {
		h.failChat(w, r, err, "failed to load message history")
		return
	}
	api.Success(w, messages, middleware.GetRequestID(r.Context()))
}

type sendRequest struct {
	Body string `json:"body"`
}

func (h *Handler) handleSend(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	var payload sendRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	message, err := h.Service.Send(r.Context(), user.OrgID, chi.URLParam(r, "roomID"), user.ProfileID, payload.Body)
	if err != nil {
		h.failChat(w, r, err, "failed to send message")
		return
	}
	api.Created(w, message, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Service.MarkRead(r.Context(), user.OrgID, chi.URLParam(r, "roomID"), user.ProfileID); err != nil {
		h.failChat(w, r, err, "failed to mark room as read")
		return
	}
	api.Success(w, map[string]string{"status": "read"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) failChat(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	requestID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, chat.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "chat room not found", requestID)
	case errors.Is(err, chat.ErrNotParticipant):
		api.Fail(w, http.StatusForbidden, "not_participant", "you are not in this room", requestID)
	case errors.Is(err, chat.ErrEmptyMessage), errors.Is(err, chat.ErrMessageTooLong):
		api.Fail(w, http.StatusBadRequest, "invalid_message", err.Error(), requestID)
	case errors.Is(err, chat.ErrBadRoomKind), errors.Is(err, chat.ErrDirectNeedsTwo), errors.Is(err, chat.ErrGroupNeedsName):
		api.Fail(w, http.StatusBadRequest, "invalid_room", err.Error(), requestID)
	default:
		api.Fail(w, http.StatusInternalServerError, "chat_error", fallback, requestID)
	}
}
