package shiftshandler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"wfm/internal/domain/audit"
	"wfm/internal/domain/auth"
	"wfm/internal/domain/notifications"
	"wfm/internal/domain/shifts"
	"wfm/internal/platform/metrics"
	"wfm/internal/transport/http/api"
	"wfm/internal/transport/http/middleware"
	"wfm/internal/transport/http/shared"
)

type Handler struct {
	Service *shifts.Service
	Perms   middleware.PermissionStore
	Notify  *notifications.Service
	Audit   *audit.Service
}

func NewHandler(service *shifts.Service, perms middleware.PermissionStore, notify *notifications.Service, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Perms: perms, Notify: notify, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/shifts", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermShiftsRead, h.Perms)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermShiftsRead, h.Perms)).Get("/{shiftID}", h.handleGet)
		r.With(middleware.RequirePermission(auth.PermShiftsWrite, h.Perms)).Post("/", h.handleCreate)
		r.With(middleware.RequirePermission(auth.PermShiftsWrite, h.Perms)).Put("/{shiftID}", h.handleUpdate)
		r.With(middleware.RequirePermission(auth.PermShiftsWrite, h.Perms)).Delete("/{shiftID}", h.handleDelete)
		r.With(middleware.RequirePermission(auth.PermShiftsBulk, h.Perms)).Post("/bulk/publish", h.handleBulkPublish)
		r.With(middleware.RequirePermission(auth.PermShiftsBulk, h.Perms)).Post("/bulk/copy", h.handleBulkCopy)
		r.With(middleware.RequirePermission(auth.PermShiftsBulk, h.Perms)).Post("/bulk/delete", h.handleBulkDelete)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	from, to, err := shared.ParseRange(r, 7)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_range", "invalid from/to parameters", middleware.GetRequestID(r.Context()))
		return
	}
	page := shared.ParsePagination(r, 100, 500)

	filter := shifts.ListFilter{
		ProfileID:  r.URL.Query().Get("profileId"),
		LocationID: r.URL.Query().Get("locationId"),
		From:       from,
		To:         to,
		Limit:      page.Limit,
		Offset:     page.Offset,
	}
	if raw := r.URL.Query().Get("published"); raw != "" {
		published, err := strconv.ParseBool(raw)
		if err != nil {
			api.Fail(w, http.StatusBadRequest, "invalid_filter", "published must be true or false", middleware.GetRequestID(r.Context()))
			return
		}
		filter.Published = &published
	}

	// Employees only see the published schedule plus their own drafts.
	if !auth.IsPrivileged(user.RoleName) && filter.ProfileID != user.ProfileID {
		published := true
		filter.Published = &published
	}

	list, total, err := h.Service.Store.List(r.Context(), user.OrgID, filter)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "shifts_list_failed", "failed to list shifts", middleware.GetRequestID(r.Context()))
		return
	}
	shared.SetTotal(w, total)
	api.Success(w, list, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	shift, err := h.Service.Store.Get(r.Context(), user.OrgID, chi.URLParam(r, "shiftID"))
	if err != nil {
		if errors.Is(err, shifts.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "shift not found", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "shift_load_failed", "failed to load shift", middleware.GetRequestID(r.Context()))
		return
	}
	if !shift.Published && !auth.IsPrivileged(user.RoleName) && shift.ProfileID != user.ProfileID {
		api.Fail(w, http.StatusNotFound, "not_found", "shift not found", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, shift, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload shifts.CreateShiftInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	shift, err := h.Service.Create(r.Context(), user.OrgID, payload)
	if err != nil {
		if errors.Is(err, shifts.ErrInvalidRange) {
			api.Fail(w, http.StatusBadRequest, "invalid_range", err.Error(), middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "shift_create_failed", "failed to create shift", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Audit.Record(r.Context(), user.OrgID, user.UserID, "shifts.create", "shift", shift.ID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, shift); err != nil {
		slog.Warn("audit shifts.create failed", "err", err)
	}
	if shift.Published {
		h.notifyAssignees(r, user.OrgID, []shifts.Shift{shift})
	}
	api.Created(w, shift, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload shifts.CreateShiftInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	shiftID := chi.URLParam(r, "shiftID")
	shift, err := h.Service.Update(r.Context(), user.OrgID, shiftID, payload)
	if err != nil {
		switch {
		case errors.Is(err, shifts.ErrNotFound):
			api.Fail(w, http.StatusNotFound, "not_found", "shift not found", middleware.GetRequestID(r.Context()))
		case errors.Is(err, shifts.ErrInvalidRange):
			api.Fail(w, http.StatusBadRequest, "invalid_range", err.Error(), middleware.GetRequestID(r.Context()))
		default:
			api.Fail(w, http.StatusInternalServerError, "shift_update_failed", "failed to update shift", middleware.GetRequestID(r.Context()))
		}
		return
	}
	if err := h.Audit.Record(r.Context(), user.OrgID, user.UserID, "shifts.update", "shift", shiftID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, shift); err != nil {
		slog.Warn("audit shifts.update failed", "err", err)
	}
	api.Success(w, shift, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	shiftID := chi.URLParam(r, "shiftID")
	if err := h.Service.Store.Delete(r.Context(), user.OrgID, shiftID); err != nil {
		if errors.Is(err, shifts.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "shift not found", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "shift_delete_failed", "failed to delete shift", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Audit.Record(r.Context(), user.OrgID, user.UserID, "shifts.delete", "shift", shiftID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, nil); err != nil {
		slog.Warn("audit shifts.delete failed", "err", err)
	}
	api.Success(w, map[string]string{"status": "deleted"}, middleware.GetRequestID(r.Context()))
}

type bulkSelection struct {
	IDs []string `json:"ids"`
}

type bulkCopyRequest struct {
	IDs         []string `json:"ids"`
	TargetDates []string `json:"targetDates"`
}

func (h *Handler) handleBulkPublish(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload bulkSelection
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	count, err := h.Service.Publish(r.Context(), user.OrgID, payload.IDs, true)
	if err != nil {
		h.failBulk(w, r, err, "bulk_publish_failed", "failed to publish shifts")
		return
	}
	metrics.ObserveBulkShiftOp("publish")
	if err := h.Audit.Record(r.Context(), user.OrgID, user.UserID, "shifts.bulk.publish", "shift", fmt.Sprintf("%d shifts", count), middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, payload.IDs); err != nil {
		slog.Warn("audit shifts.bulk.publish failed", "err", err)
	}

	if published, err := h.Service.Store.GetByIDs(r.Context(), user.OrgID, payload.IDs); err == nil {
		h.notifyAssignees(r, user.OrgID, published)
	}

	api.Success(w, map[string]int{"published": count}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleBulkCopy(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload bulkCopyRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	v := shared.NewValidator()
	dates := make([]time.Time, 0, len(payload.TargetDates))
	for _, raw := range payload.TargetDates {
		if date, ok := v.Date("targetDates", raw); ok {
			dates = append(dates, date)
		}
	}
	if len(payload.TargetDates) == 0 {
		v.Add("targetDates", "at least one target date is required")
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	copied, err := h.Service.Copy(r.Context(), user.OrgID, payload.IDs, dates)
	if err != nil {
		h.failBulk(w, r, err, "bulk_copy_failed", "failed to copy shifts")
		return
	}
	metrics.ObserveBulkShiftOp("copy")
	if err := h.Audit.Record(r.Context(), user.OrgID, user.UserID, "shifts.bulk.copy", "shift", fmt.Sprintf("%d shifts", len(copied)), middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, payload); err != nil {
		slog.Warn("audit shifts.bulk.copy failed", "err", err)
	}
	api.Created(w, copied, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleBulkDelete(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload bulkSelection
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	count, err := h.Service.DeleteMany(r.Context(), user.OrgID, payload.IDs)
	if err != nil {
		h.failBulk(w, r, err, "bulk_delete_failed", "failed to delete shifts")
		return
	}
	metrics.ObserveBulkShiftOp("delete")
	if err := h.Audit.Record(r.Context(), user.OrgID, user.UserID, "shifts.bulk.delete", "shift", fmt.Sprintf("%d shifts", count), middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, payload.IDs); err != nil {
		slog.Warn("audit shifts.bulk.delete failed", "err", err)
	}
	api.Success(w, map[string]int{"deleted": count}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) failBulk(w http.ResponseWriter, r *http.Request, err error, fallbackCode, fallbackMessage string) {
	requestID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, shifts.ErrEmptySelection), errors.Is(err, shifts.ErrNoTargetDates):
		api.Fail(w, http.StatusBadRequest, "empty_selection", err.Error(), requestID)
	case errors.Is(err, shifts.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "one or more shifts were not found", requestID)
	default:
		api.Fail(w, http.StatusInternalServerError, fallbackCode, fallbackMessage, requestID)
	}
}

func (h *Handler) notifyAssignees(r *http.Request, orgID string, published []shifts.Shift) {
	seen := map[string]bool{}
	for _, shift := range published {
		if shift.ProfileID == "" || seen[shift.ProfileID] {
			continue
		}
		seen[shift.ProfileID] = true
		if err := h.Notify.Create(r.Context(), orgID, shift.ProfileID, notifications.TypeShiftPublished,
			"Your schedule was updated", "New shifts were published to your schedule."); err != nil {
			slog.Warn("shift publish notification failed", "profileId", shift.ProfileID, "err", err)
		}
	}
}
