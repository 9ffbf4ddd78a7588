package timeclockhandler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"wfm/internal/domain/auth"
	"wfm/internal/domain/timeclock"
	"wfm/internal/platform/metrics"
	"wfm/internal/transport/http/api"
	"wfm/internal/transport/http/middleware"
	"wfm/internal/transport/http/shared"
)

type Handler struct {
	Service *timeclock.Service
	Perms   middleware.PermissionStore
}

func NewHandler(service *timeclock.Service, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: service, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/timeclock", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermTimeClockUse, h.Perms)).Post("/clock-in", h.handleClockIn)
		r.With(middleware.RequirePermission(auth.PermTimeClockUse, h.Perms)).Post("/clock-out", h.handleClockOut)
		r.With(middleware.RequirePermission(auth.PermTimeClockUse, h.Perms)).Post("/break/start", h.handleStartBreak)
		r.With(middleware.RequirePermission(auth.PermTimeClockUse, h.Perms)).Post("/break/end", h.handleEndBreak)
		r.With(middleware.RequirePermission(auth.PermTimeClockUse, h.Perms)).Get("/status", h.handleStatus)
		r.With(middleware.RequirePermission(auth.PermTimeClockUse, h.Perms)).Get("/entries", h.handleListEntries)
	})
}

type clockRequest struct {
	LocationID  string                 `json:"locationId"`
	ShiftID     string                 `json:"shiftId"`
	Notes       string                 `json:"notes"`
	Coordinates *timeclock.Coordinates `json:"coordinates"`
}

func (h *Handler) handleClockIn(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload clockRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	if payload.Coordinates != nil {
		v := shared.NewValidator()
		v.Coordinates("coordinates.lat", payload.Coordinates.Lat, "coordinates.lng", payload.Coordinates.Lng)
		if v.Reject(w, middleware.GetRequestID(r.Context())) {
			return
		}
	}

	entry, err := h.Service.ClockIn(r.Context(), user.OrgID, user.ProfileID, timeclock.ClockInInput{
		LocationID:  payload.LocationID,
		ShiftID:     payload.ShiftID,
		Notes:       payload.Notes,
		Coordinates: payload.Coordinates,
	}, time.Now())
	if err != nil {
		metrics.ObserveClockEvent(timeclock.EntryClockIn, "rejected")
		h.failClock(w, r, err, "clock_in_failed", "failed to clock in")
		return
	}

	metrics.ObserveClockEvent(timeclock.EntryClockIn, "accepted")
	api.Created(w, entry, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleClockOut(w http.ResponseWriter, r *http.Request) {
	h.handleTransition(w, r, timeclock.EntryClockOut, func(payload clockRequest, user auth.UserContext) (timeclock.TimeEntry, error) {
		return h.Service.ClockOut(r.Context(), user.OrgID, user.ProfileID, payload.Notes, payload.Coordinates, time.Now())
	})
}

func (h *Handler) handleStartBreak(w http.ResponseWriter, r *http.Request) {
	h.handleTransition(w, r, timeclock.EntryBreakStart, func(payload clockRequest, user auth.UserContext) (timeclock.TimeEntry, error) {
		return h.Service.StartBreak(r.Context(), user.OrgID, user.ProfileID, payload.Coordinates, time.Now())
	})
}

func (h *Handler) handleEndBreak(w http.ResponseWriter, r *http.Request) {
	h.handleTransition(w, r, timeclock.EntryBreakEnd, func(payload clockRequest, user auth.UserContext) (timeclock.TimeEntry, error) {
		return h.Service.EndBreak(r.Context(), user.OrgID, user.ProfileID, payload.Coordinates, time.Now())
	})
}

func (h *Handler) handleTransition(w http.ResponseWriter, r *http.Request, entryType string, run func(clockRequest, auth.UserContext) (timeclock.TimeEntry, error)) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload clockRequest
	if r.Body != nil {
		// Transitions carry no mandatory fields.
		_ = json.NewDecoder(r.Body).Decode(&payload)
	}

	entry, err := run(payload, user)
	if err != nil {
		metrics.ObserveClockEvent(entryType, "rejected")
		h.failClock(w, r, err, "clock_transition_failed", "failed to record time entry")
		return
	}
	metrics.ObserveClockEvent(entryType, "accepted")
	api.Created(w, entry, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	status, last, err := h.Service.Status(r.Context(), user.OrgID, user.ProfileID, time.Now())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "status_failed", "failed to load clock status", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]any{"status": status, "lastEntry": last}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListEntries(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	profileID := user.ProfileID
	if requested := r.URL.Query().Get("profileId"); requested != "" && requested != user.ProfileID {
		allowed, err := h.Perms.HasPermission(r.Context(), user.OrgID, user.RoleName, auth.PermTimeClockRead)
		if err != nil || !allowed {
			api.Fail(w, http.StatusForbidden, "forbidden", "insufficient permissions", middleware.GetRequestID(r.Context()))
			return
		}
		profileID = requested
	}

	from, to, err := shared.ParseRange(r, 14)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_range", "invalid from/to parameters", middleware.GetRequestID(r.Context()))
		return
	}
	page := shared.ParsePagination(r, 100, 500)

	entries, total, err := h.Service.ListEntries(r.Context(), user.OrgID, profileID, from, to, page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "entries_list_failed", "failed to list time entries", middleware.GetRequestID(r.Context()))
		return
	}
	shared.SetTotal(w, total)
	api.Success(w, entries, middleware.GetRequestID(r.Context()))
}

func (h *Handler) failClock(w http.ResponseWriter, r *http.Request, err error, fallbackCode, fallbackMessage string) {
	requestID := middleware.GetRequestID(r.Context())

	var windowErr *timeclock.WindowError
	if errors.As(err, &windowErr) {
		api.FailWithDetails(w, http.StatusBadRequest, "outside_clock_window", windowErr.Error(), map[string]int{
			"minutesUntilAllowed": windowErr.MinutesUntilAllowed,
			"minutesLate":         windowErr.MinutesLate,
		}, requestID)
		return
	}

	switch {
	case errors.Is(err, timeclock.ErrShiftRequired),
		errors.Is(err, timeclock.ErrLocationRequired),
		errors.Is(err, timeclock.ErrCoordinatesRequired):
		api.Fail(w, http.StatusBadRequest, "clock_precondition", err.Error(), requestID)
	case errors.Is(err, timeclock.ErrShiftNotToday),
		errors.Is(err, timeclock.ErrLocationInactive),
		errors.Is(err, timeclock.ErrOutsideGeofence):
		api.Fail(w, http.StatusBadRequest, "clock_rejected", err.Error(), requestID)
	case errors.Is(err, timeclock.ErrShiftAlreadyClocked),
		errors.Is(err, timeclock.ErrAlreadyClockedIn),
		errors.Is(err, timeclock.ErrNotClockedIn),
		errors.Is(err, timeclock.ErrNotOnBreak),
		errors.Is(err, timeclock.ErrAlreadyOnBreak):
		api.Fail(w, http.StatusConflict, "clock_state_conflict", err.Error(), requestID)
	case errors.Is(err, timeclock.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), requestID)
	default:
		api.Fail(w, http.StatusInternalServerError, fallbackCode, fallbackMessage, requestID)
	}
}
