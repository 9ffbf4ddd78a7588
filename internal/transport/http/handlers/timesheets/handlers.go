package timesheetshandler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"wfm/internal/domain/audit"
	"wfm/internal/domain/auth"
	"wfm/internal/domain/notifications"
	"wfm/internal/domain/org"
	"wfm/internal/domain/timesheets"
	"wfm/internal/transport/http/api"
	"wfm/internal/transport/http/middleware"
	"wfm/internal/transport/http/shared"
)

type Handler struct {
	Service  *timesheets.Service
	Profiles *org.Store
	Perms    middleware.PermissionStore
	Notify   *notifications.Service
	Audit    *audit.Service
}

func NewHandler(service *timesheets.Service, profiles *org.Store, perms middleware.PermissionStore, notify *notifications.Service, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Profiles: profiles, Perms: perms, Notify: notify, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/timesheets", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermTimesheetsRead, h.Perms)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermTimesheetsRead, h.Perms)).Get("/{timesheetID}", h.handleGet)
		r.With(middleware.RequirePermission(auth.PermTimesheetsRead, h.Perms)).Get("/{timesheetID}/pdf", h.handleDownloadPDF)
		r.With(middleware.RequirePermission(auth.PermTimesheetsWrite, h.Perms)).Post("/generate", h.handleGenerate)
		r.With(middleware.RequirePermission(auth.PermTimesheetsWrite, h.Perms)).Post("/{timesheetID}/submit", h.handleSubmit)
		r.With(middleware.RequirePermission(auth.PermTimesheetsApprove, h.Perms)).Post("/{timesheetID}/approve", h.handleApprove)
		r.With(middleware.RequirePermission(auth.PermTimesheetsApprove, h.Perms)).Post("/{timesheetID}/reject", h.handleReject)
		r.With(middleware.RequirePermission(auth.PermTimesheetsWrite, h.Perms)).Post("/{timesheetID}/reopen", h.handleReopen)
		r.With(middleware.RequirePermission(auth.PermTimesheetsWrite, h.Perms)).Delete("/{timesheetID}", h.handleDelete)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	page := shared.ParsePagination(r, 50, 200)
	status := r.URL.Query().Get("status")
	profileID := r.URL.Query().Get("profileId")
	if !auth.IsPrivileged(user.RoleName) {
		profileID = user.ProfileID
	}

	list, total, err := h.Service.Store.List(r.Context(), user.OrgID, profileID, status, page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "timesheets_list_failed", "failed to list timesheets", middleware.GetRequestID(r.Context()))
		return
	}
	shared.SetTotal(w, total)
	api.Success(w, list, middleware.GetRequestID(r.Context()))
}

func (h *Handler) loadVisible(w http.ResponseWriter, r *http.Request, user auth.UserContext) (timesheets.Timesheet, bool) {
	ts, err := h.Service.Store.Get(r.Context(), user.OrgID, chi.URLParam(r, "timesheetID"))
	if err != nil {
		h.failTimesheet(w, r, err)
		return timesheets.Timesheet{}, false
	}
	if !auth.IsPrivileged(user.RoleName) && ts.ProfileID != user.ProfileID {
		api.Fail(w, http.StatusNotFound, "not_found", "timesheet not found", middleware.GetRequestID(r.Context()))
		return timesheets.Timesheet{}, false
	}
	return ts, true
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	ts, ok := h.loadVisible(w, r, user)
	if !ok {
		return
	}
	api.Success(w, ts, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDownloadPDF(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	ts, ok := h.loadVisible(w, r, user)
	if !ok {
		return
	}

	fullName := ts.ProfileID
	if profile, err := h.Profiles.GetProfile(r.Context(), user.OrgID, ts.ProfileID); err == nil {
		fullName = profile.FullName
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=timesheet-%s.pdf", ts.ID))
	if err := timesheets.WritePDF(w, ts, fullName); err != nil {
		slog.Warn("timesheet pdf render failed", "timesheetId", ts.ID, "err", err)
	}
}

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload timesheets.GenerateInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	if payload.ProfileID == "" {
		payload.ProfileID = user.ProfileID
	}
	if payload.ProfileID != user.ProfileID && !auth.IsPrivileged(user.RoleName) {
		api.Fail(w, http.StatusForbidden, "forbidden", "insufficient permissions", middleware.GetRequestID(r.Context()))
		return
	}

	ts, err := h.Service.Generate(r.Context(), user.OrgID, payload)
	if err != nil {
		h.failTimesheet(w, r, err)
		return
	}
	if err := h.Audit.Record(r.Context(), user.OrgID, user.UserID, "timesheets.generate", "timesheet", ts.ID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, payload); err != nil {
		slog.Warn("audit timesheets.generate failed", "err", err)
	}
	api.Created(w, ts, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	if _, ok := h.loadVisible(w, r, user); !ok {
		return
	}

	ts, err := h.Service.Submit(r.Context(), user.OrgID, chi.URLParam(r, "timesheetID"))
	if err != nil {
		h.failTimesheet(w, r, err)
		return
	}
	if err := h.Audit.Record(r.Context(), user.OrgID, user.UserID, "timesheets.submit", "timesheet", ts.ID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, nil); err != nil {
		slog.Warn("audit timesheets.submit failed", "err", err)
	}
	if err := h.Notify.Create(r.Context(), user.OrgID, ts.ProfileID, notifications.TypeTimesheetSubmitted,
		"Timesheet submitted", "Your timesheet was submitted for approval."); err != nil {
		slog.Warn("timesheet notification failed", "err", err)
	}
	api.Success(w, ts, middleware.GetRequestID(r.Context()))
}

type reviewRequest struct {
	Note string `json:"note"`
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, "timesheets.approve", notifications.TypeTimesheetApproved,
		"Timesheet approved", "Your timesheet was approved.",
		func(user auth.UserContext, id, note string) (timesheets.Timesheet, error) {
			return h.Service.Approve(r.Context(), user.OrgID, id, user.ProfileID, note)
		})
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, "timesheets.reject", notifications.TypeTimesheetRejected,
		"Timesheet rejected", "Your timesheet was rejected. Check the note and resubmit.",
		func(user auth.UserContext, id, note string) (timesheets.Timesheet, error) {
			return h.Service.Reject(r.Context(), user.OrgID, id, user.ProfileID, note)
		})
}

func (h *Handler) review(
	w http.ResponseWriter,
	r *http.Request,
	action, ntype, title, body string,
	run func(auth.UserContext, string, string) (timesheets.Timesheet, error),
) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload reviewRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&payload)
	}

	ts, err := run(user, chi.URLParam(r, "timesheetID"), payload.Note)
	if err != nil {
		h.failTimesheet(w, r, err)
		return
	}
	if err := h.Audit.Record(r.Context(), user.OrgID, user.UserID, action, "timesheet", ts.ID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, ts); err != nil {
		slog.Warn("audit "+action+" failed", "err", err)
	}
	if err := h.Notify.Create(r.Context(), user.OrgID, ts.ProfileID, ntype, title, body); err != nil {
		slog.Warn("timesheet notification failed", "type", ntype, "err", err)
	}
	api.Success(w, ts, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleReopen(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	if _, ok := h.loadVisible(w, r, user); !ok {
		return
	}

	ts, err := h.Service.Reopen(r.Context(), user.OrgID, chi.URLParam(r, "timesheetID"))
	if err != nil {
		h.failTimesheet(w, r, err)
		return
	}
	if err := h.Audit.Record(r.Context(), user.OrgID, user.UserID, "timesheets.reopen", "timesheet", ts.ID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, nil); err != nil {
		slog.Warn("audit timesheets.reopen failed", "err", err)
	}
	api.Success(w, ts, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	if _, ok := h.loadVisible(w, r, user); !ok {
		return
	}

	timesheetID := chi.URLParam(r, "timesheetID")
	if err := h.Service.Store.Delete(r.Context(), user.OrgID, timesheetID); err != nil {
		h.failTimesheet(w, r, err)
		return
	}
	if err := h.Audit.Record(r.Context(), user.OrgID, user.UserID, "timesheets.delete", "timesheet", timesheetID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, nil); err != nil {
		slog.Warn("audit timesheets.delete failed", "err", err)
	}
	api.Success(w, map[string]string{"status": "deleted"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) failTimesheet(w http.ResponseWriter, r *http.Request, err error) {
	requestID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, timesheets.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "timesheet not found", requestID)
	case errors.Is(err, timesheets.ErrDuplicatePeriod):
		api.Fail(w, http.StatusConflict, "duplicate_period", err.Error(), requestID)
	case errors.Is(err, timesheets.ErrInvalidTransition):
		api.Fail(w, http.StatusConflict, "invalid_transition", err.Error(), requestID)
	case errors.Is(err, timesheets.ErrInvalidPeriod):
		api.Fail(w, http.StatusBadRequest, "invalid_period", err.Error(), requestID)
	default:
		api.Fail(w, http.StatusInternalServerError, "timesheet_failed", "failed to process timesheet", requestID)
	}
}
