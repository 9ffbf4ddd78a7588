package reportshandler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"wfm/internal/domain/auth"
	"wfm/internal/domain/reports"
	"wfm/internal/transport/http/api"
	"wfm/internal/transport/http/middleware"
	"wfm/internal/transport/http/shared"
)

type Handler struct {
	Service *reports.Service
	Perms   middleware.PermissionStore
}

func NewHandler(service *reports.Service, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: service, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/reports", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermReportsRead, h.Perms)).Get("/attendance", h.handleAttendance)
		r.With(middleware.RequirePermission(auth.PermReportsRead, h.Perms)).Get("/attendance/export", h.handleAttendanceExport)
		r.With(middleware.RequirePermission(auth.PermReportsRead, h.Perms)).Get("/coverage", h.handleCoverage)
		r.With(middleware.RequirePermission(auth.PermReportsRead, h.Perms)).Get("/coverage/export", h.handleCoverageExport)
	})
}

func (h *Handler) attendanceRows(w http.ResponseWriter, r *http.Request) ([]reports.AttendanceRow, bool) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return nil, false
	}

	from, to, err := shared.ParseRange(r, 30)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_range", "invalid from/to parameters", middleware.GetRequestID(r.Context()))
		return nil, false
	}

	rows, err := h.Service.Attendance(r.Context(), user.OrgID, r.URL.Query().Get("locationId"), from, to)
	if err != nil {
		if errors.Is(err, reports.ErrInvalidRange) {
			api.Fail(w, http.StatusBadRequest, "invalid_range", err.Error(), middleware.GetRequestID(r.Context()))
			return nil, false
		}
		api.Fail(w, http.StatusInternalServerError, "report_failed", "failed to build attendance report", middleware.GetRequestID(r.Context()))
		return nil, false
	}
	return rows, true
}

func (h *Handler) handleAttendance(w http.ResponseWriter, r *http.Request) {
	rows, ok := h.attendanceRows(w, r)
	if !ok {
		return
	}
	api.Success(w, rows, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleAttendanceExport(w http.ResponseWriter, r *http.Request) {
	rows, ok := h.attendanceRows(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=attendance.csv")
	if err := reports.WriteAttendanceCSV(w, rows); err != nil {
		slog.Warn("attendance export failed", "err", err)
	}
}

func (h *Handler) coverageBuckets(w http.ResponseWriter, r *http.Request) ([]reports.CoverageBucket, bool) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return nil, false
	}

	from, to, err := shared.ParseRange(r, 30)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_range", "invalid from/to parameters", middleware.GetRequestID(r.Context()))
		return nil, false
	}

	buckets, err := h.Service.Coverage(r.Context(), user.OrgID, from, to)
	if err != nil {
		if errors.Is(err, reports.ErrInvalidRange) {
			api.Fail(w, http.StatusBadRequest, "invalid_range", err.Error(), middleware.GetRequestID(r.Context()))
			return nil, false
		}
		api.Fail(w, http.StatusInternalServerError, "report_failed", "failed to build coverage report", middleware.GetRequestID(r.Context()))
		return nil, false
	}
	return buckets, true
}

func (h *Handler) handleCoverage(w http.ResponseWriter, r *http.Request) {
	buckets, ok := h.coverageBuckets(w, r)
	if !ok {
		return
	}
	api.Success(w, buckets, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCoverageExport(w http.ResponseWriter, r *http.Request) {
	buckets, ok := h.coverageBuckets(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=coverage.csv")
	if err := reports.WriteCoverageCSV(w, buckets); err != nil {
		slog.Warn("coverage export failed", "err", err)
	}
}
