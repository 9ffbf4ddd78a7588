package formshandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"wfm/internal/domain/audit"
	"wfm/internal/domain/auth"
	"wfm/internal/domain/forms"
	"wfm/internal/transport/http/api"
	"wfm/internal/transport/http/middleware"
	"wfm/internal/transport/http/shared"
)

type Handler struct {
	Service *forms.Service
	Perms   middleware.PermissionStore
	Audit   *audit.Service
}

func NewHandler(service *forms.Service, perms middleware.PermissionStore, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/forms", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermFormsRead, h.Perms)).Get("/templates", h.handleListTemplates)
		r.With(middleware.RequirePermission(auth.PermFormsRead, h.Perms)).Get("/templates/{templateID}", h.handleGetTemplate)
		r.With(middleware.RequirePermission(auth.PermFormsWrite, h.Perms)).Post("/templates", h.handleCreateTemplate)
		r.With(middleware.RequirePermission(auth.PermFormsWrite, h.Perms)).Put("/templates/{templateID}", h.handleUpdateTemplate)
		r.With(middleware.RequirePermission(auth.PermFormsWrite, h.Perms)).Delete("/templates/{templateID}", h.handleDeleteTemplate)
		r.With(middleware.RequirePermission(auth.PermFormsRead, h.Perms)).Post("/templates/{templateID}/submit", h.handleSubmit)
		r.With(middleware.RequirePermission(auth.PermFormsRead, h.Perms)).Get("/submissions", h.handleListSubmissions)
		r.With(middleware.RequirePermission(auth.PermFormsRead, h.Perms)).Get("/submissions/{submissionID}", h.handleGetSubmission)
	})
}

func (h *Handler) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	list, err := h.Service.Store.ListTemplates(r.Context(), user.OrgID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "templates_list_failed", "failed to list form templates", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, list, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	template, err := h.Service.Store.GetTemplate(r.Context(), user.OrgID, chi.URLParam(r, "templateID"))
	if err != nil {
		h.failForm(w, r, err, "failed to load form template")
		return
	}
	api.Success(w, template, middleware.GetRequestID(r.Context()))
}

type templateRequest struct {
	Name     string        `json:"name"`
	Fields   []forms.Field `json:"fields"`
	IsActive *bool         `json:"isActive"`
}

func (h *Handler) handleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	var payload templateRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	v := shared.NewValidator()
	v.Required("name", payload.Name, "name is required")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	template, err := h.Service.CreateTemplate(r.Context(), user.OrgID, payload.Name, payload.Fields)
	if err != nil {
		h.failForm(w, r, err, "failed to create form template")
		return
	}
	if err := h.Audit.Record(r.Context(), user.OrgID, user.UserID, "forms.template.create", "form_template", template.ID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, template); err != nil {
		slog.Warn("audit record failed", "error", err)
	}
	api.Created(w, template, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateTemplate(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	var payload templateRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	v := shared.NewValidator()
	v.Required("name", payload.Name, "name is required")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	isActive := true
	if payload.IsActive != nil {
		isActive = *payload.IsActive
	}
	template, err := h.Service.UpdateTemplate(r.Context(), user.OrgID, chi.URLParam(r, "templateID"), payload.Name, payload.Fields, isActive)
	if err != nil {
		h.failForm(w, r, err, "failed to update form template")
		return
	}
	if err := h.Audit.Record(r.Context(), user.OrgID, user.UserID, "forms.template.update", "form_template", template.ID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, template); err != nil {
		slog.Warn("audit record failed", "error", err)
	}
	api.Success(w, template, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	templateID := chi.URLParam(r, "templateID")
	if err := h.Service.Store.DeleteTemplate(r.Context(), user.OrgID, templateID); err != nil {
		h.failForm(w, r, err, "failed to delete form template")
		return
	}
	if err := h.Audit.Record(r.Context(), user.OrgID, user.UserID, "forms.template.delete", "form_template", templateID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, nil); err != nil {
		slog.Warn("audit record failed", "error", err)
	}
	api.Success(w, map[string]string{"status": "deleted"}, middleware.GetRequestID(r.Context()))
}

type submitRequest struct {
	Answers map[string]any `json:"answers"`
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	var payload submitRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	submission, err := h.Service.Submit(r.Context(), user.OrgID, chi.URLParam(r, "templateID"), user.ProfileID, payload.Answers)
	if err != nil {
		h.failForm(w, r, err, "failed to submit form")
		return
	}
	if err := h.Audit.Record(r.Context(), user.OrgID, user.UserID, "forms.submit", "form_submission", submission.ID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, submission); err != nil {
		slog.Warn("audit record failed", "error", err)
	}
	api.Created(w, submission, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListSubmissions(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	page := shared.ParsePagination(r, 50, 200)
	templateID := r.URL.Query().Get("templateId")
	profileID := r.URL.Query().Get("profileId")
	if !auth.IsPrivileged(user.RoleName) {
		profileID = user.ProfileID
	}
	list, total, err := h.Service.Store.ListSubmissions(r.Context(), user.OrgID, templateID, profileID, page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "submissions_list_failed", "failed to list form submissions", middleware.GetRequestID(r.Context()))
		return
	}
	shared.SetTotal(w, total)
	api.Success(w, list, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetSubmission(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	submission, err := h.Service.Store.GetSubmission(r.Context(), user.OrgID, chi.URLParam(r, "submissionID"))
	if err != nil {
		h.failForm(w, r, err, "failed to load form submission")
		return
	}
	if !auth.IsPrivileged(user.RoleName) && submission.ProfileID != user.ProfileID {
		api.Fail(w, http.StatusNotFound, "not_found", "form submission not found", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, submission, middleware.GetRequestID(r.Context()))
}

func (h *Handler) failForm(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	requestID := middleware.GetRequestID(r.Context())
	var verr *forms.ValidationError
	switch {
	case errors.As(err, &verr):
		api.FailWithDetails(w, http.StatusBadRequest, "validation_failed", "form validation failed", verr.Problems, requestID)
	case errors.Is(err, forms.ErrTemplateInactive):
		api.Fail(w, http.StatusBadRequest, "template_inactive", "this form template is no longer active", requestID)
	case errors.Is(err, forms.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "form template or submission not found", requestID)
	default:
		api.Fail(w, http.StatusInternalServerError, "forms_error", fallback, requestID)
	}
}
