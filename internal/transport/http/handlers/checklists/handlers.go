package checklistshandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"wfm/internal/domain/audit"
	"wfm/internal/domain/auth"
	"wfm/internal/domain/checklists"
	"wfm/internal/domain/notifications"
	"wfm/internal/transport/http/api"
	"wfm/internal/transport/http/middleware"
	"wfm/internal/transport/http/shared"
)

type Handler struct {
	Service *checklists.Service
	Perms   middleware.PermissionStore
	Notify  *notifications.Service
	Audit   *audit.Service
}

func NewHandler(service *checklists.Service, perms middleware.PermissionStore, notify *notifications.Service, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Perms: perms, Notify: notify, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/checklists", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermChecklistsRead, h.Perms)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermChecklistsWrite, h.Perms)).Post("/", h.handleCreate)
		r.With(middleware.RequirePermission(auth.PermChecklistsWrite, h.Perms)).Put("/{checklistID}", h.handleUpdate)
		r.With(middleware.RequirePermission(auth.PermChecklistsWrite, h.Perms)).Delete("/{checklistID}", h.handleDelete)
		r.With(middleware.RequirePermission(auth.PermChecklistsWrite, h.Perms)).Post("/{checklistID}/assign", h.handleAssign)
		r.With(middleware.RequirePermission(auth.PermChecklistsRead, h.Perms)).Get("/assignments", h.handleListAssignments)
		r.With(middleware.RequirePermission(auth.PermChecklistsRead, h.Perms)).Get("/assignments/{assignmentID}", h.handleGetAssignment)
		r.With(middleware.RequirePermission(auth.PermChecklistsRead, h.Perms)).Post("/assignments/{assignmentID}/items/{itemKey}", h.handleToggleItem)
		r.With(middleware.RequirePermission(auth.PermChecklistsRead, h.Perms)).Post("/assignments/{assignmentID}/complete", h.handleComplete)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	list, err := h.Service.Store.List(r.Context(), user.OrgID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "checklists_list_failed", "failed to list checklists", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, list, middleware.GetRequestID(r.Context()))
}

type checklistRequest struct {
	Name     string            `json:"name"`
	Items    []checklists.Item `json:"items"`
	IsActive *bool             `json:"isActive"`
}

func (h *Handler) validateChecklist(w http.ResponseWriter, r *http.Request, payload checklistRequest) bool {
	v := shared.NewValidator()
	v.Required("name", payload.Name, "name is required")
	if len(payload.Items) == 0 {
		v.Add("items", "at least one item is required")
	}
	seen := map[string]bool{}
	for _, item := range payload.Items {
		if item.Key == "" {
			v.Add("items", "every item needs a key")
		} else if seen[item.Key] {
			v.Add("items", "duplicate item key: "+item.Key)
		}
		seen[item.Key] = true
		if item.Label == "" && item.Key != "" {
			v.Add("items", "item "+item.Key+" needs a label")
		}
	}
	return !v.Reject(w, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload checklistRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	if !h.validateChecklist(w, r, payload) {
		return
	}

	checklist, err := h.Service.Store.Create(r.Context(), user.OrgID, payload.Name, payload.Items)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "checklist_create_failed", "failed to create checklist", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Audit.Record(r.Context(), user.OrgID, user.UserID, "checklists.create", "checklist", checklist.ID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, checklist); err != nil {
		slog.Warn("audit checklists.create failed", "err", err)
	}
	api.Created(w, checklist, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload checklistRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	if !h.validateChecklist(w, r, payload) {
		return
	}
	isActive := true
	if payload.IsActive != nil {
		isActive = *payload.IsActive
	}

	checklistID := chi.URLParam(r, "checklistID")
	checklist, err := h.Service.Store.Update(r.Context(), user.OrgID, checklistID, payload.Name, payload.Items, isActive)
	if err != nil {
		if errors.Is(err, checklists.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "checklist not found", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "checklist_update_failed", "failed to update checklist", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Audit.Record(r.Context(), user.OrgID, user.UserID, "checklists.update", "checklist", checklistID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, checklist); err != nil {
		slog.Warn("audit checklists.update failed", "err", err)
	}
	api.Success(w, checklist, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	checklistID := chi.URLParam(r, "checklistID")
	if err := h.Service.Store.Delete(r.Context(), user.OrgID, checklistID); err != nil {
		if errors.Is(err, checklists.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "checklist not found", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "checklist_delete_failed", "failed to delete checklist", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Audit.Record(r.Context(), user.OrgID, user.UserID, "checklists.delete", "checklist", checklistID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, nil); err != nil {
		slog.Warn("audit checklists.delete failed", "err", err)
	}
	api.Success(w, map[string]string{"status": "deleted"}, middleware.GetRequestID(r.Context()))
}

type assignRequest struct {
	ProfileID  string  `json:"profileId"`
	LocationID *string `json:"locationId"`
	DueDate    string  `json:"dueDate"`
}

func (h *Handler) handleAssign(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload assignRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	v.Required("profileId", payload.ProfileID, "profile is required")
	dueDate, _ := v.Date("dueDate", payload.DueDate)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	if dueDate.IsZero() {
		dueDate = time.Now().AddDate(0, 0, 7)
	}

	assignment, err := h.Service.Assign(r.Context(), user.OrgID, chi.URLParam(r, "checklistID"), payload.ProfileID, payload.LocationID, dueDate)
	if err != nil {
		h.failChecklist(w, r, err)
		return
	}
	if err := h.Audit.Record(r.Context(), user.OrgID, user.UserID, "checklists.assign", "checklist_assignment", assignment.ID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, assignment); err != nil {
		slog.Warn("audit checklists.assign failed", "err", err)
	}
	if err := h.Notify.Create(r.Context(), user.OrgID, payload.ProfileID, notifications.TypeChecklistAssigned,
		"New checklist assigned", "A checklist was assigned to you."); err != nil {
		slog.Warn("checklist notification failed", "profileId", payload.ProfileID, "err", err)
	}
	api.Created(w, assignment, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListAssignments(w http.ResponseWriter, r *http.Request) {
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

	list, total, err := h.Service.Store.ListAssignments(r.Context(), user.OrgID, profileID, status, page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "assignments_list_failed", "failed to list assignments", middleware.GetRequestID(r.Context()))
		return
	}
	shared.SetTotal(w, total)
	api.Success(w, list, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetAssignment(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	assignment, err := h.Service.Store.GetAssignment(r.Context(), user.OrgID, chi.URLParam(r, "assignmentID"))
	if err != nil {
		h.failChecklist(w, r, err)
		return
	}
	if !auth.IsPrivileged(user.RoleName) && assignment.ProfileID != user.ProfileID {
		api.Fail(w, http.StatusNotFound, "not_found", "assignment not found", middleware.GetRequestID(r.Context()))
		return
	}

	checklist, err := h.Service.Store.Get(r.Context(), user.OrgID, assignment.ChecklistID)
	if err != nil {
		api.Success(w, assignment, middleware.GetRequestID(r.Context()))
		return
	}
	done, total := checklists.Progress(checklist, assignment)
	api.Success(w, map[string]any{
		"assignment": assignment,
		"checklist":  checklist,
		"progress":   map[string]int{"done": done, "total": total},
	}, middleware.GetRequestID(r.Context()))
}

type toggleRequest struct {
	Done bool `json:"done"`
}

func (h *Handler) handleToggleItem(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	payload := toggleRequest{Done: true}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&payload)
	}

	assignment, err := h.Service.ToggleItem(r.Context(), user.OrgID, chi.URLParam(r, "assignmentID"), user.ProfileID, chi.URLParam(r, "itemKey"), payload.Done)
	if err != nil {
		h.failChecklist(w, r, err)
		return
	}
	api.Success(w, assignment, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleComplete(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	assignment, err := h.Service.Complete(r.Context(), user.OrgID, chi.URLParam(r, "assignmentID"), user.ProfileID)
	if err != nil {
		h.failChecklist(w, r, err)
		return
	}
	if err := h.Audit.Record(r.Context(), user.OrgID, user.UserID, "checklists.complete", "checklist_assignment", assignment.ID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, nil); err != nil {
		slog.Warn("audit checklists.complete failed", "err", err)
	}
	api.Success(w, assignment, middleware.GetRequestID(r.Context()))
}

func (h *Handler) failChecklist(w http.ResponseWriter, r *http.Request, err error) {
	requestID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, checklists.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "not found", requestID)
	case errors.Is(err, checklists.ErrNotYourAssignment):
		api.Fail(w, http.StatusForbidden, "forbidden", err.Error(), requestID)
	case errors.Is(err, checklists.ErrChecklistInactive),
		errors.Is(err, checklists.ErrUnknownItem):
		api.Fail(w, http.StatusBadRequest, "checklist_invalid", err.Error(), requestID)
	case errors.Is(err, checklists.ErrAlreadyCompleted),
		errors.Is(err, checklists.ErrRequiredItemsRemain):
		api.Fail(w, http.StatusConflict, "checklist_conflict", err.Error(), requestID)
	default:
		api.Fail(w, http.StatusInternalServerError, "checklist_failed", "failed to process checklist", requestID)
	}
}
