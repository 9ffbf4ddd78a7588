package ptohandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"wfm/internal/domain/audit"
	"wfm/internal/domain/auth"
	"wfm/internal/domain/notifications"
	"wfm/internal/domain/pto"
	"wfm/internal/transport/http/api"
	"wfm/internal/transport/http/middleware"
	"wfm/internal/transport/http/shared"
)

type Handler struct {
	Service *pto.Service
	Perms   middleware.PermissionStore
	Notify  *notifications.Service
	Audit   *audit.Service
}

func NewHandler(service *pto.Service, perms middleware.PermissionStore, notify *notifications.Service, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Perms: perms, Notify: notify, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/pto", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermPTORead, h.Perms)).Get("/policies", h.handleListPolicies)
		r.With(middleware.RequirePermission(auth.PermPTOManage, h.Perms)).Post("/policies", h.handleCreatePolicy)
		r.With(middleware.RequirePermission(auth.PermPTOManage, h.Perms)).Put("/policies/{policyID}", h.handleUpdatePolicy)
		r.With(middleware.RequirePermission(auth.PermPTORead, h.Perms)).Get("/balances", h.handleListBalances)
		r.With(middleware.RequirePermission(auth.PermPTOManage, h.Perms)).Post("/balances/initialize", h.handleInitializeBalances)
		r.With(middleware.RequirePermission(auth.PermPTOManage, h.Perms)).Post("/balances/{balanceID}/adjust", h.handleAdjustBalance)
		r.With(middleware.RequirePermission(auth.PermPTORead, h.Perms)).Get("/requests", h.handleListRequests)
		r.With(middleware.RequirePermission(auth.PermPTORead, h.Perms)).Get("/requests/{requestID}", h.handleGetRequest)
		r.With(middleware.RequirePermission(auth.PermPTOWrite, h.Perms)).Post("/requests", h.handleCreateRequest)
		r.With(middleware.RequirePermission(auth.PermPTOApprove, h.Perms)).Post("/requests/{requestID}/approve", h.handleApproveRequest)
		r.With(middleware.RequirePermission(auth.PermPTOApprove, h.Perms)).Post("/requests/{requestID}/reject", h.handleRejectRequest)
		r.With(middleware.RequirePermission(auth.PermPTOWrite, h.Perms)).Post("/requests/{requestID}/cancel", h.handleCancelRequest)
	})
}

func (h *Handler) handleListPolicies(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	policies, err := h.Service.Store.ListPolicies(r.Context(), user.OrgID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "policies_list_failed", "failed to list policies", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, policies, middleware.GetRequestID(r.Context()))
}

type policyRequest struct {
	Name             string  `json:"name"`
	PTOType          string  `json:"ptoType"`
	DaysPerYear      float64 `json:"daysPerYear"`
	AccrualRate      float64 `json:"accrualRate"`
	MaxCarryover     float64 `json:"maxCarryover"`
	MinNoticeDays    int     `json:"minNoticeDays"`
	RequiresApproval *bool   `json:"requiresApproval"`
	IsActive         *bool   `json:"isActive"`
}

func (h *Handler) decodePolicy(w http.ResponseWriter, r *http.Request) (pto.Policy, bool) {
	var payload policyRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return pto.Policy{}, false
	}

	v := shared.NewValidator()
	v.Required("name", payload.Name, "name is required")
	v.Positive("daysPerYear", payload.DaysPerYear, "days per year must be positive")
	if payload.AccrualRate < 0 {
		v.Add("accrualRate", "accrual rate cannot be negative")
	}
	if payload.MaxCarryover < 0 {
		v.Add("maxCarryover", "carryover cannot be negative")
	}
	if payload.MinNoticeDays < 0 {
		v.Add("minNoticeDays", "minimum notice cannot be negative")
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return pto.Policy{}, false
	}

	policy := pto.Policy{
		Name:             payload.Name,
		PTOType:          payload.PTOType,
		DaysPerYear:      payload.DaysPerYear,
		AccrualRate:      payload.AccrualRate,
		MaxCarryover:     payload.MaxCarryover,
		MinNoticeDays:    payload.MinNoticeDays,
		RequiresApproval: true,
		IsActive:         true,
	}
	if policy.PTOType == "" {
		policy.PTOType = "vacation"
	}
	if payload.RequiresApproval != nil {
		policy.RequiresApproval = *payload.RequiresApproval
	}
	if payload.IsActive != nil {
		policy.IsActive = *payload.IsActive
	}
	return policy, true
}

func (h *Handler) handleCreatePolicy(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	payload, ok := h.decodePolicy(w, r)
	if !ok {
		return
	}

	policy, err := h.Service.Store.CreatePolicy(r.Context(), user.OrgID, payload)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "policy_create_failed", "failed to create policy", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Audit.Record(r.Context(), user.OrgID, user.UserID, "pto.policy.create", "pto_policy", policy.ID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, policy); err != nil {
		slog.Warn("audit pto.policy.create failed", "err", err)
	}
	api.Created(w, policy, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdatePolicy(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	payload, ok := h.decodePolicy(w, r)
	if !ok {
		return
	}

	policyID := chi.URLParam(r, "policyID")
	policy, err := h.Service.Store.UpdatePolicy(r.Context(), user.OrgID, policyID, payload)
	if err != nil {
		if errors.Is(err, pto.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "policy not found", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "policy_update_failed", "failed to update policy", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Audit.Record(r.Context(), user.OrgID, user.UserID, "pto.policy.update", "pto_policy", policyID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, policy); err != nil {
		slog.Warn("audit pto.policy.update failed", "err", err)
	}
	api.Success(w, policy, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListBalances(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	profileID := user.ProfileID
	if requested := r.URL.Query().Get("profileId"); requested != "" {
		if requested != user.ProfileID && !auth.IsPrivileged(user.RoleName) {
			api.Fail(w, http.StatusForbidden, "forbidden", "insufficient permissions", middleware.GetRequestID(r.Context()))
			return
		}
		profileID = requested
	} else if auth.IsPrivileged(user.RoleName) {
		// Managers without an explicit filter see the whole organization.
		profileID = ""
	}

	year := time.Now().Year()
	if raw := r.URL.Query().Get("year"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			api.Fail(w, http.StatusBadRequest, "invalid_year", "year must be a number", middleware.GetRequestID(r.Context()))
			return
		}
		year = parsed
	}

	balances, err := h.Service.Store.ListBalances(r.Context(), user.OrgID, profileID, year)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "balances_list_failed", "failed to list balances", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, balances, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleInitializeBalances(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload pto.InitializeInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	if payload.Year == 0 {
		payload.Year = time.Now().Year()
	}

	result, err := h.Service.InitializeBalances(r.Context(), user.OrgID, payload)
	if err != nil {
		switch {
		case errors.Is(err, pto.ErrYearOutOfRange):
			api.Fail(w, http.StatusBadRequest, "year_out_of_range", err.Error(), middleware.GetRequestID(r.Context()))
		case errors.Is(err, pto.ErrNoPolicies), errors.Is(err, pto.ErrNoProfiles):
			api.Fail(w, http.StatusBadRequest, "nothing_to_initialize", err.Error(), middleware.GetRequestID(r.Context()))
		default:
			api.Fail(w, http.StatusInternalServerError, "initialize_failed", "failed to initialize balances", middleware.GetRequestID(r.Context()))
		}
		return
	}
	if err := h.Audit.Record(r.Context(), user.OrgID, user.UserID, "pto.balances.initialize", "pto_balance", strconv.Itoa(payload.Year), middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, result); err != nil {
		slog.Warn("audit pto.balances.initialize failed", "err", err)
	}
	api.Success(w, result, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleAdjustBalance(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload struct {
		DeltaDays float64 `json:"deltaDays"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	if payload.DeltaDays == 0 {
		api.Fail(w, http.StatusBadRequest, "invalid_adjustment", "deltaDays must be non-zero", middleware.GetRequestID(r.Context()))
		return
	}

	balanceID := chi.URLParam(r, "balanceID")
	balance, err := h.Service.Store.AdjustBalance(r.Context(), user.OrgID, balanceID, payload.DeltaDays)
	if err != nil {
		if errors.Is(err, pto.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "balance not found", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "balance_adjust_failed", "failed to adjust balance", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Audit.Record(r.Context(), user.OrgID, user.UserID, "pto.balance.adjust", "pto_balance", balanceID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, payload); err != nil {
		slog.Warn("audit pto.balance.adjust failed", "err", err)
	}
	api.Success(w, balance, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListRequests(w http.ResponseWriter, r *http.Request) {
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

	list, total, err := h.Service.Store.ListRequests(r.Context(), user.OrgID, profileID, status, page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "requests_list_failed", "failed to list requests", middleware.GetRequestID(r.Context()))
		return
	}
	shared.SetTotal(w, total)
	api.Success(w, list, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	req, err := h.Service.Store.GetRequest(r.Context(), user.OrgID, chi.URLParam(r, "requestID"))
	if err != nil {
		if errors.Is(err, pto.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "request not found", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "request_load_failed", "failed to load request", middleware.GetRequestID(r.Context()))
		return
	}
	if !auth.IsPrivileged(user.RoleName) && req.ProfileID != user.ProfileID {
		api.Fail(w, http.StatusNotFound, "not_found", "request not found", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, req, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload pto.CreateRequestInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	req, err := h.Service.CreateRequest(r.Context(), user.OrgID, user.ProfileID, payload)
	if err != nil {
		h.failRequest(w, r, err)
		return
	}
	if err := h.Audit.Record(r.Context(), user.OrgID, user.UserID, "pto.request.create", "pto_request", req.ID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, req); err != nil {
		slog.Warn("audit pto.request.create failed", "err", err)
	}
	if err := h.Notify.Create(r.Context(), user.OrgID, req.ProfileID, notifications.TypePTOSubmitted,
		"Time off requested", "Your time off request was submitted for approval."); err != nil {
		slog.Warn("pto notification failed", "type", notifications.TypePTOSubmitted, "err", err)
	}
	api.Created(w, req, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleApproveRequest(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, "pto.request.approve", notifications.TypePTOApproved,
		"Time off approved", "Your time off request was approved.",
		func(user auth.UserContext, id string) (pto.Request, error) {
			return h.Service.Approve(r.Context(), user.OrgID, id, user.ProfileID)
		})
}

func (h *Handler) handleRejectRequest(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, "pto.request.reject", notifications.TypePTORejected,
		"Time off rejected", "Your time off request was rejected.",
		func(user auth.UserContext, id string) (pto.Request, error) {
			return h.Service.Reject(r.Context(), user.OrgID, id, user.ProfileID)
		})
}

func (h *Handler) handleCancelRequest(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, "pto.request.cancel", "", "", "",
		func(user auth.UserContext, id string) (pto.Request, error) {
			return h.Service.Cancel(r.Context(), user.OrgID, id, user.ProfileID)
		})
}

func (h *Handler) resolve(
	w http.ResponseWriter,
	r *http.Request,
	action, ntype, title, body string,
	run func(auth.UserContext, string) (pto.Request, error),
) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	requestID := chi.URLParam(r, "requestID")
	req, err := run(user, requestID)
	if err != nil {
		h.failRequest(w, r, err)
		return
	}
	if err := h.Audit.Record(r.Context(), user.OrgID, user.UserID, action, "pto_request", req.ID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, req); err != nil {
		slog.Warn("audit "+action+" failed", "err", err)
	}
	if ntype != "" {
		if err := h.Notify.Create(r.Context(), user.OrgID, req.ProfileID, ntype, title, body); err != nil {
			slog.Warn("pto notification failed", "type", ntype, "profileId", req.ProfileID, "err", err)
		}
	}
	api.Success(w, req, middleware.GetRequestID(r.Context()))
}

func (h *Handler) failRequest(w http.ResponseWriter, r *http.Request, err error) {
	requestID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, pto.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "request not found", requestID)
	case errors.Is(err, pto.ErrAlreadyProcessed):
		api.Fail(w, http.StatusConflict, "request_conflict", err.Error(), requestID)
	case errors.Is(err, pto.ErrInvalidDateRange),
		errors.Is(err, pto.ErrCrossYearRequest):
		api.Fail(w, http.StatusBadRequest, "invalid_range", err.Error(), requestID)
	case errors.Is(err, pto.ErrPolicyInactive),
		errors.Is(err, pto.ErrInsufficientNotice),
		errors.Is(err, pto.ErrInsufficientBalance):
		api.Fail(w, http.StatusBadRequest, "request_rejected", err.Error(), requestID)
	default:
		api.Fail(w, http.StatusInternalServerError, "pto_request_failed", "failed to process request", requestID)
	}
}
