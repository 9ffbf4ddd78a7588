package swapshandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"wfm/internal/domain/audit"
	"wfm/internal/domain/auth"
	"wfm/internal/domain/notifications"
	"wfm/internal/domain/swaps"
	"wfm/internal/platform/metrics"
	"wfm/internal/transport/http/api"
	"wfm/internal/transport/http/middleware"
	"wfm/internal/transport/http/shared"
)

type Handler struct {
	Service *swaps.Service
	Perms   middleware.PermissionStore
	Notify  *notifications.Service
	Audit   *audit.Service
}

func NewHandler(service *swaps.Service, perms middleware.PermissionStore, notify *notifications.Service, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Perms: perms, Notify: notify, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/swaps", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermSwapsRead, h.Perms)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermSwapsRead, h.Perms)).Get("/{swapID}", h.handleGet)
		r.With(middleware.RequirePermission(auth.PermSwapsWrite, h.Perms)).Post("/", h.handleCreate)
		r.With(middleware.RequirePermission(auth.PermSwapsWrite, h.Perms)).Post("/{swapID}/accept", h.handleAccept)
		r.With(middleware.RequirePermission(auth.PermSwapsWrite, h.Perms)).Post("/{swapID}/decline", h.handleDecline)
		r.With(middleware.RequirePermission(auth.PermSwapsWrite, h.Perms)).Post("/{swapID}/cancel", h.handleCancel)
		r.With(middleware.RequirePermission(auth.PermSwapsApprove, h.Perms)).Post("/{swapID}/approve", h.handleApprove)
		r.With(middleware.RequirePermission(auth.PermSwapsApprove, h.Perms)).Post("/{swapID}/reject", h.handleReject)
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
		// Employees only list swaps they are part of.
		profileID = user.ProfileID
	}

	list, total, err := h.Service.List(r.Context(), user.OrgID, status, profileID, page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "swaps_list_failed", "failed to list swap requests", middleware.GetRequestID(r.Context()))
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
	swap, err := h.Service.Get(r.Context(), user.OrgID, chi.URLParam(r, "swapID"))
	if err != nil {
		h.failSwap(w, r, err, "swap_load_failed", "failed to load swap request")
		return
	}
	if !auth.IsPrivileged(user.RoleName) && swap.RequesterProfileID != user.ProfileID && swap.TargetProfileID != user.ProfileID {
		api.Fail(w, http.StatusNotFound, "not_found", "swap request not found", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, swap, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload swaps.CreateSwapInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	v.Required("targetProfileId", payload.TargetProfileID, "target profile is required")
	v.Required("requesterShiftId", payload.RequesterShiftID, "offered shift is required")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	swap, err := h.Service.Create(r.Context(), user.OrgID, user.ProfileID, payload)
	if err != nil {
		h.failSwap(w, r, err, "swap_create_failed", "failed to create swap request")
		return
	}

	metrics.ObserveSwapTransition(swap.Status)
	if err := h.Audit.Record(r.Context(), user.OrgID, user.UserID, "swaps.create", "swap_request", swap.ID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, swap); err != nil {
		slog.Warn("audit swaps.create failed", "err", err)
	}
	h.notify(r, user.OrgID, swap.TargetProfileID, notifications.TypeSwapRequested,
		"New shift swap request", "A teammate asked to swap a shift with you.")

	api.Created(w, swap, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleAccept(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "swaps.accept", func(user auth.UserContext, id string) (swaps.SwapRequest, error) {
		return h.Service.Accept(r.Context(), user.OrgID, id, user.ProfileID)
	}, func(swap swaps.SwapRequest) (string, string, string, string) {
		if swap.Status == swaps.StatusApproved {
			return swap.RequesterProfileID, notifications.TypeSwapApproved, "Shift swap approved", "Your shift swap went through."
		}
		return swap.RequesterProfileID, notifications.TypeSwapAccepted, "Shift swap accepted", "Your swap was accepted and awaits approval."
	})
}

func (h *Handler) handleDecline(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "swaps.decline", func(user auth.UserContext, id string) (swaps.SwapRequest, error) {
		return h.Service.Decline(r.Context(), user.OrgID, id, user.ProfileID)
	}, func(swap swaps.SwapRequest) (string, string, string, string) {
		return swap.RequesterProfileID, notifications.TypeSwapRejected, "Shift swap declined", "The other person declined your swap request."
	})
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "swaps.cancel", func(user auth.UserContext, id string) (swaps.SwapRequest, error) {
		return h.Service.Cancel(r.Context(), user.OrgID, id, user.ProfileID)
	}, func(swap swaps.SwapRequest) (string, string, string, string) {
		return swap.TargetProfileID, notifications.TypeSwapCancelled, "Shift swap cancelled", "The requester withdrew the swap request."
	})
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "swaps.approve", func(user auth.UserContext, id string) (swaps.SwapRequest, error) {
		return h.Service.Approve(r.Context(), user.OrgID, id, user.ProfileID)
	}, func(swap swaps.SwapRequest) (string, string, string, string) {
		return swap.RequesterProfileID, notifications.TypeSwapApproved, "Shift swap approved", "Your shift swap was approved."
	})
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "swaps.reject", func(user auth.UserContext, id string) (swaps.SwapRequest, error) {
		return h.Service.Reject(r.Context(), user.OrgID, id, user.ProfileID)
	}, func(swap swaps.SwapRequest) (string, string, string, string) {
		return swap.RequesterProfileID, notifications.TypeSwapRejected, "Shift swap rejected", "A manager rejected your shift swap."
	})
}

func (h *Handler) transition(
	w http.ResponseWriter,
	r *http.Request,
	action string,
	run func(auth.UserContext, string) (swaps.SwapRequest, error),
	note func(swaps.SwapRequest) (profileID, ntype, title, body string),
) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	swapID := chi.URLParam(r, "swapID")
	swap, err := run(user, swapID)
	if err != nil {
		h.failSwap(w, r, err, "swap_transition_failed", "failed to update swap request")
		return
	}

	metrics.ObserveSwapTransition(swap.Status)
	if err := h.Audit.Record(r.Context(), user.OrgID, user.UserID, action, "swap_request", swap.ID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, swap); err != nil {
		slog.Warn("audit "+action+" failed", "err", err)
	}
	if profileID, ntype, title, body := note(swap); profileID != "" {
		h.notify(r, user.OrgID, profileID, ntype, title, body)
	}

	api.Success(w, swap, middleware.GetRequestID(r.Context()))
}

func (h *Handler) notify(r *http.Request, orgID, profileID, ntype, title, body string) {
	if err := h.Notify.Create(r.Context(), orgID, profileID, ntype, title, body); err != nil {
		slog.Warn("swap notification failed", "type", ntype, "profileId", profileID, "err", err)
	}
}

func (h *Handler) failSwap(w http.ResponseWriter, r *http.Request, err error, fallbackCode, fallbackMessage string) {
	requestID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, swaps.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "swap request not found", requestID)
	case errors.Is(err, swaps.ErrSwapsDisabled):
		api.Fail(w, http.StatusBadRequest, "swaps_disabled", err.Error(), requestID)
	case errors.Is(err, swaps.ErrSelfSwap),
		errors.Is(err, swaps.ErrNotYourShift),
		errors.Is(err, swaps.ErrCrossLocation):
		api.Fail(w, http.StatusBadRequest, "swap_invalid", err.Error(), requestID)
	case errors.Is(err, swaps.ErrNotSwapTarget):
		api.Fail(w, http.StatusForbidden, "forbidden", err.Error(), requestID)
	case errors.Is(err, swaps.ErrAlreadyProcessed),
		errors.Is(err, swaps.ErrInvalidTransition):
		api.Fail(w, http.StatusConflict, "swap_conflict", err.Error(), requestID)
	default:
		api.Fail(w, http.StatusInternalServerError, fallbackCode, fallbackMessage, requestID)
	}
}
