package orghandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"wfm/internal/domain/audit"
	"wfm/internal/domain/auth"
	"wfm/internal/domain/org"
	"wfm/internal/transport/http/api"
	"wfm/internal/transport/http/middleware"
	"wfm/internal/transport/http/shared"
)

type Handler struct {
	Store *org.Store
	Perms middleware.PermissionStore
	Audit *audit.Service
}

func NewHandler(store *org.Store, perms middleware.PermissionStore, auditSvc *audit.Service) *Handler {
	return &Handler{Store: store, Perms: perms, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/org", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermOrgRead, h.Perms)).Get("/", h.handleGetOrganization)
		r.With(middleware.RequirePermission(auth.PermOrgRead, h.Perms)).Get("/settings", h.handleGetSettings)
		r.With(middleware.RequirePermission(auth.PermOrgWrite, h.Perms)).Patch("/settings", h.handleUpdateSettings)
		r.With(middleware.RequirePermission(auth.PermProfilesRead, h.Perms)).Get("/profiles", h.handleListProfiles)
		r.With(middleware.RequirePermission(auth.PermProfilesRead, h.Perms)).Get("/profiles/{profileID}", h.handleGetProfile)
		r.With(middleware.RequirePermission(auth.PermProfilesWrite, h.Perms)).Put("/profiles/{profileID}", h.handleUpdateProfile)
		r.With(middleware.RequirePermission(auth.PermOrgRead, h.Perms)).Get("/locations", h.handleListLocations)
		r.With(middleware.RequirePermission(auth.PermLocationsWrite, h.Perms)).Post("/locations", h.handleCreateLocation)
		r.With(middleware.RequirePermission(auth.PermLocationsWrite, h.Perms)).Put("/locations/{locationID}", h.handleUpdateLocation)
		r.With(middleware.RequirePermission(auth.PermLocationsWrite, h.Perms)).Delete("/locations/{locationID}", h.handleDeleteLocation)
	})
}

func (h *Handler) handleGetOrganization(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	organization, err := h.Store.GetOrganization(r.Context(), user.OrgID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "org_load_failed", "failed to load organization", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, organization, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	settings, err := h.Store.GetSettings(r.Context(), user.OrgID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "settings_failed", "failed to load settings", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, settings, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var patch json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	settings, err := h.Store.UpdateSettings(r.Context(), user.OrgID, patch)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "settings_update_failed", "failed to update settings", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Audit.Record(r.Context(), user.OrgID, user.UserID, "org.settings.update", "organization", user.OrgID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, settings); err != nil {
		slog.Warn("audit org.settings.update failed", "err", err)
	}
	api.Success(w, settings, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	page := shared.ParsePagination(r, 50, 200)
	status := r.URL.Query().Get("status")
	profiles, total, err := h.Store.ListProfiles(r.Context(), user.OrgID, status, page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "profiles_list_failed", "failed to list profiles", middleware.GetRequestID(r.Context()))
		return
	}
	shared.SetTotal(w, total)
	api.Success(w, profiles, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	profile, err := h.Store.GetProfile(r.Context(), user.OrgID, chi.URLParam(r, "profileID"))
	if err != nil {
		if errors.Is(err, org.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "profile not found", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "profile_load_failed", "failed to load profile", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, profile, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload struct {
		FullName string `json:"fullName"`
		Role     string `json:"role"`
		Status   string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	v.Required("fullName", payload.FullName, "full name is required")
	v.Enum("role", payload.Role, []string{auth.RoleOwner, auth.RoleAdmin, auth.RoleManager, auth.RoleEmployee}, "unknown role")
	v.Enum("status", payload.Status, []string{org.ProfileStatusActive, org.ProfileStatusInactive}, "unknown status")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	profileID := chi.URLParam(r, "profileID")
	if err := h.Store.UpdateProfile(r.Context(), user.OrgID, profileID, payload.FullName, payload.Role, payload.Status); err != nil {
		if errors.Is(err, org.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "profile not found", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "profile_update_failed", "failed to update profile", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Audit.Record(r.Context(), user.OrgID, user.UserID, "org.profile.update", "profile", profileID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, payload); err != nil {
		slog.Warn("audit org.profile.update failed", "err", err)
	}
	api.Success(w, map[string]string{"status": "updated"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListLocations(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	locations, err := h.Store.ListLocations(r.Context(), user.OrgID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "locations_list_failed", "failed to list locations", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, locations, middleware.GetRequestID(r.Context()))
}

func (h *Handler) decodeLocation(w http.ResponseWriter, r *http.Request) (org.Location, bool) {
	var loc org.Location
	if err := json.NewDecoder(r.Body).Decode(&loc); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return org.Location{}, false
	}

	v := shared.NewValidator()
	v.Required("name", loc.Name, "name is required")
	if loc.Latitude != nil && loc.Longitude != nil {
		v.Coordinates("latitude", *loc.Latitude, "longitude", *loc.Longitude)
	}
	if loc.GeofenceEnabled {
		if loc.Latitude == nil || loc.Longitude == nil {
			v.Add("latitude", "coordinates are required when the geofence is enabled")
		}
		if loc.RadiusMeters == nil {
			v.Add("radiusMeters", "radius is required when the geofence is enabled")
		} else {
			v.Positive("radiusMeters", *loc.RadiusMeters, "radius must be positive")
		}
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return org.Location{}, false
	}
	return loc, true
}

func (h *Handler) handleCreateLocation(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	loc, ok := h.decodeLocation(w, r)
	if !ok {
		return
	}

	id, err := h.Store.CreateLocation(r.Context(), user.OrgID, loc)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "location_create_failed", "failed to create location", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Audit.Record(r.Context(), user.OrgID, user.UserID, "org.location.create", "location", id, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, loc); err != nil {
		slog.Warn("audit org.location.create failed", "err", err)
	}
	api.Created(w, map[string]string{"id": id}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateLocation(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	loc, ok := h.decodeLocation(w, r)
	if !ok {
		return
	}
	loc.ID = chi.URLParam(r, "locationID")

	if err := h.Store.UpdateLocation(r.Context(), user.OrgID, loc); err != nil {
		if errors.Is(err, org.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "location not found", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "location_update_failed", "failed to update location", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Audit.Record(r.Context(), user.OrgID, user.UserID, "org.location.update", "location", loc.ID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, loc); err != nil {
		slog.Warn("audit org.location.update failed", "err", err)
	}
	api.Success(w, map[string]string{"status": "updated"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeleteLocation(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	locationID := chi.URLParam(r, "locationID")
	if err := h.Store.DeleteLocation(r.Context(), user.OrgID, locationID); err != nil {
		if errors.Is(err, org.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "location not found", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "location_delete_failed", "failed to delete location", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Audit.Record(r.Context(), user.OrgID, user.UserID, "org.location.delete", "location", locationID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, nil); err != nil {
		slog.Warn("audit org.location.delete failed", "err", err)
	}
	api.Success(w, map[string]string{"status": "deleted"}, middleware.GetRequestID(r.Context()))
}
