package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"wfm/internal/transport/http/api"
)

// PermissionStore answers whether a role in an organization carries a
// permission key. Backed by the role_permissions tables.
type PermissionStore interface {
	HasPermission(ctx context.Context, orgID, roleName, permission string) (bool, error)
}

// RequirePermission gates a route on one permission key for the
// authenticated user's role. Lookup failures deny with a 500 rather than
// failing open.
func RequirePermission(permission string, store PermissionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := GetRequestID(r.Context())
			user, ok := GetUser(r.Context())
			if !ok {
				api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
				return
			}
			allowed, err := store.HasPermission(r.Context(), user.OrgID, user.RoleName, permission)
			switch {
			case err != nil:
				slog.Error("permission lookup", "permission", permission, "role", user.RoleName, "err", err)
				api.Fail(w, http.StatusInternalServerError, "permission_error", "permission check failed", reqID)
			case !allowed:
				api.Fail(w, http.StatusForbidden, "forbidden", "insufficient permissions", reqID)
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}
