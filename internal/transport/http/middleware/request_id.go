package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"wfm/internal/platform/requestctx"
)

const requestIDHeader = "X-Request-ID"

// RequestID honors an inbound correlation id when it is reasonably sized,
// otherwise mints one. The id is echoed on the response and stored on the
// context for logging and audit.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(requestctx.WithRequestID(r.Context(), id)))
	})
}

func GetRequestID(ctx context.Context) string {
	return requestctx.GetRequestID(ctx)
}
