package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"college/internal/gateway"
)

const maxRequestIDLen = 128

// RequestID assigns a unique request ID to each request. An incoming
// X-Request-ID is kept when it is short enough to be safe in logs.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" || len(id) > maxRequestIDLen {
			id = uuid.NewString()
		}
		ctx := gateway.ContextWithRequestID(r.Context(), id)
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
