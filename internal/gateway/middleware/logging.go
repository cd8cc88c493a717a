package middleware

import (
	"log/slog"
	"net/http"
	"time"

	gw "college/internal/gateway"
)

// Logging returns a middleware that logs each request using slog. Principal
// fields are logged when an inner Auth resolved one.
func Logging(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &gw.StatusWriter{ResponseWriter: w, Code: http.StatusOK}

			ctx, slot := gw.ContextWithPrincipalSlot(r.Context())
			next.ServeHTTP(sw, r.WithContext(ctx))

			attrs := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", sw.Code,
				"duration_ms", float64(time.Since(start).Microseconds()) / 1000.0,
				"request_id", gw.RequestIDFromContext(r.Context()),
				"remote_addr", r.RemoteAddr,
			}
			if p, ok := slot.Principal(); ok {
				attrs = append(attrs, "principal_id", p.UserID, "role", p.Role.String())
			}
			logger.Info("request", attrs...)
		})
	}
}
