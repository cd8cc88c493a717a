package middleware

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"college/internal/domain"
	gw "college/internal/gateway"
	"college/internal/platform/telemetry"
)

// KeyFunc picks the rate limit bucket for a request.
type KeyFunc func(r *http.Request) string

// RateLimit returns middleware that enforces per-IP rate limits.
// The metrics parameter is optional; pass nil to skip metric recording.
func RateLimit(limiter gw.RateLimiter, m *telemetry.Metrics) Middleware {
	return RateLimitBy("ip", limiter, ClientIP, m)
}

// RateLimitBy limits requests per key. layer names the limit in metrics and
// namespaces the key so several layers can share one limiter backend.
func RateLimitBy(layer string, limiter gw.RateLimiter, key KeyFunc, m *telemetry.Metrics) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if result := limiter.Allow(r.Context(), layer+":"+key(r)); !result.Allowed {
				m.RecordRateLimitDecision(r.Context(), layer, "denied")
				writeRateLimitError(w, result.RetryAfter)
				return
			}

			m.RecordRateLimitDecision(r.Context(), layer, "allowed")
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP keys requests by the remote address host.
func ClientIP(r *http.Request) string {
	// X-Forwarded-For is client-controlled and is not trusted here.
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeRateLimitError(w http.ResponseWriter, retryAfter int) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	w.WriteHeader(http.StatusTooManyRequests)
	if err := json.NewEncoder(w).Encode(domain.ErrorResponse{
		Error:      "rate_limited",
		Message:    "too many requests",
		RetryAfter: retryAfter,
	}); err != nil {
		slog.Error("encoding error response", "error", err)
	}
}
