package middleware

import (
	"net/http"
)

// MaxBodySize caps request bodies at maxBytes. Requests that declare a larger
// Content-Length are refused with 413 before reaching the handler; bodies
// without a declared length fail on read instead.
func MaxBodySize(maxBytes int64) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				writeError(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large")
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
