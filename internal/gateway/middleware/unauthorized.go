package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"college/internal/domain"
)

// Messages surfaced to clients by the authentication gate. They never say why
// a presented token was refused.
const (
	msgMissingToken = "missing or malformed authorization header"
	msgInvalidToken = "invalid or expired token"
)

// WriteUnauthorized writes the 401 body every rejected request receives:
// {"error":"Unauthorized","message":...}.
func WriteUnauthorized(w http.ResponseWriter, message string) {
	writeError(w, http.StatusUnauthorized, "Unauthorized", message)
}

// WriteForbidden writes a 403 for an authenticated principal that lacks access.
func WriteForbidden(w http.ResponseWriter, message string) {
	writeError(w, http.StatusForbidden, "Forbidden", message)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(domain.ErrorResponse{
		Error:   code,
		Message: msg,
	}); err != nil {
		slog.Error("encoding error response", "error", err)
	}
}
