package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"college/internal/domain"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("encoding response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, domain.ErrorResponse{Error: code, Message: msg})
}

func writeSuccess(w http.ResponseWriter, now time.Time, message string, data any) {
	writeEnvelope(w, http.StatusOK, now, message, data)
}

func writeEnvelope(w http.ResponseWriter, status int, now time.Time, message string, data any) {
	writeJSON(w, status, domain.APIResponse{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: now.UTC(),
	})
}

func writeInternal(w http.ResponseWriter) {
	writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
}
