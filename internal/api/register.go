package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"college/internal/domain"
	gw "college/internal/gateway"
)

type registerRequest struct {
	Name          string `json:"name" validate:"required,max=100"`
	Email         string `json:"email" validate:"required,email"`
	Password      string `json:"password" validate:"required,min=8,max=72"`
	StudentNumber string `json:"student_number" validate:"omitempty,max=32"`
	Department    string `json:"department" validate:"omitempty,max=16"`
}

// register creates an active student account. It does not issue a token;
// the client logs in afterwards.
func (h *handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.StudentNumber = strings.TrimSpace(req.StudentNumber)
	req.Department = strings.ToUpper(strings.TrimSpace(req.Department))
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", validationMessage(err))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), h.PasswordCost)
	if err != nil {
		h.Logger.Error("hashing password", "error", err)
		writeInternal(w)
		return
	}

	id, err := h.Registrar.RegisterStudent(r.Context(), gw.Registration{
		Name:          req.Name,
		Email:         req.Email,
		PasswordHash:  string(hash),
		StudentNumber: req.StudentNumber,
		Department:    req.Department,
	})
	switch {
	case errors.Is(err, domain.ErrAlreadyExists):
		writeError(w, http.StatusConflict, "conflict", "Email already exists. Please use a different email address.")
		return
	case err != nil:
		h.Logger.Error("registering student", "error", err, "request_id", gw.RequestIDFromContext(r.Context()))
		writeInternal(w)
		return
	}

	h.Logger.Info("student registered", "user_id", id)
	writeEnvelope(w, http.StatusCreated, h.Now(), "Registration successful", userSummary{
		ID:    id,
		Name:  req.Name,
		Email: strings.ToLower(req.Email),
		Role:  domain.RoleStudent.String(),
	})
}
