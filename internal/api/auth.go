package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"college/internal/domain"
	gw "college/internal/gateway"
	"college/internal/gateway/middleware"
)

const msgBadCredentials = "Invalid email or password"

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type userSummary struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type loginData struct {
	domain.TokenPair
	User userSummary `json:"user"`
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", validationMessage(err))
		return
	}

	creds, err := h.Credentials.FindCredentials(r.Context(), req.Email)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		h.loginFailed(w, r, "unknown_email")
		return
	case err != nil:
		h.Logger.Error("login lookup failed", "error", err, "request_id", gw.RequestIDFromContext(r.Context()))
		h.Metrics.RecordLogin(r.Context(), "error")
		writeInternal(w)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(creds.PasswordHash), []byte(req.Password)); err != nil {
		h.loginFailed(w, r, "bad_password")
		return
	}
	if !creds.Active {
		h.loginFailed(w, r, "inactive")
		return
	}

	role, err := h.Directory.LookupRole(r.Context(), creds.UserID)
	if err != nil {
		h.Logger.Warn("login role lookup failed", "user_id", creds.UserID, "error", err)
		h.loginFailed(w, r, "no_role")
		return
	}

	now := h.Now()
	pair, err := h.issue(creds.UserID, now)
	if err != nil {
		h.Logger.Error("issuing token", "user_id", creds.UserID, "error", err)
		h.Metrics.RecordLogin(r.Context(), "error")
		writeInternal(w)
		return
	}
	if err := h.Credentials.RecordLogin(r.Context(), creds.UserID, now); err != nil {
		h.Logger.Warn("recording last login", "user_id", creds.UserID, "error", err)
	}

	h.Metrics.RecordLogin(r.Context(), "success")
	h.Logger.Info("login succeeded", "user_id", creds.UserID, "role", role.String())
	writeSuccess(w, now, "Login successful", loginData{
		TokenPair: pair,
		User: userSummary{
			ID:    creds.UserID,
			Name:  creds.Name,
			Email: creds.Email,
			Role:  role.String(),
		},
	})
}

// loginFailed answers every credential failure identically; reason only
// reaches the log.
func (h *handler) loginFailed(w http.ResponseWriter, r *http.Request, reason string) {
	h.Metrics.RecordLogin(r.Context(), "failure")
	h.Logger.Warn("login rejected",
		"reason", reason,
		"request_id", gw.RequestIDFromContext(r.Context()),
		"remote_addr", r.RemoteAddr,
	)
	middleware.WriteUnauthorized(w, msgBadCredentials)
}

func (h *handler) refresh(w http.ResponseWriter, r *http.Request) {
	p, ok := gw.PrincipalFromContext(r.Context())
	if !ok {
		middleware.WriteUnauthorized(w, "authentication required")
		return
	}

	now := h.Now()
	pair, err := h.issue(p.UserID, now)
	if err != nil {
		h.Logger.Error("issuing token", "user_id", p.UserID, "error", err)
		writeInternal(w)
		return
	}
	writeSuccess(w, now, "Token refreshed", pair)
}

type meData struct {
	UserID int64         `json:"user_id"`
	Role   string        `json:"role"`
	Admin  *adminSummary `json:"admin,omitempty"`
}

func (h *handler) me(w http.ResponseWriter, r *http.Request) {
	p, ok := gw.PrincipalFromContext(r.Context())
	if !ok {
		middleware.WriteUnauthorized(w, "authentication required")
		return
	}

	data := meData{UserID: p.UserID, Role: p.Role.String()}
	if p.IsAdmin() {
		s := summarizeAdmin(*p.Admin)
		data.Admin = &s
	}
	writeSuccess(w, h.Now(), "Current user", data)
}

func (h *handler) issue(userID int64, now time.Time) (domain.TokenPair, error) {
	token, err := h.Issuer.Issue(userID, now, h.TokenTTL)
	if err != nil {
		return domain.TokenPair{}, err
	}
	return domain.TokenPair{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(h.TokenTTL.Seconds()),
	}, nil
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "invalid request"
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "email":
			msgs = append(msgs, field+" must be a valid email address")
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s characters", field, fe.Param()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", field, fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s", field, fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}
