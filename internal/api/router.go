// Package api holds the HTTP handlers served behind the authentication gate.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"college/internal/domain"
	gw "college/internal/gateway"
	"college/internal/gateway/middleware"
	"college/internal/platform/telemetry"
)

// PublicPaths are served without a bearer token.
var PublicPaths = []string{"/healthz", "/readyz", "/api/auth/login", "/api/auth/register", "/api/public/**"}

// Deps are the collaborators the handlers need.
type Deps struct {
	Issuer      gw.TokenIssuer
	Directory   gw.Directory
	Credentials gw.CredentialStore
	Admins      gw.AdminLister
	Health      gw.Pinger

	// Registrar enables POST /api/auth/register. Nil leaves it unmounted.
	Registrar gw.Registrar
	// PasswordCost is the bcrypt cost for new accounts; zero means bcrypt.DefaultCost.
	PasswordCost int

	// LoginLimiter throttles login and registration per client IP. Nil disables it.
	LoginLimiter gw.RateLimiter

	TokenTTL time.Duration

	Metrics *telemetry.Metrics // optional
	Logger  *slog.Logger       // optional, defaults to slog.Default()
	Now     func() time.Time   // optional, defaults to time.Now
}

type handler struct {
	Deps
	validate *validator.Validate
}

// NewRouter returns the API routes. Authentication is applied outside the
// router; handlers read the principal from the request context.
func NewRouter(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.PasswordCost == 0 {
		d.PasswordCost = bcrypt.DefaultCost
	}
	h := &handler{Deps: d, validate: validator.New()}

	r := chi.NewRouter()
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "no such route")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})

	r.Get("/healthz", h.healthz)
	r.Get("/readyz", h.readyz)

	r.Route("/api/auth", func(r chi.Router) {
		login := r.With()
		if d.LoginLimiter != nil {
			login = r.With(middleware.RateLimitBy("login", d.LoginLimiter, middleware.ClientIP, d.Metrics))
		}
		login.Post("/login", h.login)
		if d.Registrar != nil {
			login.Post("/register", h.register)
		}
		r.Post("/refresh", h.refresh)
		r.Get("/me", h.me)
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(h.requireAdmin)
		r.Get("/profile", h.adminProfile)
		r.Get("/permissions/{name}", h.checkPermission)
		r.Get("/departments/{code}/access", h.checkDepartment)
		r.Get("/admins/{group}", h.adminGroup)
		r.With(middleware.RequireAdminPermission(domain.PermManageDepartments, departmentParam, d.Metrics)).
			Get("/departments/{code}/admins", h.departmentAdmins)
	})

	return r
}

func departmentParam(r *http.Request) string {
	return chi.URLParam(r, "code")
}
