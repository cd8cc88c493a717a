package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"college/internal/domain"
	gw "college/internal/gateway"
	"college/internal/platform/telemetry"
)

// Rejection reasons logged by the gate and used as metric labels.
const (
	reasonNoToken             = "no_token"
	reasonTokenInvalid        = "token_invalid"
	reasonPrincipalUnresolved = "principal_unresolved"
)

// AuthConfig wires the authentication gate.
type AuthConfig struct {
	Verifier  gw.TokenVerifier
	Directory gw.Directory

	// PublicPaths bypass the gate. Entries ending in "/**" match a subtree.
	PublicPaths []string

	// LookupTimeout bounds the role and admin profile lookups. Zero means
	// only the request context bounds them.
	LookupTimeout time.Duration

	Metrics *telemetry.Metrics // optional
	Logger  *slog.Logger       // optional, defaults to slog.Default()
	Now     func() time.Time   // optional, defaults to time.Now
}

// Auth returns the authentication gate. It verifies the bearer token,
// resolves the principal's role through the directory and stores the
// principal in the request context. Every failure is answered with the same
// 401 body and logged once with its classified reason.
func Auth(cfg AuthConfig) Middleware {
	public := newPathMatcher(cfg.PublicPaths)
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if public.match(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			reject := func(reason, message string, attrs ...any) {
				cfg.Metrics.RecordAuthValidation(r.Context(), "failure", reason)
				attrs = append(attrs,
					"reason", reason,
					"request_id", gw.RequestIDFromContext(r.Context()),
					"path", r.URL.Path,
				)
				logger.Warn("authentication rejected", attrs...)
				WriteUnauthorized(w, message)
			}

			tokenStr, ok := extractBearerToken(r)
			if !ok {
				reject(reasonNoToken, msgMissingToken)
				return
			}

			userID, err := cfg.Verifier.Verify(tokenStr, now())
			if err != nil {
				reject(reasonTokenInvalid, msgInvalidToken, "kind", tokenErrorKind(err), "error", err)
				return
			}

			principal, err := resolvePrincipal(r.Context(), cfg.Directory, userID, cfg.LookupTimeout)
			if err != nil {
				reject(reasonPrincipalUnresolved, msgInvalidToken, "user_id", userID, "error", err)
				return
			}

			cfg.Metrics.RecordAuthValidation(r.Context(), "success", "")
			ctx := gw.ContextWithPrincipal(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractBearerToken(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return "", false
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

// resolvePrincipal is the gate's only blocking step. A timeout, a lookup
// error, a panic in the directory or an unknown role all fail authentication.
func resolvePrincipal(ctx context.Context, dir gw.Directory, userID int64, timeout time.Duration) (p domain.Principal, err error) {
	defer func() {
		if v := recover(); v != nil {
			p, err = domain.Principal{}, fmt.Errorf("role lookup panicked: %v", v)
		}
	}()

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	role, err := dir.LookupRole(ctx, userID)
	if err != nil {
		return domain.Principal{}, fmt.Errorf("looking up role: %w", err)
	}
	if role == domain.RoleUnknown {
		return domain.Principal{}, fmt.Errorf("looking up role: %w", domain.ErrNotFound)
	}

	p = domain.Principal{UserID: userID, Role: role}
	if role == domain.RoleAdmin {
		profile, err := dir.LookupAdminProfile(ctx, userID)
		if err != nil {
			return domain.Principal{}, fmt.Errorf("looking up admin profile: %w", err)
		}
		p.Admin = &profile
	}
	return p, nil
}

func tokenErrorKind(err error) string {
	var te *domain.TokenError
	if errors.As(err, &te) {
		return te.Kind.String()
	}
	return "unknown"
}
