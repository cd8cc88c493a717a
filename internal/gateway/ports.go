package gateway

import (
	"context"
	"net/http"
	"time"

	"college/internal/domain"
)

// TokenIssuer mints signed bearer tokens.
type TokenIssuer interface {
	Issue(userID int64, now time.Time, ttl time.Duration) (string, error)
}

// TokenVerifier checks a bearer token and returns its subject.
// Failures are *domain.TokenError values.
type TokenVerifier interface {
	Verify(token string, now time.Time) (int64, error)
}

// Directory resolves the role and admin profile behind a user id.
// Both lookups are read-only.
type Directory interface {
	LookupRole(ctx context.Context, userID int64) (domain.Role, error)
	LookupAdminProfile(ctx context.Context, userID int64) (domain.AdminProfile, error)
}

// Credentials is what the login flow needs to know about an account.
type Credentials struct {
	UserID       int64
	Name         string
	Email        string
	PasswordHash string
	Active       bool
}

// CredentialStore backs the login endpoint.
type CredentialStore interface {
	FindCredentials(ctx context.Context, email string) (Credentials, error)
	RecordLogin(ctx context.Context, userID int64, at time.Time) error
}

// Registration is a self-service student signup. An empty StudentNumber
// is assigned by the store.
type Registration struct {
	Name          string
	Email         string
	PasswordHash  string
	StudentNumber string
	Department    string
}

// Registrar creates student accounts. A taken email is domain.ErrAlreadyExists.
type Registrar interface {
	RegisterStudent(ctx context.Context, reg Registration) (int64, error)
}

// AdminLister lists admin profiles, all of them or those whose department
// access covers a department code. Both are ordered by user id.
type AdminLister interface {
	ListAdmins(ctx context.Context) ([]domain.AdminProfile, error)
	ListAdminsForDepartment(ctx context.Context, code string) ([]domain.AdminProfile, error)
}

// Pinger reports backing store health for readiness checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RateLimiter decides whether a request identified by key should be allowed.
type RateLimiter interface {
	Allow(ctx context.Context, key string) RateLimitResult
}

// RateLimitResult holds the outcome of a rate limit check.
type RateLimitResult struct {
	Allowed    bool
	RetryAfter int // seconds until the next request is allowed; 0 if allowed
}

// StatusWriter wraps http.ResponseWriter to capture the status code.
type StatusWriter struct {
	http.ResponseWriter
	Code int
}

func (sw *StatusWriter) WriteHeader(code int) {
	sw.Code = code
	sw.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (sw *StatusWriter) Unwrap() http.ResponseWriter {
	return sw.ResponseWriter
}

// PrincipalFromContext extracts the authenticated principal from a request context.
func PrincipalFromContext(ctx context.Context) (domain.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(domain.Principal)
	return p, ok
}

// ContextWithPrincipal stores the authenticated principal in the context and
// fills any PrincipalSlot installed further out.
func ContextWithPrincipal(ctx context.Context, p domain.Principal) context.Context {
	if slot, ok := ctx.Value(principalSlotKey{}).(*PrincipalSlot); ok {
		slot.principal, slot.set = p, true
	}
	return context.WithValue(ctx, principalKey{}, p)
}

type principalKey struct{}

// PrincipalSlot exposes the principal resolved by an inner middleware to an
// outer one, which only holds the original request.
type PrincipalSlot struct {
	principal domain.Principal
	set       bool
}

// Principal returns the recorded principal, if any.
func (s *PrincipalSlot) Principal() (domain.Principal, bool) {
	return s.principal, s.set
}

// ContextWithPrincipalSlot installs an empty slot in the context.
func ContextWithPrincipalSlot(ctx context.Context) (context.Context, *PrincipalSlot) {
	slot := &PrincipalSlot{}
	return context.WithValue(ctx, principalSlotKey{}, slot), slot
}

type principalSlotKey struct{}

// RequestIDFromContext extracts the request ID from the context.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// ContextWithRequestID stores the request ID in the context.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

type requestIDKey struct{}
