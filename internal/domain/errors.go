package domain

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors used across service boundaries.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrTokenExpired  = errors.New("token expired")
	ErrInvalidToken  = errors.New("invalid token")
	ErrConfiguration = errors.New("configuration error")
)

// TokenErrorKind classifies why a token failed verification.
type TokenErrorKind int

const (
	TokenMalformed TokenErrorKind = iota + 1
	TokenExpired
	TokenUnsupported
	TokenInvalidArgument
	TokenSignatureInvalid
)

func (k TokenErrorKind) String() string {
	switch k {
	case TokenMalformed:
		return "malformed"
	case TokenExpired:
		return "expired"
	case TokenUnsupported:
		return "unsupported"
	case TokenInvalidArgument:
		return "invalid_argument"
	case TokenSignatureInvalid:
		return "signature_invalid"
	default:
		return "unknown"
	}
}

// TokenError is returned by token verification. Err keeps the underlying
// parser error for logs; it must never reach a response body.
type TokenError struct {
	Kind TokenErrorKind
	Err  error
}

func (e *TokenError) Error() string {
	if e.Err == nil {
		return "token " + e.Kind.String()
	}
	return fmt.Sprintf("token %s: %v", e.Kind, e.Err)
}

func (e *TokenError) Unwrap() error { return e.Err }

// Is maps expired tokens to ErrTokenExpired and every other kind to ErrInvalidToken.
func (e *TokenError) Is(target error) bool {
	switch target {
	case ErrTokenExpired:
		return e.Kind == TokenExpired
	case ErrInvalidToken:
		return e.Kind != TokenExpired
	}
	return false
}

// ConfigurationError reports invalid startup configuration. The process must
// not serve requests after receiving one.
type ConfigurationError struct {
	Field string
	Err   error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: %s: %v", e.Field, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// ErrorResponse is the standard JSON error envelope returned to clients.
type ErrorResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retry_after,omitempty"`
}

// APIResponse is the success envelope used by the API handlers.
type APIResponse struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// TokenPair is the token section of a login or refresh response.
type TokenPair struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}
