package tokens

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"college/internal/domain"
)

var errAlgorithmMismatch = errors.New("signing algorithm mismatch")

// Codec issues and verifies compact HMAC-signed JWTs carrying a user id in sub.
type Codec struct {
	key *SigningKey
}

// NewCodec returns a codec bound to key. The key is shared, not copied.
func NewCodec(key *SigningKey) *Codec {
	return &Codec{key: key}
}

// Issue signs sub=userID, iat=now and exp=now+ttl. Times are truncated to
// whole seconds so that exp-iat equals ttl exactly on the wire.
func (c *Codec) Issue(userID int64, now time.Time, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		return "", fmt.Errorf("tokens: ttl must be positive, got %s", ttl)
	}
	issuedAt := now.Truncate(time.Second)
	// exp travels in whole seconds; round up so a sub-second ttl still
	// yields a token that is valid at now.
	expiresAt := issuedAt.Add(ttl)
	if whole := expiresAt.Truncate(time.Second); whole.Before(expiresAt) {
		expiresAt = whole.Add(time.Second)
	}
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	signed, err := jwt.NewWithClaims(c.key.method, claims).SignedString(c.key.material)
	if err != nil {
		return "", fmt.Errorf("tokens: signing: %w", err)
	}
	return signed, nil
}

// Verify checks structure, algorithm, signature and expiry (valid only while
// now < exp) and returns the subject. Every failure is a *domain.TokenError.
func (c *Codec) Verify(token string, now time.Time) (int64, error) {
	var claims jwt.RegisteredClaims
	parser := jwt.NewParser(
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
	)
	if _, err := parser.ParseWithClaims(token, &claims, c.keyFunc); err != nil {
		return 0, &domain.TokenError{Kind: classify(err), Err: err}
	}

	if claims.Subject == "" {
		return 0, &domain.TokenError{Kind: domain.TokenInvalidArgument, Err: errors.New("sub claim is empty")}
	}
	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, &domain.TokenError{Kind: domain.TokenInvalidArgument, Err: fmt.Errorf("parsing sub claim: %w", err)}
	}
	return userID, nil
}

// keyFunc only hands out the key for the exact algorithm this codec issues.
func (c *Codec) keyFunc(t *jwt.Token) (any, error) {
	if alg := t.Method.Alg(); alg != c.key.method.Alg() {
		return nil, fmt.Errorf("%w: got %s, want %s", errAlgorithmMismatch, alg, c.key.method.Alg())
	}
	return c.key.material, nil
}

// classify maps jwt/v5 parser errors onto token error kinds. The parser
// checks structure, then the key lookup, then the signature, then claims.
func classify(err error) domain.TokenErrorKind {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return domain.TokenExpired
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return domain.TokenUnsupported
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return domain.TokenSignatureInvalid
	default:
		return domain.TokenMalformed
	}
}
