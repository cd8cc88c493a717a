package tokens

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"college/internal/domain"
)

// Minimum key sizes per HMAC variant, in bytes.
const (
	minHS256KeyBytes = 32
	minHS384KeyBytes = 48
	minHS512KeyBytes = 64
)

// SigningKey is HMAC key material plus the algorithm selected for its length.
// It is derived once at startup and shared read-only by every request.
type SigningKey struct {
	material []byte
	method   *jwt.SigningMethodHMAC
}

// DeriveKey decodes a base64 secret and picks the strongest HMAC variant the
// key length allows. Secrets that do not decode or are shorter than 256 bits
// yield a *domain.ConfigurationError.
func DeriveKey(secret string) (*SigningKey, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, &domain.ConfigurationError{Field: "JWT_SECRET", Err: errors.New("secret is empty")}
	}

	raw, err := base64.StdEncoding.DecodeString(secret)
	if err != nil {
		// Accept unpadded secrets too.
		if raw, err = base64.RawStdEncoding.DecodeString(secret); err != nil {
			return nil, &domain.ConfigurationError{Field: "JWT_SECRET", Err: fmt.Errorf("decoding base64: %w", err)}
		}
	}

	var method *jwt.SigningMethodHMAC
	switch n := len(raw); {
	case n >= minHS512KeyBytes:
		method = jwt.SigningMethodHS512
	case n >= minHS384KeyBytes:
		method = jwt.SigningMethodHS384
	case n >= minHS256KeyBytes:
		method = jwt.SigningMethodHS256
	default:
		return nil, &domain.ConfigurationError{
			Field: "JWT_SECRET",
			Err:   fmt.Errorf("key is %d bits, need at least %d", n*8, minHS256KeyBytes*8),
		}
	}

	material := make([]byte, len(raw))
	copy(material, raw)
	return &SigningKey{material: material, method: method}, nil
}

// Algorithm returns the JWS algorithm name, e.g. "HS256".
func (k *SigningKey) Algorithm() string {
	return k.method.Alg()
}
