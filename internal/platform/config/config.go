package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the college API.
type Config struct {
	Addr      string `envconfig:"COLLEGE_ADDR" default:":8080"`
	AppEnv    string `envconfig:"APP_ENV" default:"development"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`

	JWTSecret string `envconfig:"JWT_SECRET"`
	// JWTExpiration is the token lifetime in seconds.
	JWTExpiration int `envconfig:"JWT_EXPIRATION" default:"86400"`

	DatabaseDriver string `envconfig:"DATABASE_DRIVER" default:"sqlite"`
	DatabaseURL    string `envconfig:"DATABASE_URL" default:"college.db"`

	// RedisAddr switches rate limiting to Redis when set.
	RedisAddr string `envconfig:"REDIS_ADDR"`

	RoleLookupTimeout time.Duration `envconfig:"ROLE_LOOKUP_TIMEOUT" default:"2s"`
	MaxBodyBytes      int64         `envconfig:"MAX_BODY_BYTES" default:"1048576"`

	RateLimit RateLimitConfig  `envconfig:"RATE_LIMIT"`
	Login     LoginLimitConfig `envconfig:"LOGIN_RATE"`
}

// RateLimitConfig holds token bucket parameters for per-IP rate limiting.
type RateLimitConfig struct {
	Rate  float64 `envconfig:"RATE" default:"100"`
	Burst int     `envconfig:"BURST" default:"20"`
}

// LoginLimitConfig bounds login attempts per client IP.
type LoginLimitConfig struct {
	Limit  int           `envconfig:"LIMIT" default:"10"`
	Window time.Duration `envconfig:"WINDOW" default:"1m"`
}

// Load reads configuration from environment variables, falling back to defaults.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	var errs []error
	if strings.TrimSpace(c.JWTSecret) == "" {
		errs = append(errs, errors.New("JWT_SECRET must be provided"))
	}
	if c.JWTExpiration <= 0 {
		errs = append(errs, fmt.Errorf("JWT_EXPIRATION must be positive, got %d", c.JWTExpiration))
	}
	switch c.DatabaseDriver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Errorf("DATABASE_DRIVER %q is not sqlite or postgres", c.DatabaseDriver))
	}
	if c.RoleLookupTimeout <= 0 {
		errs = append(errs, errors.New("ROLE_LOOKUP_TIMEOUT must be positive"))
	}
	if c.Login.Limit <= 0 || c.Login.Window <= 0 {
		errs = append(errs, errors.New("LOGIN_RATE_LIMIT and LOGIN_RATE_WINDOW must be positive"))
	}
	return errors.Join(errs...)
}

// TokenTTL returns the configured token lifetime.
func (c Config) TokenTTL() time.Duration {
	return time.Duration(c.JWTExpiration) * time.Second
}

// IsProduction reports whether APP_ENV selects production behaviour.
func (c Config) IsProduction() bool {
	return c.AppEnv == "production"
}
