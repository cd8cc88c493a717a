package config_test

import (
	"strings"
	"testing"
	"time"

	"college/internal/platform/config"
)

const testSecret = "Y29sbGVnZS10ZXN0LXNpZ25pbmcta2V5LTAxMjM0NTY="

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Addr != ":8080" {
		t.Errorf("expected default addr :8080, got %q", cfg.Addr)
	}
	if cfg.LogLevel != "info" || cfg.LogFormat != "json" {
		t.Errorf("unexpected log defaults %q/%q", cfg.LogLevel, cfg.LogFormat)
	}
	if cfg.TokenTTL() != 24*time.Hour {
		t.Errorf("expected 24h TTL, got %s", cfg.TokenTTL())
	}
	if cfg.DatabaseDriver != "sqlite" || cfg.DatabaseURL != "college.db" {
		t.Errorf("unexpected database defaults %q %q", cfg.DatabaseDriver, cfg.DatabaseURL)
	}
	if cfg.RedisAddr != "" {
		t.Errorf("expected no redis by default, got %q", cfg.RedisAddr)
	}
	if cfg.RoleLookupTimeout != 2*time.Second {
		t.Errorf("expected 2s lookup timeout, got %s", cfg.RoleLookupTimeout)
	}
	if cfg.MaxBodyBytes != 1<<20 {
		t.Errorf("expected 1MiB body cap, got %d", cfg.MaxBodyBytes)
	}
	if cfg.IsProduction() {
		t.Error("development is the default environment")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("COLLEGE_ADDR", ":9090")
	t.Setenv("APP_ENV", "production")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("JWT_EXPIRATION", "3600")
	t.Setenv("DATABASE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://college@db/college")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("ROLE_LOOKUP_TIMEOUT", "500ms")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Addr != ":9090" {
		t.Errorf("expected :9090, got %q", cfg.Addr)
	}
	if !cfg.IsProduction() {
		t.Error("expected production")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected 'debug', got %q", cfg.LogLevel)
	}
	if cfg.TokenTTL() != time.Hour {
		t.Errorf("expected 1h, got %s", cfg.TokenTTL())
	}
	if cfg.DatabaseDriver != "postgres" || cfg.DatabaseURL != "postgres://college@db/college" {
		t.Errorf("unexpected database %q %q", cfg.DatabaseDriver, cfg.DatabaseURL)
	}
	if cfg.RedisAddr != "redis:6379" {
		t.Errorf("expected redis addr, got %q", cfg.RedisAddr)
	}
	if cfg.RoleLookupTimeout != 500*time.Millisecond {
		t.Errorf("expected 500ms, got %s", cfg.RoleLookupTimeout)
	}
}

func TestRateLimitDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.RateLimit.Rate != 100 {
		t.Errorf("expected rate 100, got %f", cfg.RateLimit.Rate)
	}
	if cfg.RateLimit.Burst != 20 {
		t.Errorf("expected burst 20, got %d", cfg.RateLimit.Burst)
	}
	if cfg.Login.Limit != 10 || cfg.Login.Window != time.Minute {
		t.Errorf("unexpected login limit %d per %s", cfg.Login.Limit, cfg.Login.Window)
	}
}

func TestRateLimitFromEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("RATE_LIMIT_RATE", "2.5")
	t.Setenv("RATE_LIMIT_BURST", "5")
	t.Setenv("LOGIN_RATE_LIMIT", "3")
	t.Setenv("LOGIN_RATE_WINDOW", "30s")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.RateLimit.Rate != 2.5 || cfg.RateLimit.Burst != 5 {
		t.Errorf("unexpected ip limit %+v", cfg.RateLimit)
	}
	if cfg.Login.Limit != 3 || cfg.Login.Window != 30*time.Second {
		t.Errorf("unexpected login limit %+v", cfg.Login)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"missing secret", map[string]string{}, "JWT_SECRET"},
		{"blank secret", map[string]string{"JWT_SECRET": "   "}, "JWT_SECRET"},
		{"zero ttl", map[string]string{"JWT_SECRET": testSecret, "JWT_EXPIRATION": "0"}, "JWT_EXPIRATION"},
		{"negative ttl", map[string]string{"JWT_SECRET": testSecret, "JWT_EXPIRATION": "-5"}, "JWT_EXPIRATION"},
		{"unknown driver", map[string]string{"JWT_SECRET": testSecret, "DATABASE_DRIVER": "mysql"}, "DATABASE_DRIVER"},
		{"non-numeric ttl", map[string]string{"JWT_SECRET": testSecret, "JWT_EXPIRATION": "soon"}, "JWT_EXPIRATION"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := config.Load()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %s", err, tt.want)
			}
		})
	}
}
