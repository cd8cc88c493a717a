package telemetry_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"college/internal/platform/telemetry"
)

func TestSetupAndShutdown(t *testing.T) {
	shutdown, err := telemetry.Setup(context.Background(), "test-service")
	if err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown failed: %v", err)
	}
}

func TestMetricsHandler(t *testing.T) {
	shutdown, err := telemetry.Setup(context.Background(), "test-service")
	if err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	defer shutdown(context.Background())

	handler := telemetry.MetricsHandler()
	if handler == nil {
		t.Fatal("expected non-nil metrics handler")
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestMetricsExported(t *testing.T) {
	shutdown, err := telemetry.Setup(context.Background(), "college")
	if err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	defer shutdown(context.Background())

	m, err := telemetry.NewMetrics()
	if err != nil {
		t.Fatalf("NewMetrics failed: %v", err)
	}

	ctx := context.Background()
	m.RecordHTTPRequest(ctx, "GET", "/api/auth/me", 200, 0.05)
	m.RecordAuthValidation(ctx, "failure", "token_invalid")
	m.RecordLogin(ctx, "success")
	m.RecordRateLimitDecision(ctx, "ip", "allowed")
	m.RecordAuthzDecision(ctx, "role", "allowed")

	rec := httptest.NewRecorder()
	telemetry.MetricsHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	output := string(body)

	expected := []string{
		"college_http_requests_total",
		"college_http_request_duration_seconds",
		"college_auth_validations_total",
		"college_logins_total",
		"college_ratelimit_decisions_total",
		"college_authz_decisions_total",
	}
	for _, metric := range expected {
		if !strings.Contains(output, metric) {
			t.Errorf("metrics output missing %q", metric)
		}
	}
	if !strings.Contains(output, `reason="token_invalid"`) {
		t.Error("expected reason label on auth validations")
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *telemetry.Metrics
	ctx := context.Background()
	m.RecordHTTPRequest(ctx, "GET", "/", 200, 0)
	m.RecordAuthValidation(ctx, "success", "")
	m.RecordLogin(ctx, "failure")
	m.RecordRateLimitDecision(ctx, "login", "denied")
	m.RecordAuthzDecision(ctx, "admin_permission", "denied")
}
