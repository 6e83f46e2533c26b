package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

type mockHealthChecker struct {
	err error
}

func (m *mockHealthChecker) HealthCheck(ctx context.Context) error {
	return m.err
}

func readiness(t *testing.T, hh *HealthHandler) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rr := httptest.NewRecorder()
	hh.Readiness(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	var result map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	return rr, result
}

func TestNewHealthHandler(t *testing.T) {
	hh := NewHealthHandler(zap.NewNop())

	if hh == nil {
		t.Fatal("expected non-nil HealthHandler")
	}
	if hh.checks == nil {
		t.Error("expected checks map to be initialized")
	}
}

func TestHealthHandler_Register(t *testing.T) {
	hh := NewHealthHandler(zap.NewNop())

	hh.Register("firestore", &mockHealthChecker{})
	hh.RegisterOptional("redis", &mockHealthChecker{})

	if len(hh.checks) != 2 {
		t.Errorf("expected 2 registered checks, got %d", len(hh.checks))
	}
	if hh.checks["firestore"].optional || !hh.checks["redis"].optional {
		t.Errorf("unexpected optional flags %+v", hh.checks)
	}
}

func TestHealthHandler_Liveness(t *testing.T) {
	hh := NewHealthHandler(zap.NewNop())

	rr := httptest.NewRecorder()
	hh.Liveness(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rr.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rr.Code)
	}
	if rr.Header().Get("Content-Type") != "application/json" {
		t.Error("expected application/json content type")
	}

	var result map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if result["status"] != "alive" {
		t.Errorf("expected status 'alive', got %q", result["status"])
	}
}

func TestHealthHandler_Readiness_AllHealthy(t *testing.T) {
	hh := NewHealthHandler(zap.NewNop())
	hh.Register("firestore", &mockHealthChecker{})
	hh.RegisterOptional("redis", &mockHealthChecker{})

	rr, result := readiness(t, hh)

	if rr.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rr.Code)
	}
	if result["status"] != "healthy" {
		t.Errorf("expected overall status 'healthy', got %v", result["status"])
	}
	components, ok := result["components"].(map[string]any)
	if !ok {
		t.Fatal("expected components map")
	}
	if len(components) != 2 {
		t.Errorf("expected 2 components, got %d", len(components))
	}
}

func TestHealthHandler_Readiness_StoreUnhealthy(t *testing.T) {
	hh := NewHealthHandler(zap.NewNop())
	hh.Register("firestore", &mockHealthChecker{err: fmt.Errorf("permission denied")})
	hh.RegisterOptional("redis", &mockHealthChecker{})

	rr, result := readiness(t, hh)

	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rr.Code)
	}
	if result["status"] != "degraded" {
		t.Errorf("expected overall status 'degraded', got %v", result["status"])
	}
}

func TestHealthHandler_Readiness_OptionalUnhealthy(t *testing.T) {
	hh := NewHealthHandler(zap.NewNop())
	hh.Register("firestore", &mockHealthChecker{})
	hh.RegisterOptional("redis", &mockHealthChecker{err: fmt.Errorf("connection refused")})

	rr, result := readiness(t, hh)

	if rr.Code != http.StatusOK {
		t.Errorf("optional failure should stay ready, got %d", rr.Code)
	}
	if result["status"] != "degraded" {
		t.Errorf("expected overall status 'degraded', got %v", result["status"])
	}
	redis := result["components"].(map[string]any)["redis"].(map[string]any)
	if redis["optional"] != true || redis["error"] != "connection refused" {
		t.Errorf("unexpected redis component %v", redis)
	}
}

func TestHealthHandler_Readiness_NoChecks(t *testing.T) {
	rr, result := readiness(t, NewHealthHandler(zap.NewNop()))

	if rr.Code != http.StatusOK {
		t.Errorf("expected 200 when no checks registered, got %d", rr.Code)
	}
	if result["status"] != "healthy" {
		t.Errorf("expected 'healthy' when no checks, got %v", result["status"])
	}
	if _, ok := result["timestamp"]; !ok {
		t.Error("expected timestamp in response")
	}
}

func TestHealthHandler_Readiness_ComponentDetails(t *testing.T) {
	hh := NewHealthHandler(zap.NewNop())
	hh.Register("firestore", &mockHealthChecker{})
	hh.Register("catalog", &mockHealthChecker{err: fmt.Errorf("catalog has no entries")})

	_, result := readiness(t, hh)
	components := result["components"].(map[string]any)

	fs := components["firestore"].(map[string]any)
	if fs["latency"] == nil || fs["latency"] == "" {
		t.Error("expected latency to be populated")
	}
	if fs["status"] != "healthy" {
		t.Errorf("expected firestore status 'healthy', got %v", fs["status"])
	}

	cat := components["catalog"].(map[string]any)
	if cat["status"] != "unhealthy" || cat["error"] != "catalog has no entries" {
		t.Errorf("unexpected catalog component %v", cat)
	}
}
