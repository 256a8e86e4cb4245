package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// mockHealthChecker is a mock implementation of HealthChecker for testing.
type mockHealthChecker struct {
	err error
}

func (m *mockHealthChecker) Ping(ctx context.Context) error {
	return m.err
}

func decodeHealth(t *testing.T, rec *httptest.ResponseRecorder) HealthResponse {
	t.Helper()

	var response HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return response
}

func TestHealthHandler_Healthz(t *testing.T) {
	h := NewHealthHandler(nil).WithCheck("ntp", &mockHealthChecker{err: errors.New("down")})

	rec := httptest.NewRecorder()
	h.Healthz(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
	if response := decodeHealth(t, rec); response.Status != "ok" {
		t.Errorf("expected status 'ok', got %s", response.Status)
	}
}

func TestHealthHandler_Readyz(t *testing.T) {
	tests := []struct {
		name       string
		ntp        HealthChecker
		redis      HealthChecker
		wantStatus int
		wantChecks map[string]string
	}{
		{
			name:       "all healthy",
			ntp:        &mockHealthChecker{},
			redis:      &mockHealthChecker{},
			wantStatus: http.StatusOK,
			wantChecks: map[string]string{"ntp": "ok", "redis": "ok"},
		},
		{
			name:       "redis unhealthy",
			ntp:        &mockHealthChecker{},
			redis:      &mockHealthChecker{err: errors.New("connection refused")},
			wantStatus: http.StatusServiceUnavailable,
			wantChecks: map[string]string{"ntp": "ok", "redis": "error"},
		},
		{
			name:       "ntp unhealthy",
			ntp:        &mockHealthChecker{err: errors.New("i/o timeout")},
			redis:      nil,
			wantStatus: http.StatusServiceUnavailable,
			wantChecks: map[string]string{"ntp": "error", "redis": "not configured"},
		},
		{
			name:       "nothing configured",
			wantStatus: http.StatusOK,
			wantChecks: map[string]string{"ntp": "not configured", "redis": "not configured"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			h := NewHealthHandler(slog.New(slog.NewJSONHandler(&logs, nil))).
				WithCheck("ntp", tt.ntp).
				WithCheck("redis", tt.redis)

			rec := httptest.NewRecorder()
			h.Readyz(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			if rec.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}

			body := rec.Body.String()
			if strings.Contains(body, "connection refused") || strings.Contains(body, "i/o timeout") {
				t.Errorf("readiness body leaks error detail: %s", body)
			}

			response := decodeHealth(t, rec)
			for name, want := range tt.wantChecks {
				if got := response.Checks[name]; got != want {
					t.Errorf("check %s = %q, want %q", name, got, want)
				}
			}
		})
	}
}

func TestHealthHandler_Readyz_LogsFailure(t *testing.T) {
	var logs bytes.Buffer
	h := NewHealthHandler(slog.New(slog.NewJSONHandler(&logs, nil))).
		WithCheck("redis", &mockHealthChecker{err: errors.New("connection refused")})

	h.Readyz(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/readyz", nil))

	if !strings.Contains(logs.String(), "connection refused") {
		t.Errorf("expected failure detail in logs, got %s", logs.String())
	}
}
