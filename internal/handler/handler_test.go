package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ntpapi/ntpapi/internal/handler/dto"
)

func TestHandler_Info(t *testing.T) {
	h := New("/api/ntp-time", "/healthz")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	h.Info(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}

	contentType := rec.Header().Get("Content-Type")
	if contentType != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", contentType)
	}

	var response dto.InfoResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if response.Name != "ntpapi" {
		t.Errorf("unexpected name: %s", response.Name)
	}
	if response.Version != Version {
		t.Errorf("unexpected version: %s", response.Version)
	}
	if len(response.Endpoints) != 2 || response.Endpoints[0] != "/api/ntp-time" {
		t.Errorf("unexpected endpoints: %v", response.Endpoints)
	}
}

func TestHandler_Errors(t *testing.T) {
	h := New()

	tests := []struct {
		name       string
		serve      http.HandlerFunc
		method     string
		wantStatus int
		wantError  string
	}{
		{"not found", h.NotFound, http.MethodGet, http.StatusNotFound, "Not found"},
		{"method not allowed", h.MethodNotAllowed, http.MethodPost, http.StatusMethodNotAllowed, "Method not allowed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/nonexistent", nil)
			rec := httptest.NewRecorder()

			tt.serve(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}

			var response dto.ErrorResponse
			if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}

			if response.Error != tt.wantError {
				t.Errorf("unexpected error message: %s", response.Error)
			}
		})
	}
}
