// Package handler provides HTTP request handlers.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/ntpapi/ntpapi/internal/handler/dto"
)

// Version is the service version reported on GET /.
const Version = "1.0.0"

// Handler serves the unauthenticated informational routes.
type Handler struct {
	endpoints []string
}

// New creates a new Handler that advertises endpoints on GET /.
func New(endpoints ...string) *Handler {
	return &Handler{endpoints: endpoints}
}

// Info describes the service.
// GET /
func (h *Handler) Info(w http.ResponseWriter, r *http.Request) {
	endpoints := h.endpoints
	if endpoints == nil {
		endpoints = []string{}
	}
	writeJSON(w, http.StatusOK, dto.InfoResponse{
		Name:      "ntpapi",
		Version:   Version,
		Endpoints: endpoints,
	})
}

// NotFound handles 404 responses.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "Not found")
}

// MethodNotAllowed handles 405 responses.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error body.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, dto.ErrorResponse{Error: message})
}
