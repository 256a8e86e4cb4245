package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/ntpapi/ntpapi/internal/handler/dto"
)

// writeError writes a JSON error response with a single error field.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(dto.ErrorResponse{Error: message})
}
