package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/ntpapi/ntpapi/internal/auth"
)

// UnauthorizedMessage is the body of every 401 response.
const UnauthorizedMessage = "Unauthorized: Invalid or missing token"

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Logger   *slog.Logger
	Verifier *auth.Verifier
}

// Auth returns a middleware that authenticates API requests.
// It extracts the bearer token from the Authorization header and checks it
// against the configured secret. Rejected requests never reach next.
func Auth(cfg AuthConfig) func(http.Handler) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := extractBearerToken(r)
			if !ok {
				logAuthFailure(logger, r, "missing_token")
				writeError(w, http.StatusUnauthorized, UnauthorizedMessage)
				return
			}

			if !cfg.Verifier.Verify(token) {
				logAuthFailure(logger, r, "invalid_token")
				writeError(w, http.StatusUnauthorized, UnauthorizedMessage)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// logAuthFailure logs a rejected request. The presented token is never logged.
func logAuthFailure(logger *slog.Logger, r *http.Request, reason string) {
	logger.Warn("authentication failed",
		slog.String("reason", reason),
		slog.String("ip", r.RemoteAddr),
		slog.String("endpoint", r.Method+" "+r.URL.Path),
		slog.String("request_id", GetRequestID(r.Context())),
	)
}

// extractBearerToken extracts the token from "Authorization: Bearer <token>".
// The scheme is matched case-insensitively.
func extractBearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}
