// Package auth verifies the bearer token presented by API clients.
package auth

import (
	"crypto/subtle"
	"errors"

	"golang.org/x/crypto/blake2b"
)

// ErrEmptySecret is returned when no API token is configured.
var ErrEmptySecret = errors.New("api token must not be empty")

// Verifier checks presented tokens against the configured secret.
// It is immutable after construction and safe for concurrent use.
type Verifier struct {
	digest [blake2b.Size256]byte
}

// NewVerifier creates a Verifier for secret.
func NewVerifier(secret string) (*Verifier, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	return &Verifier{digest: blake2b.Sum256([]byte(secret))}, nil
}

// Verify reports whether token matches the configured secret.
// Both sides are compared as fixed-size digests so that neither the
// content nor the length of the secret is observable through timing.
func (v *Verifier) Verify(token string) bool {
	if v == nil || token == "" {
		return false
	}
	presented := blake2b.Sum256([]byte(token))
	return subtle.ConstantTimeCompare(v.digest[:], presented[:]) == 1
}
