package ntpclient

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Kind classifies a failed NTP exchange.
type Kind int

const (
	// KindTimeout means no reply arrived within the configured timeout.
	KindTimeout Kind = iota + 1
	// KindUnreachable covers DNS and network failures.
	KindUnreachable
	// KindMalformedResponse means a reply arrived but failed sanity checks.
	KindMalformedResponse
)

// String returns the metric/log label for the kind.
func (k Kind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindUnreachable:
		return "unreachable"
	case KindMalformedResponse:
		return "malformed"
	default:
		return "unknown"
	}
}

// Sentinel errors, one per Kind. *Error matches the sentinel of its kind
// under errors.Is.
var (
	ErrTimeout           = errors.New("ntp: timeout")
	ErrUnreachable       = errors.New("ntp: server unreachable")
	ErrMalformedResponse = errors.New("ntp: malformed response")
)

// Sentinel returns the sentinel error for the kind.
func (k Kind) Sentinel() error {
	switch k {
	case KindTimeout:
		return ErrTimeout
	case KindUnreachable:
		return ErrUnreachable
	case KindMalformedResponse:
		return ErrMalformedResponse
	default:
		return nil
	}
}

// Error is returned by every failed query.
type Error struct {
	Kind     Kind
	Server   string
	Attempts int
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("ntp query to %s failed after %d attempt(s) (%s): %v", e.Server, e.Attempts, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for this error's kind.
func (e *Error) Is(target error) bool {
	s := e.Kind.Sentinel()
	return s != nil && target == s
}

// KindOf returns the Kind of err, or 0 if err is not an *Error.
func KindOf(err error) Kind {
	var ntpErr *Error
	if errors.As(err, &ntpErr) {
		return ntpErr.Kind
	}
	return 0
}

// Retryable reports whether a failure of this kind may succeed on another attempt.
func (k Kind) Retryable() bool {
	return k == KindTimeout || k == KindUnreachable
}

// classify maps an error from the exchange to a Kind.
func classify(err error) Kind {
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return KindUnreachable
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return KindUnreachable
	}

	if errors.Is(err, net.ErrClosed) || errors.Is(err, context.Canceled) {
		return KindUnreachable
	}

	var addrErr *net.AddrError
	if errors.As(err, &addrErr) {
		return KindUnreachable
	}

	// Remaining errors come from protocol sanity checks on the reply.
	return KindMalformedResponse
}
