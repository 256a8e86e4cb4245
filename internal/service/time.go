// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"
	// Embedded zone database so validation does not depend on the host.
	_ "time/tzdata"

	"github.com/ntpapi/ntpapi/internal/ntpclient"
)

// DefaultTimezone is used when a request names no timezone.
const DefaultTimezone = "UTC"

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04:05"
)

// Service errors.
var (
	ErrUnknownTimezone = errors.New("unknown timezone")
	ErrUpstream        = errors.New("failed to retrieve time from NTP server")
)

// ValidationError reports a timezone that the timezone database cannot resolve.
type ValidationError struct {
	Timezone string
}

func (e *ValidationError) Error() string {
	return "Unknown timezone: " + e.Timezone
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrUnknownTimezone
}

// UpstreamError wraps a failed NTP query.
type UpstreamError struct {
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v", ErrUpstream, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstream
}

// TimeSource returns the current network time.
type TimeSource interface {
	Query(ctx context.Context) (*ntpclient.Result, error)
}

// TimeRequest is the validated input of a time lookup.
type TimeRequest struct {
	Timezone string
}

// TimeResponse is a network timestamp rendered in a timezone.
type TimeResponse struct {
	Date     string
	Time     string
	Timezone string

	Timestamp time.Time
	Server    string
	RTT       time.Duration
}

// TimeService converts network time into a requested timezone.
type TimeService struct {
	source TimeSource
}

// NewTimeService creates a new TimeService.
func NewTimeService(source TimeSource) *TimeService {
	return &TimeService{source: source}
}

// Now validates req, queries the time source and converts the result.
// The time source is not contacted when the timezone is invalid.
func (s *TimeService) Now(ctx context.Context, req TimeRequest) (*TimeResponse, error) {
	loc, name, err := ResolveTimezone(req.Timezone)
	if err != nil {
		return nil, err
	}

	res, err := s.source.Query(ctx)
	if err != nil {
		return nil, &UpstreamError{Err: err}
	}

	resp := Format(res.Time, loc, name)
	resp.Server = res.Server
	resp.RTT = res.RTT
	return &resp, nil
}

// ResolveTimezone looks up an IANA timezone name exactly as given. An empty
// name resolves to UTC. "Local" is rejected: it names the host's zone, not
// an IANA zone.
func ResolveTimezone(name string) (*time.Location, string, error) {
	if name == "" {
		return time.UTC, DefaultTimezone, nil
	}

	if name == "Local" {
		return nil, "", &ValidationError{Timezone: name}
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, "", &ValidationError{Timezone: name}
	}

	return loc, name, nil
}

// Format renders ts in loc as separate date and time strings.
func Format(ts time.Time, loc *time.Location, zoneName string) TimeResponse {
	local := ts.In(loc)
	return TimeResponse{
		Date:      local.Format(dateLayout),
		Time:      local.Format(timeLayout),
		Timezone:  zoneName,
		Timestamp: ts.UTC(),
	}
}
