// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, or keep them in memory for tests.
type Recorder interface {
	// HTTP metrics
	ObserveRequest(route string, status int, duration time.Duration)
	IncRateLimited()

	// NTP metrics
	IncNTPQuery(outcome string) // outcome: "success", "timeout", "unreachable", "malformed"
	ObserveNTPRoundTrip(rtt time.Duration)
}
