package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// ObserveRequest is a no-op.
func (n *NoopRecorder) ObserveRequest(route string, status int, duration time.Duration) {}

// IncRateLimited is a no-op.
func (n *NoopRecorder) IncRateLimited() {}

// IncNTPQuery is a no-op.
func (n *NoopRecorder) IncNTPQuery(outcome string) {}

// ObserveNTPRoundTrip is a no-op.
func (n *NoopRecorder) ObserveNTPRoundTrip(rtt time.Duration) {}
