package metrics

import (
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	// Requests is keyed by "route status".
	Requests          map[string]uint64
	RateLimited       uint64
	NTPQueries        map[string]uint64
	NTPRoundTripCount uint64
	NTPRoundTripSumNs int64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	mu                sync.Mutex
	requests          map[string]uint64
	ntpQueries        map[string]uint64
	rateLimited       uint64
	ntpRoundTripCount uint64
	ntpRoundTripSumNs int64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		requests:   make(map[string]uint64),
		ntpQueries: make(map[string]uint64),
	}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	requests := make(map[string]uint64, len(m.requests))
	for k, v := range m.requests {
		requests[k] = v
	}
	queries := make(map[string]uint64, len(m.ntpQueries))
	for k, v := range m.ntpQueries {
		queries[k] = v
	}

	return Snapshot{
		Requests:          requests,
		RateLimited:       atomic.LoadUint64(&m.rateLimited),
		NTPQueries:        queries,
		NTPRoundTripCount: atomic.LoadUint64(&m.ntpRoundTripCount),
		NTPRoundTripSumNs: atomic.LoadInt64(&m.ntpRoundTripSumNs),
	}
}

// ObserveRequest counts a served request.
func (m *InMemoryRecorder) ObserveRequest(route string, status int, duration time.Duration) {
	m.mu.Lock()
	m.requests[route+" "+strconv.Itoa(status)]++
	m.mu.Unlock()
}

// IncRateLimited increments the rejected-by-rate-limit counter.
func (m *InMemoryRecorder) IncRateLimited() {
	atomic.AddUint64(&m.rateLimited, 1)
}

// IncNTPQuery counts a finished NTP query by outcome.
func (m *InMemoryRecorder) IncNTPQuery(outcome string) {
	m.mu.Lock()
	m.ntpQueries[outcome]++
	m.mu.Unlock()
}

// ObserveNTPRoundTrip records the round trip of a successful exchange.
func (m *InMemoryRecorder) ObserveNTPRoundTrip(rtt time.Duration) {
	atomic.AddUint64(&m.ntpRoundTripCount, 1)
	atomic.AddInt64(&m.ntpRoundTripSumNs, rtt.Nanoseconds())
}
