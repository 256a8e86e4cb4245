package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "ntpapi"

// PrometheusRecorder exports metrics through a Prometheus registry.
type PrometheusRecorder struct {
	requests     *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	rateLimited  prometheus.Counter
	ntpQueries   *prometheus.CounterVec
	ntpRoundTrip prometheus.Histogram
}

// NewPrometheus registers the application collectors with reg.
func NewPrometheus(reg prometheus.Registerer) *PrometheusRecorder {
	f := promauto.With(reg)

	return &PrometheusRecorder{
		requests: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests served, by route and status code.",
			},
			[]string{"route", "status"},
		),
		duration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency, by route.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		rateLimited: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "rate_limited_total",
				Help:      "Requests rejected by the rate limiter.",
			},
		),
		ntpQueries: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "ntp_queries_total",
				Help:      "Finished NTP queries, by outcome.",
			},
			[]string{"outcome"},
		),
		ntpRoundTrip: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "ntp_round_trip_seconds",
				Help:      "Round trip time of successful NTP exchanges.",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2},
			},
		),
	}
}

// ObserveRequest records a served request.
func (p *PrometheusRecorder) ObserveRequest(route string, status int, duration time.Duration) {
	p.requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	p.duration.WithLabelValues(route).Observe(duration.Seconds())
}

// IncRateLimited increments the rate limited counter.
func (p *PrometheusRecorder) IncRateLimited() {
	p.rateLimited.Inc()
}

// IncNTPQuery counts a finished NTP query.
func (p *PrometheusRecorder) IncNTPQuery(outcome string) {
	p.ntpQueries.WithLabelValues(outcome).Inc()
}

// ObserveNTPRoundTrip records the round trip of a successful exchange.
func (p *PrometheusRecorder) ObserveNTPRoundTrip(rtt time.Duration) {
	p.ntpRoundTrip.Observe(rtt.Seconds())
}
