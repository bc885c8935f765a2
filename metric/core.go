package metric

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DurationBuckets are the histogram bucket boundaries (in seconds) for HTTP
// request durations. Scraping systems alert on these boundaries, so they are
// part of the external contract.
var DurationBuckets = []float64{0.1, 0.3, 0.5, 0.7, 1, 3, 5, 7, 10}

// HTTPMetrics contains the request-level metrics recorded by the
// instrumentation middleware
type HTTPMetrics struct {
	RequestDuration *prometheus.HistogramVec
	RequestsTotal   *prometheus.CounterVec
}

// NewHTTPMetrics creates a new HTTPMetrics instance. The metric names
// http_request_duration_seconds and http_requests_total are part of the
// external contract and must not change.
func NewHTTPMetrics() *HTTPMetrics {
	return &HTTPMetrics{
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: DurationBuckets,
			},
			[]string{"method", "route", "status_code"},
		),

		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status_code"},
		),
	}
}

// RecordRequest records a completed HTTP request: exactly one histogram
// observation and one counter increment, with identical label values.
func (m *HTTPMetrics) RecordRequest(method, route string, status int, elapsed time.Duration) {
	code := strconv.Itoa(status)
	m.RequestDuration.WithLabelValues(method, route, code).Observe(elapsed.Seconds())
	m.RequestsTotal.WithLabelValues(method, route, code).Inc()
}
