// Package metric provides Prometheus-based metrics collection for
// observability-app.
//
// The package owns a private Prometheus registry holding the two
// request-level metrics that form the service's external monitoring
// contract:
//
//   - http_request_duration_seconds: histogram of request durations,
//     labeled by method, route, and status_code
//   - http_requests_total: counter of completed requests with the same
//     label set
//
// The Go runtime and process collectors are registered alongside them, so
// a scrape also yields the default process metrics.
//
// # Usage
//
// Construct one Registry at process start and inject it into the HTTP
// middleware:
//
//	registry := metric.NewRegistry()
//	registry.HTTP().RecordRequest("GET", "/api/data", 200, elapsed)
//
// Expose the scrape endpoint with registry.Handler(), which serves the
// text exposition format (OpenMetrics negotiation enabled).
//
// Collaborators can register their own collectors through the Registrar
// interface, keeping the process on a single registry:
//
//	err := registry.Register(myCounter, myGauge)
//
// # Thread Safety
//
// Recording is lock-free (a Prometheus client guarantee) and safe for
// concurrent in-flight requests; no samples are lost under interleaving.
// Registration may be called from multiple goroutines.
package metric
