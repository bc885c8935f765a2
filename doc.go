// Package observabilityapp is a small instrumented HTTP service used to
// exercise a metrics and logging pipeline end to end.
//
// The service exposes a simulated data endpoint, a health check, and a
// Prometheus scrape endpoint. Every request that reaches a registered route
// passes through one instrumentation middleware that records a latency
// histogram sample and a request counter increment, and emits one structured
// log record. Logs are written to the console and, when enabled, shipped to
// Loki in batches.
//
// # Packages
//
//   - config:  environment-driven configuration with validation
//   - errors:  classified errors (transient, invalid, fatal)
//   - metric:  Prometheus registry and the HTTP request metrics
//   - logging: console handler, fan-out handler, and the Loki sink
//   - health:  component health statuses and aggregation
//   - server:  middleware, route handlers, and the server lifecycle
//
// The binary lives in cmd/observability-app.
//
// # Design rules
//
//   - Collaborators are injected explicitly; no package-level mutable state.
//   - Exactly one metric sample pair and one log record per completed
//     request, including error and panic responses.
//   - Observability failures (Loki unreachable, sink queue full) never
//     affect request handling.
package observabilityapp
