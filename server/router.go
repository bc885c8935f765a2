package server

import (
	"log/slog"
	"net/http"

	"github.com/kayaman/observability-app/config"
	"github.com/kayaman/observability-app/health"
	"github.com/kayaman/observability-app/metric"
)

// Dependencies holds the collaborators injected into the HTTP surface.
// They are constructed once at process start and passed in explicitly;
// there is no package-level state.
type Dependencies struct {
	Logger  *slog.Logger
	Metrics *metric.Registry
	Monitor *health.Monitor
	Data    config.DataConfig
}

// NewHandler builds the route table with every route wrapped by the
// instrumentation middleware. The route label recorded in metrics is the
// registered path pattern, not the raw request path, keeping label
// cardinality bounded.
func NewHandler(deps Dependencies) http.Handler {
	mux := http.NewServeMux()

	route := func(pattern, label string, h http.Handler) {
		mux.Handle(pattern, Instrument(label, deps.Metrics.HTTP(), deps.Logger, h))
	}

	route("GET /api/data", "/api/data", handleData(deps.Data))
	route("GET /health", "/health", handleHealth())
	route("GET /health/details", "/health/details", handleHealthDetails(deps.Monitor))
	route("GET /metrics", "/metrics", deps.Metrics.Handler())
	route("GET /{$}", "/", handleIndex())

	return mux
}
