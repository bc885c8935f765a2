package metric

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kayaman/observability-app/errors"
)

// Registrar defines the interface for registering collaborator-owned
// collectors (for example the log sink's self-metrics)
type Registrar interface {
	Register(cs ...prometheus.Collector) error
}

// Registry owns the Prometheus registry for the process. It registers the
// HTTP request metrics and the default Go runtime and process collectors,
// and serves the text exposition format for scraping.
type Registry struct {
	prometheusRegistry *prometheus.Registry
	httpMetrics        *HTTPMetrics
}

// NewRegistry creates a new metrics registry with the HTTP request metrics
// and runtime collectors pre-registered
func NewRegistry() *Registry {
	prometheusRegistry := prometheus.NewRegistry()

	registry := &Registry{
		prometheusRegistry: prometheusRegistry,
		httpMetrics:        NewHTTPMetrics(),
	}

	prometheusRegistry.MustRegister(
		registry.httpMetrics.RequestDuration,
		registry.httpMetrics.RequestsTotal,
	)

	// Add Go runtime and process metrics
	prometheusRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return registry
}

// HTTP returns the request-level metrics recorded by the middleware
func (r *Registry) HTTP() *HTTPMetrics {
	return r.httpMetrics
}

// PrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) PrometheusRegistry() *prometheus.Registry {
	return r.prometheusRegistry
}

// Register registers additional collectors with the registry
func (r *Registry) Register(cs ...prometheus.Collector) error {
	for _, c := range cs {
		if err := r.prometheusRegistry.Register(c); err != nil {
			var alreadyRegErr prometheus.AlreadyRegisteredError
			if stderrors.As(err, &alreadyRegErr) {
				return errors.WrapInvalid(err, "Registry", "Register",
					"duplicate collector registration")
			}
			return errors.WrapFatal(err, "Registry", "Register",
				fmt.Sprintf("register collector %T with prometheus", c))
		}
	}
	return nil
}

// Handler returns an HTTP handler serving the registry's current state in
// the Prometheus text exposition format
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(
		r.prometheusRegistry,
		promhttp.HandlerOpts{
			EnableOpenMetrics: true,
		},
	)
}
