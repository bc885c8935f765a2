package metric

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gatherFamily(t *testing.T, registry *Registry, name string) *dto.MetricFamily {
	t.Helper()

	metricFamilies, err := registry.PrometheusRegistry().Gather()
	require.NoError(t, err)

	for _, mf := range metricFamilies {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func TestNewRegistry(t *testing.T) {
	registry := NewRegistry()

	assert.NotNil(t, registry)
	assert.NotNil(t, registry.PrometheusRegistry())
	assert.NotNil(t, registry.HTTP())
}

func TestRegistry_ContractMetricNames(t *testing.T) {
	registry := NewRegistry()

	// Vectors only appear in a scrape once they have at least one sample
	registry.HTTP().RecordRequest("GET", "/api/data", 200, 42*time.Millisecond)

	assert.NotNil(t, gatherFamily(t, registry, "http_request_duration_seconds"),
		"duration histogram should be registered under its contract name")
	assert.NotNil(t, gatherFamily(t, registry, "http_requests_total"),
		"request counter should be registered under its contract name")

	// Process collectors come along for free
	assert.NotNil(t, gatherFamily(t, registry, "go_goroutines"))
}

func TestHTTPMetrics_RecordRequest_PairedSamples(t *testing.T) {
	registry := NewRegistry()

	registry.HTTP().RecordRequest("GET", "/api/data", 200, 150*time.Millisecond)

	counter, err := registry.HTTP().RequestsTotal.GetMetricWithLabelValues("GET", "/api/data", "200")
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(counter))

	mf := gatherFamily(t, registry, "http_request_duration_seconds")
	require.NotNil(t, mf)
	require.Len(t, mf.GetMetric(), 1)

	histogram := mf.GetMetric()[0].GetHistogram()
	assert.Equal(t, uint64(1), histogram.GetSampleCount())
	assert.InDelta(t, 0.150, histogram.GetSampleSum(), 0.001)

	// Histogram and counter carry identical label values
	labels := map[string]string{}
	for _, lp := range mf.GetMetric()[0].GetLabel() {
		labels[lp.GetName()] = lp.GetValue()
	}
	assert.Equal(t, map[string]string{
		"method":      "GET",
		"route":       "/api/data",
		"status_code": "200",
	}, labels)
}

func TestHTTPMetrics_RecordRequest_CounterAccumulates(t *testing.T) {
	registry := NewRegistry()

	const n = 7
	for i := 0; i < n; i++ {
		registry.HTTP().RecordRequest("GET", "/health", 200, time.Millisecond)
	}

	counter, err := registry.HTTP().RequestsTotal.GetMetricWithLabelValues("GET", "/health", "200")
	require.NoError(t, err)
	assert.Equal(t, float64(n), testutil.ToFloat64(counter))
}

func TestHTTPMetrics_RecordRequest_LabelPartitioning(t *testing.T) {
	registry := NewRegistry()

	registry.HTTP().RecordRequest("GET", "/api/data", 200, time.Millisecond)
	registry.HTTP().RecordRequest("GET", "/api/data", 500, time.Millisecond)
	registry.HTTP().RecordRequest("POST", "/api/data", 200, time.Millisecond)

	mf := gatherFamily(t, registry, "http_requests_total")
	require.NotNil(t, mf)
	assert.Len(t, mf.GetMetric(), 3, "each label triple should get its own series")
}

func TestHTTPMetrics_RecordRequest_Concurrent(t *testing.T) {
	registry := NewRegistry()

	const goroutines = 50
	const perGoroutine = 20

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				registry.HTTP().RecordRequest("GET", "/api/data", 200, time.Millisecond)
			}
		}()
	}
	wg.Wait()

	counter, err := registry.HTTP().RequestsTotal.GetMetricWithLabelValues("GET", "/api/data", "200")
	require.NoError(t, err)
	assert.Equal(t, float64(goroutines*perGoroutine), testutil.ToFloat64(counter),
		"no samples should be lost under concurrent recording")

	mf := gatherFamily(t, registry, "http_request_duration_seconds")
	require.NotNil(t, mf)
	assert.Equal(t, uint64(goroutines*perGoroutine), mf.GetMetric()[0].GetHistogram().GetSampleCount())
}

func TestRegistry_Register(t *testing.T) {
	registry := NewRegistry()

	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "log_sink_records_total",
		Help: "Test counter",
	})

	require.NoError(t, registry.Register(counter))
	counter.Inc()

	assert.NotNil(t, gatherFamily(t, registry, "log_sink_records_total"))
}

func TestRegistry_Register_Duplicate(t *testing.T) {
	registry := NewRegistry()

	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dup_counter",
		Help: "Test counter",
	})

	require.NoError(t, registry.Register(counter))

	err := registry.Register(counter)
	assert.Error(t, err)
}

func TestRegistry_Handler(t *testing.T) {
	registry := NewRegistry()
	registry.HTTP().RecordRequest("GET", "/api/data", 200, 10*time.Millisecond)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	registry.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "http_request_duration_seconds")
	assert.Contains(t, body, "http_requests_total")

	for _, bound := range DurationBuckets {
		assert.Contains(t, body, fmt.Sprintf("le=\"%g\"", bound))
	}
}
