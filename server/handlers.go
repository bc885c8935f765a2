package server

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/kayaman/observability-app/config"
	"github.com/kayaman/observability-app/health"
)

// dataResponse is the payload of the simulated data endpoint
type dataResponse struct {
	Value     int    `json:"value"`
	Timestamp string `json:"timestamp"`
}

// healthResponse is the liveness payload
type healthResponse struct {
	Status string `json:"status"`
}

// writeJSON writes a JSON response with the given status
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// handleData simulates a backend with variable latency: it sleeps a uniform
// random interval in [0, MaxDelay], then returns a random value with a
// completion timestamp. The sleep always runs to completion; a client
// disconnect mid-delay does not cancel it, so the request is still recorded.
func handleData(cfg config.DataConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if cfg.MaxDelay > 0 {
			time.Sleep(rand.N(cfg.MaxDelay + 1))
		}

		writeJSON(w, http.StatusOK, dataResponse{
			Value:     rand.IntN(cfg.MaxValue),
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// handleHealth is the liveness probe: a static OK, no dependencies
func handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
	}
}

// handleHealthDetails reports aggregated per-component health
func handleHealthDetails(monitor *health.Monitor) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, monitor.AggregateHealth("observability-app"))
	}
}

// handleIndex serves a small HTML page linking the endpoints
func handleIndex() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = fmt.Fprint(w, `<html>
<head><title>observability-app</title></head>
<body>
<h1>observability-app</h1>
<p><a href="/api/data">Data</a></p>
<p><a href="/health">Health</a></p>
<p><a href="/health/details">Health Details</a></p>
<p><a href="/metrics">Metrics</a></p>
</body>
</html>`)
	}
}
