package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/kayaman/observability-app/metric"
)

// statusRecorder wraps http.ResponseWriter and latches the first status
// code written. Subsequent WriteHeader calls pass through untouched so the
// client-visible behavior is exactly the handler's; only the recorded
// status is deduplicated.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

// WriteHeader latches the first status and forwards every call
func (r *statusRecorder) WriteHeader(status int) {
	if !r.wroteHeader {
		r.status = status
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(status)
}

// Write marks the implicit 200 when the handler skips WriteHeader
func (r *statusRecorder) Write(b []byte) (int, error) {
	if !r.wroteHeader {
		r.status = http.StatusOK
		r.wroteHeader = true
	}
	return r.ResponseWriter.Write(b)
}

// Status returns the recorded status, defaulting to 200 when the handler
// wrote nothing at all
func (r *statusRecorder) Status() int {
	if !r.wroteHeader {
		return http.StatusOK
	}
	return r.status
}

// Unwrap exposes the underlying writer for http.ResponseController
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// requestID extracts the X-Request-ID header or generates a new ID
func requestID(r *http.Request) string {
	if id := r.Header.Get("X-Request-ID"); id != "" {
		return id
	}
	return uuid.NewString()
}

// Instrument wraps a handler with request instrumentation. For every
// request that completes it records, synchronously and in order: one
// histogram observation, one counter increment, and one structured log
// record, all derived from the same outcome. The response bytes and status
// observed by the client are never altered.
//
// Handler panics are mapped to a 500 response, and the 500 is itself
// instrumented like any other outcome.
func Instrument(route string, metrics *metric.HTTPMetrics, logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := requestID(r)
		w.Header().Set("X-Request-ID", reqID)

		rec := &statusRecorder{ResponseWriter: w}

		defer func() {
			panicked := recover()
			if panicked != nil && !rec.wroteHeader {
				http.Error(rec, "internal server error", http.StatusInternalServerError)
			}

			elapsed := time.Since(start)
			status := rec.Status()

			metrics.RecordRequest(r.Method, route, status, elapsed)

			if panicked != nil {
				logger.Error("request panicked",
					"method", r.Method,
					"path", r.URL.Path,
					"status_code", status,
					"response_time_ms", elapsedMs(elapsed),
					"request_id", reqID,
					"panic", panicked)
				return
			}

			logger.Info("request completed",
				"method", r.Method,
				"path", r.URL.Path,
				"status_code", status,
				"response_time_ms", elapsedMs(elapsed),
				"request_id", reqID)
		}()

		next.ServeHTTP(rec, r)
	})
}

// elapsedMs converts a duration to fractional milliseconds for log records
func elapsedMs(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000.0
}
