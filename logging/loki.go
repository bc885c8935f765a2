package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kayaman/observability-app/config"
	"github.com/kayaman/observability-app/errors"
	"github.com/kayaman/observability-app/health"
	"github.com/kayaman/observability-app/metric"
)

const (
	lokiPushPath  = "/loki/api/v1/push"
	sinkComponent = "loki-sink"
)

// entry is one log line queued for delivery
type entry struct {
	ts   time.Time
	line []byte
}

// pushStream is one labeled stream in a Loki push request
type pushStream struct {
	Stream map[string]string `json:"stream"`
	Values [][2]string       `json:"values"`
}

// pushRequest is the Loki push API payload
type pushRequest struct {
	Streams []pushStream `json:"streams"`
}

// LokiSink is a non-blocking slog.Handler that batches records and pushes
// them to a Loki aggregator. Records are enqueued onto a bounded channel;
// when the queue is full the record is dropped and counted rather than
// blocking the caller. A background flusher sends batches on a size or
// interval trigger. Push failures are counted, reported to the health
// monitor, and logged to the console; they are never retried and never
// surface to the logging caller.
type LokiSink struct {
	endpoint string
	labels   map[string]string
	level    slog.Level

	client *http.Client
	queue  chan entry

	batchSize     int
	flushInterval time.Duration
	pushTimeout   time.Duration

	console *slog.Logger
	monitor *health.Monitor

	// Sink self-metrics
	records    prometheus.Counter
	dropped    prometheus.Counter
	pushErrors prometheus.Counter

	// Lifecycle management
	shutdown    chan struct{}
	lifecycleMu sync.Mutex
	running     bool
	wg          sync.WaitGroup
}

// Option configures a LokiSink
type Option func(*LokiSink)

// WithLabels sets the Loki stream labels for every pushed record
func WithLabels(labels map[string]string) Option {
	return func(s *LokiSink) {
		s.labels = labels
	}
}

// WithConsole sets the logger used to report sink failures locally
func WithConsole(logger *slog.Logger) Option {
	return func(s *LokiSink) {
		s.console = logger
	}
}

// WithHealthMonitor wires the sink's connectivity state into a health monitor
func WithHealthMonitor(monitor *health.Monitor) Option {
	return func(s *LokiSink) {
		s.monitor = monitor
	}
}

// WithLevel sets the minimum level the sink accepts
func WithLevel(level slog.Level) Option {
	return func(s *LokiSink) {
		s.level = level
	}
}

// NewLokiSink creates a Loki push sink from configuration. The sink's
// self-metrics are registered with the given registrar; pass nil to skip
// registration (tests).
func NewLokiSink(cfg config.LokiConfig, registrar metric.Registrar, opts ...Option) (*LokiSink, error) {
	sink := &LokiSink{
		endpoint: strings.TrimSuffix(cfg.Host, "/") + lokiPushPath,
		labels:   map[string]string{"app": "observability-app"},
		level:    slog.LevelInfo,
		client: &http.Client{
			Timeout: cfg.PushTimeout,
		},
		queue:         make(chan entry, cfg.QueueSize),
		batchSize:     cfg.BatchSize,
		flushInterval: cfg.FlushInterval,
		pushTimeout:   cfg.PushTimeout,
		console:       slog.Default(),
		shutdown:      make(chan struct{}),

		records: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "log_sink_records_total",
			Help: "Total number of log records accepted by the Loki sink",
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "log_sink_records_dropped_total",
			Help: "Total number of log records dropped because the sink queue was full",
		}),
		pushErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "log_sink_push_errors_total",
			Help: "Total number of failed Loki push requests",
		}),
	}

	for _, opt := range opts {
		opt(sink)
	}

	if registrar != nil {
		if err := registrar.Register(sink.records, sink.dropped, sink.pushErrors); err != nil {
			return nil, errors.Wrap(err, "LokiSink", "NewLokiSink", "register sink metrics")
		}
	}

	return sink, nil
}

// Start begins the background flusher
func (s *LokiSink) Start() error {
	s.lifecycleMu.Lock()
	defer s.lifecycleMu.Unlock()

	if s.running {
		return errors.WrapFatal(errors.ErrAlreadyStarted, "LokiSink", "Start", "check running state")
	}

	s.running = true
	if s.monitor != nil {
		s.monitor.UpdateHealthy(sinkComponent, "sink started")
	}

	s.wg.Add(1)
	go s.flushLoop()

	return nil
}

// Stop drains the queue, flushes the final batch, and stops the flusher.
// The sink cannot be restarted after Stop.
func (s *LokiSink) Stop(timeout time.Duration) error {
	s.lifecycleMu.Lock()
	defer s.lifecycleMu.Unlock()

	if !s.running {
		return nil
	}

	close(s.shutdown)

	waitCh := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(waitCh)
	}()

	select {
	case <-waitCh:
		// Clean shutdown
	case <-time.After(timeout):
		s.running = false
		return errors.WrapTransient(fmt.Errorf("shutdown timeout after %v", timeout),
			"LokiSink", "Stop", "drain queue")
	}

	s.running = false
	return nil
}

// Enabled implements slog.Handler
func (s *LokiSink) Enabled(_ context.Context, level slog.Level) bool {
	return level >= s.level
}

// Handle implements slog.Handler. It never blocks and never returns an
// error to the caller: when the queue is full the record is dropped and
// counted.
func (s *LokiSink) Handle(_ context.Context, record slog.Record) error {
	s.enqueue(record, nil, nil)
	return nil
}

// WithAttrs implements slog.Handler
func (s *LokiSink) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &derivedLokiHandler{sink: s, attrs: attrs}
}

// WithGroup implements slog.Handler
func (s *LokiSink) WithGroup(name string) slog.Handler {
	if name == "" {
		return s
	}
	return &derivedLokiHandler{sink: s, groups: []string{name}}
}

// enqueue formats and queues one record
func (s *LokiSink) enqueue(record slog.Record, attrs []slog.Attr, groups []string) {
	ts := record.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	line := formatLine(record, attrs, groups)

	select {
	case s.queue <- entry{ts: ts, line: line}:
		s.records.Inc()
	default:
		s.dropped.Inc()
	}
}

// flushLoop batches queued entries and pushes them on a size or interval
// trigger. On shutdown it drains whatever is queued and pushes one final
// batch.
func (s *LokiSink) flushLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.flushInterval)
	defer ticker.Stop()

	batch := make([]entry, 0, s.batchSize)

	for {
		select {
		case e := <-s.queue:
			batch = append(batch, e)
			if len(batch) >= s.batchSize {
				s.flush(batch)
				batch = batch[:0]
			}

		case <-ticker.C:
			if len(batch) > 0 {
				s.flush(batch)
				batch = batch[:0]
			}

		case <-s.shutdown:
			// Drain anything still queued, then final flush
			for {
				select {
				case e := <-s.queue:
					batch = append(batch, e)
					if len(batch) >= s.batchSize {
						s.flush(batch)
						batch = batch[:0]
					}
					continue
				default:
				}
				break
			}
			if len(batch) > 0 {
				s.flush(batch)
			}
			return
		}
	}
}

// flush pushes one batch. Failures are counted and reported locally, never
// retried.
func (s *LokiSink) flush(batch []entry) {
	ctx, cancel := context.WithTimeout(context.Background(), s.pushTimeout)
	defer cancel()

	if err := s.push(ctx, batch); err != nil {
		s.pushErrors.Inc()
		if s.monitor != nil {
			s.monitor.UpdateDegraded(sinkComponent, "push failed")
		}
		s.console.Warn("loki push failed",
			"error", err,
			"records", len(batch))
		return
	}

	if s.monitor != nil {
		s.monitor.UpdateHealthy(sinkComponent, "pushing")
	}
}

// push sends one batch to the Loki push API
func (s *LokiSink) push(ctx context.Context, batch []entry) error {
	values := make([][2]string, len(batch))
	for i, e := range batch {
		values[i] = [2]string{
			strconv.FormatInt(e.ts.UnixNano(), 10),
			string(e.line),
		}
	}

	payload, err := json.Marshal(pushRequest{
		Streams: []pushStream{{
			Stream: s.labels,
			Values: values,
		}},
	})
	if err != nil {
		return errors.WrapInvalid(err, "LokiSink", "push", "marshal payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return errors.WrapInvalid(err, "LokiSink", "push", "build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return errors.WrapTransient(err, "LokiSink", "push", "send batch")
	}
	defer resp.Body.Close()

	// Read and discard body to reuse connection
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.WrapTransient(fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status),
			"LokiSink", "push", "send batch")
	}

	return nil
}

// derivedLokiHandler carries WithAttrs/WithGroup state while sharing the
// parent sink's queue and flusher
type derivedLokiHandler struct {
	sink   *LokiSink
	attrs  []slog.Attr
	groups []string
}

func (d *derivedLokiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return d.sink.Enabled(ctx, level)
}

func (d *derivedLokiHandler) Handle(_ context.Context, record slog.Record) error {
	d.sink.enqueue(record, d.attrs, d.groups)
	return nil
}

func (d *derivedLokiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(d.attrs)+len(attrs))
	merged = append(merged, d.attrs...)
	for _, a := range attrs {
		merged = append(merged, prefixAttr(d.groups, a))
	}
	return &derivedLokiHandler{sink: d.sink, attrs: merged, groups: d.groups}
}

func (d *derivedLokiHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return d
	}
	groups := make([]string, 0, len(d.groups)+1)
	groups = append(groups, d.groups...)
	groups = append(groups, name)
	return &derivedLokiHandler{sink: d.sink, attrs: d.attrs, groups: groups}
}

// formatLine renders a record as a single JSON log line
func formatLine(record slog.Record, attrs []slog.Attr, groups []string) []byte {
	fields := make(map[string]any, record.NumAttrs()+len(attrs)+2)
	fields["level"] = strings.ToLower(record.Level.String())
	fields["message"] = record.Message

	for _, a := range attrs {
		addAttr(fields, nil, a)
	}
	record.Attrs(func(a slog.Attr) bool {
		addAttr(fields, groups, a)
		return true
	})

	line, err := json.Marshal(fields)
	if err != nil {
		// Fall back to the bare message when an attr value is unmarshalable
		line, _ = json.Marshal(map[string]any{
			"level":   strings.ToLower(record.Level.String()),
			"message": record.Message,
		})
	}
	return line
}

// addAttr flattens an attr into the field map, dotting group prefixes
func addAttr(fields map[string]any, groups []string, attr slog.Attr) {
	attr.Value = attr.Value.Resolve()

	if attr.Value.Kind() == slog.KindGroup {
		nested := attr.Value.Group()
		if attr.Key != "" {
			groups = append(groups, attr.Key)
		}
		for _, a := range nested {
			addAttr(fields, groups, a)
		}
		return
	}

	if attr.Equal(slog.Attr{}) {
		return
	}

	key := attr.Key
	if len(groups) > 0 {
		key = strings.Join(groups, ".") + "." + key
	}
	fields[key] = attr.Value.Any()
}

// prefixAttr dots an attr key with the current group path
func prefixAttr(groups []string, attr slog.Attr) slog.Attr {
	if len(groups) == 0 {
		return attr
	}
	attr.Key = strings.Join(groups, ".") + "." + attr.Key
	return attr
}
