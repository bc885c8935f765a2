// Package main implements the entry point for observability-app, an
// instrumented HTTP service that serves simulated data while exposing
// Prometheus metrics and shipping structured logs to Loki.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/kayaman/observability-app/config"
	"github.com/kayaman/observability-app/health"
	"github.com/kayaman/observability-app/logging"
	"github.com/kayaman/observability-app/metric"
	"github.com/kayaman/observability-app/server"
)

// Build information constants
const (
	Version = "0.1.0"
	appName = "observability-app"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		slog.Error("Application failed", "error", err, "exit_code", 1)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	console := slog.New(logging.NewConsoleHandler(cfg.Logging))
	monitor := health.NewMonitor()
	registry := metric.NewRegistry()

	// The Loki sink receives every record the console gets. Its failures
	// never surface to request handling; they show up in the sink's own
	// metrics and in the health monitor instead.
	var sinks []slog.Handler
	if cfg.Loki.Enabled {
		sink, err := logging.NewLokiSink(cfg.Loki, registry,
			logging.WithLabels(map[string]string{"app": appName}),
			logging.WithConsole(console),
			logging.WithHealthMonitor(monitor),
			logging.WithLevel(logging.ParseLevel(cfg.Logging.Level)),
		)
		if err != nil {
			return fmt.Errorf("create loki sink: %w", err)
		}
		if err := sink.Start(); err != nil {
			return fmt.Errorf("start loki sink: %w", err)
		}
		defer func() {
			if err := sink.Stop(cfg.Server.ShutdownTimeout); err != nil {
				console.Warn("loki sink did not drain in time", "error", err)
			}
		}()
		sinks = append(sinks, sink)
	}

	logger := logging.NewLogger(cfg.Logging, sinks...).With(
		"service", appName,
		"version", Version,
		"pid", os.Getpid(),
	)
	slog.SetDefault(logger)

	logger.Info("Starting observability-app",
		"port", cfg.Server.Port,
		"loki_enabled", cfg.Loki.Enabled,
		"loki_host", cfg.Loki.Host,
	)

	handler := server.NewHandler(server.Dependencies{
		Logger:  logger,
		Metrics: registry,
		Monitor: monitor,
		Data:    cfg.Data,
	})
	srv := server.New(cfg.Server, handler, logger)

	monitor.UpdateHealthy("server", "listening on "+srv.Address())

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		logger.Info("Shutdown signal received", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	if err := <-errCh; err != nil {
		return err
	}

	logger.Info("Shutdown complete")
	return nil
}
