// Package server provides the HTTP surface of observability-app: the
// request instrumentation middleware, the route handlers, and the server
// lifecycle.
package server

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/kayaman/observability-app/config"
	"github.com/kayaman/observability-app/errors"
)

// Server binds a port and dispatches requests through the middleware chain
type Server struct {
	cfg     config.ServerConfig
	handler http.Handler
	logger  *slog.Logger

	mu     sync.Mutex // protects server field
	server *http.Server
}

// New creates a server from configuration. The handler should come from
// NewHandler so every route is instrumented.
func New(cfg config.ServerConfig, handler http.Handler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:     cfg,
		handler: handler,
		logger:  logger,
	}
}

// Start runs the HTTP server. It blocks until the server stops; a graceful
// Shutdown yields a nil return. A startup failure (for example the port
// already bound) is fatal.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.server != nil {
		s.mu.Unlock()
		return errors.WrapFatal(errors.ErrAlreadyStarted, "Server", "Start",
			"cannot start server that is already running")
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.handler,
		ReadHeaderTimeout: s.cfg.ReadHeaderTimeout,
	}
	s.server = srv
	s.mu.Unlock()

	s.logger.Info("http server listening", "addr", srv.Addr)

	if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return errors.WrapFatal(err, "Server", "Start",
			fmt.Sprintf("listen on port %d", s.cfg.Port))
	}

	return nil
}

// Shutdown gracefully stops the server, waiting for in-flight requests up
// to the context deadline
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.server
	s.server = nil
	s.mu.Unlock()

	if srv == nil {
		return nil
	}

	if err := srv.Shutdown(ctx); err != nil {
		return errors.WrapTransient(err, "Server", "Shutdown", "drain in-flight requests")
	}
	return nil
}

// Address returns the server's base URL
func (s *Server) Address() string {
	return fmt.Sprintf("http://localhost:%d", s.cfg.Port)
}
