// Package server provides the HTTP server for the storefront API.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/storefront/internal/metrics"
	"github.com/agentstation/storefront/internal/server/handlers"
	"github.com/agentstation/storefront/internal/server/middleware"
	"github.com/agentstation/storefront/pkg/errors"
	"github.com/agentstation/storefront/pkg/logging"
)

// Server holds the HTTP server state and dependencies.
type Server struct {
	handlers  *handlers.Handlers
	metrics   *metrics.Metrics
	router    *Router
	handler   http.Handler
	logger    *zerolog.Logger
	config    Config
	startTime time.Time
}

// New creates a server for svc. m may be nil, in which case no metrics are
// recorded and /metrics is not served. Route registration errors are
// returned here, before anything listens.
func New(svc handlers.Service, m *metrics.Metrics, logger *zerolog.Logger, cfg Config) (*Server, error) {
	if logger == nil {
		logger = logging.Default()
	}
	def := DefaultConfig()
	if cfg.Port == 0 {
		cfg.Port = def.Port
	}
	if cfg.ReadHeaderTimeout == 0 {
		cfg.ReadHeaderTimeout = def.ReadHeaderTimeout
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = def.ShutdownTimeout
	}

	s := &Server{
		handlers:  handlers.New(svc),
		logger:    logger,
		config:    cfg,
		startTime: time.Now(),
	}
	var rec middleware.Recorder
	if m != nil {
		s.metrics = m
		rec = m
	}

	s.router = NewRouter(rec)
	if err := s.registerRoutes(s.router); err != nil {
		return nil, errors.NewConfigError("server", "registering routes", err)
	}
	s.handler = s.applyMiddleware(s.router)

	logger.Debug().Strs("routes", s.router.Routes()).Msg("Routes registered")
	return s, nil
}

// Handler returns the configured http.Handler with middleware chain applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Routes lists the registered routes.
func (s *Server) Routes() []string {
	return s.router.Routes()
}

// StartTime returns the server start time for uptime calculations.
func (s *Server) StartTime() time.Time {
	return s.startTime
}

// Serve accepts connections on ln until ctx is done, then shuts down
// gracefully, waiting up to the configured shutdown timeout for in-flight
// requests.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: s.config.ReadHeaderTimeout,
		IdleTimeout:       s.config.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", ln.Addr().String()).Msg("Server starting")
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			serverErr <- fmt.Errorf("server failed: %w", err)
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		s.logger.Info().Msg("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		s.logger.Info().Msg("Server stopped gracefully")
		return nil
	}
}

// ListenAndServe listens on the configured address and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Addr())
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.config.Addr(), err)
	}
	return s.Serve(ctx, ln)
}
