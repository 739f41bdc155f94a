// Package server provides the HTTP front of the traffic shadowing proxy.
package server

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"umbra-hq/umbra/pkg/config"
	"umbra-hq/umbra/pkg/proxy/handlers"
	"umbra-hq/umbra/pkg/proxy/middleware"
	"umbra-hq/umbra/pkg/shadow"
	"umbra-hq/umbra/pkg/telemetry/metrics"
	"umbra-hq/umbra/pkg/telemetry/report"
	"umbra-hq/umbra/pkg/upstream"
)

// Server ties the listener, the primary forwarder, and the shadow engine
// together. One Server owns one engine: requests accepted by the listener
// are forwarded to the origin synchronously while their clones are handed
// to the engine for background delivery.
type Server struct {
	config     *config.Config
	httpServer *http.Server

	forwarder *upstream.Forwarder
	engine    *shadow.Engine
	collector *metrics.Collector
	reporter  *report.Reporter

	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// NewServer creates a proxy server from a validated configuration. It
// builds the forwarder, the shadow engine, and the telemetry pipeline but
// does not start anything.
func NewServer(cfg *config.Config) (*Server, error) {
	forwarder, err := upstream.NewForwarder(cfg.Origin.TargetURL)
	if err != nil {
		return nil, fmt.Errorf("origin forwarder: %w", err)
	}

	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
	reporter := report.NewReporter(&cfg.Telemetry.Report, slog.Default())

	engine, err := shadow.NewEngine(shadow.Options{
		TargetURL:           cfg.Shadow.TargetURL,
		QueueCapacity:       cfg.Shadow.QueueCapacity,
		OverflowPolicy:      shadow.OverflowPolicy(cfg.Shadow.OverflowPolicy),
		WorkerCount:         cfg.Shadow.WorkerCount,
		AttemptTimeout:      cfg.Shadow.AttemptTimeout,
		MaxAttempts:         cfg.Shadow.MaxAttempts,
		ShutdownGracePeriod: cfg.Shadow.ShutdownGracePeriod,
	}, upstream.NewShadowSender(), shadow.MultiObserver{collector, reporter})
	if err != nil {
		return nil, fmt.Errorf("shadow engine: %w", err)
	}

	// Queue depth, in-flight count, and overflow counters are read off
	// the engine at scrape time.
	collector.ObserveEngine(engine)

	return &Server{
		config:    cfg,
		forwarder: forwarder,
		engine:    engine,
		collector: collector,
		reporter:  reporter,
	}, nil
}

// Start starts the shadow engine and the HTTP server, then blocks until
// shutdown. The engine comes up before the listener so the first accepted
// request already has workers behind it.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.isRunning = true
	s.mu.Unlock()

	if err := s.engine.Start(); err != nil {
		s.setRunning(false)
		return fmt.Errorf("shadow engine start: %w", err)
	}

	if err := s.reporter.Start(ctx); err != nil {
		s.setRunning(false)
		return fmt.Errorf("outcome reporter start: %w", err)
	}

	// Create router with middleware chain
	handler := s.setupRoutes()

	// Create HTTP server
	s.httpServer = &http.Server{
		Addr:           s.config.Server.ListenAddress,
		Handler:        handler,
		ReadTimeout:    s.config.Server.ReadTimeout,
		WriteTimeout:   s.config.Server.WriteTimeout,
		IdleTimeout:    s.config.Server.IdleTimeout,
		MaxHeaderBytes: s.config.Server.MaxHeaderBytes,
	}

	// Configure TLS if enabled
	if s.config.Security.TLS.Enabled {
		tlsConfig, err := s.configureTLS()
		if err != nil {
			s.setRunning(false)
			return fmt.Errorf("failed to configure TLS: %w", err)
		}
		s.httpServer.TLSConfig = tlsConfig
	}

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		slog.Info("starting proxy server",
			"address", s.config.Server.ListenAddress,
			"origin", s.config.Origin.TargetURL,
			"shadow_target", s.config.Shadow.TargetURL,
			"tls_enabled", s.config.Security.TLS.Enabled,
		)

		var err error
		if s.config.Security.TLS.Enabled {
			err = s.httpServer.ListenAndServeTLS(
				s.config.Security.TLS.CertFile,
				s.config.Security.TLS.KeyFile,
			)
		} else {
			err = s.httpServer.ListenAndServe()
		}

		if err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	// Set up signal handlers
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Wait for shutdown signal or error
	select {
	case <-ctx.Done():
		slog.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case sig := <-sigChan:
		slog.Info("received shutdown signal", "signal", sig.String())
		return s.Shutdown(context.Background())
	case err := <-errChan:
		s.Shutdown(context.Background())
		return err
	}
}

// Shutdown gracefully shuts down the proxy. The shadow engine drains
// first, bounded by its shutdown grace period, and only then does the
// listener stop: requests accepted during the drain still reach the
// origin, their clones are refused fast and recorded as dropped.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		if !s.isRunning {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		slog.Info("initiating graceful shutdown",
			"engine_grace_period", s.config.Shadow.ShutdownGracePeriod.String(),
			"listener_timeout", s.config.Server.ShutdownTimeout.String(),
		)

		// Stop the engine first. Its grace period comes from the engine
		// options when ctx carries no deadline.
		if err := s.engine.Stop(ctx); err != nil {
			slog.Error("error during engine shutdown", "error", err)
			shutdownErr = fmt.Errorf("engine shutdown error: %w", err)
		}

		// Then drain the listener.
		shutdownCtx, cancel := context.WithTimeout(ctx, s.config.Server.ShutdownTimeout)
		defer cancel()

		if s.httpServer != nil {
			if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
				slog.Error("error during server shutdown", "error", err)
				if shutdownErr == nil {
					shutdownErr = fmt.Errorf("server shutdown error: %w", err)
				}
			}
		}

		s.reporter.Stop()

		s.setRunning(false)

		slog.Info("proxy server stopped")
	})

	return shutdownErr
}

// setupRoutes configures HTTP routes and the middleware chain.
func (s *Server) setupRoutes() http.Handler {
	mux := http.NewServeMux()

	// Create handlers
	dispatchHandler := handlers.NewDispatchHandler(
		s.forwarder,
		s.engine,
		s.config.Origin.Timeout,
		s.config.Origin.MaxBodyBytes,
	)
	healthHandler := handlers.NewHealthHandler()
	readyHandler := handlers.NewReadyHandler(s.engine)

	// Register routes
	mux.Handle("/healthz", healthHandler)
	mux.Handle("/readyz", readyHandler)

	if s.config.Telemetry.Metrics.Enabled {
		mux.Handle(s.config.Telemetry.Metrics.Path, s.collector.Handler())
	}

	// Everything else is proxied traffic.
	mux.Handle("/", s.collector.InstrumentHandler(dispatchHandler))

	// Apply middleware chain
	var handler http.Handler = mux

	// Logging middleware
	handler = middleware.LoggingMiddleware(handler)

	// Request ID middleware runs before logging so the ID is in context
	handler = middleware.RequestIDMiddleware(handler)

	// Recovery middleware (outermost)
	handler = middleware.RecoveryMiddleware(handler)

	return handler
}

// configureTLS configures TLS settings for the listener.
func (s *Server) configureTLS() (*tls.Config, error) {
	tlsCfg := s.config.Security.TLS

	if tlsCfg.CertFile == "" {
		return nil, fmt.Errorf("TLS cert file not specified")
	}

	if tlsCfg.KeyFile == "" {
		return nil, fmt.Errorf("TLS key file not specified")
	}

	// Check if files exist
	if _, err := os.Stat(tlsCfg.CertFile); os.IsNotExist(err) {
		return nil, fmt.Errorf("TLS cert file not found: %s", tlsCfg.CertFile)
	}

	if _, err := os.Stat(tlsCfg.KeyFile); os.IsNotExist(err) {
		return nil, fmt.Errorf("TLS key file not found: %s", tlsCfg.KeyFile)
	}

	minVersion := uint16(tls.VersionTLS13)
	if tlsCfg.MinVersion == "1.2" {
		minVersion = tls.VersionTLS12
	}

	return &tls.Config{
		MinVersion: minVersion,
	}, nil
}

// ApplyConfig applies the hot-reloadable subset of a freshly loaded
// configuration. Today that is the shadow target URL; listener address,
// queue geometry, and worker count need a restart.
func (s *Server) ApplyConfig(cfg *config.Config) error {
	if cfg.Shadow.TargetURL != s.engine.Target() {
		if err := s.engine.SetTarget(cfg.Shadow.TargetURL); err != nil {
			return fmt.Errorf("apply shadow target: %w", err)
		}
		slog.Info("shadow target updated", "shadow_target", cfg.Shadow.TargetURL)
	}

	return nil
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// setRunning updates the running flag under the lock.
func (s *Server) setRunning(running bool) {
	s.mu.Lock()
	s.isRunning = running
	s.mu.Unlock()
}

// Handler returns the configured HTTP handler. It is used by tests and by
// callers embedding the proxy behind their own listener.
func (s *Server) Handler() http.Handler {
	return s.setupRoutes()
}

// Engine returns the shadow engine owned by this server.
func (s *Server) Engine() *shadow.Engine {
	return s.engine
}

// Health performs a health check on the server.
func (s *Server) Health() error {
	if !s.IsRunning() {
		return fmt.Errorf("server is not running")
	}

	if state := s.engine.State(); state != shadow.EngineRunning {
		return fmt.Errorf("shadow engine is %s", state)
	}

	return nil
}
