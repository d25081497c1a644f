package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"insider-hq/relay/pkg/config"
	"insider-hq/relay/pkg/proxy/handlers"
	"insider-hq/relay/pkg/proxy/middleware"
	"insider-hq/relay/pkg/security/crypto"
	"insider-hq/relay/pkg/telemetry/health"
	"insider-hq/relay/pkg/telemetry/tracing"
)

// Dependencies are the components the server routes to. Relayer, Items,
// Providers and Health are required.
type Dependencies struct {
	Relayer   handlers.Relayer
	Recorder  handlers.Recorder
	Items     handlers.ItemStore
	Encrypter crypto.Encrypter
	Providers handlers.ProviderDirectory
	Health    *health.Checker

	// Metrics serves MetricsPath; nil disables the endpoint.
	Metrics     http.Handler
	MetricsPath string

	Version health.VersionInfo
}

// Server is the HTTP server of the relay.
type Server struct {
	config       *config.ServerConfig
	deps         Dependencies
	httpServer   *http.Server
	listener     net.Listener
	shutdownChan chan struct{}
	shutdownOnce sync.Once
	stopOnce     sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// NewServer creates a new server.
func NewServer(cfg *config.ServerConfig, deps Dependencies) *Server {
	return &Server{
		config:       cfg,
		deps:         deps,
		shutdownChan: make(chan struct{}),
	}
}

// Start listens on the configured address and serves until ctx is cancelled,
// Stop is called or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.ListenAddress, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln. It blocks like Start and closes ln on return.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		ln.Close()
		return fmt.Errorf("server is already running")
	}
	s.isRunning = true
	s.listener = ln
	s.httpServer = &http.Server{
		Handler:        s.setupRoutes(),
		ReadTimeout:    s.config.ReadTimeout,
		WriteTimeout:   s.config.WriteTimeout,
		IdleTimeout:    s.config.IdleTimeout,
		MaxHeaderBytes: s.config.MaxHeaderBytes,
		BaseContext:    func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}
	httpServer := s.httpServer
	s.mu.Unlock()

	errChan := make(chan error, 1)
	go func() {
		slog.Info("starting relay server", "address", ln.Addr().String())
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case err := <-errChan:
		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
		return err
	case <-s.shutdownChan:
		slog.Info("shutdown requested")
		return s.Shutdown(context.Background())
	}
}

// Stop asks a running Start or Serve to shut down and return.
func (s *Server) Stop() {
	s.stopOnce.Do(func() { close(s.shutdownChan) })
}

// Shutdown gracefully shuts down the server, waiting up to
// ShutdownTimeout for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		if !s.isRunning {
			s.mu.Unlock()
			return
		}
		httpServer := s.httpServer
		s.mu.Unlock()

		slog.Info("initiating graceful shutdown", "timeout", s.config.ShutdownTimeout.String())

		shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("error during server shutdown", "error", err)
			shutdownErr = fmt.Errorf("server shutdown error: %w", err)
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		slog.Info("relay server stopped")
	})

	return shutdownErr
}

// setupRoutes configures HTTP routes and middleware chain.
func (s *Server) setupRoutes() http.Handler {
	mux := http.NewServeMux()

	handlers.NewRelayHandler(s.deps.Relayer, s.deps.Recorder).Register(mux)
	handlers.NewConfigHandler(s.deps.Items, s.deps.Encrypter).Register(mux)
	mux.Handle("GET /health/providers", handlers.NewProvidersHandler(s.deps.Providers))

	mux.HandleFunc("GET /health", s.deps.Health.LivenessHandler())
	mux.HandleFunc("GET /ready", s.deps.Health.ReadinessHandler())
	mux.HandleFunc("GET /version", health.VersionHandler(s.deps.Version.Version, s.deps.Version.Commit, s.deps.Version.BuildTime))

	if s.deps.Metrics != nil {
		path := s.deps.MetricsPath
		if path == "" {
			path = config.DefaultMetricsPath
		}
		mux.Handle("GET "+path, s.deps.Metrics)
	}

	var handler http.Handler = mux
	handler = middleware.NoCacheMiddleware(handler)
	handler = middleware.CORSMiddleware(&s.config.CORS)(handler)
	handler = tracing.HTTPMiddleware(handler)
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.RequestIDMiddleware(handler)

	// Recovery middleware (outermost)
	handler = middleware.RecoveryMiddleware(handler)

	return handler
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Addr returns the address the server listens on, or "" before Serve.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Handler returns the configured HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.setupRoutes()
}
