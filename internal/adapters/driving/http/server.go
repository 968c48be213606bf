package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/custodia-labs/sercha-graphrag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-graphrag/internal/metrics"
)

// Pinger is a simple health check interface
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// Services groups the driving ports served over HTTP.
type Services struct {
	Books    driving.BookService
	Graph    driving.GraphService
	Indexing driving.IndexingService
	Chat     driving.ChatService
	Settings driving.SettingsService
}

// Config holds server configuration
type Config struct {
	Host           string
	Port           int
	Version        string
	AllowedOrigins []string

	// Checks are pinged by /ready, keyed by component name.
	Checks map[string]Pinger

	// StatePollInterval is how often the state stream re-reads stored
	// state, which picks up runs executed by other processes.
	StatePollInterval time.Duration

	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Host:              "0.0.0.0",
		Port:              8080,
		Version:           "dev",
		AllowedOrigins:    []string{"*"},
		StatePollInterval: time.Second,
	}
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	router     *http.ServeMux
	handler    http.Handler
	version    string

	books    driving.BookService
	graph    driving.GraphService
	indexing driving.IndexingService
	chat     driving.ChatService
	settings driving.SettingsService

	checks    map[string]Pinger
	statePoll time.Duration
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// NewServer creates a new HTTP server
func NewServer(cfg Config, svc Services) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	poll := cfg.StatePollInterval
	if poll <= 0 {
		poll = time.Second
	}

	s := &Server{
		router:    http.NewServeMux(),
		version:   cfg.Version,
		books:     svc.Books,
		graph:     svc.Graph,
		indexing:  svc.Indexing,
		chat:      svc.Chat,
		settings:  svc.Settings,
		checks:    cfg.Checks,
		statePoll: poll,
		metrics:   cfg.Metrics,
		logger:    logger,
	}
	s.setupRoutes()

	s.handler = NewRecoveryMiddleware(logger).Handler(
		NewLoggingMiddleware(logger).Handler(
			NewMetricsMiddleware(cfg.Metrics).Handler(
				NewCORSMiddleware(cfg.AllowedOrigins).Handler(s.router))))

	// WriteTimeout is lifted per request by the state stream.
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /ready", s.handleReady)
	s.router.HandleFunc("GET /version", s.handleVersion)
	if s.metrics != nil {
		s.router.Handle("GET /metrics", s.metrics.Handler())
	}

	// Books
	s.router.HandleFunc("POST /api/v1/books", s.handleCreateBook)
	s.router.HandleFunc("GET /api/v1/books", s.handleListBooks)
	s.router.HandleFunc("GET /api/v1/books/{id}", s.handleGetBook)
	s.router.HandleFunc("DELETE /api/v1/books/{id}", s.handleDeleteBook)

	// Knowledge graph
	s.router.HandleFunc("POST /api/v1/books/{id}/nodes", s.handleCreateNode)
	s.router.HandleFunc("GET /api/v1/books/{id}/nodes", s.handleListNodes)
	s.router.HandleFunc("DELETE /api/v1/books/{id}/nodes/{nodeId}", s.handleDeleteNode)
	s.router.HandleFunc("POST /api/v1/books/{id}/edges", s.handleCreateEdge)
	s.router.HandleFunc("GET /api/v1/books/{id}/edges", s.handleListEdges)

	// Embedding configurations and index runs
	s.router.HandleFunc("POST /api/v1/books/{id}/configs", s.handleCreateConfig)
	s.router.HandleFunc("GET /api/v1/books/{id}/configs", s.handleListConfigs)
	s.router.HandleFunc("POST /api/v1/books/{id}/configs/{configId}/index", s.handleStartIndex)
	s.router.HandleFunc("GET /api/v1/books/{id}/configs/{configId}/state", s.handleGetState)
	s.router.HandleFunc("GET /api/v1/books/{id}/configs/{configId}/events", s.handleStateEvents)

	// Questions
	s.router.HandleFunc("POST /api/v1/books/{id}/ask", s.handleAsk)
	s.router.HandleFunc("POST /api/v1/books/{id}/compare", s.handleCompare)
	s.router.HandleFunc("GET /api/v1/books/{id}/history", s.handleHistory)

	// AI settings
	s.router.HandleFunc("GET /api/v1/settings/ai", s.handleGetAISettings)
	s.router.HandleFunc("PUT /api/v1/settings/ai", s.handleUpdateAISettings)
	s.router.HandleFunc("GET /api/v1/settings/ai/status", s.handleGetAIStatus)
	s.router.HandleFunc("POST /api/v1/settings/ai/test", s.handleTestAIConnection)
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}

// Stop stops the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
