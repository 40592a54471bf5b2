// Package api exposes the file storage service over HTTP for the
// platform's route layer.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/camphub/assetstore/internal/config"
	"github.com/camphub/assetstore/internal/files"
)

// Server hosts the upload/fetch/remove/share endpoints.
type Server struct {
	config     *config.Config
	logger     *zap.Logger
	service    *files.Service
	router     chi.Router
	httpServer *http.Server
	registry   *prometheus.Registry
	startTime  time.Time
}

// NewServer creates the HTTP server. registry carries the process metrics
// and backs /metrics.
func NewServer(cfg *config.Config, logger *zap.Logger, service *files.Service,
	registry *prometheus.Registry) *Server {
	s := &Server{
		config:    cfg,
		logger:    logger,
		service:   service,
		router:    chi.NewRouter(),
		registry:  registry,
		startTime: time.Now(),
	}

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(s.loggingMiddleware)

	s.router.Get("/health", s.handleHealth)
	s.router.Method(http.MethodGet, "/metrics",
		promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	s.router.Route("/v1/files", func(r chi.Router) {
		r.Post("/{category}", s.handleUpload)
		r.Get("/{category}/url", s.handleShareURL)
		r.Get("/{category}/*", s.handleFetch)
		r.Delete("/{category}/*", s.handleRemove)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	code := http.StatusOK
	if !s.service.StoreHealthy(r.Context()) {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	health := map[string]interface{}{
		"status": status,
		"uptime": time.Since(s.startTime).Seconds(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(health)
}

// Start begins serving. It blocks until the server stops.
func (s *Server) Start() error {
	s.logger.Info("http server listening", zap.Int("port", s.config.Server.Port))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler returns the router, for tests.
func (s *Server) Handler() http.Handler { return s.router }
