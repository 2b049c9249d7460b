// Package server exposes the latest probe report over HTTP for watch mode.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/jkaninda/okapi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/trace"

	"github.com/jkaninda/credcheck/internal/config"
	"github.com/jkaninda/credcheck/internal/observability"
	"github.com/jkaninda/credcheck/internal/probe"
)

// errNoReport is reported by readiness until the first run completes.
var errNoReport = errors.New("no probe run completed yet")

// Config holds watch-mode server settings.
type Config struct {
	ListenAddr      string
	MetricsRegistry *prometheus.Registry // nil = no /metrics endpoint
	MetricsPath     string               // Default: "/metrics"
	Metrics         *observability.MetricsCollector
	Tracer          *observability.TracerSetup
	HealthChecker   *observability.HealthChecker
}

// Store keeps the most recent report.
type Store struct {
	mu     sync.RWMutex
	report *probe.Report
}

// Set replaces the stored report.
func (s *Store) Set(r *probe.Report) {
	s.mu.Lock()
	s.report = r
	s.mu.Unlock()
}

// Latest returns the stored report, or nil before the first run.
func (s *Store) Latest() *probe.Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.report
}

// Server is the watch-mode HTTP API.
type Server struct {
	config Config
	store  *Store
	logger *slog.Logger
	okapi  *okapi.Okapi
	server *http.Server
}

// New creates a Server reading reports from store. Routes and the
// underlying *http.Server are set up here, so Stop is safe to call from
// another goroutine at any time, even before Start.
func New(cfg Config, store *Store, logger *slog.Logger) *Server {
	if cfg.HealthChecker == nil {
		cfg.HealthChecker = observability.NewHealthChecker(logger)
	}
	cfg.HealthChecker.AddCheck("last_run", func(context.Context) error {
		if store.Latest() == nil {
			return errNoReport
		}
		return nil
	})

	s := &Server{
		config: cfg,
		store:  store,
		logger: logger,
		okapi:  okapi.New(),
		server: &http.Server{
			Addr:              cfg.ListenAddr,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	if s.config.Metrics != nil || s.config.Tracer != nil {
		var tracer trace.Tracer
		if s.config.Tracer != nil {
			tracer = s.config.Tracer.Tracer()
		}
		s.okapi.UseMiddleware(func(next http.Handler) http.Handler {
			return observability.HTTPMetricsMiddleware(s.config.Metrics, tracer, next)
		})
	}

	s.okapi.Get("/healthz", s.handleLiveness)
	s.okapi.Get("/readyz", s.handleReadiness)
	s.okapi.Get("/v1/report", s.handleReport)

	if s.config.MetricsRegistry != nil {
		path := s.config.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		s.okapi.HandleStd("GET", path, promhttp.HandlerFor(s.config.MetricsRegistry, promhttp.HandlerOpts{}).ServeHTTP)
	}
}

// Start blocks until the server exits. It returns immediately when Stop
// already ran.
func (s *Server) Start() error {
	if err := config.ValidateListenAddr(s.server.Addr); err != nil {
		return err
	}
	s.logger.Info("watch server starting", slog.String("addr", s.server.Addr))
	return s.okapi.StartServer(s.server)
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(context.Context) error {
	s.logger.Info("watch server stopping")
	return s.okapi.Shutdown(s.server)
}

func (s *Server) handleLiveness(c *okapi.Context) error {
	return c.OK(s.config.HealthChecker.CheckHealth())
}

// handleReadiness returns 200 only when the last run passed completely.
func (s *Server) handleReadiness(c *okapi.Context) error {
	status := s.config.HealthChecker.CheckReady(c.Context(), s.store.Latest())
	code := http.StatusOK
	if status.Status != "ok" {
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, status)
}

func (s *Server) handleReport(c *okapi.Context) error {
	report := s.store.Latest()
	if report == nil {
		return c.JSON(http.StatusNotFound, okapi.M{"error": errNoReport.Error()})
	}
	return c.OK(report)
}
