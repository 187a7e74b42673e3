// Package gateway exposes search, page fetch and prompt enhancement over
// HTTP for clients that do not embed the Go API.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"webscout/internal/infra/config"
	"webscout/internal/infra/metrics"
	"webscout/internal/infra/middleware"
	"webscout/pkg/scout"
)

// Service is the part of scout.Client the gateway serves.
type Service interface {
	Search(ctx context.Context, query string, max int) []scout.Result
	FetchContent(ctx context.Context, url string, maxLength int) (scout.Page, bool)
	Backends() []scout.BackendStatus
}

// Server is the HTTP API.
type Server struct {
	cfg    config.GatewayConfig
	router chi.Router
	logger *slog.Logger

	mu        sync.Mutex
	httpSrv   *http.Server
	boundAddr string
}

// NewServer builds the router. ctx bounds the rate limiter's background
// sweep. m may be nil, in which case /metrics is not mounted.
func NewServer(ctx context.Context, svc Service, cfg config.GatewayConfig, search config.SearchConfig, m *metrics.Metrics, logger *slog.Logger) *Server {
	h := &handlers{svc: svc, searchCfg: search, logger: logger}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.RequestLog(logger))
	r.Use(chimw.Recoverer)
	r.Use(middleware.SecurityHeaders)

	r.Get("/healthz", h.health)
	if m != nil {
		r.Handle("/metrics", m.Handler())
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(ctx, middleware.RateLimitConfig{
			RequestsPerMin: cfg.RequestsPerMin,
			Burst:          cfg.Burst,
			TrustedProxies: cfg.TrustedProxies,
		}))
		r.Get("/search", h.search)
		r.Get("/fetch", h.fetch)
		r.Post("/enhance", h.enhance)
	})

	return &Server{cfg: cfg, router: r, logger: logger}
}

// Handler returns the router, for tests and for mounting elsewhere.
func (s *Server) Handler() http.Handler { return s.router }

// Start serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("gateway listen: %w", err)
	}
	httpSrv := &http.Server{
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}
	s.mu.Lock()
	s.boundAddr = listener.Addr().String()
	s.httpSrv = httpSrv
	s.mu.Unlock()
	s.logger.Info("gateway started", "addr", listener.Addr().String())

	go func() {
		<-ctx.Done()
		s.Stop(context.Background())
	}()

	if err := httpSrv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("gateway serve: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	httpSrv := s.httpSrv
	s.mu.Unlock()
	if httpSrv == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

// BoundAddr returns the address the server bound to, or "" before Start
// has bound its listener. Safe to call from any goroutine.
func (s *Server) BoundAddr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.boundAddr
}
