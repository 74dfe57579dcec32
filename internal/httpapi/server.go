// Package httpapi exposes the proxy checker over HTTP. It is a thin
// pass-through: request validation and JSON shaping happen here, all
// checking logic lives in internal/checker.
package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/mohamedmamdouh22/proxy-checker-app/internal/config"
	"github.com/mohamedmamdouh22/proxy-checker-app/internal/model"
)

// Engine is the contract the route layer consumes from the core.
type Engine interface {
	CheckSingle(ctx context.Context, proxy string, timeout time.Duration) model.ProbeOutcome
	CheckBatch(ctx context.Context, proxies []string, timeout time.Duration, maxConcurrent int) model.BatchReport
}

type Server struct {
	http   *http.Server
	engine Engine
	cfg    config.Settings
	log    *slog.Logger
}

func NewServer(engine Engine, cfg config.Settings, log *slog.Logger) *Server {
	s := &Server{
		engine: engine,
		cfg:    cfg,
		log:    log,
	}
	s.http = &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           s.router(),
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		// No write timeout: a batch at the concurrency floor can take
		// many minutes, bounded by the per-probe deadlines instead.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: false,
	}))
	r.Use(s.requestLogger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Route("/proxy", func(r chi.Router) {
			r.Post("/check", s.handleCheck)
			r.Post("/check-batch", s.handleCheckBatch)
		})
	})
	r.Get("/", s.handleIndex)

	return r
}

// Handler exposes the routed handler for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// ListenAndServe blocks until the server stops. http.ErrServerClosed is
// swallowed so a graceful shutdown reports no error.
func (s *Server) ListenAndServe() error {
	s.log.Info("http server listening", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/health" {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
