// Package web serves the read-only dashboard over the exported dataset. It
// never touches the portal; everything it shows comes from the consolidated
// files in the data directory and the worker checkpoints in the output
// directory.
package web

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mnsos/internal/config"
)

// Server is the dashboard HTTP server.
type Server struct {
	cfg    config.ServerConfig
	paths  *config.Paths
	logger *slog.Logger
	http   *http.Server
}

// NewServer wires the router and returns a server ready to ListenAndServe.
func NewServer(cfg config.ServerConfig, paths *config.Paths, logger *slog.Logger) *Server {
	s := &Server{cfg: cfg, paths: paths, logger: logger}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	// Prometheus endpoint stays outside the JSON content-type group.
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Get("/api/health", s.handleHealth)
		r.Get("/api/stats", s.handleStats)
		r.Get("/api/summary", s.handleSummary)
		r.Get("/api/businesses", s.handleBusinesses)
	})

	r.Get("/download/businesses.csv", s.handleDownloadCSV)

	s.http = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// ListenAndServe blocks until the server stops.
func (s *Server) ListenAndServe() error {
	s.logger.Info("dashboard listening", slog.String("addr", s.http.Addr))
	return s.http.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
