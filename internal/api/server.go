// Package api exposes the scanner over HTTP: upload a solution package,
// get the per-app findings back in one response.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/a11ylab/appscan/internal/config"
	"github.com/a11ylab/appscan/internal/rules"
	"github.com/a11ylab/appscan/internal/scan"
)

// Server is the HTTP API server for appscan.
type Server struct {
	router chi.Router
	opts   scan.Options
	log    *slog.Logger
	cfg    config.Config
}

// NewServer creates and configures the HTTP server. The scan options carry
// the rule catalog and enricher every request uses.
func NewServer(opts scan.Options, log *slog.Logger, cfg config.Config) *Server {
	if opts.Rules == nil {
		opts.Rules = rules.Default()
	}
	if opts.Log == nil {
		opts.Log = log
	}
	s := &Server{
		opts: opts,
		log:  log,
		cfg:  cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	r.Get("/health", s.handleHealth)
	r.Get("/api/rules", s.handleListRules)
	r.Post("/api/scan", s.handleScan)

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
