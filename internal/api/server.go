// SPDX-License-Identifier: MIT

// Package api exposes the resolved channel list over HTTP.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/signaltv/signaltv/internal/api/middleware"
	"github.com/signaltv/signaltv/internal/config"
	"github.com/signaltv/signaltv/internal/log"
	"github.com/signaltv/signaltv/internal/resolver"
)

// Server wires the resolver service into an HTTP router.
type Server struct {
	cfg     config.Config
	svc     *resolver.Service
	router  chi.Router
	logger  zerolog.Logger
	version string
	tracing bool
}

// Option customizes a Server.
type Option func(*Server)

// WithVersion sets the version string reported by /api/status.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// WithTracing enables the per-request tracing middleware.
func WithTracing() Option {
	return func(s *Server) { s.tracing = true }
}

// New builds the server and its route table.
func New(cfg config.Config, svc *resolver.Service, opts ...Option) *Server {
	s := &Server{
		cfg:     cfg,
		svc:     svc,
		logger:  log.WithComponent("api"),
		version: "dev",
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Metrics)
	if s.tracing {
		r.Use(middleware.Tracing())
	}
	r.Use(log.Middleware())

	r.Get("/", s.handleIndex)
	r.Get("/healthz", s.handleHealthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/channels", s.handleChannels)
		r.Get("/categories", s.handleCategories)
		r.Get("/status", s.handleStatus)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(s.cfg.RefreshRPM, time.Minute))
			r.Post("/refresh", s.handleRefresh)
		})
	})

	r.Get("/playlist.m3u", s.handlePlaylist)

	return r
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error().Err(err).Str("event", "api.encode_failed").Msg("failed to encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, code, detail string) {
	s.writeJSON(w, status, map[string]string{"error": code, "detail": detail})
}
