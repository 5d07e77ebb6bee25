// Package server exposes a zoo.Repository as the services REST API.
package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/smileynet/zoodesk/internal/logging"
	"github.com/smileynet/zoodesk/internal/zoo"
	"github.com/smileynet/zoodesk/internal/zooapi"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Server serves GET/POST /services and PUT/DELETE /services/{id}.
type Server struct {
	repo     zoo.Repository
	logger   *slog.Logger
	token    string
	registry *prometheus.Registry
	metrics  *metrics
	mux      *http.ServeMux
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithToken requires "Authorization: Bearer <token>" on /services routes.
func WithToken(token string) Option {
	return func(s *Server) { s.token = token }
}

// WithMetrics registers request metrics on reg and serves them at /metrics.
func WithMetrics(reg *prometheus.Registry) Option {
	return func(s *Server) { s.registry = reg }
}

// New returns an http.Handler serving repo.
func New(repo zoo.Repository, opts ...Option) *Server {
	s := &Server{repo: repo, logger: logging.Nop(), mux: http.NewServeMux()}
	for _, opt := range opts {
		opt(s)
	}
	if s.registry != nil {
		s.metrics = newMetrics(s.registry)
		s.mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}

	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	s.route("GET /services", s.handleList)
	s.route("POST /services", s.handleCreate)
	s.route("PUT /services/{id}", s.handleUpdate)
	s.route("DELETE /services/{id}", s.handleDelete)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) route(pattern string, h http.HandlerFunc) {
	s.mux.Handle(pattern, s.instrument(pattern, s.authorize(h)))
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	services, err := s.repo.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if services == nil {
		services = []zoo.Service{}
	}
	writeJSON(w, http.StatusOK, services)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	f, ok := s.decodeFields(w, r)
	if !ok {
		return
	}
	created, err := s.repo.Create(r.Context(), f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	f, ok := s.decodeFields(w, r)
	if !ok {
		return
	}
	updated, err := s.repo.Update(r.Context(), r.PathValue("id"), f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) decodeFields(w http.ResponseWriter, r *http.Request) (zoo.Fields, bool) {
	var f zoo.Fields
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		writeJSON(w, http.StatusBadRequest, zooapi.ErrorResponse{Error: "bad_request", Message: "invalid JSON body: " + err.Error()})
		return zoo.Fields{}, false
	}
	if err := f.Validate(); err != nil {
		s.writeError(w, r, err)
		return zoo.Fields{}, false
	}
	return f, true
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, zoo.ErrValidation):
		writeJSON(w, http.StatusUnprocessableEntity, zooapi.ErrorResponse{Error: "validation", Message: err.Error()})
	case errors.Is(err, zoo.ErrNotFound):
		writeJSON(w, http.StatusNotFound, zooapi.ErrorResponse{Error: "not_found", Message: err.Error()})
	default:
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		writeJSON(w, http.StatusInternalServerError, zooapi.ErrorResponse{Error: "internal", Message: "internal server error"})
	}
}

func (s *Server) authorize(next http.HandlerFunc) http.HandlerFunc {
	if s.token == "" {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+s.token {
			writeJSON(w, http.StatusUnauthorized, zooapi.ErrorResponse{Error: "unauthorized", Message: "missing or invalid bearer token"})
			return
		}
		next(w, r)
	}
}

// instrument logs each request and records metrics when enabled.
func (s *Server) instrument(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		elapsed := time.Since(start)

		s.logger.Info("request", "method", r.Method, "path", r.URL.Path, "status", rec.status, "duration", elapsed)
		if s.metrics != nil {
			s.metrics.observe(route, rec.status, elapsed)
		}
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
