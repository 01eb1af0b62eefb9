// Package api exposes the watch-mode HTTP interface: health, metrics,
// and the last run's outcome.
package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gfiorillo/albowatch/internal/pipeline"
)

// Server serves the watch-mode endpoints.
type Server struct {
	router chi.Router

	mu   sync.RWMutex
	last *pipeline.Result
}

// NewServer constructs a Server with its routes.
func NewServer() *Server {
	s := &Server{}
	r := chi.NewRouter()
	r.Get("/healthz", s.handleHealth)
	r.Get("/status", s.handleStatus)
	r.Handle("/metrics", promhttp.Handler())
	s.router = r
	return s
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// RecordResult stores the outcome of the most recent run for /status.
func (s *Server) RecordResult(result pipeline.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = &result
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	last := s.last
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	if last == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	_ = json.NewEncoder(w).Encode(last)
}
