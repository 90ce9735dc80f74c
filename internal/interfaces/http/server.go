package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/sitroom/sitrep/internal/domain"
	"github.com/sitroom/sitrep/internal/engine"
	"github.com/sitroom/sitrep/internal/monitor"
)

// ResultMirror is a cross-process fallback for the latest result, read when
// the local cache has nothing fresh.
type ResultMirror interface {
	LatestResult(ctx context.Context) (*domain.AnalysisResult, error)
}

// Server exposes the engine and registry as a read-mostly JSON API plus a
// websocket alert stream. Report rendering stays external; this layer
// serves data only.
type Server struct {
	engine   *engine.Engine
	registry *monitor.Registry
	mirror   ResultMirror
	server   *http.Server
}

// Option customizes a Server.
type Option func(*Server)

// WithResultMirror serves mirrored results on local cache misses.
func WithResultMirror(mirror ResultMirror) Option {
	return func(s *Server) { s.mirror = mirror }
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DefaultServerConfig returns the default server configuration.
func DefaultServerConfig(addr string) ServerConfig {
	return ServerConfig{
		Addr:         addr,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// NewServer wires routes for health, metrics, analysis, alerts and monitor
// management.
func NewServer(config ServerConfig, eng *engine.Engine, registry *monitor.Registry, gatherer prometheus.Gatherer, opts ...Option) *Server {
	s := &Server{engine: eng, registry: registry}
	for _, opt := range opts {
		opt(s)
	}

	router := mux.NewRouter()
	router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/analysis/latest", s.handleLatest).Methods(http.MethodGet)
	api.HandleFunc("/alerts", s.handleAlerts).Methods(http.MethodGet)
	api.HandleFunc("/alerts/stream", s.handleAlertStream).Methods(http.MethodGet)
	api.HandleFunc("/alerts/{id}/ack", s.handleAcknowledge).Methods(http.MethodPost)
	api.HandleFunc("/monitors", s.handleListMonitors).Methods(http.MethodGet)
	api.HandleFunc("/monitors", s.handleAddMonitor).Methods(http.MethodPost)
	api.HandleFunc("/monitors/{id}", s.handleRemoveMonitor).Methods(http.MethodDelete)
	api.HandleFunc("/monitors/{id}/deactivate", s.handleDeactivateMonitor).Methods(http.MethodPost)

	s.server = &http.Server{
		Addr:         config.Addr,
		Handler:      router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}
	return s
}

// ListenAndServe blocks until the server stops.
func (s *Server) ListenAndServe() error {
	log.Info().Str("addr", s.server.Addr).Msg("http server listening")
	return s.server.ListenAndServe()
}

// Shutdown drains connections.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("response encode failed")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
