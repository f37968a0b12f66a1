// Package api serves scenarios and runs over HTTP, including live SSE and
// WebSocket streams of running simulations.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhaugland01/ReliabilitySim/internal/config"
	"github.com/jhaugland01/ReliabilitySim/internal/logging"
	"github.com/jhaugland01/ReliabilitySim/internal/store"
)

const maxBodyBytes = 1 << 20

var (
	errBadRequest = errors.New("bad request")
	errConflict   = errors.New("conflict")
)

// Option customizes a Server.
type Option func(*Server)

// WithLogger sets the logger used by handlers and live runs.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.log = l }
}

// WithRegistry registers the server metrics on reg and serves reg on /metrics.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(s *Server) { s.registry = reg }
}

// WithPace sets the tick spacing of live runs. The default is the
// configured tick interval.
func WithPace(fn func(config.SimulationConfig) time.Duration) Option {
	return func(s *Server) { s.pace = fn }
}

// WithClock replaces time.Now.
func WithClock(fn func() time.Time) Option {
	return func(s *Server) { s.now = fn }
}

// TickIntervalPace spaces ticks at the configured tick interval.
func TickIntervalPace(cfg config.SimulationConfig) time.Duration {
	return time.Duration(cfg.TickInterval) * time.Millisecond
}

type Server struct {
	store    store.Store
	log      *slog.Logger
	registry *prometheus.Registry
	metrics  *Metrics
	pace     func(config.SimulationConfig) time.Duration
	now      func() time.Time
	newID    func() string
	mux      *http.ServeMux

	mu   sync.Mutex
	live map[string]*liveRun
}

// NewServer wires the routes over st.
func NewServer(st store.Store, opts ...Option) *Server {
	s := &Server{
		store: st,
		log:   slog.Default(),
		pace:  TickIntervalPace,
		now:   time.Now,
		newID: uuid.NewString,
		live:  make(map[string]*liveRun),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.registry == nil {
		s.registry = prometheus.NewRegistry()
	}
	s.metrics = NewMetrics(s.registry)
	s.mux = http.NewServeMux()
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /api/health", s.handleHealth)
	s.mux.HandleFunc("GET /api/presets", s.handlePresets)

	s.mux.HandleFunc("GET /api/scenarios", s.handleListScenarios)
	s.mux.HandleFunc("POST /api/scenarios", s.handleCreateScenario)
	s.mux.HandleFunc("GET /api/scenarios/{id}", s.handleGetScenario)
	s.mux.HandleFunc("PUT /api/scenarios/{id}", s.handleUpdateScenario)
	s.mux.HandleFunc("DELETE /api/scenarios/{id}", s.handleDeleteScenario)
	s.mux.HandleFunc("POST /api/scenarios/{id}/duplicate", s.handleDuplicateScenario)

	s.mux.HandleFunc("POST /api/runs/start", s.handleStartRun)
	s.mux.HandleFunc("POST /api/runs/compare", s.handleCompareRuns)
	s.mux.HandleFunc("GET /api/runs/scenario/{scenarioId}", s.handleListRuns)
	s.mux.HandleFunc("GET /api/runs/{id}", s.handleGetRun)
	// {id}/stream and scenario/{scenarioId} would overlap as separate
	// patterns, so live endpoints share one.
	s.mux.HandleFunc("GET /api/runs/{id}/{transport}", s.handleLive)

	s.mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.mux }

// Start listens on addr until ctx is done, then stops live runs and shuts
// the listener down.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return logging.NewContext(context.Background(), s.log) },
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("api listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case config.IsValidationError(err), errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, errConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %v", errBadRequest, err)
	}
	return nil
}
