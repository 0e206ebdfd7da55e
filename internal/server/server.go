// Package server exposes the settings queue and the latest classification
// results over HTTP, next to the Prometheus metrics.
package server

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/Veraticus/inbox-triage/internal/engine"
	"github.com/Veraticus/inbox-triage/internal/model"
	"github.com/Veraticus/inbox-triage/internal/settings"
)

const (
	// DefaultAddr is the default listen address.
	DefaultAddr = ":9464"

	readHeaderTimeout = 10 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 60 * time.Second

	maxBodyBytes = 1 << 20
)

// Results is the view of the classified collection the server publishes.
type Results interface {
	Results() []model.Message
	LastSummary() (engine.Summary, bool)
}

// Validator rejects changes the server should not enqueue.
type Validator func(settings.Change) error

// Config configures a Server.
type Config struct {
	Broadcaster *settings.Broadcaster
	Results     Results
	Gatherer    prometheus.Gatherer
	Validate    Validator
	// TLSConfig switches the listener to HTTPS when non-nil.
	TLSConfig *tls.Config
	Addr      string

	// ChangeRate limits accepted change requests per second. Zero means
	// no limit.
	ChangeRate  float64
	ChangeBurst int
}

// Server serves the settings and results API.
type Server struct {
	cfg        Config
	limiter    *rate.Limiter
	httpServer *http.Server
	drains     sync.WaitGroup
}

// New creates a server. Broadcaster and Results are required.
func New(cfg Config) (*Server, error) {
	if cfg.Broadcaster == nil {
		return nil, errors.New("broadcaster is required")
	}
	if cfg.Results == nil {
		return nil, errors.New("results view is required")
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.DefaultGatherer
	}

	limit := rate.Inf
	if cfg.ChangeRate > 0 {
		limit = rate.Limit(cfg.ChangeRate)
	}
	burst := max(cfg.ChangeBurst, 1)
	return &Server{cfg: cfg, limiter: rate.NewLimiter(limit, burst)}, nil
}

// Handler returns the API routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /settings", s.handleGetSettings)
	mux.HandleFunc("POST /settings/{kind}", s.handlePostSetting)
	mux.HandleFunc("GET /summary", s.handleSummary)
	mux.HandleFunc("GET /results", s.handleResults)
	mux.HandleFunc("GET /tasks", s.handleTasks)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.cfg.Gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// Start serves until Shutdown is called. It returns nil after a clean
// shutdown.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		TLSConfig:         s.cfg.TLSConfig,
	}

	slog.Info("Starting settings server", "addr", s.cfg.Addr, "tls", s.cfg.TLSConfig != nil)

	var err error
	if s.cfg.TLSConfig != nil {
		err = s.httpServer.ListenAndServeTLS("", "")
	} else {
		err = s.httpServer.ListenAndServe()
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("settings server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		s.WaitDrains()
		return nil
	}
	slog.Info("Shutting down settings server")
	err := s.httpServer.Shutdown(ctx)
	s.WaitDrains()
	return err
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.cfg.Addr
}

type changeResponse struct {
	ID      string `json:"id"`
	Kind    string `json:"kind"`
	Pending int    `json:"pending"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleGetSettings(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.cfg.Broadcaster.Store().Get())
}

func (s *Server) handlePostSetting(w http.ResponseWriter, r *http.Request) {
	if !s.limiter.Allow() {
		writeError(w, http.StatusTooManyRequests, errors.New("too many settings changes, retry shortly"))
		return
	}

	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("failed to read body: %w", err))
		return
	}

	change, err := settings.ParseChange(r.PathValue("kind"), raw)
	if errors.Is(err, settings.ErrUnknownChangeKind) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if s.cfg.Validate != nil {
		if err := s.cfg.Validate(change); err != nil {
			writeError(w, http.StatusUnprocessableEntity, err)
			return
		}
	}

	req := settings.NewChangeRequest(change)
	if err := s.cfg.Broadcaster.Enqueue(req); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	pending := s.cfg.Broadcaster.Pending()

	s.drains.Add(1)
	go func() {
		defer s.drains.Done()
		s.cfg.Broadcaster.Drain(context.WithoutCancel(r.Context()))
	}()

	slog.Info("Settings change queued", "id", req.ID.String(), "kind", change.Kind().String())
	writeJSON(w, http.StatusAccepted, changeResponse{
		ID:      req.ID.String(),
		Kind:    change.Kind().String(),
		Pending: pending,
	})
}

// WaitDrains blocks until every drain started by a request has returned.
func (s *Server) WaitDrains() {
	s.drains.Wait()
}

func (s *Server) handleSummary(w http.ResponseWriter, _ *http.Request) {
	summary, ok := s.cfg.Results.LastSummary()
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("no classification run yet"))
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleResults(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, nonNil(s.cfg.Results.Results()))
}

func (s *Server) handleTasks(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, nonNil(engine.TaskCandidates(s.cfg.Results.Results())))
}

func nonNil(msgs []model.Message) []model.Message {
	if msgs == nil {
		return []model.Message{}
	}
	return msgs
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("Failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
