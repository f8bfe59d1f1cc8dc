// Package daemon runs the scheduler in the background and serves a small
// HTTP API for status, recent events and expense intake.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/theirongolddev/envelope/internal/clock"
	"github.com/theirongolddev/envelope/internal/ledger"
	"github.com/theirongolddev/envelope/internal/notify"
	"github.com/theirongolddev/envelope/internal/pending"
	"github.com/theirongolddev/envelope/internal/scheduler"
)

// Config controls the daemon runtime behavior.
type Config struct {
	Addr     string
	Interval time.Duration
	Owner    int64
	DBPath   string
}

// Deps are the collaborators the daemon drives.
type Deps struct {
	Budget      *ledger.BudgetLedger
	Memory      *ledger.EstablishmentMemory
	Scheduler   *scheduler.Scheduler
	Pending     *pending.Store[Draft]
	Categorizer ledger.Categorizer
	Notifier    notify.Notifier
	Events      *Events
	Clock       clock.Clock
	Logger      *slog.Logger
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time          `json:"started_at"`
	LastTickAt      time.Time          `json:"last_tick_at"`
	TickIntervalSec int                `json:"tick_interval_sec"`
	TickCount       int64              `json:"tick_count"`
	Owner           int64              `json:"owner"`
	Database        string             `json:"database"`
	Sweeps          []scheduler.Status `json:"sweeps"`
	Pending         int                `json:"pending"`
	EventCount      int                `json:"event_count"`
	LastError       string             `json:"last_error,omitempty"`
}

// Service provides the daemon runtime and HTTP API.
type Service struct {
	cfg  Config
	deps Deps

	mu         sync.RWMutex
	startedAt  time.Time
	lastTickAt time.Time
	tickCount  int64
	lastError  string
}

// New returns a daemon service. Missing optional deps get defaults.
func New(cfg Config, deps Deps) *Service {
	if cfg.Interval < time.Second {
		cfg.Interval = time.Minute
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8787"
	}
	if deps.Clock == nil {
		deps.Clock = clock.Real()
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Events == nil {
		deps.Events = NewEvents(0)
	}
	if deps.Notifier == nil {
		deps.Notifier = deps.Events.Wrap(notify.Log{Logger: deps.Logger})
	}
	if deps.Pending == nil {
		deps.Pending = pending.New[Draft](deps.Clock, 0)
	}
	return &Service{cfg: cfg, deps: deps, startedAt: deps.Clock.Now()}
}

// Handler returns the HTTP API.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /v1/status", s.handleStatus)
	mux.HandleFunc("GET /v1/events", s.handleEvents)
	mux.HandleFunc("POST /v1/expenses", s.handleExpense)
	mux.HandleFunc("GET /v1/pending", s.handlePendingList)
	mux.HandleFunc("POST /v1/pending/{token}/confirm", s.handleConfirm)
	return mux
}

// Run starts the scheduler, the HTTP endpoints and the housekeeping tick
// until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	if s.deps.Scheduler != nil {
		if err := s.deps.Scheduler.Start(ctx); err != nil {
			_ = server.Close()
			return err
		}
		defer s.deps.Scheduler.Stop()
	}

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		case <-ticker.C:
			s.tick()
		case err := <-errCh:
			return fmt.Errorf("daemon http server: %w", err)
		}
	}
}

// tick reclaims expired pending expenses.
func (s *Service) tick() {
	dropped := s.deps.Pending.Sweep()
	if dropped > 0 {
		s.deps.Logger.Info("expired pending expenses dropped", "count", dropped)
		s.deps.Events.Publish(Event{Type: "pending_expired", Text: fmt.Sprintf("%d expired", dropped)})
	}

	s.mu.Lock()
	s.lastTickAt = s.deps.Clock.Now()
	s.tickCount++
	s.mu.Unlock()
}

func (s *Service) setError(err error) {
	s.mu.Lock()
	s.lastError = err.Error()
	s.mu.Unlock()
}

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	st := Status{
		StartedAt:       s.startedAt,
		LastTickAt:      s.lastTickAt,
		TickIntervalSec: int(s.cfg.Interval.Seconds()),
		TickCount:       s.tickCount,
		Owner:           s.cfg.Owner,
		Database:        s.cfg.DBPath,
		LastError:       s.lastError,
	}
	s.mu.RUnlock()

	if s.deps.Scheduler != nil {
		st.Sweeps = s.deps.Scheduler.Status()
	}
	st.Pending = s.deps.Pending.Len()
	st.EventCount = s.deps.Events.Len()
	return st
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.snapshotStatus())
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Events.List())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
