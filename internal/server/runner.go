// Package server assembles the daemon's components and runs them.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	v1 "github.com/vmunix/nzzel/internal/api/v1"
	"github.com/vmunix/nzzel/internal/download"
	"github.com/vmunix/nzzel/internal/events"
	"github.com/vmunix/nzzel/internal/handlers"
	"github.com/vmunix/nzzel/internal/realtime"
	"github.com/vmunix/nzzel/internal/ytdlp"
)

const defaultShutdownTimeout = 10 * time.Second

// Config for the server.
type Config struct {
	Addr            string
	YtDlp           ytdlp.Config
	EventRetention  time.Duration
	PruneInterval   time.Duration
	ShutdownTimeout time.Duration

	// Middleware wraps the HTTP handler, e.g. for request logging.
	Middleware func(http.Handler) http.Handler
}

// Runner owns the event bus, the download orchestrator, the background
// handlers and the HTTP server.
type Runner struct {
	db     *sql.DB
	config Config
	logger *slog.Logger

	ready chan struct{}
	addr  net.Addr
}

// NewRunner creates a new runner. db must already be migrated.
func NewRunner(db *sql.DB, cfg Config, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}
	return &Runner{
		db:     db,
		config: cfg,
		logger: logger,
		ready:  make(chan struct{}),
	}
}

// Ready is closed once the HTTP listener is bound.
func (r *Runner) Ready() <-chan struct{} {
	return r.ready
}

// Addr returns the bound listen address. Only valid after Ready.
func (r *Runner) Addr() net.Addr {
	return r.addr
}

// Run starts all components and blocks until ctx is canceled or one of
// them fails. Live jobs are cancelled on the way out. A shutdown caused by
// ctx returns nil.
func (r *Runner) Run(ctx context.Context) error {
	// Create event bus with persistence
	eventLog := events.NewEventLog(r.db)
	bus := events.NewBus(eventLog, r.logger.With("component", "bus"))
	defer func() { _ = bus.Close() }()

	orch := ytdlp.New(r.config.YtDlp, bus, r.logger)
	store := download.NewStore(r.db)
	store.OnTransition(func(e download.TransitionEvent) {
		r.logger.Debug("download transition",
			"download_id", e.DownloadID, "job_id", e.JobID, "from", e.From, "to", e.To)
	})
	manager := download.NewManager(orch, store, r.logger)

	hub := realtime.NewHub(bus, orch, r.logger)
	defer hub.Close()

	api, err := v1.New(v1.ServerDeps{
		Extractor: orch,
		Downloads: manager,
		EventLog:  eventLog,
		Realtime:  hub,
	})
	if err != nil {
		return err
	}
	mux := http.NewServeMux()
	api.RegisterRoutes(mux)

	var handler http.Handler = mux
	if r.config.Middleware != nil {
		handler = r.config.Middleware(handler)
	}

	ln, err := net.Listen("tcp", r.config.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", r.config.Addr, err)
	}
	r.addr = ln.Addr()
	close(r.ready)

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	bg := []handlers.Handler{
		handlers.NewReconcileHandler(bus, store, eventLog, r.logger.With("handler", "reconcile")),
		handlers.NewPruneHandler(bus, eventLog, handlers.PruneConfig{
			Retention: r.config.EventRetention,
			Interval:  r.config.PruneInterval,
		}, r.logger.With("handler", "prune")),
	}

	// Use errgroup to manage component lifecycle
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return handlers.RunAll(gctx, r.logger, bg...)
	})

	g.Go(func() error {
		r.logger.Info("server listening", "addr", r.addr.String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		r.logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), r.config.ShutdownTimeout)
		defer cancel()

		hub.Close()
		err := srv.Shutdown(shutdownCtx)
		if jerr := orch.Shutdown(shutdownCtx); jerr != nil {
			err = errors.Join(err, jerr)
		}
		if err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}
