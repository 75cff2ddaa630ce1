// Package handlers holds the daemon's long-running background tasks.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/vmunix/nzzel/internal/events"
)

// Handler is a background task run by the server.
type Handler interface {
	// Start runs the handler until ctx is done (blocking).
	Start(ctx context.Context) error

	// Name returns handler name for logging.
	Name() string
}

// BaseHandler carries what every handler shares.
type BaseHandler struct {
	bus    *events.Bus
	logger *slog.Logger
}

// NewBaseHandler creates a base handler. A nil logger uses slog.Default.
func NewBaseHandler(bus *events.Bus, logger *slog.Logger) *BaseHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &BaseHandler{bus: bus, logger: logger}
}

// Bus returns the event bus.
func (h *BaseHandler) Bus() *events.Bus {
	return h.bus
}

// Logger returns the handler's logger.
func (h *BaseHandler) Logger() *slog.Logger {
	return h.logger
}

// RunAll starts every handler and blocks until all of them return. The
// first real failure cancels the rest and is returned; a handler stopping
// because ctx ended is not a failure.
func RunAll(ctx context.Context, logger *slog.Logger, hs ...Handler) error {
	if logger == nil {
		logger = slog.Default()
	}
	g, gctx := errgroup.WithContext(ctx)
	for _, h := range hs {
		g.Go(func() error {
			logger.Debug("handler starting", "handler", h.Name())
			err := h.Start(gctx)
			if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				logger.Debug("handler stopped", "handler", h.Name())
				return nil
			}
			return fmt.Errorf("%s: %w", h.Name(), err)
		})
	}
	return g.Wait()
}
