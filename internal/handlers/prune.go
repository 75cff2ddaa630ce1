package handlers

import (
	"context"
	"log/slog"
	"time"

	"github.com/vmunix/nzzel/internal/events"
)

// PruneConfig configures the prune handler.
type PruneConfig struct {
	Retention time.Duration
	Interval  time.Duration
}

// PruneHandler periodically deletes old rows from the event log.
type PruneHandler struct {
	*BaseHandler
	log    *events.EventLog
	config PruneConfig
}

// NewPruneHandler creates a prune handler.
func NewPruneHandler(bus *events.Bus, eventLog *events.EventLog, config PruneConfig, logger *slog.Logger) *PruneHandler {
	if config.Interval <= 0 {
		config.Interval = time.Hour
	}
	if config.Retention <= 0 {
		config.Retention = 7 * 24 * time.Hour
	}
	return &PruneHandler{
		BaseHandler: NewBaseHandler(bus, logger),
		log:         eventLog,
		config:      config,
	}
}

// Name returns the handler name.
func (h *PruneHandler) Name() string {
	return "prune"
}

// Start prunes immediately and then on every interval.
func (h *PruneHandler) Start(ctx context.Context) error {
	h.prune()

	ticker := time.NewTicker(h.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			h.prune()
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (h *PruneHandler) prune() {
	n, err := h.log.Prune(h.config.Retention)
	if err != nil {
		h.Logger().Error("failed to prune events", "error", err)
		return
	}
	if n > 0 {
		h.Logger().Info("pruned events", "count", n, "retention", h.config.Retention)
	}
}
