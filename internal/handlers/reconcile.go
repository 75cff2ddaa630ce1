package handlers

import (
	"context"
	"log/slog"

	"github.com/vmunix/nzzel/internal/download"
	"github.com/vmunix/nzzel/internal/events"
)

// InterruptedMessage is recorded on downloads whose job was lost to a restart.
const InterruptedMessage = "interrupted by server restart"

// ReconcileHandler repairs records left unfinished by a previous run. No job
// survives a restart, so a pending or downloading record either has its
// outcome in the event log or is marked failed.
type ReconcileHandler struct {
	*BaseHandler
	store    *download.Store
	log      *events.EventLog
	registry *events.Registry
}

// NewReconcileHandler creates a reconcile handler. eventLog may be nil.
func NewReconcileHandler(bus *events.Bus, store *download.Store, eventLog *events.EventLog, logger *slog.Logger) *ReconcileHandler {
	return &ReconcileHandler{
		BaseHandler: NewBaseHandler(bus, logger),
		store:       store,
		log:         eventLog,
		registry:    events.DefaultRegistry(),
	}
}

// Name returns the handler name.
func (h *ReconcileHandler) Name() string {
	return "reconcile"
}

// Start reconciles once and then waits for shutdown.
func (h *ReconcileHandler) Start(ctx context.Context) error {
	if _, err := h.Reconcile(ctx); err != nil {
		h.Logger().Error("reconcile failed", "error", err)
	}
	<-ctx.Done()
	return ctx.Err()
}

// Reconcile settles every active record and returns how many it changed.
func (h *ReconcileHandler) Reconcile(_ context.Context) (int, error) {
	downloads, _, err := h.store.List(download.Filter{Active: true})
	if err != nil {
		return 0, err
	}
	if len(downloads) == 0 {
		h.Logger().Debug("no interrupted downloads")
		return 0, nil
	}

	h.Logger().Info("reconciling interrupted downloads", "count", len(downloads))

	changed := 0
	for _, d := range downloads {
		ok, err := h.settle(d)
		if err != nil {
			h.Logger().Error("failed to reconcile download", "download_id", d.ID, "error", err)
			continue
		}
		if ok {
			changed++
		}
	}
	return changed, nil
}

// settle applies the job's logged terminal event, if there is one, and
// otherwise fails the record. Paused records with no outcome are left alone.
func (h *ReconcileHandler) settle(d *download.Download) (bool, error) {
	e, err := h.lastOutcome(d.JobID)
	if err != nil {
		h.Logger().Warn("event log lookup failed", "download_id", d.ID, "job_id", d.JobID, "error", err)
	}

	if e == nil {
		if d.Status == download.StatusPaused {
			return false, nil
		}
		h.Logger().Info("marking interrupted download failed", "download_id", d.ID, "job_id", d.JobID)
		return true, h.store.Fail(d, InterruptedMessage)
	}

	if d.Status != download.StatusDownloading {
		if err := h.store.Transition(d, download.StatusDownloading); err != nil {
			return false, err
		}
	}

	h.Logger().Info("recovered job outcome", "download_id", d.ID, "job_id", d.JobID, "type", e.Kind())
	switch ev := e.(type) {
	case *events.DownloadCompleted:
		return true, h.store.Complete(d, ev.Filename)
	case *events.DownloadCancelled:
		return true, h.store.Transition(d, download.StatusCancelled)
	case *events.DownloadFailed:
		return true, h.store.Fail(d, ev.Message)
	}
	return true, h.store.Fail(d, InterruptedMessage)
}

func (h *ReconcileHandler) lastOutcome(jobID string) (events.Event, error) {
	if h.log == nil || jobID == "" {
		return nil, nil
	}
	raws, err := h.log.ForJob(jobID)
	if err != nil {
		return nil, err
	}
	for i := len(raws) - 1; i >= 0; i-- {
		if !raws[i].EventType.Terminal() {
			continue
		}
		return h.registry.Unmarshal(raws[i])
	}
	return nil, nil
}
