package handlers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmunix/nzzel/internal/download"
	"github.com/vmunix/nzzel/internal/events"
)

func TestReconcileHandler_Name(t *testing.T) {
	h := NewReconcileHandler(nil, nil, nil, nil)
	assert.Equal(t, "reconcile", h.Name())
}

func TestReconcileHandler_MarksInterruptedFailed(t *testing.T) {
	db := setupTestDB(t)
	store := download.NewStore(db)

	pending := addDownload(t, store, "job-pending", download.StatusPending)
	running := addDownload(t, store, "job-running", download.StatusDownloading)
	done := addDownload(t, store, "job-done", download.StatusCompleted)

	h := NewReconcileHandler(nil, store, events.NewEventLog(db), nil)
	n, err := h.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	for _, id := range []int64{pending.ID, running.ID} {
		d, err := store.Get(id)
		require.NoError(t, err)
		assert.Equal(t, download.StatusFailed, d.Status)
		require.NotNil(t, d.ErrorMessage)
		assert.Equal(t, InterruptedMessage, *d.ErrorMessage)
	}

	d, err := store.Get(done.ID)
	require.NoError(t, err)
	assert.Equal(t, download.StatusCompleted, d.Status)
}

func TestReconcileHandler_RecoversLoggedOutcome(t *testing.T) {
	db := setupTestDB(t)
	store := download.NewStore(db)
	eventLog := events.NewEventLog(db)

	completed := addDownload(t, store, "job-a", download.StatusDownloading)
	cancelled := addDownload(t, store, "job-b", download.StatusDownloading)
	failed := addDownload(t, store, "job-c", download.StatusPending)

	_, err := eventLog.Append(events.NewCompleted("job-a", "/dl/a.mkv"))
	require.NoError(t, err)
	_, err = eventLog.Append(events.NewCancelled("job-b", ""))
	require.NoError(t, err)
	_, err = eventLog.Append(events.NewFailed("job-c", "ERROR: Unsupported URL", 1))
	require.NoError(t, err)

	h := NewReconcileHandler(nil, store, eventLog, nil)
	n, err := h.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	d, err := store.Get(completed.ID)
	require.NoError(t, err)
	assert.Equal(t, download.StatusCompleted, d.Status)
	assert.Equal(t, "/dl/a.mkv", d.Filename)
	assert.InDelta(t, 100, d.Progress, 0.001)

	d, err = store.Get(cancelled.ID)
	require.NoError(t, err)
	assert.Equal(t, download.StatusCancelled, d.Status)

	d, err = store.Get(failed.ID)
	require.NoError(t, err)
	assert.Equal(t, download.StatusFailed, d.Status)
	require.NotNil(t, d.ErrorMessage)
	assert.Equal(t, "ERROR: Unsupported URL", *d.ErrorMessage)
}

func TestReconcileHandler_LeavesPausedAlone(t *testing.T) {
	db := setupTestDB(t)
	store := download.NewStore(db)
	paused := addDownload(t, store, "job-p", download.StatusPaused)

	h := NewReconcileHandler(nil, store, events.NewEventLog(db), nil)
	n, err := h.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	d, err := store.Get(paused.ID)
	require.NoError(t, err)
	assert.Equal(t, download.StatusPaused, d.Status)
}

func TestReconcileHandler_NoEventLog(t *testing.T) {
	db := setupTestDB(t)
	store := download.NewStore(db)
	running := addDownload(t, store, "job-x", download.StatusDownloading)

	h := NewReconcileHandler(nil, store, nil, nil)
	n, err := h.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	d, err := store.Get(running.ID)
	require.NoError(t, err)
	assert.Equal(t, download.StatusFailed, d.Status)
}

func TestReconcileHandler_StartReconcilesThenBlocks(t *testing.T) {
	db := setupTestDB(t)
	store := download.NewStore(db)
	running := addDownload(t, store, "job-s", download.StatusDownloading)

	h := NewReconcileHandler(nil, store, events.NewEventLog(db), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.Start(ctx) }()

	require.Eventually(t, func() bool {
		d, err := store.Get(running.ID)
		return err == nil && d.Status == download.StatusFailed
	}, time.Second, 10*time.Millisecond)

	select {
	case <-done:
		t.Fatal("Start returned before cancellation")
	default:
	}

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}
