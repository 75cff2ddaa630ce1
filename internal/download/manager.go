package download

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/vmunix/nzzel/internal/events"
	"github.com/vmunix/nzzel/internal/ytdlp"
)

//go:generate mockgen -destination=mocks/orchestrator.go -package=mocks . Orchestrator

// Orchestrator runs download jobs. *ytdlp.Orchestrator implements it.
type Orchestrator interface {
	StartDownload(ctx context.Context, url string, opts ytdlp.Options, jobID string) (*ytdlp.Job, error)
	Cancel(jobID string) bool
	Observe(jobID string, l events.JobListeners) *events.Scope
}

// Request describes a download to start.
type Request struct {
	URL          string
	VideoID      string
	Title        string
	Format       string // yt-dlp format selector
	Quality      string
	AudioOnly    bool
	OutputDir    string
	ThumbnailURL *string
	Duration     *int64
}

// Validate checks the required fields.
func (r Request) Validate() error {
	if r.URL == "" || r.VideoID == "" || r.Title == "" {
		return fmt.Errorf("%w: url, video_id and title are required", ErrInvalidRequest)
	}
	return nil
}

// Manager ties download records to orchestrator jobs: it creates the
// record, starts the job and keeps the record updated from job events.
type Manager struct {
	jobs     Orchestrator
	store    *Store
	log      *slog.Logger
	newJobID func() string
}

// NewManager creates a new download manager.
func NewManager(jobs Orchestrator, store *Store, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{
		jobs:     jobs,
		store:    store,
		log:      log.With("component", "downloads"),
		newJobID: uuid.NewString,
	}
}

// Store returns the underlying record store.
func (m *Manager) Store() *Store {
	return m.store
}

// Start records a new download and launches its job. If the job cannot be
// spawned the record is marked failed and the error returned.
func (m *Manager) Start(ctx context.Context, req Request) (*Download, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ext := "mkv"
	if req.AudioOnly {
		ext = "mp3"
	}
	quality := req.Quality
	if quality == "" {
		quality = "best"
	}
	format := req.Format
	if format == "" {
		format = ext
	}

	d := &Download{
		JobID:        m.newJobID(),
		VideoID:      req.VideoID,
		Title:        req.Title,
		URL:          req.URL,
		Quality:      quality,
		Format:       format,
		AudioOnly:    req.AudioOnly,
		Filename:     req.Title + "." + ext,
		FilePath:     req.OutputDir,
		ThumbnailURL: req.ThumbnailURL,
		Duration:     req.Duration,
		Status:       StatusPending,
	}
	if err := m.store.Add(d); err != nil {
		return nil, fmt.Errorf("save download: %w", err)
	}

	if err := m.launch(ctx, d, req); err != nil {
		return d, err
	}
	m.log.Info("download started", "download_id", d.ID, "job_id", d.JobID, "title", d.Title)
	return d, nil
}

// Retry starts a failed download again under a new job.
func (m *Manager) Retry(ctx context.Context, id int64) (*Download, error) {
	d, err := m.store.Get(id)
	if err != nil {
		return nil, err
	}
	if err := m.store.Reassign(d, m.newJobID()); err != nil {
		return nil, err
	}

	req := Request{
		URL:       d.URL,
		VideoID:   d.VideoID,
		Title:     d.Title,
		Quality:   d.Quality,
		AudioOnly: d.AudioOnly,
		OutputDir: d.FilePath,
	}
	if d.Format != "mkv" && d.Format != "mp3" {
		req.Format = d.Format
	}
	if err := m.launch(ctx, d, req); err != nil {
		return d, err
	}
	m.log.Info("download retried", "download_id", d.ID, "job_id", d.JobID)
	return d, nil
}

// launch moves a pending record to downloading and starts its job.
func (m *Manager) launch(ctx context.Context, d *Download, req Request) error {
	if err := m.store.Transition(d, StatusDownloading); err != nil {
		return fmt.Errorf("mark downloading: %w", err)
	}

	scope := m.jobs.Observe(d.JobID, m.listeners(d.ID))
	opts := ytdlp.Options{
		Format:    req.Format,
		OutputDir: req.OutputDir,
		AudioOnly: req.AudioOnly,
		Quality:   req.Quality,
	}
	if _, err := m.jobs.StartDownload(ctx, req.URL, opts, d.JobID); err != nil {
		scope.Close()
		m.log.Error("start failed", "download_id", d.ID, "error", err)
		if ferr := m.store.Fail(d, err.Error()); ferr != nil {
			m.log.Warn("mark failed", "download_id", d.ID, "error", ferr)
		}
		return fmt.Errorf("start download: %w", err)
	}
	return nil
}

// listeners keep record id in step with its job. Each reads the current
// record so a status written elsewhere (a cancel from the API) is seen.
func (m *Manager) listeners(id int64) events.JobListeners {
	return events.JobListeners{
		Progress: func(_ context.Context, e *events.DownloadProgressed) error {
			_, err := m.store.UpdateProgress(id, e.Percentage, e.Speed, e.ETA)
			return err
		},
		Completed: func(_ context.Context, e *events.DownloadCompleted) error {
			d, err := m.store.Get(id)
			if err != nil {
				return err
			}
			return m.store.Complete(d, e.Filename)
		},
		Cancelled: func(_ context.Context, _ *events.DownloadCancelled) error {
			d, err := m.store.Get(id)
			if err != nil {
				return err
			}
			if !d.Status.CanTransitionTo(StatusCancelled) {
				return nil
			}
			return m.store.Transition(d, StatusCancelled)
		},
		Failed: func(_ context.Context, e *events.DownloadFailed) error {
			d, err := m.store.Get(id)
			if err != nil {
				return err
			}
			if d.Status == StatusCancelled {
				return nil
			}
			return m.store.Fail(d, e.Message)
		},
	}
}

// Cancel stops a download's job, if running, and marks the record
// cancelled. It reports whether a running job was found.
func (m *Manager) Cancel(id int64) (bool, error) {
	d, err := m.store.Get(id)
	if err != nil {
		return false, err
	}

	active := m.jobs.Cancel(d.JobID)
	if !active {
		m.log.Debug("no active job", "download_id", id, "job_id", d.JobID)
	}

	// the cancelled listener may already have written the status
	d, err = m.store.Get(id)
	if err != nil {
		return active, err
	}
	if d.Status != StatusCancelled {
		if err := m.store.Transition(d, StatusCancelled); err != nil {
			return active, fmt.Errorf("cancel download %d: %w", id, err)
		}
	}
	m.log.Info("download cancelled", "download_id", id, "job_active", active)
	return active, nil
}

// Remove deletes a download record, stopping its job first if it is
// still running.
func (m *Manager) Remove(id int64) error {
	d, err := m.store.Get(id)
	if err != nil {
		return err
	}
	if d.Status.IsActive() {
		m.jobs.Cancel(d.JobID)
	}
	if err := m.store.Delete(id); err != nil {
		return err
	}
	m.log.Info("download removed", "download_id", id)
	return nil
}

// Get returns one download record.
func (m *Manager) Get(id int64) (*Download, error) {
	return m.store.Get(id)
}

// List returns download records and the total before pagination.
func (m *Manager) List(f Filter) ([]*Download, int, error) {
	return m.store.List(f)
}

// Counts returns the number of records per status.
func (m *Manager) Counts() (map[Status]int, error) {
	return m.store.Counts()
}
