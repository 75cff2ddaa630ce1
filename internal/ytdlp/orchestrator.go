// Package ytdlp runs yt-dlp: download jobs with progress, cancellation and
// lifecycle events, plus one-shot metadata queries.
package ytdlp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/vmunix/nzzel/internal/events"
	"github.com/vmunix/nzzel/internal/process"
	"github.com/vmunix/nzzel/internal/progress"
)

// Config configures an Orchestrator.
type Config struct {
	Path        string        // yt-dlp executable, "yt-dlp" if empty
	OutputDir   string        // used when Options.OutputDir is empty
	MergeFormat string        // container for merged video+audio
	AudioFormat string        // codec for audio-only extraction
	KillTimeout time.Duration // grace period before a forced kill
	Env         []string      // process environment, nil inherits
}

// Orchestrator starts, tracks and cancels download jobs and publishes their
// lifecycle on an event bus.
type Orchestrator struct {
	cfg  Config
	sup  *process.Supervisor
	bus  *events.Bus
	jobs *Registry
	log  *slog.Logger
}

// New creates an orchestrator publishing to bus.
func New(cfg Config, bus *events.Bus, logger *slog.Logger) *Orchestrator {
	if cfg.Path == "" {
		cfg.Path = "yt-dlp"
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = DefaultOutputDir()
	}
	if cfg.MergeFormat == "" {
		cfg.MergeFormat = defaultMergeFormat
	}
	if cfg.AudioFormat == "" {
		cfg.AudioFormat = defaultAudioFormat
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "ytdlp")

	o := &Orchestrator{
		cfg: cfg,
		sup: process.NewSupervisor(cfg.KillTimeout, logger),
		bus: bus,
		log: logger,
	}
	o.jobs = NewRegistry(o.terminate)
	return o
}

// StartDownload spawns yt-dlp for url and returns the running job. An empty
// jobID is replaced by a generated one. Spawn failures are returned
// directly, wrapped in ErrSpawn, and leave no job registered.
//
// ctx bounds only the spawn; use Cancel to stop a running job.
func (o *Orchestrator) StartDownload(ctx context.Context, url string, opts Options, jobID string) (*Job, error) {
	if jobID == "" {
		jobID = uuid.NewString()
	}

	outputDir := opts.OutputDir
	if outputDir == "" {
		outputDir = o.cfg.OutputDir
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create output directory: %w", ErrSpawn, err)
	}

	job := newJob(jobID, url, opts)
	job.mu.Lock()
	defer job.mu.Unlock()

	if err := o.jobs.Put(job); err != nil {
		return nil, fmt.Errorf("start job %s: %w", jobID, err)
	}

	cmd := process.Command{
		Path: o.cfg.Path,
		Args: downloadArgs(url, outputDir, opts, o.cfg.MergeFormat, o.cfg.AudioFormat),
		Env:  o.cfg.Env,
	}
	h, err := o.sup.Start(ctx, cmd, process.Callbacks{
		OnLine: func(_ process.Stream, line string) { o.onLine(job, line) },
		OnExit: func(exit process.Exit) { o.onExit(job, exit) },
	})
	if err != nil {
		job.finish(StateFailed, "", err)
		o.jobs.RemoveIf(job)
		o.log.Error("spawn failed", "job_id", jobID, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrSpawn, err)
	}

	job.handle = h
	job.state = StateRunning
	o.log.Info("download started", "job_id", jobID, "url", url, "pid", h.PID())
	return job, nil
}

// onLine parses one output line. Lines from either stream are parsed;
// stderr is also kept by the supervisor for failure messages.
func (o *Orchestrator) onLine(job *Job, line string) {
	job.mu.Lock()
	defer job.mu.Unlock()

	if job.state != StateRunning {
		return
	}

	r := progress.ParseLine(line, job.filename)
	switch {
	case r.Filename != "":
		job.filename = r.Filename
	case r.Event != nil:
		o.bus.Publish(context.Background(), events.NewProgressed(
			job.ID, r.Event.Percentage, r.Event.Rate, r.Event.ETA, r.Event.Filename))
	}
}

func (o *Orchestrator) onExit(job *Job, exit process.Exit) {
	defer o.jobs.RemoveIf(job)

	job.mu.Lock()
	defer job.mu.Unlock()

	if job.state.Terminal() {
		// cancelled earlier; the terminal event is already out
		return
	}

	ctx := context.Background()
	switch exit.Outcome() {
	case process.Succeeded:
		job.finish(StateCompleted, job.filename, nil)
		o.bus.Publish(ctx, events.NewCompleted(job.ID, job.filename))
		o.log.Info("download completed", "job_id", job.ID, "filename", job.filename)

	case process.Cancelled:
		// terminated by a signal we did not send
		job.finish(StateCancelled, "", ErrCancelled)
		o.bus.Publish(ctx, events.NewCancelled(job.ID, job.filename))
		o.log.Info("download terminated", "job_id", job.ID, "signal", exit.Signal)

	default:
		rerr := &RuntimeError{ExitCode: exit.Code, Message: exit.Message()}
		job.finish(StateFailed, "", rerr)
		o.bus.Publish(ctx, events.NewFailed(job.ID, rerr.Message, rerr.ExitCode))
		o.log.Warn("download failed", "job_id", job.ID, "code", exit.Code, "error", rerr.Message)
	}
}

// Cancel terminates a running job. It returns false if no job with that id
// is live. The job resolves as cancelled immediately; the process is given
// the kill timeout to exit before it is force-killed.
func (o *Orchestrator) Cancel(jobID string) bool {
	return o.jobs.Cancel(jobID)
}

// terminate runs after the registry entry is gone. It returns false if the
// job had already finished on its own.
func (o *Orchestrator) terminate(job *Job) bool {
	job.mu.Lock()
	defer job.mu.Unlock()

	if job.state != StateRunning {
		return false
	}
	job.state = StateCancelling
	if !o.sup.Terminate(job.handle) {
		o.log.Debug("process already exiting", "job_id", job.ID)
	}

	job.finish(StateCancelled, "", ErrCancelled)
	o.bus.Publish(context.Background(), events.NewCancelled(job.ID, job.filename))
	o.log.Info("download cancelled", "job_id", job.ID)
	return true
}

// Observe subscribes l to jobID's events until its terminal event or until
// the returned scope is closed. Call it before StartDownload to see every
// event. Listeners run on the publishing goroutine and must not call
// Cancel for the job they observe.
func (o *Orchestrator) Observe(jobID string, l events.JobListeners) *events.Scope {
	return o.bus.WatchJob(jobID, l)
}

// Job returns the live job with the given id.
func (o *Orchestrator) Job(jobID string) (*Job, bool) {
	return o.jobs.Get(jobID)
}

// Active returns the ids of all live jobs.
func (o *Orchestrator) Active() []string {
	return o.jobs.IDs()
}

// IsActive reports whether jobID is live.
func (o *Orchestrator) IsActive(jobID string) bool {
	_, ok := o.jobs.Get(jobID)
	return ok
}

// Shutdown cancels every live job and waits for their processes to exit
// or for ctx to end.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	var pending []*Job
	for _, id := range o.jobs.IDs() {
		j, ok := o.jobs.Get(id)
		if ok && o.jobs.Cancel(id) {
			pending = append(pending, j)
		}
	}
	if len(pending) > 0 {
		o.log.Info("cancelling jobs for shutdown", "count", len(pending))
	}

	var errs []error
	for _, j := range pending {
		exited := j.exited()
		if exited == nil {
			continue
		}
		select {
		case <-exited:
		case <-ctx.Done():
			errs = append(errs, fmt.Errorf("job %s: %w", j.ID, ctx.Err()))
		}
	}
	return errors.Join(errs...)
}
