package ytdlp

import (
	"context"
	"sync"

	"github.com/vmunix/nzzel/internal/process"
)

// State is a job's lifecycle state.
type State int

const (
	StateStarting State = iota
	StateRunning
	StateCancelling
	StateCompleted
	StateCancelled
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateCancelling:
		return "cancelling"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Terminal reports whether s is Completed, Cancelled or Failed.
func (s State) Terminal() bool {
	return s >= StateCompleted
}

// Options control how a download is performed.
type Options struct {
	Format    string // raw yt-dlp format selector, used verbatim
	OutputDir string // defaults to the user's download folder
	AudioOnly bool
	Quality   string // "best", "worst" or a maximum height such as "720"
}

// Job is one download attempt backed by one yt-dlp process.
type Job struct {
	ID      string
	URL     string
	Options Options

	// mu guards everything below and is held while the job's events are
	// published, so no event follows the terminal one.
	mu       sync.Mutex
	state    State
	filename string
	handle   *process.Handle

	done   chan struct{}
	result string
	err    error
}

func newJob(id, url string, opts Options) *Job {
	return &Job{
		ID:      id,
		URL:     url,
		Options: opts,
		state:   StateStarting,
		done:    make(chan struct{}),
	}
}

// State returns the current lifecycle state.
func (j *Job) State() State {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

// Filename returns the last output filename yt-dlp reported, if any.
func (j *Job) Filename() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.filename
}

// Done is closed once the job reaches a terminal state.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Wait blocks until the job finishes or ctx is done. It returns the final
// filename on success, ErrCancelled after a cancellation and a
// *RuntimeError when yt-dlp failed. The filename may be empty.
func (j *Job) Wait(ctx context.Context) (string, error) {
	select {
	case <-j.done:
		return j.result, j.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// finish moves the job into a terminal state. Callers hold j.mu. It
// reports false if the job had already finished.
func (j *Job) finish(state State, result string, err error) bool {
	if j.state.Terminal() {
		return false
	}
	j.state = state
	j.result = result
	j.err = err
	close(j.done)
	return true
}

// exited returns a channel closed when the process has exited, or nil if
// it never started.
func (j *Job) exited() <-chan struct{} {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.handle == nil {
		return nil
	}
	return j.handle.Exited()
}
