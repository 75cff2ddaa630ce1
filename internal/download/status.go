package download

import "time"

// validTransitions defines allowed state transitions.
// Key is the "from" status, value is list of valid "to" statuses.
var validTransitions = map[Status][]Status{
	StatusPending:     {StatusDownloading, StatusFailed, StatusCancelled},
	StatusDownloading: {StatusCompleted, StatusFailed, StatusCancelled, StatusPaused},
	StatusPaused:      {StatusDownloading, StatusCancelled},
	StatusFailed:      {StatusPending}, // allow retry
	StatusCompleted:   {},              // terminal
	StatusCancelled:   {},              // terminal, never overwritten by a late failure
}

// CanTransitionTo returns true if transitioning from s to target is valid.
func (s Status) CanTransitionTo(target Status) bool {
	for _, v := range validTransitions[s] {
		if v == target {
			return true
		}
	}
	return false
}

// IsTerminal returns true if this status has no valid outgoing transitions
// (except failed which can retry).
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusFailed
}

// IsActive reports whether a job may still be running for this status.
func (s Status) IsActive() bool {
	return s == StatusPending || s == StatusDownloading || s == StatusPaused
}

// TransitionEvent is passed to TransitionHandlers after a status change
// is stored.
type TransitionEvent struct {
	DownloadID int64
	JobID      string
	From       Status
	To         Status
	At         time.Time
}

// TransitionHandler observes status changes.
type TransitionHandler func(TransitionEvent)
