// Package events provides the typed publish/subscribe bus that fans out
// download-job lifecycle events.
package events

import "time"

// Kind is the closed set of event kinds a job can emit.
type Kind string

const (
	KindProgress  Kind = "progress"
	KindCompleted Kind = "completed"
	KindCancelled Kind = "cancelled"
	KindError     Kind = "error"
)

// Kinds lists every event kind.
var Kinds = []Kind{KindProgress, KindCompleted, KindCancelled, KindError}

// Terminal reports whether no further events follow this kind for a job.
func (k Kind) Terminal() bool {
	return k == KindCompleted || k == KindCancelled || k == KindError
}

// Event is the base interface all events implement.
type Event interface {
	Kind() Kind
	JobID() string
	OccurredAt() time.Time
}

// BaseEvent provides common fields for all events.
type BaseEvent struct {
	Type      Kind      `json:"type"`
	Job       string    `json:"job_id"`
	Timestamp time.Time `json:"occurred_at"`
}

func (e BaseEvent) Kind() Kind            { return e.Type }
func (e BaseEvent) JobID() string         { return e.Job }
func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }

// NewBaseEvent creates a BaseEvent with the current timestamp.
func NewBaseEvent(kind Kind, jobID string) BaseEvent {
	return BaseEvent{
		Type:      kind,
		Job:       jobID,
		Timestamp: time.Now(),
	}
}
