package events

import (
	"encoding/json"
	"fmt"
)

// EventFactory creates a new zero-value event of a specific kind.
type EventFactory func() Event

// Registry maps event kinds to their factories for deserialization.
type Registry struct {
	factories map[Kind]EventFactory
}

// NewRegistry creates a new event registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[Kind]EventFactory),
	}
}

// Register adds an event kind to the registry.
func (r *Registry) Register(kind Kind, factory EventFactory) {
	r.factories[kind] = factory
}

// Unmarshal deserializes a raw event into its concrete type.
func (r *Registry) Unmarshal(raw RawEvent) (Event, error) {
	factory, ok := r.factories[raw.EventType]
	if !ok {
		return nil, fmt.Errorf("unknown event type: %s", raw.EventType)
	}

	event := factory()
	if err := json.Unmarshal([]byte(raw.Payload), event); err != nil {
		return nil, fmt.Errorf("unmarshal event payload: %w", err)
	}

	return event, nil
}

// DefaultRegistry returns a registry with every job event kind registered.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(KindProgress, func() Event { return &DownloadProgressed{} })
	r.Register(KindCompleted, func() Event { return &DownloadCompleted{} })
	r.Register(KindCancelled, func() Event { return &DownloadCancelled{} })
	r.Register(KindError, func() Event { return &DownloadFailed{} })
	return r
}
