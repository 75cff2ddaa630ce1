package events

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Listener handles one delivered event. A returned error (or a panic) is
// logged and does not affect delivery to other listeners.
type Listener func(ctx context.Context, e Event) error

// SubscriptionID identifies a subscription for Unsubscribe.
type SubscriptionID uint64

type subscription struct {
	id     SubscriptionID
	fn     Listener
	active atomic.Bool
}

// Bus is the central event bus for pub/sub.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[Kind][]*subscription // kind -> listeners
	allSubs     []*subscription          // subscribers to all events
	nextID      atomic.Uint64
	log         *EventLog // SQLite persistence (may be nil)
	logger      *slog.Logger
	closed      bool
}

// NewBus creates a new event bus.
// The EventLog is optional - pass nil to disable persistence.
func NewBus(log *EventLog, logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		subscribers: make(map[Kind][]*subscription),
		log:         log,
		logger:      logger,
	}
}

// Publish delivers an event to every current subscriber of its kind and to
// all-event subscribers, then returns. Publishing with no subscribers is a
// no-op. Terminal events are also appended to the event log.
func (b *Bus) Publish(ctx context.Context, e Event) {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return
	}
	subs := make([]*subscription, 0, len(b.subscribers[e.Kind()])+len(b.allSubs))
	subs = append(subs, b.subscribers[e.Kind()]...)
	subs = append(subs, b.allSubs...)
	b.mu.RUnlock()

	// Progress is too chatty to be worth an audit row per line
	if b.log != nil && e.Kind().Terminal() {
		if _, err := b.log.Append(e); err != nil {
			b.logger.Error("failed to persist event", "type", e.Kind(), "job_id", e.JobID(), "error", err)
			// Continue - event delivery is more important than persistence
		}
	}

	for _, sub := range subs {
		if !sub.active.Load() {
			continue
		}
		if err := b.deliver(ctx, sub, e); err != nil {
			b.logger.Warn("listener failed",
				"type", e.Kind(),
				"job_id", e.JobID(),
				"subscription", sub.id,
				"error", err)
		}
	}
}

func (b *Bus) deliver(ctx context.Context, sub *subscription, e Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("listener panic: %v", r)
		}
	}()
	return sub.fn(ctx, e)
}

// Subscribe registers a listener for one event kind.
func (b *Bus) Subscribe(kind Kind, fn Listener) SubscriptionID {
	sub := b.newSubscription(fn)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		sub.active.Store(false)
		return sub.id
	}
	b.subscribers[kind] = append(b.subscribers[kind], sub)
	return sub.id
}

// SubscribeAll registers a listener for every event kind.
func (b *Bus) SubscribeAll(fn Listener) SubscriptionID {
	sub := b.newSubscription(fn)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		sub.active.Store(false)
		return sub.id
	}
	b.allSubs = append(b.allSubs, sub)
	return sub.id
}

func (b *Bus) newSubscription(fn Listener) *subscription {
	sub := &subscription{id: SubscriptionID(b.nextID.Add(1)), fn: fn}
	sub.active.Store(true)
	return sub
}

// Unsubscribe removes a subscription. Unknown ids are ignored. After
// Unsubscribe returns the listener is not called again, even by a Publish
// that was already iterating subscribers.
func (b *Bus) Unsubscribe(id SubscriptionID) {
	b.mu.Lock()
	defer b.mu.Unlock()

	// Remove from kind-specific subscribers
	for kind, subs := range b.subscribers {
		for i, sub := range subs {
			if sub.id == id {
				sub.active.Store(false)
				b.subscribers[kind] = append(subs[:i:i], subs[i+1:]...)
				return
			}
		}
	}

	// Remove from all-event subscribers
	for i, sub := range b.allSubs {
		if sub.id == id {
			sub.active.Store(false)
			b.allSubs = append(b.allSubs[:i:i], b.allSubs[i+1:]...)
			return
		}
	}
}

// Len returns the number of active subscriptions.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n := len(b.allSubs)
	for _, subs := range b.subscribers {
		n += len(subs)
	}
	return n
}

// Close shuts down the bus and drops all subscriptions.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	for _, subs := range b.subscribers {
		for _, sub := range subs {
			sub.active.Store(false)
		}
	}
	b.subscribers = nil

	for _, sub := range b.allSubs {
		sub.active.Store(false)
	}
	b.allSubs = nil

	return nil
}
