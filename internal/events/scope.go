package events

import (
	"context"
	"sync"
)

// JobListeners are typed callbacks for one job. Nil callbacks are skipped.
type JobListeners struct {
	Progress  func(ctx context.Context, e *DownloadProgressed) error
	Completed func(ctx context.Context, e *DownloadCompleted) error
	Cancelled func(ctx context.Context, e *DownloadCancelled) error
	Failed    func(ctx context.Context, e *DownloadFailed) error
}

// Scope groups the four per-kind subscriptions of one job so they are
// removed together.
type Scope struct {
	bus   *Bus
	jobID string
	ids   []SubscriptionID
	once  sync.Once
	done  chan struct{}
}

// WatchJob subscribes l to every event kind for jobID. The scope closes
// itself after delivering the job's first terminal event; callers may also
// Close it earlier to stop listening.
func (b *Bus) WatchJob(jobID string, l JobListeners) *Scope {
	s := &Scope{bus: b, jobID: jobID, done: make(chan struct{})}
	for _, kind := range Kinds {
		s.ids = append(s.ids, b.Subscribe(kind, s.listener(l)))
	}
	return s
}

func (s *Scope) listener(l JobListeners) Listener {
	return func(ctx context.Context, e Event) error {
		if e.JobID() != s.jobID {
			return nil
		}
		if e.Kind().Terminal() {
			defer s.Close()
		}
		return dispatch(ctx, l, e)
	}
}

func dispatch(ctx context.Context, l JobListeners, e Event) error {
	switch ev := e.(type) {
	case *DownloadProgressed:
		if l.Progress != nil {
			return l.Progress(ctx, ev)
		}
	case *DownloadCompleted:
		if l.Completed != nil {
			return l.Completed(ctx, ev)
		}
	case *DownloadCancelled:
		if l.Cancelled != nil {
			return l.Cancelled(ctx, ev)
		}
	case *DownloadFailed:
		if l.Failed != nil {
			return l.Failed(ctx, ev)
		}
	}
	return nil
}

// JobID returns the watched job.
func (s *Scope) JobID() string {
	return s.jobID
}

// Done is closed when the scope has been closed.
func (s *Scope) Done() <-chan struct{} {
	return s.done
}

// Close unsubscribes all of the scope's listeners. It is safe to call more
// than once and from inside a listener.
func (s *Scope) Close() {
	s.once.Do(func() {
		for _, id := range s.ids {
			s.bus.Unsubscribe(id)
		}
		close(s.done)
	})
}
