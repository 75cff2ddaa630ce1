package ytdlp

import (
	"slices"
	"sync"
)

// Registry maps live job ids to their jobs. It is the only record of which
// jobs are running; an entry is removed as soon as its job is cancelled or
// reaches a terminal state.
type Registry struct {
	mu        sync.Mutex
	jobs      map[string]*Job
	terminate func(*Job) bool
}

// NewRegistry creates a registry. terminate is invoked by Cancel after the
// entry has been removed and reports whether it stopped a running job.
func NewRegistry(terminate func(*Job) bool) *Registry {
	return &Registry{
		jobs:      make(map[string]*Job),
		terminate: terminate,
	}
}

// Put adds a job. It returns ErrDuplicateJob if the id is already live.
func (r *Registry) Put(j *Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[j.ID]; ok {
		return ErrDuplicateJob
	}
	r.jobs[j.ID] = j
	return nil
}

// Get returns the live job with the given id.
func (r *Registry) Get(id string) (*Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	return j, ok
}

// Remove deletes an entry. Unknown ids are ignored.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.jobs, id)
}

// RemoveIf deletes the entry for j.ID only if it still refers to j, so a
// late exit never removes a newer job that reused the id.
func (r *Registry) RemoveIf(j *Job) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.jobs[j.ID]; ok && cur == j {
		delete(r.jobs, j.ID)
	}
}

// Cancel removes the job and starts its termination. It returns false if
// no such job is live or the job reached a terminal state before it could
// be terminated. A second Cancel for the same id observes the removed
// entry and returns false.
func (r *Registry) Cancel(id string) bool {
	r.mu.Lock()
	j, ok := r.jobs[id]
	if ok {
		delete(r.jobs, id)
	}
	r.mu.Unlock()

	if !ok {
		return false
	}
	if r.terminate == nil {
		return true
	}
	return r.terminate(j)
}

// Len returns the number of live jobs.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.jobs)
}

// IDs returns the live job ids in sorted order.
func (r *Registry) IDs() []string {
	r.mu.Lock()
	ids := make([]string, 0, len(r.jobs))
	for id := range r.jobs {
		ids = append(ids, id)
	}
	r.mu.Unlock()
	slices.Sort(ids)
	return ids
}
