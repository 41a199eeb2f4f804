// Package registry tracks the in-flight command job of each connected caller.
package registry

import (
	"log/slog"
	"sync"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/aretw0/arbor/pkg/scope"
)

type entry struct {
	job      *scope.Job
	onRemove ports.RemoveFunc
}

// Registry maps a caller identity to the job currently running on its behalf.
// It implements ports.CallerRegistry and ports.Disconnector.
type Registry struct {
	mu      sync.Mutex
	entries map[string]entry
	logger  *slog.Logger
}

var (
	_ ports.CallerRegistry = (*Registry)(nil)
	_ ports.Disconnector   = (*Registry)(nil)
)

// Option configures the Registry.
type Option func(*Registry)

// WithLogger configures a logger for the Registry.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		entries: make(map[string]entry),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Put records job as the caller's tracked job.
// A previous entry is replaced without being cancelled.
func (r *Registry) Put(callerID string, job *scope.Job, onRemove ports.RemoveFunc) {
	r.mu.Lock()
	prev, replaced := r.entries[callerID]
	r.entries[callerID] = entry{job: job, onRemove: onRemove}
	r.mu.Unlock()

	if replaced && prev.job != job && prev.job.Active() {
		r.logger.Debug("tracked job replaced while still running",
			"caller_id", callerID,
			"previous_job_id", prev.job.ID(),
			"job_id", job.ID(),
		)
	}
}

// Get returns the job tracked for the caller.
func (r *Registry) Get(callerID string) (*scope.Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[callerID]
	return e.job, ok
}

// Len returns the number of tracked callers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Disconnect drops the caller's entry. If the tracked job is still active,
// its remove callback runs exactly once, outside the registry lock.
func (r *Registry) Disconnect(callerID string) {
	r.mu.Lock()
	e, ok := r.entries[callerID]
	if ok {
		delete(r.entries, callerID)
	}
	r.mu.Unlock()

	if !ok {
		return
	}
	if !e.job.Active() {
		r.logger.Debug("caller disconnected, tracked job already finished", "caller_id", callerID, "job_id", e.job.ID())
		return
	}
	r.logger.Debug("caller disconnected, removing active job", "caller_id", callerID, "job_id", e.job.ID())
	if e.onRemove != nil {
		e.onRemove(e.job)
	}
}

// Prune drops entries whose jobs are no longer active and returns how many were removed.
// Remove callbacks are not invoked for pruned entries.
func (r *Registry) Prune() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, e := range r.entries {
		if !e.job.Active() {
			delete(r.entries, id)
			n++
		}
	}
	return n
}
