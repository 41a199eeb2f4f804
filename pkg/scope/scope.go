// Package scope runs units of work under a shared, hierarchical cancellation scope.
//
// A Scope owns a context. Every Job started from it (or from any Child scope)
// derives its own context from the scope, so cancelling a scope cancels every
// job below it. Jobs never propagate panics to the scope.
package scope

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/aretw0/arbor/internal/logging"
)

// Scope is a cancellable parent for jobs.
type Scope struct {
	ctx    context.Context
	cancel context.CancelFunc

	// shared by the root and all of its children
	wg      *sync.WaitGroup
	running *atomic.Int64
	logger  *slog.Logger
}

// Option configures a Scope.
type Option func(*Scope)

// WithLogger configures the logger used to report recovered panics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scope) {
		s.logger = logger
	}
}

// New creates a root scope derived from parent.
func New(parent context.Context, opts ...Option) *Scope {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	s := &Scope{
		ctx:     ctx,
		cancel:  cancel,
		wg:      &sync.WaitGroup{},
		running: &atomic.Int64{},
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Context returns the scope context. It is done once the scope is cancelled.
func (s *Scope) Context() context.Context {
	return s.ctx
}

// Child returns a scope whose cancellation is bounded by s.
// Wait on the root also waits for jobs started from children.
func (s *Scope) Child() *Scope {
	ctx, cancel := context.WithCancel(s.ctx)
	return &Scope{
		ctx:     ctx,
		cancel:  cancel,
		wg:      s.wg,
		running: s.running,
		logger:  s.logger,
	}
}

// NewJob creates a job bound to this scope without starting it.
// This lets callers publish the job (e.g. to a registry) before any work runs.
func (s *Scope) NewJob() *Job {
	ctx, cancel := context.WithCancel(s.ctx)
	return newJob(s, ctx, cancel)
}

// Go creates and starts a job running work.
func (s *Scope) Go(work func(ctx context.Context)) *Job {
	job := s.NewJob()
	job.Start(work)
	return job
}

// Cancel cancels the scope and every job derived from it.
func (s *Scope) Cancel() {
	s.cancel()
}

// Err reports why the scope is done, or nil while it is live.
func (s *Scope) Err() error {
	return s.ctx.Err()
}

// Running returns the number of jobs currently executing in the scope tree.
func (s *Scope) Running() int {
	return int(s.running.Load())
}

// Wait blocks until all started jobs in the scope tree have returned.
// Jobs must not be started concurrently with a Wait that observes zero jobs.
func (s *Scope) Wait() {
	s.wg.Wait()
}

// WaitContext is like Wait but gives up when ctx is done.
func (s *Scope) WaitContext(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
