package scope

import (
	"context"
	"runtime/debug"
	"sync/atomic"

	"github.com/google/uuid"
)

// Job is one cancellable unit of work owned by a Scope.
type Job struct {
	id     string
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	started atomic.Bool
	scope   *Scope
}

func newJob(s *Scope, ctx context.Context, cancel context.CancelFunc) *Job {
	return &Job{
		id:     uuid.NewString(),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
		scope:  s,
	}
}

// ID returns the job's unique identifier.
func (j *Job) ID() string {
	return j.id
}

// Context returns the context handed to the job's work.
func (j *Job) Context() context.Context {
	return j.ctx
}

// Start runs work on its own goroutine. It returns false if the job was
// already started. A panic in work is recovered and logged.
func (j *Job) Start(work func(ctx context.Context)) bool {
	if !j.started.CompareAndSwap(false, true) {
		return false
	}
	j.scope.wg.Add(1)
	j.scope.running.Add(1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				j.scope.logger.Error("job panicked",
					"job_id", j.id,
					"panic", r,
					"stack", string(debug.Stack()),
				)
			}
			j.cancel()
			close(j.done)
			j.scope.running.Add(-1)
			j.scope.wg.Done()
		}()
		work(j.ctx)
	}()
	return true
}

// Cancel requests cancellation. It is safe to call more than once.
func (j *Job) Cancel() {
	j.cancel()
}

// Done is closed once the job's work has returned.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Active reports whether the job has neither finished nor been cancelled.
// A job that was created but not yet started is active.
func (j *Job) Active() bool {
	select {
	case <-j.done:
		return false
	default:
		return j.ctx.Err() == nil
	}
}
