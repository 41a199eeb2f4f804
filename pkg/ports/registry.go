package ports

import "github.com/aretw0/arbor/pkg/scope"

// RemoveFunc is invoked when a tracked job is dropped because its caller disconnected.
type RemoveFunc func(job *scope.Job)

// CallerRegistry tracks the single active job per connected caller.
//
// Implementations must be safe for concurrent use. Put replaces any previous
// entry for the caller without cancelling it. When the caller disconnects,
// onRemove fires at most once, with the job last stored, and only if that job
// is still active.
type CallerRegistry interface {
	Put(callerID string, job *scope.Job, onRemove RemoveFunc)
}

// Disconnector is notified when a caller's connection ends.
type Disconnector interface {
	Disconnect(callerID string)
}
