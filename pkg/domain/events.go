package domain

import (
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventDispatch EventType = "dispatch"
	EventDenied   EventType = "denied"
	EventRejected EventType = "rejected"
	EventComplete EventType = "complete"
	EventFailure  EventType = "failure"
	EventError    EventType = "error"
	EventCanceled EventType = "canceled"
)

// HandlerKind identifies which handler slot a dispatch selected.
type HandlerKind string

const (
	HandlerTyped   HandlerKind = "typed"
	HandlerPlayer  HandlerKind = "player"
	HandlerDefault HandlerKind = "default"
)

// CommandEvent describes one step in the life of an invocation.
type CommandEvent struct {
	Timestamp time.Time     `json:"timestamp"`
	Type      EventType     `json:"type"`
	Command   string        `json:"command"` // canonical node name
	Label     string        `json:"label"`   // label as typed
	Caller    string        `json:"caller"`
	Handler   HandlerKind   `json:"handler,omitempty"`
	JobID     string        `json:"job_id,omitempty"`
	Duration  time.Duration `json:"duration,omitempty"`
	Err       error         `json:"-"`
}

// Hooks defines callbacks for dispatch observability.
// Any field may be nil. Hooks run on the dispatching goroutine for
// OnDispatch/OnDenied/OnRejected and on the job goroutine for the rest.
type Hooks struct {
	OnDispatch func(*CommandEvent)
	OnDenied   func(*CommandEvent)
	OnRejected func(*CommandEvent)
	OnComplete func(*CommandEvent)
	OnFailure  func(*CommandEvent)
	OnError    func(*CommandEvent)
	OnCanceled func(*CommandEvent)
}

// Emit routes an event to the matching callback.
func (h Hooks) Emit(e *CommandEvent) {
	var fn func(*CommandEvent)
	switch e.Type {
	case EventDispatch:
		fn = h.OnDispatch
	case EventDenied:
		fn = h.OnDenied
	case EventRejected:
		fn = h.OnRejected
	case EventComplete:
		fn = h.OnComplete
	case EventFailure:
		fn = h.OnFailure
	case EventError:
		fn = h.OnError
	case EventCanceled:
		fn = h.OnCanceled
	}
	if fn != nil {
		fn(e)
	}
}

// Merge combines several hook sets; callbacks run in argument order.
func Merge(hooks ...Hooks) Hooks {
	chain := func(pick func(Hooks) func(*CommandEvent)) func(*CommandEvent) {
		var fns []func(*CommandEvent)
		for _, h := range hooks {
			if fn := pick(h); fn != nil {
				fns = append(fns, fn)
			}
		}
		if len(fns) == 0 {
			return nil
		}
		return func(e *CommandEvent) {
			for _, fn := range fns {
				fn(e)
			}
		}
	}
	return Hooks{
		OnDispatch: chain(func(h Hooks) func(*CommandEvent) { return h.OnDispatch }),
		OnDenied:   chain(func(h Hooks) func(*CommandEvent) { return h.OnDenied }),
		OnRejected: chain(func(h Hooks) func(*CommandEvent) { return h.OnRejected }),
		OnComplete: chain(func(h Hooks) func(*CommandEvent) { return h.OnComplete }),
		OnFailure:  chain(func(h Hooks) func(*CommandEvent) { return h.OnFailure }),
		OnError:    chain(func(h Hooks) func(*CommandEvent) { return h.OnError }),
		OnCanceled: chain(func(h Hooks) func(*CommandEvent) { return h.OnCanceled }),
	}
}
