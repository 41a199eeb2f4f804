package command

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"github.com/aretw0/arbor/pkg/domain"
)

// run executes h inside the failure pipeline.
func (n *Node) run(ex *Executor, kind domain.HandlerKind, jobID string, h Handler) {
	start := time.Now()
	err := invoke(ex, h)
	elapsed := time.Since(start)

	if err == nil {
		n.emit(domain.EventComplete, ex.caller, ex.label, kind, jobID, elapsed, nil)
		return
	}

	var failure *domain.Failure
	if errors.As(err, &failure) {
		if strings.TrimSpace(failure.Message) != "" {
			ex.caller.SendMessage(failure.Message)
		}
		if failure.Then != nil {
			failure.Then()
		}
		n.emit(domain.EventFailure, ex.caller, ex.label, kind, jobID, elapsed, err)
		return
	}

	if errors.Is(err, context.Canceled) && ex.ctx.Err() != nil {
		n.cfg.Logger.Debug("command canceled",
			"command", n.name,
			"label", ex.label,
			"caller", ex.caller.Name(),
			"job_id", jobID,
		)
		n.emit(domain.EventCanceled, ex.caller, ex.label, kind, jobID, elapsed, err)
		return
	}

	n.emit(domain.EventError, ex.caller, ex.label, kind, jobID, elapsed, err)
	n.cfg.ErrorHandler(ex, err)
}

// invoke calls h, converting a panic into an error. A panic carrying a
// *domain.Failure is treated as if the handler had returned it.
func invoke(ex *Executor, h Handler) (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if f, ok := r.(*domain.Failure); ok {
			err = f
			return
		}
		err = &domain.PanicError{Value: r, Stack: debug.Stack()}
	}()
	return h(ex)
}

// LogErrors returns an ErrorHandler that logs unexpected failures.
func LogErrors(logger *slog.Logger) ErrorHandler {
	return func(ex *Executor, err error) {
		attrs := []any{
			"command", ex.node.name,
			"label", ex.label,
			"args", ex.args,
			"caller", ex.caller.Name(),
			"err", err,
		}
		var p *domain.PanicError
		if errors.As(err, &p) {
			attrs = append(attrs, "stack", string(p.Stack))
		}
		logger.Error("command failed unexpectedly", attrs...)
	}
}

// NotifyErrors wraps next so the caller also receives msg when an unexpected failure occurs.
func NotifyErrors(msg string, next ErrorHandler) ErrorHandler {
	return func(ex *Executor, err error) {
		if msg != "" {
			ex.caller.SendMessage(msg)
		}
		if next != nil {
			next(ex, err)
		}
	}
}
