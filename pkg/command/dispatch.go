package command

import (
	"context"
	"strings"
	"time"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/scope"
)

// LabelSeparator joins a label and a routed subcommand token.
const LabelSeparator = " "

// Execute dispatches an invocation. It never blocks on the handler and always
// reports the call as handled: unmatched arguments are passed to this node's
// handler rather than treated as an unknown command.
func (n *Node) Execute(caller domain.Caller, label string, args []string) bool {
	_, handled := n.Submit(caller, label, args)
	return handled
}

// Submit is Execute, additionally returning the job the handler runs in.
// The job is nil when no handler was started (permission denied, player-only
// rejection, or nothing registered).
func (n *Node) Submit(caller domain.Caller, label string, args []string) (*scope.Job, bool) {
	if perm := strings.TrimSpace(n.cfg.Permission); perm != "" && !caller.HasPermission(perm) {
		n.cfg.Logger.Debug("permission denied",
			"command", n.name,
			"label", label,
			"caller", caller.Name(),
			"permission", perm,
		)
		if strings.TrimSpace(n.cfg.PermissionMessage) != "" {
			caller.SendMessage(n.cfg.PermissionMessage)
		}
		n.emit(domain.EventDenied, caller, label, "", "", 0, nil)
		return nil, true
	}

	if len(n.children) > 0 && len(args) > 0 {
		if child, ok := n.Child(args[0]); ok {
			return child.Submit(caller, label+LabelSeparator+args[0], args[1:])
		}
	}

	return n.dispatch(caller, label, args), true
}

// dispatch selects a handler: typed handlers in registration order, then the
// player slot, then the default handler.
func (n *Node) dispatch(caller domain.Caller, label string, args []string) *scope.Job {
	for _, th := range n.typed {
		if th.match(caller) {
			return n.launch(n.cfg.Scope.NewJob(), domain.HandlerTyped, th.handler, caller, label, args)
		}
	}

	if n.playerHandler != nil {
		player, ok := domain.AsPlayer(caller)
		if !ok {
			if strings.TrimSpace(n.cfg.PlayerOnlyMessage) != "" {
				caller.SendMessage(n.cfg.PlayerOnlyMessage)
			}
			n.emit(domain.EventRejected, caller, label, domain.HandlerPlayer, "", 0, nil)
			return nil
		}
		job := n.cfg.Scope.NewJob()
		if n.cancelOnDisconnect && n.cfg.Registry != nil {
			n.cfg.Registry.Put(player.UniqueID(), job, func(j *scope.Job) {
				j.Cancel()
			})
		}
		return n.launch(job, domain.HandlerPlayer, n.playerHandler, caller, label, args)
	}

	if n.defaultHandler != nil {
		return n.launch(n.cfg.Scope.NewJob(), domain.HandlerDefault, n.defaultHandler, caller, label, args)
	}

	n.cfg.Logger.Debug("no handler registered", "command", n.name, "label", label)
	return nil
}

func (n *Node) launch(job *scope.Job, kind domain.HandlerKind, h Handler, caller domain.Caller, label string, args []string) *scope.Job {
	n.cfg.Logger.Debug("dispatching command",
		"command", n.name,
		"label", label,
		"caller", caller.Name(),
		"handler", kind,
		"job_id", job.ID(),
	)
	n.emit(domain.EventDispatch, caller, label, kind, job.ID(), 0, nil)

	job.Start(func(ctx context.Context) {
		n.run(newExecutor(ctx, n, caller, label, args), kind, job.ID(), h)
	})
	return job
}

func (n *Node) emit(t domain.EventType, caller domain.Caller, label string, kind domain.HandlerKind, jobID string, d time.Duration, err error) {
	n.cfg.Hooks.Emit(&domain.CommandEvent{
		Timestamp: time.Now(),
		Type:      t,
		Command:   n.name,
		Label:     label,
		Caller:    caller.Name(),
		Handler:   kind,
		JobID:     jobID,
		Duration:  d,
		Err:       err,
	})
}
