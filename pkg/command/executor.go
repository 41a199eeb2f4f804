package command

import (
	"context"
	"fmt"

	"github.com/aretw0/arbor/pkg/domain"
)

// Executor is the immutable invocation context handed to a running handler.
type Executor struct {
	caller domain.Caller
	label  string
	args   []string
	node   *Node
	ctx    context.Context
}

func newExecutor(ctx context.Context, node *Node, caller domain.Caller, label string, args []string) *Executor {
	return &Executor{
		caller: caller,
		label:  label,
		args:   append([]string(nil), args...),
		node:   node,
		ctx:    ctx,
	}
}

// Caller returns who issued the command.
func (e *Executor) Caller() domain.Caller { return e.caller }

// Label returns the command as typed, including routed subcommand tokens.
func (e *Executor) Label() string { return e.label }

// Args returns a copy of the remaining arguments.
func (e *Executor) Args() []string { return append([]string(nil), e.args...) }

// NArg returns the number of remaining arguments.
func (e *Executor) NArg() int { return len(e.args) }

// Arg returns the i-th remaining argument.
func (e *Executor) Arg(i int) (string, bool) {
	if i < 0 || i >= len(e.args) {
		return "", false
	}
	return e.args[i], true
}

// Node returns the node whose handler is running.
func (e *Executor) Node() *Node { return e.node }

// Context is cancelled when the job is cancelled, the caller disconnects
// (for cancel-on-disconnect nodes), or the tree's scope shuts down.
func (e *Executor) Context() context.Context { return e.ctx }

// Player returns the caller as a Player, if it is one.
func (e *Executor) Player() (domain.Player, bool) {
	return domain.AsPlayer(e.caller)
}

// Reply sends msg to the caller.
func (e *Executor) Reply(msg string) {
	e.caller.SendMessage(msg)
}

// Replyf sends a formatted message to the caller.
func (e *Executor) Replyf(format string, args ...any) {
	e.caller.SendMessage(fmt.Sprintf(format, args...))
}

// Usage returns a Failure carrying the node's usage message.
func (e *Executor) Usage() error {
	return domain.Fail(e.node.cfg.UsageMessage)
}

// RequireArgs fails with the usage message unless at least n arguments remain.
func (e *Executor) RequireArgs(n int) error {
	if len(e.args) < n {
		return e.Usage()
	}
	return nil
}
