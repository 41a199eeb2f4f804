package command

import (
	"fmt"
	"strings"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/scope"
)

// Handler is the body of a command. Returning a *domain.Failure aborts with a
// message for the caller; any other error goes to the node's ErrorHandler.
type Handler func(ex *Executor) error

// Completer produces tab-completion candidates for a node.
type Completer func(tc *TabContext) []string

// ErrorHandler receives unexpected handler failures.
type ErrorHandler func(ex *Executor, err error)

type typedHandler struct {
	key     string
	match   Matcher
	handler Handler
}

// Node is one level of the command tree.
//
// A tree is configured single-threaded and then only read during dispatch, so
// Node carries no locks. Configuration methods must not be called once
// dispatch has started.
type Node struct {
	name    string
	aliases []string
	cfg     Config

	children []*Node

	defaultHandler     Handler
	typed              []typedHandler
	playerHandler      Handler
	completer          Completer
	cancelOnDisconnect bool
}

// New creates a root node.
func New(name string, opts ...Option) (*Node, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrBlankName
	}
	n := &Node{
		name: name,
		cfg:  defaultConfig(),
	}
	for _, opt := range opts {
		opt(n)
	}
	n.cfg.complete()
	return n, nil
}

// AddChild creates a subcommand pre-populated with this node's inherited
// settings and registers it. The settings are copied, not linked.
func (n *Node) AddChild(name string, aliases ...string) (*Node, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("add child to %q: %w", n.name, domain.ErrBlankName)
	}
	child := &Node{
		name:    name,
		aliases: cleanAliases(aliases),
		cfg:     n.cfg,
	}
	n.children = append(n.children, child)
	return child, nil
}

// MustAddChild is like AddChild but panics on error.
// It simplifies tree definitions whose names are literals.
func (n *Node) MustAddChild(name string, aliases ...string) *Node {
	child, err := n.AddChild(name, aliases...)
	if err != nil {
		panic(err)
	}
	return child
}

// Handle sets the default handler.
func (n *Node) Handle(h Handler) *Node {
	n.defaultHandler = h
	return n
}

// HandleFor registers a handler for callers accepted by match.
// Registering the same key again replaces the handler in place.
// Typed handlers are tried in registration order before the player handler.
func (n *Node) HandleFor(key string, match Matcher, h Handler) *Node {
	for i := range n.typed {
		if n.typed[i].key == key {
			n.typed[i].match = match
			n.typed[i].handler = h
			return n
		}
	}
	n.typed = append(n.typed, typedHandler{key: key, match: match, handler: h})
	return n
}

// HandlePlayer sets the handler that only players may run.
// Non-players receive the player-only message instead.
func (n *Node) HandlePlayer(h Handler) *Node {
	n.playerHandler = h
	return n
}

// SetTabCompleter overrides the default completion algorithm.
func (n *Node) SetTabCompleter(c Completer) *Node {
	n.completer = c
	return n
}

// SetErrorHandler sets the handler for unexpected failures.
func (n *Node) SetErrorHandler(eh ErrorHandler) *Node {
	if eh == nil {
		eh = LogErrors(n.cfg.Logger)
	}
	n.cfg.ErrorHandler = eh
	return n
}

// SetPermission sets the capability required to use the node.
func (n *Node) SetPermission(permission string) *Node {
	n.cfg.Permission = permission
	return n
}

// SetPermissionMessage sets the message sent when the permission check fails.
func (n *Node) SetPermissionMessage(msg string) *Node {
	n.cfg.PermissionMessage = msg
	return n
}

// SetPlayerOnlyMessage sets the message sent to non-players.
func (n *Node) SetPlayerOnlyMessage(msg string) *Node {
	n.cfg.PlayerOnlyMessage = msg
	return n
}

// SetUsageMessage sets the usage text.
func (n *Node) SetUsageMessage(msg string) *Node {
	n.cfg.UsageMessage = msg
	return n
}

// SetCancelOnDisconnect binds player handler jobs to the player's connection.
func (n *Node) SetCancelOnDisconnect(enabled bool) *Node {
	n.cancelOnDisconnect = enabled
	return n
}

// Name returns the canonical name.
func (n *Node) Name() string { return n.name }

// Aliases returns a copy of the node's aliases.
func (n *Node) Aliases() []string { return append([]string(nil), n.aliases...) }

// Children returns the subcommands in insertion order.
func (n *Node) Children() []*Node { return append([]*Node(nil), n.children...) }

// Permission returns the required capability, or "".
func (n *Node) Permission() string { return n.cfg.Permission }

// UsageMessage returns the usage text.
func (n *Node) UsageMessage() string { return n.cfg.UsageMessage }

// Scope returns the scope handlers run under.
func (n *Node) Scope() *scope.Scope { return n.cfg.Scope }

// CancelOnDisconnect reports whether player jobs are bound to the connection.
func (n *Node) CancelOnDisconnect() bool { return n.cancelOnDisconnect }

// Config returns a copy of the node's inheritable settings.
func (n *Node) Config() Config { return n.cfg }

// Child returns the subcommand whose name or alias equals token, ignoring case.
func (n *Node) Child(token string) (*Node, bool) {
	for _, c := range n.children {
		if c.matches(token, true) {
			return c, true
		}
	}
	return nil, false
}

// Find walks path from this node and returns the deepest node it names.
// ok is false if any element does not match.
func (n *Node) Find(path ...string) (*Node, bool) {
	cur := n
	for _, p := range path {
		next, ok := cur.Child(p)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

func (n *Node) matches(token string, withAliases bool) bool {
	if strings.EqualFold(n.name, token) {
		return true
	}
	if !withAliases {
		return false
	}
	for _, a := range n.aliases {
		if strings.EqualFold(a, token) {
			return true
		}
	}
	return false
}

func cleanAliases(aliases []string) []string {
	out := make([]string, 0, len(aliases))
	for _, a := range aliases {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}
