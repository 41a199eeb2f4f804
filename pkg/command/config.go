package command

import (
	"context"
	"log/slog"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/aretw0/arbor/pkg/scope"
)

// Default messages used when a node is created without overrides.
const (
	DefaultPermissionMessage = "You do not have permission to use this command."
	DefaultPlayerOnlyMessage = "This command can only be used in-game."
)

// Config holds the settings a child inherits from its parent.
// AddChild copies it by value; later changes to the parent are not seen by
// children that already exist.
type Config struct {
	Permission        string
	PermissionMessage string
	PlayerOnlyMessage string
	UsageMessage      string
	ErrorHandler      ErrorHandler

	// Shared collaborators. Every node of a tree normally points at the same ones.
	Scope    *scope.Scope
	Registry ports.CallerRegistry
	Baseline ports.BaselineCompleter
	Hooks    domain.Hooks
	Logger   *slog.Logger
}

// Option configures a root node created with New.
type Option func(*Node)

// WithAliases sets the node's aliases.
func WithAliases(aliases ...string) Option {
	return func(n *Node) {
		n.aliases = cleanAliases(aliases)
	}
}

// WithHandler sets the initial default handler.
func WithHandler(h Handler) Option {
	return func(n *Node) {
		n.defaultHandler = h
	}
}

// WithScope sets the scope handlers run under. Children share it.
func WithScope(s *scope.Scope) Option {
	return func(n *Node) {
		n.cfg.Scope = s
	}
}

// WithRegistry sets the per-caller registry used by cancel-on-disconnect nodes.
func WithRegistry(r ports.CallerRegistry) Option {
	return func(n *Node) {
		n.cfg.Registry = r
	}
}

// WithBaselineCompleter sets the host completion fallback.
func WithBaselineCompleter(b ports.BaselineCompleter) Option {
	return func(n *Node) {
		n.cfg.Baseline = b
	}
}

// WithErrorHandler sets the handler for unexpected failures.
func WithErrorHandler(eh ErrorHandler) Option {
	return func(n *Node) {
		n.cfg.ErrorHandler = eh
	}
}

// WithHooks registers observability hooks.
func WithHooks(hooks domain.Hooks) Option {
	return func(n *Node) {
		n.cfg.Hooks = hooks
	}
}

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(n *Node) {
		n.cfg.Logger = logger
	}
}

// WithPermission sets the capability required to use the node.
func WithPermission(permission string) Option {
	return func(n *Node) {
		n.cfg.Permission = permission
	}
}

// WithPermissionMessage sets the message sent when the permission check fails.
func WithPermissionMessage(msg string) Option {
	return func(n *Node) {
		n.cfg.PermissionMessage = msg
	}
}

// WithPlayerOnlyMessage sets the message sent to non-players invoking a player-only handler.
func WithPlayerOnlyMessage(msg string) Option {
	return func(n *Node) {
		n.cfg.PlayerOnlyMessage = msg
	}
}

// WithUsageMessage sets the usage text returned by Executor.Usage.
func WithUsageMessage(msg string) Option {
	return func(n *Node) {
		n.cfg.UsageMessage = msg
	}
}

// WithCancelOnDisconnect binds player handler jobs to the player's connection.
func WithCancelOnDisconnect(enabled bool) Option {
	return func(n *Node) {
		n.cancelOnDisconnect = enabled
	}
}

func defaultConfig() Config {
	return Config{
		PermissionMessage: DefaultPermissionMessage,
		PlayerOnlyMessage: DefaultPlayerOnlyMessage,
	}
}

// complete fills collaborators left unset.
func (c *Config) complete() {
	if c.Logger == nil {
		c.Logger = logging.NewNop()
	}
	if c.Scope == nil {
		c.Scope = scope.New(context.Background(), scope.WithLogger(c.Logger))
	}
	if c.ErrorHandler == nil {
		c.ErrorHandler = LogErrors(c.Logger)
	}
}
