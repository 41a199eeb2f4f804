package arbor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/command"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/aretw0/arbor/pkg/registry"
	"github.com/aretw0/arbor/pkg/scope"
)

// Engine is the high-level entry point for Arbor.
// It owns the scope and caller registry shared by every root command it
// registers, and resolves raw command lines to the right tree.
type Engine struct {
	scope    *scope.Scope
	registry *registry.Registry
	logger   *slog.Logger
	hooks    domain.Hooks
	baseline ports.BaselineCompleter
	onError  command.ErrorHandler
	parent   context.Context
	nodeOpts []command.Option

	mu     sync.RWMutex
	roots  []*command.Node
	labels map[string]*command.Node
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLogger sets a custom structured logger for the engine and its trees.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithHooks registers observability hooks on every tree.
func WithHooks(hooks domain.Hooks) Option {
	return func(e *Engine) {
		e.hooks = domain.Merge(e.hooks, hooks)
	}
}

// WithBaselineCompleter sets the host completion fallback.
func WithBaselineCompleter(b ports.BaselineCompleter) Option {
	return func(e *Engine) {
		e.baseline = b
	}
}

// WithErrorHandler sets the default handler for unexpected failures.
func WithErrorHandler(eh command.ErrorHandler) Option {
	return func(e *Engine) {
		e.onError = eh
	}
}

// WithContext bounds the engine's scope by ctx.
func WithContext(ctx context.Context) Option {
	return func(e *Engine) {
		e.parent = ctx
	}
}

// WithNodeOptions appends options applied to every root command before its own.
func WithNodeOptions(opts ...command.Option) Option {
	return func(e *Engine) {
		e.nodeOpts = append(e.nodeOpts, opts...)
	}
}

// New initializes an Engine with no commands.
func New(opts ...Option) *Engine {
	e := &Engine{
		parent: context.Background(),
		labels: make(map[string]*command.Node),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logging.NewNop()
	}
	if e.onError == nil {
		e.onError = command.LogErrors(e.logger)
	}
	e.scope = scope.New(e.parent, scope.WithLogger(e.logger))
	e.registry = registry.New(registry.WithLogger(e.logger))
	return e
}

// Register creates a root command bound to the engine's scope and registry.
// Names and aliases must be unique across roots, ignoring case.
func (e *Engine) Register(name string, aliases []string, opts ...command.Option) (*command.Node, error) {
	base := []command.Option{
		command.WithAliases(aliases...),
		command.WithScope(e.scope),
		command.WithRegistry(e.registry),
		command.WithLogger(e.logger),
		command.WithHooks(e.hooks),
		command.WithErrorHandler(e.onError),
	}
	if e.baseline != nil {
		base = append(base, command.WithBaselineCompleter(e.baseline))
	}
	base = append(base, e.nodeOpts...)

	root, err := command.New(name, append(base, opts...)...)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	keys := append([]string{root.Name()}, root.Aliases()...)
	for _, k := range keys {
		if _, taken := e.labels[strings.ToLower(k)]; taken {
			return nil, fmt.Errorf("register %q: %w: %s", root.Name(), domain.ErrDuplicateCommand, k)
		}
	}
	for _, k := range keys {
		e.labels[strings.ToLower(k)] = root
	}
	e.roots = append(e.roots, root)
	e.logger.Debug("command registered", "command", root.Name(), "aliases", root.Aliases())
	return root, nil
}

// MustRegister is like Register but panics on error.
func (e *Engine) MustRegister(name string, aliases ...string) *command.Node {
	root, err := e.Register(name, aliases)
	if err != nil {
		panic(err)
	}
	return root
}

// Lookup returns the root command answering to label, ignoring case.
func (e *Engine) Lookup(label string) (*command.Node, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	root, ok := e.labels[strings.ToLower(label)]
	return root, ok
}

// Commands returns the root commands in registration order.
func (e *Engine) Commands() []*command.Node {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]*command.Node(nil), e.roots...)
}

// Execute dispatches an already tokenized invocation.
// It returns false only when no root command answers to label.
func (e *Engine) Execute(caller domain.Caller, label string, args []string) bool {
	root, ok := e.Lookup(label)
	if !ok {
		e.logger.Debug("unknown command", "label", label, "caller", caller.Name())
		return false
	}
	return root.Execute(caller, label, args)
}

// ExecuteLine splits line on whitespace and dispatches it.
func (e *Engine) ExecuteLine(caller domain.Caller, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	if !e.Execute(caller, fields[0], fields[1:]) {
		return fmt.Errorf("%w: %s", domain.ErrUnknownCommand, fields[0])
	}
	return nil
}

// Run dispatches line and waits until the handler it started, if any, has
// returned or ctx is done. Handlers keep running when ctx expires.
func (e *Engine) Run(ctx context.Context, caller domain.Caller, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	root, ok := e.Lookup(fields[0])
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrUnknownCommand, fields[0])
	}
	job, _ := root.Submit(caller, fields[0], fields[1:])
	if job == nil {
		return nil
	}
	select {
	case <-job.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TabComplete returns candidates for args following label.
func (e *Engine) TabComplete(caller domain.Caller, label string, args []string) []string {
	root, ok := e.Lookup(label)
	if !ok {
		return []string{}
	}
	return root.TabComplete(caller, label, args)
}

// CompleteLine completes a partial command line. A trailing space starts a
// new, empty word. While the label itself is being typed, root command names
// the caller may use are suggested.
func (e *Engine) CompleteLine(caller domain.Caller, line string) []string {
	fields := strings.Fields(line)
	if line == "" || strings.HasSuffix(line, " ") || strings.HasSuffix(line, "\t") {
		fields = append(fields, "")
	}
	if len(fields) == 1 {
		return e.completeLabel(caller, fields[0])
	}
	return e.TabComplete(caller, fields[0], fields[1:])
}

func (e *Engine) completeLabel(caller domain.Caller, prefix string) []string {
	prefix = strings.ToLower(prefix)
	out := []string{}
	for _, root := range e.Commands() {
		if perm := strings.TrimSpace(root.Permission()); perm != "" && !caller.HasPermission(perm) {
			continue
		}
		if strings.HasPrefix(strings.ToLower(root.Name()), prefix) {
			out = append(out, root.Name())
		}
	}
	return out
}

// Disconnect reports that a caller's connection is gone, cancelling its
// tracked job if still active.
func (e *Engine) Disconnect(callerID string) {
	e.registry.Disconnect(callerID)
}

// Describe returns the description of every root command.
func (e *Engine) Describe() []command.Description {
	roots := e.Commands()
	out := make([]command.Description, 0, len(roots))
	for _, r := range roots {
		out = append(out, r.Describe())
	}
	return out
}

// Scope returns the scope every handler runs under.
func (e *Engine) Scope() *scope.Scope {
	return e.scope
}

// Registry returns the per-caller job registry.
func (e *Engine) Registry() *registry.Registry {
	return e.registry
}

// Logger returns the engine logger.
func (e *Engine) Logger() *slog.Logger {
	return e.logger
}

// Shutdown cancels every in-flight handler and waits for them to return or
// for ctx to expire.
func (e *Engine) Shutdown(ctx context.Context) error {
	e.logger.Debug("shutting down", "running", e.scope.Running())
	e.scope.Cancel()
	if err := e.scope.WaitContext(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
