package dsl

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/arbor/pkg/command"
	"github.com/aretw0/arbor/pkg/domain"
)

// ErrUnboundName is returned when a definition references a handler, matcher
// or completer that was never bound.
var ErrUnboundName = errors.New("unbound name")

// Registrar is the part of the engine Build needs.
type Registrar interface {
	Register(name string, aliases []string, opts ...command.Option) (*command.Node, error)
	Lookup(label string) (*command.Node, bool)
}

// Bindings maps the names used in definitions to Go code.
type Bindings struct {
	handlers   map[string]command.Handler
	players    map[string]command.Handler
	matchers   map[string]command.Matcher
	completers map[string]command.Completer
}

// NewBindings creates an empty binding set.
func NewBindings() *Bindings {
	return &Bindings{
		handlers:   make(map[string]command.Handler),
		players:    make(map[string]command.Handler),
		matchers:   make(map[string]command.Matcher),
		completers: make(map[string]command.Completer),
	}
}

// Handler binds a name usable as a default or typed handler.
func (b *Bindings) Handler(name string, h command.Handler) *Bindings {
	b.handlers[name] = h
	return b
}

// Player binds a name usable as a player handler.
// Player names also resolve as ordinary handlers.
func (b *Bindings) Player(name string, h command.Handler) *Bindings {
	b.players[name] = h
	return b
}

// Matcher binds a caller matcher for typed handlers.
func (b *Bindings) Matcher(name string, m command.Matcher) *Bindings {
	b.matchers[name] = m
	return b
}

// Completer binds a custom tab completer.
func (b *Bindings) Completer(name string, c command.Completer) *Bindings {
	b.completers[name] = c
	return b
}

func (b *Bindings) handler(name string) (command.Handler, bool) {
	if h, ok := b.handlers[name]; ok {
		return h, true
	}
	h, ok := b.players[name]
	return h, ok
}

func (b *Bindings) player(name string) (command.Handler, bool) {
	if h, ok := b.players[name]; ok {
		return h, true
	}
	h, ok := b.handlers[name]
	return h, ok
}

// Build registers every root command of the tree and attaches its subtree.
// Bound names and root labels are checked before anything is registered, so
// an unbound name or a label the registrar already answers to leaves it
// untouched. A failure inside Register itself, or while attaching children,
// may leave earlier roots in place.
func Build(r Registrar, tree *Tree, b *Bindings) error {
	if tree == nil {
		return fmt.Errorf("%w: nil tree", ErrInvalidTree)
	}
	if b == nil {
		b = NewBindings()
	}
	for i := range tree.Commands {
		if err := b.check(&tree.Commands[i], nil); err != nil {
			return err
		}
		for _, label := range tree.Commands[i].Labels() {
			if _, taken := r.Lookup(strings.TrimSpace(label)); taken {
				return fmt.Errorf("%w: %q is already registered", domain.ErrDuplicateCommand, label)
			}
		}
	}
	for i := range tree.Commands {
		spec := &tree.Commands[i]
		root, err := r.Register(spec.Name, spec.Aliases)
		if err != nil {
			return fmt.Errorf("failed to register %q: %w", spec.Name, err)
		}
		if err := b.apply(root, spec); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bindings) check(s *NodeSpec, parent []string) error {
	path := strings.Join(append(append([]string(nil), parent...), s.Name), " ")
	missing := func(kind, name string) error {
		return fmt.Errorf("%w: %s %q on %q", ErrUnboundName, kind, name, path)
	}
	if s.Handler != "" {
		if _, ok := b.handler(s.Handler); !ok {
			return missing("handler", s.Handler)
		}
	}
	if s.Player != "" {
		if _, ok := b.player(s.Player); !ok {
			return missing("player handler", s.Player)
		}
	}
	for _, ts := range s.Typed {
		if _, ok := b.matchers[ts.Match]; !ok {
			return missing("matcher", ts.Match)
		}
		if _, ok := b.handler(ts.Handler); !ok {
			return missing("handler", ts.Handler)
		}
	}
	if s.Completer != "" {
		if _, ok := b.completers[s.Completer]; !ok {
			return missing("completer", s.Completer)
		}
	}
	for i := range s.Children {
		if err := b.check(&s.Children[i], append(parent, s.Name)); err != nil {
			return err
		}
	}
	return nil
}

// apply configures n from s. Settings are applied before children are added
// so that children inherit them.
func (b *Bindings) apply(n *command.Node, s *NodeSpec) error {
	if s.Permission != "" {
		n.SetPermission(s.Permission)
	}
	if s.PermissionMessage != nil {
		n.SetPermissionMessage(*s.PermissionMessage)
	}
	if s.PlayerOnlyMessage != nil {
		n.SetPlayerOnlyMessage(*s.PlayerOnlyMessage)
	}
	if s.Usage != nil {
		n.SetUsageMessage(*s.Usage)
	}
	if s.CancelOnDisconnect {
		n.SetCancelOnDisconnect(true)
	}
	if s.Handler != "" {
		h, _ := b.handler(s.Handler)
		n.Handle(h)
	}
	if s.Player != "" {
		h, _ := b.player(s.Player)
		n.HandlePlayer(h)
	}
	for _, ts := range s.Typed {
		h, _ := b.handler(ts.Handler)
		n.HandleFor(ts.Match, b.matchers[ts.Match], h)
	}
	if s.Completer != "" {
		n.SetTabCompleter(b.completers[s.Completer])
	}

	for i := range s.Children {
		cs := &s.Children[i]
		child, err := n.AddChild(cs.Name, cs.Aliases...)
		if err != nil {
			return err
		}
		if err := b.apply(child, cs); err != nil {
			return err
		}
	}
	return nil
}
