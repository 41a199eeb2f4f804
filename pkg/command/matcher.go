package command

import (
	"reflect"

	"github.com/aretw0/arbor/pkg/domain"
)

// Matcher decides whether a typed handler applies to a caller.
type Matcher func(domain.Caller) bool

// Is matches callers whose dynamic type implements or is T.
func Is[T domain.Caller]() Matcher {
	return func(c domain.Caller) bool {
		_, ok := c.(T)
		return ok
	}
}

var playerType = reflect.TypeFor[domain.Player]()

// HandleAs registers h for callers of type T, keyed by T's type name.
// domain.Player itself is not a typed key: it fills the player slot, exactly
// like HandlePlayer.
//
//	command.HandleAs[*console.Operator](node, func(ex *command.Executor) error { ... })
func HandleAs[T domain.Caller](n *Node, h Handler) *Node {
	t := reflect.TypeFor[T]()
	if t == playerType {
		return n.HandlePlayer(h)
	}
	return n.HandleFor(t.String(), Is[T](), h)
}
