package command

import (
	"strings"

	"github.com/aretw0/arbor/pkg/domain"
)

// TabContext is the immutable input of a completion request.
type TabContext struct {
	caller domain.Caller
	alias  string
	args   []string
	node   *Node
}

// Caller returns who is completing.
func (t *TabContext) Caller() domain.Caller { return t.caller }

// Alias returns the command label used.
func (t *TabContext) Alias() string { return t.alias }

// Args returns a copy of the remaining arguments. The last one is the partial word.
func (t *TabContext) Args() []string { return append([]string(nil), t.args...) }

// Node returns the node being completed.
func (t *TabContext) Node() *Node { return t.node }

// Default runs the standard completion algorithm for this node, ignoring any
// custom completer. Custom completers use it to fall back after pre-processing.
func (t *TabContext) Default() []string {
	return t.node.defaultComplete(t.caller, t.alias, t.args)
}

// TabComplete returns completion candidates for a partial invocation.
func (n *Node) TabComplete(caller domain.Caller, alias string, args []string) []string {
	if n.completer != nil {
		return n.completer(&TabContext{
			caller: caller,
			alias:  alias,
			args:   append([]string(nil), args...),
			node:   n,
		})
	}
	return n.defaultComplete(caller, alias, args)
}

func (n *Node) defaultComplete(caller domain.Caller, alias string, args []string) []string {
	switch {
	case len(args) > 1:
		for _, c := range n.children {
			if c.matches(args[0], false) {
				return c.TabComplete(caller, alias, args[1:])
			}
		}
		return []string{}
	case len(args) == 1:
		if len(n.children) == 0 {
			return n.baseline(caller, alias, args)
		}
		prefix := strings.ToLower(args[0])
		out := []string{}
		for _, c := range n.children {
			if strings.HasPrefix(strings.ToLower(c.name), prefix) {
				out = append(out, c.name)
			}
		}
		return out
	default:
		return n.baseline(caller, alias, args)
	}
}

func (n *Node) baseline(caller domain.Caller, alias string, args []string) []string {
	if n.cfg.Baseline == nil {
		return []string{}
	}
	out := n.cfg.Baseline.CompleteBaseline(caller, alias, args)
	if out == nil {
		return []string{}
	}
	return out
}
