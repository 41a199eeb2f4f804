// Package console provides the concrete callers used by Arbor's own
// transports: the operator terminal and remote callers identified by id.
package console

import (
	"fmt"
	"io"
	"sync"

	"github.com/aretw0/arbor/pkg/domain"
)

// Operator is the caller behind the local terminal. It holds every
// permission and is not a player.
type Operator struct {
	name   string
	mu     sync.Mutex
	out    io.Writer
	format func(string) string
}

var _ domain.Caller = (*Operator)(nil)

// OperatorOption configures an Operator.
type OperatorOption func(*Operator)

// WithFormatter styles every message before it is written.
func WithFormatter(format func(string) string) OperatorOption {
	return func(o *Operator) {
		o.format = format
	}
}

// WithName overrides the operator name used in logs (default "console").
func WithName(name string) OperatorOption {
	return func(o *Operator) {
		o.name = name
	}
}

// NewOperator creates an operator writing messages to out, one per line.
func NewOperator(out io.Writer, opts ...OperatorOption) *Operator {
	o := &Operator{name: "console", out: out}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Operator) Name() string { return o.name }

// HasPermission always reports true.
func (o *Operator) HasPermission(string) bool { return true }

// SendMessage writes msg to the terminal. Handlers run concurrently, so
// writes are serialized.
func (o *Operator) SendMessage(msg string) {
	if o.format != nil {
		msg = o.format(msg)
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	fmt.Fprintln(o.out, msg)
}
