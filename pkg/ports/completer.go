package ports

import "github.com/aretw0/arbor/pkg/domain"

// BaselineCompleter supplies the host's own completion suggestions
// (e.g. online player names) when the command tree has nothing to offer.
type BaselineCompleter interface {
	CompleteBaseline(caller domain.Caller, alias string, args []string) []string
}

// BaselineFunc adapts a function to BaselineCompleter.
type BaselineFunc func(caller domain.Caller, alias string, args []string) []string

// CompleteBaseline implements BaselineCompleter.
func (f BaselineFunc) CompleteBaseline(caller domain.Caller, alias string, args []string) []string {
	return f(caller, alias, args)
}
