/*
Package command implements the arbor command tree and its dispatch engine.

A tree is a root Node with subcommands attached through AddChild. Children copy
their parent's Config (permission, messages, error handler, collaborators) at
creation time.

# Dispatch

Execute walks the tree by matching the first argument against child names and
aliases (case-insensitive), checks the node's permission, then picks a handler:

 1. typed handlers (HandleFor / HandleAs), in registration order;
 2. the player handler (HandlePlayer), which rejects non-players and, with
    SetCancelOnDisconnect, registers its job against the player's identity;
 3. the default handler (Handle).

The handler runs on its own goroutine under a job of the tree's scope.
Returning a *domain.Failure delivers its message to the caller; any other error
reaches the node's ErrorHandler exactly once.

# Completion

TabComplete either calls a custom Completer or walks child names by prefix,
deferring to the host's BaselineCompleter at leaves.
*/
package command
