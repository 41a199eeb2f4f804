/*
Package arbor is a hierarchical command-dispatch engine for hosts that receive textual commands from many concurrent callers: game servers, chat bots, operator consoles and agent tool surfaces.

A command is a tree of nodes. Each node has a name, aliases, an optional permission and a set of handlers. An invocation enters at a root, is routed through matching subcommands, is gated by the permission of the node it reaches and finally runs one handler on its own goroutine. The caller of Execute never blocks on the handler.

# Concept

The engine never owns the caller. The host supplies a domain.Caller that answers permission checks and receives messages. Callers that also implement domain.Player have a stable identity, and handlers started on their behalf can be bound to their connection: when the host reports a disconnect, the work is cancelled.

# Key Features

  - Case-insensitive routing through names and aliases, with no depth limit.
  - Handler selection by caller type: typed handlers, then a player-only slot, then the default handler.
  - One cancellable scope per engine. Shutdown cancels every in-flight handler.
  - Two failure kinds: a domain.Failure is a message for the caller; anything else reaches the error handler exactly once.
  - Tab completion through the same tree, with a host baseline fallback.

# Usage

	eng := arbor.New(arbor.WithLogger(logger))

	guild := eng.MustRegister("guild", "g")
	guild.MustAddChild("invite", "inv").
		SetPermission("guild.invite").
		SetUsageMessage("/guild invite <player>").
		HandlePlayer(func(ex *command.Executor) error {
			if err := ex.RequireArgs(1); err != nil {
				return err
			}
			target, _ := ex.Arg(0)
			if !online(target) {
				return domain.Failf("%s is not online.", target)
			}
			ex.Replyf("Invited %s.", target)
			return nil
		})

	// From the host's command callback:
	eng.Execute(caller, label, args)

	// From the host's disconnect callback:
	eng.Disconnect(player.UniqueID())

	// On shutdown:
	_ = eng.Shutdown(ctx)
*/
package arbor
