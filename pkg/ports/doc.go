/*
Package ports defines the driven ports (interfaces) of the arbor dispatch engine.

These interfaces decouple the command tree from host-specific collaborators.

# Key Interfaces

  - CallerRegistry: tracks one cancellable job per connected caller.
  - Disconnector: receives caller disconnect notifications (registry side).
  - DisconnectSource: feeds disconnects from outside the process (e.g. Redis pub/sub).
  - BaselineCompleter: host fallback for tab completion.
  - DistributedLocker: cross-host mutual exclusion for guarded commands.
*/
package ports
