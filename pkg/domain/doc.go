/*
Package domain contains the core domain models shared by every arbor package.

It is kept free of I/O and third-party dependencies.

# Key Entities

  - Caller / Player: who issues a command. Players have a stable identity that
    work can be bound to.
  - Failure: the expected, user-facing failure signal handlers return to abort
    with a message.
  - CommandEvent / Hooks: observability callbacks fired by the dispatch engine.
*/
package domain
