package domain

// Caller is the entity issuing a command invocation.
// Capability checks and message delivery are owned by the host; the engine
// only ever asks and tells through this interface.
type Caller interface {
	// Name is a human readable identifier used in logs.
	Name() string
	// HasPermission reports whether the caller holds the given capability.
	HasPermission(permission string) bool
	// SendMessage delivers text to the caller.
	SendMessage(msg string)
}

// Player is an interactive, connected caller with a stable identity.
// Work started on behalf of a Player can be bound to its connection.
type Player interface {
	Caller
	UniqueID() string
}

// AsPlayer reports whether the caller is a Player.
func AsPlayer(c Caller) (Player, bool) {
	p, ok := c.(Player)
	return p, ok
}
