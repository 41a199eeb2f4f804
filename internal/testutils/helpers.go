package testutils

import (
	"slices"
	"sync"
	"testing"
	"time"
)

// Caller is a thread-safe fake domain.Caller that records delivered messages.
type Caller struct {
	name        string
	permissions map[string]bool

	mu       sync.Mutex
	messages []string
}

// NewCaller creates a caller holding the given permissions.
func NewCaller(name string, permissions ...string) *Caller {
	perms := make(map[string]bool, len(permissions))
	for _, p := range permissions {
		perms[p] = true
	}
	return &Caller{name: name, permissions: perms}
}

func (c *Caller) Name() string { return c.name }

func (c *Caller) HasPermission(permission string) bool {
	return c.permissions["*"] || c.permissions[permission]
}

func (c *Caller) SendMessage(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, msg)
}

// Messages returns a copy of everything delivered so far.
func (c *Caller) Messages() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.messages)
}

// Player is a fake domain.Player.
type Player struct {
	*Caller
	id string
}

// NewPlayer creates a player with a stable id.
func NewPlayer(id, name string, permissions ...string) *Player {
	return &Player{Caller: NewCaller(name, permissions...), id: id}
}

func (p *Player) UniqueID() string { return p.id }

// Admin is a player subtype used to exercise typed-handler precedence.
type Admin struct {
	*Player
}

// NewAdmin creates an Admin holding every permission.
func NewAdmin(id, name string) *Admin {
	return &Admin{Player: NewPlayer(id, name, "*")}
}

// Recv waits for a value on ch or fails the test after timeout.
func Recv[T any](t *testing.T, ch <-chan T, timeout time.Duration) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(timeout):
		t.Fatalf("timed out after %v waiting for value", timeout)
	}
	var zero T
	return zero
}
