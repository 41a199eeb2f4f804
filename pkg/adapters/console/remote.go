package console

import (
	"slices"
	"strings"
	"sync"

	"github.com/aretw0/arbor/pkg/domain"
)

// Remote is a caller reached through a network transport. Messages are
// buffered until the transport drains them.
type Remote struct {
	id   string
	name string

	mu       sync.Mutex
	perms    map[string]struct{}
	inbox    []string
	listener func(id, msg string)
}

// RemotePlayer is a Remote with a player identity. Its handlers can be bound
// to its connection.
type RemotePlayer struct {
	*Remote
}

var (
	_ domain.Caller = (*Remote)(nil)
	_ domain.Player = RemotePlayer{}
)

// UniqueID returns the remote id.
func (p RemotePlayer) UniqueID() string { return p.id }

func (r *Remote) ID() string   { return r.id }
func (r *Remote) Name() string { return r.name }

// HasPermission reports whether permission was granted. "*" grants all.
func (r *Remote) HasPermission(permission string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.perms["*"]; ok {
		return true
	}
	_, ok := r.perms[permission]
	return ok
}

// SendMessage buffers msg and notifies the listener, if any.
func (r *Remote) SendMessage(msg string) {
	r.mu.Lock()
	r.inbox = append(r.inbox, msg)
	listener := r.listener
	r.mu.Unlock()
	if listener != nil {
		listener(r.id, msg)
	}
}

// Drain returns and clears the buffered messages.
func (r *Remote) Drain() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.inbox
	r.inbox = nil
	if out == nil {
		return []string{}
	}
	return out
}

// Pending returns the number of buffered messages.
func (r *Remote) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.inbox)
}

func (r *Remote) setPermissions(perms []string) {
	set := make(map[string]struct{}, len(perms))
	for _, p := range perms {
		if p = strings.TrimSpace(p); p != "" {
			set[p] = struct{}{}
		}
	}
	r.mu.Lock()
	r.perms = set
	r.mu.Unlock()
}

// Permissions returns the granted permissions, sorted.
func (r *Remote) Permissions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.perms))
	for p := range r.perms {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}
