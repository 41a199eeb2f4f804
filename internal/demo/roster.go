package demo

import (
	"sort"
	"strings"
	"sync"
)

// Roster is the in-memory guild state behind the demo commands.
// Names are compared case-insensitively and stored as first seen.
type Roster struct {
	mu      sync.Mutex
	guilds  map[string]*guild
	members map[string]string // member -> guild key
	invites map[string]*invite
}

type guild struct {
	name    string
	founder string
	members []string
}

type invite struct {
	guild    string
	accepted chan struct{}
}

// NewRoster creates an empty roster.
func NewRoster() *Roster {
	return &Roster{
		guilds:  make(map[string]*guild),
		members: make(map[string]string),
		invites: make(map[string]*invite),
	}
}

func key(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// Create founds a guild. It reports false if the name is taken or the
// founder already belongs to a guild.
func (r *Roster) Create(name, founder string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.guilds[key(name)]; taken {
		return false
	}
	if _, member := r.members[key(founder)]; member {
		return false
	}
	r.guilds[key(name)] = &guild{name: name, founder: founder, members: []string{founder}}
	r.members[key(founder)] = key(name)
	return true
}

// GuildOf returns the guild name of member.
func (r *Roster) GuildOf(member string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.members[key(member)]
	if !ok {
		return "", false
	}
	return r.guilds[g].name, true
}

// Members returns the members of a guild in join order.
func (r *Roster) Members(name string) ([]string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.guilds[key(name)]
	if !ok {
		return nil, false
	}
	return append([]string(nil), g.members...), true
}

// Guilds returns guild names sorted alphabetically.
func (r *Roster) Guilds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.guilds))
	for _, g := range r.guilds {
		out = append(out, g.name)
	}
	sort.Strings(out)
	return out
}

// Invite records a pending invitation and returns a channel closed when it
// is accepted. A newer invitation for the same player replaces the old one.
func (r *Roster) Invite(guildName, player string) <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv := &invite{guild: key(guildName), accepted: make(chan struct{})}
	r.invites[key(player)] = inv
	return inv.accepted
}

// Withdraw drops a pending invitation if it is still the one for guildName.
func (r *Roster) Withdraw(guildName, player string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if inv, ok := r.invites[key(player)]; ok && inv.guild == key(guildName) {
		delete(r.invites, key(player))
	}
}

// Accept joins player to the guild that invited them.
func (r *Roster) Accept(player string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.invites[key(player)]
	if !ok {
		return "", false
	}
	delete(r.invites, key(player))
	g, ok := r.guilds[inv.guild]
	if !ok {
		return "", false
	}
	if _, member := r.members[key(player)]; member {
		return "", false
	}
	g.members = append(g.members, player)
	r.members[key(player)] = inv.guild
	close(inv.accepted)
	return g.name, true
}

// Remove takes member out of its guild. A guild left empty is disbanded.
func (r *Roster) Remove(member string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	gk, ok := r.members[key(member)]
	if !ok {
		return "", false
	}
	delete(r.members, key(member))
	g := r.guilds[gk]
	for i, m := range g.members {
		if key(m) == key(member) {
			g.members = append(g.members[:i], g.members[i+1:]...)
			break
		}
	}
	if len(g.members) == 0 {
		delete(r.guilds, gk)
	}
	return g.name, true
}
