package demo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoster_CreateRejectsTakenNameAndMembers(t *testing.T) {
	r := NewRoster()
	require.True(t, r.Create("Knights", "Alice"))

	assert.False(t, r.Create("knights", "Bob"), "names are case-insensitive")
	assert.False(t, r.Create("Rangers", "alice"), "founder already in a guild")

	g, ok := r.GuildOf("ALICE")
	require.True(t, ok)
	assert.Equal(t, "Knights", g)
}

func TestRoster_InviteAcceptClosesChannel(t *testing.T) {
	r := NewRoster()
	require.True(t, r.Create("Knights", "Alice"))

	accepted := r.Invite("Knights", "Bob")
	g, ok := r.Accept("bob")
	require.True(t, ok)
	assert.Equal(t, "Knights", g)

	select {
	case <-accepted:
	default:
		t.Fatal("accept did not close the invite channel")
	}

	members, ok := r.Members("knights")
	require.True(t, ok)
	assert.Equal(t, []string{"Alice", "Bob"}, members)

	_, ok = r.Accept("Bob")
	assert.False(t, ok, "invite is consumed")
}

func TestRoster_WithdrawKeepsNewerInvite(t *testing.T) {
	r := NewRoster()
	require.True(t, r.Create("Knights", "Alice"))
	require.True(t, r.Create("Rangers", "Carol"))

	r.Invite("Knights", "Bob")
	r.Invite("Rangers", "Bob")
	r.Withdraw("Knights", "Bob")

	g, ok := r.Accept("Bob")
	require.True(t, ok)
	assert.Equal(t, "Rangers", g)
}

func TestRoster_RemoveDisbandsEmptyGuild(t *testing.T) {
	r := NewRoster()
	require.True(t, r.Create("Knights", "Alice"))
	require.True(t, r.Create("Rangers", "Carol"))

	g, ok := r.Remove("alice")
	require.True(t, ok)
	assert.Equal(t, "Knights", g)
	assert.Equal(t, []string{"Rangers"}, r.Guilds())

	_, ok = r.Remove("Alice")
	assert.False(t, ok)
}
