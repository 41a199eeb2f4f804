package console_test

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/aretw0/arbor/pkg/adapters/console"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOperator_WritesFormattedLines(t *testing.T) {
	var buf bytes.Buffer
	op := console.NewOperator(&buf, console.WithFormatter(strings.ToUpper))

	assert.Equal(t, "console", op.Name())
	assert.True(t, op.HasPermission("anything.at.all"))
	_, isPlayer := domain.AsPlayer(op)
	assert.False(t, isPlayer)

	op.SendMessage("hello")
	op.SendMessage("world")
	assert.Equal(t, "HELLO\nWORLD\n", buf.String())
}

func TestOperator_ConcurrentWritesDoNotInterleave(t *testing.T) {
	var buf bytes.Buffer
	op := console.NewOperator(&buf, console.WithName("ops"))
	assert.Equal(t, "ops", op.Name())

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			op.SendMessage("line")
		}()
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	assert.Len(t, lines, 50)
	for _, l := range lines {
		assert.Equal(t, "line", l)
	}
}

func TestDirectory_ResolveKeepsInbox(t *testing.T) {
	var mu sync.Mutex
	var heard []string
	dir := console.NewDirectory(console.WithListener(func(id, msg string) {
		mu.Lock()
		heard = append(heard, id+":"+msg)
		mu.Unlock()
	}))

	c, r := dir.Resolve(console.Identity{ID: "p1", Name: "Alice", Player: true, Permissions: []string{"guild.invite", " "}})
	p, ok := domain.AsPlayer(c)
	require.True(t, ok)
	assert.Equal(t, "p1", p.UniqueID())
	assert.Equal(t, "Alice", c.Name())
	assert.True(t, c.HasPermission("guild.invite"))
	assert.False(t, c.HasPermission("guild.kick"))
	assert.Equal(t, []string{"guild.invite"}, r.Permissions())

	c.SendMessage("one")

	again, r2 := dir.Resolve(console.Identity{ID: "p1", Permissions: []string{"*"}})
	assert.Same(t, r, r2)
	_, ok = domain.AsPlayer(again)
	assert.False(t, ok, "player flag follows the request")
	assert.True(t, again.HasPermission("guild.kick"))
	again.SendMessage("two")

	assert.Equal(t, 2, r.Pending())
	assert.Equal(t, []string{"one", "two"}, r.Drain())
	assert.Equal(t, []string{}, r.Drain())
	assert.Equal(t, []string{"p1:one", "p1:two"}, heard)
}

func TestDirectory_Forget(t *testing.T) {
	dir := console.NewDirectory()
	_, r := dir.Resolve(console.Identity{ID: "p1"})
	assert.Equal(t, 1, dir.Len())

	got, ok := dir.Get("p1")
	require.True(t, ok)
	assert.Same(t, r, got)

	dir.Forget("p1")
	_, ok = dir.Get("p1")
	assert.False(t, ok)
	assert.Zero(t, dir.Len())
}

func TestDirectory_AnonymousCallersAreNotStored(t *testing.T) {
	dir := console.NewDirectory()
	for i := 0; i < 10; i++ {
		c, r := dir.Resolve(console.Identity{})
		assert.NotEmpty(t, r.ID())
		assert.Equal(t, r.ID(), c.Name())
	}
	assert.Zero(t, dir.Len())
}

func TestDirectory_EphemeralKeepsPermissionsPrivate(t *testing.T) {
	dir := console.NewDirectory()
	admin, _ := dir.Ephemeral(console.Identity{ID: "shared", Permissions: []string{"*"}})
	guest, _ := dir.Ephemeral(console.Identity{ID: "shared"})

	assert.True(t, admin.HasPermission("guild.kick"))
	assert.False(t, guest.HasPermission("guild.kick"))
	_, ok := dir.Get("shared")
	assert.False(t, ok)
}

func TestDirectory_NamesSorted(t *testing.T) {
	dir := console.NewDirectory()
	dir.Resolve(console.Identity{ID: "2", Name: "Bob"})
	dir.Resolve(console.Identity{ID: "1", Name: "Alice"})
	dir.Resolve(console.Identity{ID: "1", Name: "Renamed"})

	assert.Equal(t, []string{"Alice", "Bob"}, dir.Names(), "the first name seen is kept")
}
