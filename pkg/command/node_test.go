package command_test

import (
	"strings"
	"testing"

	"github.com/aretw0/arbor/pkg/command"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RejectsBlankName(t *testing.T) {
	_, err := command.New("   ")
	assert.ErrorIs(t, err, domain.ErrBlankName)

	root, err := command.New("  guild ")
	require.NoError(t, err)
	assert.Equal(t, "guild", root.Name())

	_, err = root.AddChild("\t")
	assert.ErrorIs(t, err, domain.ErrBlankName)
	assert.Empty(t, root.Children())

	assert.Panics(t, func() { root.MustAddChild("") })
}

func TestAddChild_CopiesSettingsAtCreation(t *testing.T) {
	root, err := command.New("guild",
		command.WithPermission("guild.use"),
		command.WithPermissionMessage("no"),
		command.WithPlayerOnlyMessage("players only"),
		command.WithUsageMessage("/guild <sub>"),
	)
	require.NoError(t, err)

	early := root.MustAddChild("invite", "inv")
	root.SetPermission("guild.admin").SetUsageMessage("changed")
	late := root.MustAddChild("kick")

	assert.Equal(t, "guild.use", early.Permission())
	assert.Equal(t, "/guild <sub>", early.UsageMessage())
	assert.Equal(t, "players only", early.Config().PlayerOnlyMessage)
	assert.Equal(t, "no", early.Config().PermissionMessage)

	assert.Equal(t, "guild.admin", late.Permission())
	assert.Equal(t, "changed", late.UsageMessage())

	early.SetPermission("guild.invite")
	assert.Equal(t, "guild.admin", root.Permission(), "child changes do not leak upwards")

	assert.Same(t, root.Scope(), early.Scope(), "children share the tree scope")
}

func TestNode_ChildLookupIgnoresCase(t *testing.T) {
	root, err := command.New("guild")
	require.NoError(t, err)
	invite := root.MustAddChild("invite", " inv ", "")
	root.MustAddChild("kick")

	assert.Equal(t, []string{"inv"}, invite.Aliases())

	for _, token := range []string{"invite", "INVITE", "Inv", "iNV"} {
		c, ok := root.Child(token)
		require.True(t, ok, token)
		assert.Same(t, invite, c)
	}

	_, ok := root.Child("promote")
	assert.False(t, ok)

	sub := invite.MustAddChild("accept")
	found, ok := root.Find("INV", "accept")
	require.True(t, ok)
	assert.Same(t, sub, found)

	_, ok = root.Find("kick", "accept")
	assert.False(t, ok)
}

func TestDescribe_ListsHandlersAndChildren(t *testing.T) {
	root, err := command.New("guild", command.WithHandler(func(*command.Executor) error { return nil }))
	require.NoError(t, err)
	invite := root.MustAddChild("invite", "inv").SetPermission("guild.invite").SetCancelOnDisconnect(true)
	invite.HandlePlayer(func(*command.Executor) error { return nil })
	root.MustAddChild("info")

	d := root.Describe()
	assert.Equal(t, "guild", d.Name)
	assert.Equal(t, []string{"default"}, d.Handlers)
	require.Len(t, d.Children, 2)
	assert.Equal(t, "invite", d.Children[0].Name)
	assert.Equal(t, []string{"inv"}, d.Children[0].Aliases)
	assert.Equal(t, "guild.invite", d.Children[0].Permission)
	assert.Equal(t, []string{"player"}, d.Children[0].Handlers)
	assert.True(t, d.Children[0].CancelOnDisconnect)
	assert.Empty(t, d.Children[1].Handlers)
}

func TestWalk_VisitsDepthFirst(t *testing.T) {
	root, err := command.New("guild")
	require.NoError(t, err)
	invite := root.MustAddChild("invite")
	invite.MustAddChild("accept")
	root.MustAddChild("kick").MustAddChild("all")

	var paths []string
	root.Walk(func(path []string, n *command.Node) bool {
		paths = append(paths, strings.Join(path, " "))
		return n.Name() != "kick"
	})

	assert.Equal(t, []string{"guild", "guild invite", "guild invite accept", "guild kick"}, paths)
}

