package dsl_test

import (
	"strings"
	"testing"
	"time"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/internal/testutils"
	"github.com/aretw0/arbor/pkg/command"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/dsl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const guildTree = `
commands:
  - name: guild
    aliases: [g]
    permission: guild.use
    permission_message: "Guilds are closed."
    handler: guild.help
    children:
      - name: invite
        aliases: [inv]
        usage: "/guild invite <player>"
        player: guild.invite
        player_only_message: "Players only."
        cancel_on_disconnect: true
        completer: online
      - name: info
        handler: guild.info
        typed:
          - match: operator
            handler: guild.info.operator
      - name: kick
        permission: guild.kick
        permission_message: ""
        handler: guild.info
`

func guildBindings(replies chan<- string) *dsl.Bindings {
	reply := func(msg string) command.Handler {
		return func(ex *command.Executor) error {
			replies <- msg
			return nil
		}
	}
	return dsl.NewBindings().
		Handler("guild.help", reply("help")).
		Handler("guild.info", reply("info")).
		Handler("guild.info.operator", reply("info for operators")).
		Player("guild.invite", func(ex *command.Executor) error {
			if err := ex.RequireArgs(1); err != nil {
				return err
			}
			replies <- "invited " + ex.Args()[0]
			return nil
		}).
		Matcher("operator", command.Is[*testutils.Admin]()).
		Completer("online", func(tc *command.TabContext) []string {
			return []string{"Alice", "Bob"}
		})
}

func TestParse_DecodesNestedNodes(t *testing.T) {
	tree, err := dsl.Parse([]byte(guildTree))
	require.NoError(t, err)
	require.Len(t, tree.Commands, 1)

	guild := tree.Commands[0]
	assert.Equal(t, "guild", guild.Name)
	assert.Equal(t, []string{"g"}, guild.Aliases)
	require.NotNil(t, guild.PermissionMessage)
	assert.Equal(t, "Guilds are closed.", *guild.PermissionMessage)
	require.Len(t, guild.Children, 3)

	invite := guild.Children[0]
	assert.True(t, invite.CancelOnDisconnect)
	assert.Equal(t, "guild.invite", invite.Player)
	assert.Nil(t, invite.PermissionMessage, "absent message must stay nil")

	kick := guild.Children[2]
	require.NotNil(t, kick.PermissionMessage)
	assert.Empty(t, *kick.PermissionMessage)

	assert.Equal(t, []dsl.TypedSpec{{Match: "operator", Handler: "guild.info.operator"}}, guild.Children[1].Typed)
}

func TestParse_AcceptsJSON(t *testing.T) {
	tree, err := dsl.Parse([]byte(`{"commands":[{"name":"party","aliases":["p"],"handler":"party"}]}`))
	require.NoError(t, err)
	assert.Equal(t, "party", tree.Commands[0].Name)
	assert.Equal(t, []string{"p"}, tree.Commands[0].Aliases)
}

func TestParse_Rejections(t *testing.T) {
	cases := map[string]string{
		"empty":            ``,
		"no commands":      `commands: []`,
		"unknown key":      "commands:\n  - name: guild\n    handlr: x\n",
		"blank name":       "commands:\n  - name: guild\n    children:\n      - name: ' '\n",
		"duplicate kids":   "commands:\n  - name: guild\n    children:\n      - name: invite\n      - name: kick\n        aliases: [INVITE]\n",
		"typed no match":   "commands:\n  - name: guild\n    typed:\n      - handler: x\n",
		"duplicate root":   "commands:\n  - name: guild\n  - name: party\n    aliases: [Guild]\n",
		"cancel no player": "commands:\n  - name: guild\n    children:\n      - name: wait\n        handler: x\n        cancel_on_disconnect: true\n",
		"not yaml":         "commands: [",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := dsl.Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestBuild_WiresTreeOntoEngine(t *testing.T) {
	tree, err := dsl.Parse([]byte(guildTree))
	require.NoError(t, err)

	replies := make(chan string, 8)
	eng := arbor.New()
	require.NoError(t, dsl.Build(eng, tree, guildBindings(replies)))

	guild, ok := eng.Lookup("g")
	require.True(t, ok)
	invite, ok := guild.Find("inv")
	require.True(t, ok)
	assert.Equal(t, "guild.use", invite.Permission(), "permission is inherited")
	assert.Equal(t, "/guild invite <player>", invite.UsageMessage())
	assert.True(t, invite.CancelOnDisconnect())
	assert.Equal(t, "Guilds are closed.", invite.Config().PermissionMessage)

	player := testutils.NewPlayer("p-1", "Alice", "guild.use")
	require.NoError(t, eng.ExecuteLine(player, "guild invite Bob"))
	assert.Equal(t, "invited Bob", testutils.Recv(t, replies, time.Second))

	admin := testutils.NewAdmin("a-1", "Root")
	require.NoError(t, eng.ExecuteLine(admin, "guild info"))
	assert.Equal(t, "info for operators", testutils.Recv(t, replies, time.Second))

	require.NoError(t, eng.ExecuteLine(player, "guild info"))
	assert.Equal(t, "info", testutils.Recv(t, replies, time.Second))

	assert.Equal(t, []string{"Alice", "Bob"}, eng.CompleteLine(admin, "guild invite "))

	outsider := testutils.NewCaller("guest")
	require.NoError(t, eng.ExecuteLine(outsider, "guild"))
	eng.Scope().Wait()
	assert.Equal(t, []string{"Guilds are closed."}, outsider.Messages())

	// kick silences its rejection
	require.NoError(t, eng.ExecuteLine(player, "guild kick Bob"))
	eng.Scope().Wait()
	assert.Empty(t, player.Messages())
}

type spyRegistrar struct {
	names []string
	taken map[string]bool
}

func (s *spyRegistrar) Register(name string, aliases []string, opts ...command.Option) (*command.Node, error) {
	s.names = append(s.names, name)
	return command.New(name, opts...)
}

func (s *spyRegistrar) Lookup(label string) (*command.Node, bool) {
	if !s.taken[strings.ToLower(label)] {
		return nil, false
	}
	n, err := command.New(label)
	return n, err == nil
}

func TestBuild_UnboundNameRegistersNothing(t *testing.T) {
	tree, err := dsl.Parse([]byte(`
commands:
  - name: party
    handler: party
  - name: guild
    children:
      - name: invite
        player: missing
`))
	require.NoError(t, err)

	spy := &spyRegistrar{}
	err = dsl.Build(spy, tree, dsl.NewBindings().Handler("party", func(*command.Executor) error { return nil }))
	require.ErrorIs(t, err, dsl.ErrUnboundName)
	assert.Contains(t, err.Error(), `"guild invite"`)
	assert.Empty(t, spy.names)
}

func TestBuild_TakenRootLabelRegistersNothing(t *testing.T) {
	tree, err := dsl.Parse([]byte(`
commands:
  - name: party
  - name: guild
    aliases: [g]
`))
	require.NoError(t, err)

	spy := &spyRegistrar{taken: map[string]bool{"g": true}}
	err = dsl.Build(spy, tree, nil)
	require.ErrorIs(t, err, domain.ErrDuplicateCommand)
	assert.Empty(t, spy.names)
}

func TestBuild_TakenRootLabelOnEngine(t *testing.T) {
	eng := arbor.New()
	eng.MustRegister("guild")
	tree, err := dsl.Parse([]byte("commands:\n  - name: party\n  - name: GUILD\n"))
	require.NoError(t, err)

	require.ErrorIs(t, dsl.Build(eng, tree, nil), domain.ErrDuplicateCommand)
	_, ok := eng.Lookup("party")
	assert.False(t, ok)
}

func TestBuild_NilTree(t *testing.T) {
	assert.ErrorIs(t, dsl.Build(&spyRegistrar{}, nil, nil), dsl.ErrInvalidTree)
}
