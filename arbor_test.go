package arbor_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/internal/testutils"
	"github.com/aretw0/arbor/pkg/command"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_RegisterRejectsDuplicates(t *testing.T) {
	eng := arbor.New()
	_, err := eng.Register("guild", []string{"g"})
	require.NoError(t, err)

	_, err = eng.Register("G", nil)
	assert.ErrorIs(t, err, domain.ErrDuplicateCommand)

	_, err = eng.Register("party", []string{"GUILD"})
	assert.ErrorIs(t, err, domain.ErrDuplicateCommand)

	_, ok := eng.Lookup("party")
	assert.False(t, ok, "a rejected root must not be partially registered")

	_, err = eng.Register(" ", nil)
	assert.ErrorIs(t, err, domain.ErrBlankName)

	assert.Len(t, eng.Commands(), 1)
}

func TestEngine_ExecuteResolvesRootByLabel(t *testing.T) {
	eng := arbor.New()
	got := make(chan string, 1)
	eng.MustRegister("guild", "g").MustAddChild("invite").Handle(func(ex *command.Executor) error {
		got <- ex.Label()
		return nil
	})

	caller := testutils.NewCaller("console")
	require.NoError(t, eng.ExecuteLine(caller, "  G   invite  Bob "))
	assert.Equal(t, "G invite", testutils.Recv(t, got, time.Second))

	err := eng.ExecuteLine(caller, "party list")
	assert.ErrorIs(t, err, domain.ErrUnknownCommand)
	assert.False(t, eng.Execute(caller, "party", nil))

	assert.NoError(t, eng.ExecuteLine(caller, "   "))
}

func TestEngine_CompleteLine(t *testing.T) {
	eng := arbor.New(arbor.WithBaselineCompleter(ports.BaselineFunc(
		func(domain.Caller, string, []string) []string { return []string{"Alice", "Bob"} },
	)))
	guild := eng.MustRegister("guild", "g")
	guild.MustAddChild("invite")
	guild.MustAddChild("info")
	guild.MustAddChild("kick")
	eng.MustRegister("gamemode").SetPermission("server.admin")

	caller := testutils.NewCaller("user")

	assert.Equal(t, []string{"guild"}, eng.CompleteLine(caller, "g"))
	assert.Equal(t, []string{"guild", "gamemode"}, eng.CompleteLine(testutils.NewCaller("op", "*"), "g"))
	assert.Equal(t, []string{"invite", "info"}, eng.CompleteLine(caller, "guild i"))
	assert.Equal(t, []string{"invite", "info", "kick"}, eng.CompleteLine(caller, "g "))
	assert.Equal(t, []string{"Alice", "Bob"}, eng.CompleteLine(caller, "guild invite "))
	assert.Equal(t, []string{}, eng.CompleteLine(caller, "party x"))
}

func TestEngine_DisconnectCancelsTrackedJob(t *testing.T) {
	eng := arbor.New()
	started := make(chan struct{})
	eng.MustRegister("trade").
		SetCancelOnDisconnect(true).
		HandlePlayer(func(ex *command.Executor) error {
			close(started)
			<-ex.Context().Done()
			return ex.Context().Err()
		})

	eng.Execute(testutils.NewPlayer("p1", "Alice"), "trade", nil)
	testutils.Recv(t, started, time.Second)
	assert.Equal(t, 1, eng.Registry().Len())

	eng.Disconnect("p1")
	eng.Scope().Wait()
	assert.Zero(t, eng.Scope().Running())
}

func TestEngine_ShutdownCancelsEverything(t *testing.T) {
	var canceled []string
	done := make(chan struct{}, 2)
	eng := arbor.New(arbor.WithHooks(domain.Hooks{
		OnCanceled: func(e *domain.CommandEvent) {
			canceled = append(canceled, e.Command)
			done <- struct{}{}
		},
	}))
	started := make(chan struct{}, 2)
	block := func(ex *command.Executor) error {
		started <- struct{}{}
		<-ex.Context().Done()
		return ex.Context().Err()
	}
	eng.MustRegister("a").Handle(block)

	caller := testutils.NewCaller("console")
	eng.Execute(caller, "a", nil)
	testutils.Recv(t, started, time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, eng.Shutdown(ctx))
	testutils.Recv(t, done, time.Second)
	assert.Equal(t, []string{"a"}, canceled)
}

func TestEngine_ShutdownTimesOutOnStuckHandler(t *testing.T) {
	eng := arbor.New()
	release := make(chan struct{})
	started := make(chan struct{})
	eng.MustRegister("stuck").Handle(func(*command.Executor) error {
		close(started)
		<-release
		return nil
	})
	eng.Execute(testutils.NewCaller("console"), "stuck", nil)
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := eng.Shutdown(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	eng.Scope().Wait()
}

func TestEngine_ContextBoundsScope(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	eng := arbor.New(arbor.WithContext(parent))
	cancel()
	assert.ErrorIs(t, eng.Scope().Err(), context.Canceled)
}

func TestEngine_DescribeAllRoots(t *testing.T) {
	eng := arbor.New()
	eng.MustRegister("guild").MustAddChild("invite")
	eng.MustRegister("party")

	d := eng.Describe()
	require.Len(t, d, 2)
	assert.Equal(t, "guild", d[0].Name)
	assert.Equal(t, "invite", d[0].Children[0].Name)
	assert.Equal(t, "party", d[1].Name)
}

func TestEngine_RunWaitsForHandler(t *testing.T) {
	eng := arbor.New()
	eng.MustRegister("slow").Handle(func(ex *command.Executor) error {
		time.Sleep(10 * time.Millisecond)
		ex.Reply("done")
		return nil
	})
	eng.MustRegister("locked").SetPermission("x").SetPermissionMessage("no")

	caller := testutils.NewCaller("console")
	require.NoError(t, eng.Run(context.Background(), caller, "slow"))
	assert.Equal(t, []string{"done"}, caller.Messages())

	require.NoError(t, eng.Run(context.Background(), caller, "locked"))
	assert.Equal(t, []string{"done", "no"}, caller.Messages())

	assert.ErrorIs(t, eng.Run(context.Background(), caller, "nope"), domain.ErrUnknownCommand)
}

func TestEngine_RunGivesUpWithContext(t *testing.T) {
	eng := arbor.New()
	release := make(chan struct{})
	eng.MustRegister("stuck").Handle(func(*command.Executor) error {
		<-release
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := eng.Run(ctx, testutils.NewCaller("console"), "stuck")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	eng.Scope().Wait()
}
