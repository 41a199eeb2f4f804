package cli

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/pkg/adapters/console"
	"github.com/aretw0/arbor/pkg/command"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(t *testing.T) *arbor.Engine {
	t.Helper()
	eng := arbor.New()
	eng.MustRegister("ping").Handle(func(ex *command.Executor) error {
		ex.Reply("pong")
		return nil
	})
	eng.MustRegister("pick", "choose").SetUsageMessage("/pick <thing>")
	return eng
}

func runConsole(t *testing.T, eng *arbor.Engine, input string) string {
	t.Helper()
	var buf bytes.Buffer
	out := NewSyncWriter(&buf)
	err := RunConsole(context.Background(), eng, ConsoleOptions{
		In:     strings.NewReader(input),
		Out:    out,
		Caller: console.NewOperator(out),
	})
	require.NoError(t, err)
	eng.Scope().Wait()
	return buf.String()
}

func TestRunConsole_ExecutesUntilExit(t *testing.T) {
	eng := newEngine(t)
	out := runConsole(t, eng, "ping\n\nexit\nping\n")
	assert.Equal(t, 1, strings.Count(out, "pong"), "lines after exit are ignored")
}

func TestRunConsole_Completion(t *testing.T) {
	out := runConsole(t, newEngine(t), "?pi\n?zzz\n")
	assert.Contains(t, out, ">>> ping  pick\n")
	assert.Contains(t, out, ">>> No completions.\n")
}

func TestRunConsole_UnknownCommand(t *testing.T) {
	out := runConsole(t, newEngine(t), "dance now\n")
	assert.Equal(t, ">>> Unknown command \"dance\". Type 'tree' to list commands.\n", out)
}

func TestRunConsole_Tree(t *testing.T) {
	out := runConsole(t, newEngine(t), "tree\n")
	assert.Contains(t, out, "- **ping**\n")
	assert.Contains(t, out, "- **pick** (choose) /pick <thing>\n")
}

func TestRunConsole_RenderOverridesTree(t *testing.T) {
	eng := newEngine(t)
	var buf bytes.Buffer
	err := RunConsole(context.Background(), eng, ConsoleOptions{
		In:     strings.NewReader("tree\n"),
		Out:    &buf,
		Caller: console.NewOperator(io.Discard),
		Render: func(string) (string, error) { return "rendered\n", nil },
	})
	require.NoError(t, err)
	assert.Equal(t, "rendered\n", buf.String())
}

func TestRunConsole_PromptWhenInteractive(t *testing.T) {
	eng := newEngine(t)
	var buf bytes.Buffer
	err := RunConsole(context.Background(), eng, ConsoleOptions{
		In:     strings.NewReader("q\n"),
		Out:    &buf,
		Caller: console.NewOperator(io.Discard),
		Prompt: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "> ", buf.String())
}

func TestRunConsole_StopsOnContextCancel(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- RunConsole(ctx, newEngine(t), ConsoleOptions{
			In:     pr,
			Out:    io.Discard,
			Caller: console.NewOperator(io.Discard),
		})
	}()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err, "interruption is a clean exit")
	case <-time.After(time.Second):
		t.Fatal("console did not stop")
	}
}

func TestRunConsole_RequiresCaller(t *testing.T) {
	err := RunConsole(context.Background(), newEngine(t), ConsoleOptions{In: strings.NewReader("")})
	assert.ErrorIs(t, err, domain.ErrUnknownCaller)
}

func TestSignalContext_CancelWithoutSignal(t *testing.T) {
	sc := NewSignalContext(context.Background())
	sc.Cancel()
	<-sc.Done()
	assert.Nil(t, sc.Signal())
}
