package command_test

import (
	"bytes"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/internal/testutils"
	"github.com/aretw0/arbor/pkg/command"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type errorSink struct {
	mu    sync.Mutex
	errs  []error
	execs []*command.Executor
}

func (s *errorSink) handle(ex *command.Executor, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs = append(s.errs, err)
	s.execs = append(s.execs, ex)
}

func (s *errorSink) all() []error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]error(nil), s.errs...)
}

func TestFailure_DeliversMessageAndRunsFollowUp(t *testing.T) {
	sink := &errorSink{}
	var followed atomic.Bool
	root := newTree(t, command.WithErrorHandler(sink.handle))
	root.Handle(func(*command.Executor) error {
		return domain.FailThen("Bob is not online", func() { followed.Store(true) })
	})

	caller := testutils.NewCaller("console")
	root.Execute(caller, "guild", nil)
	root.Scope().Wait()

	assert.Equal(t, []string{"Bob is not online"}, caller.Messages())
	assert.True(t, followed.Load())
	assert.Empty(t, sink.all())
}

func TestFailure_WrappedAndSilent(t *testing.T) {
	sink := &errorSink{}
	var followed atomic.Bool
	root := newTree(t, command.WithErrorHandler(sink.handle))
	root.MustAddChild("wrapped").Handle(func(*command.Executor) error {
		return errors.Join(errors.New("ctx"), domain.Failf("no such guild %q", "x"))
	})
	root.MustAddChild("silent").Handle(func(*command.Executor) error {
		return domain.FailSilently(func() { followed.Store(true) })
	})
	root.MustAddChild("panics").Handle(func(*command.Executor) error {
		panic(domain.Fail("bad input"))
	})

	caller := testutils.NewCaller("console")
	root.Execute(caller, "guild", []string{"wrapped"})
	root.Execute(caller, "guild", []string{"silent"})
	root.Scope().Wait()
	root.Execute(caller, "guild", []string{"panics"})
	root.Scope().Wait()

	assert.Equal(t, []string{`no such guild "x"`, "bad input"}, caller.Messages())
	assert.True(t, followed.Load())
	assert.Empty(t, sink.all())
}

func TestFailure_UnexpectedErrorReachesHandlerOnce(t *testing.T) {
	sink := &errorSink{}
	boom := errors.New("boom")
	root := newTree(t, command.WithErrorHandler(sink.handle))
	child := root.MustAddChild("invite")
	child.Handle(func(*command.Executor) error { return boom })

	caller := testutils.NewCaller("console")
	root.Execute(caller, "guild", []string{"invite", "Bob"})
	root.Scope().Wait()

	errs := sink.all()
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], boom)
	assert.Empty(t, caller.Messages(), "unexpected errors never produce a failure message")

	ex := sink.execs[0]
	assert.Equal(t, "guild invite", ex.Label())
	assert.Equal(t, []string{"Bob"}, ex.Args())
	assert.Same(t, child, ex.Node())
	assert.Same(t, caller, ex.Caller())
}

func TestFailure_PanicReachesHandlerAsPanicError(t *testing.T) {
	sink := &errorSink{}
	root := newTree(t, command.WithErrorHandler(sink.handle))
	root.Handle(func(*command.Executor) error {
		panic("kaboom")
	})

	root.Execute(testutils.NewCaller("console"), "guild", nil)
	root.Scope().Wait()

	errs := sink.all()
	require.Len(t, errs, 1)
	var p *domain.PanicError
	require.ErrorAs(t, errs[0], &p)
	assert.Equal(t, "kaboom", p.Value)
	assert.NotEmpty(t, p.Stack)
	assert.Zero(t, root.Scope().Running())
}

func TestFailure_CancellationIsNotAnError(t *testing.T) {
	sink := &errorSink{}
	var canceled atomic.Int32
	root := newTree(t,
		command.WithErrorHandler(sink.handle),
		command.WithHooks(domain.Hooks{OnCanceled: func(*domain.CommandEvent) { canceled.Add(1) }}),
	)
	started := make(chan struct{})
	root.Handle(func(ex *command.Executor) error {
		close(started)
		<-ex.Context().Done()
		return ex.Context().Err()
	})

	root.Execute(testutils.NewCaller("console"), "guild", nil)
	<-started
	root.Scope().Cancel()
	root.Scope().Wait()

	assert.Empty(t, sink.all())
	assert.Equal(t, int32(1), canceled.Load())
}

func TestFailure_ChildInheritsErrorHandler(t *testing.T) {
	sink := &errorSink{}
	root := newTree(t, command.WithErrorHandler(sink.handle))
	child := root.MustAddChild("invite")
	root.SetErrorHandler(nil)
	child.Handle(func(*command.Executor) error { return errors.New("boom") })

	root.Execute(testutils.NewCaller("console"), "guild", []string{"invite"})
	root.Scope().Wait()
	assert.Len(t, sink.all(), 1)
}

func TestNotifyErrors_TellsCallerAndDelegates(t *testing.T) {
	sink := &errorSink{}
	root := newTree(t, command.WithErrorHandler(command.NotifyErrors("An internal error occurred.", sink.handle)))
	root.Handle(func(*command.Executor) error { return errors.New("db down") })

	caller := testutils.NewCaller("console")
	root.Execute(caller, "guild", nil)
	root.Scope().Wait()

	assert.Equal(t, []string{"An internal error occurred."}, caller.Messages())
	assert.Len(t, sink.all(), 1)
}

func TestLogErrors_WritesStructuredRecord(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWithWriter(&buf, slog.LevelDebug)
	root := newTree(t, command.WithLogger(logger), command.WithErrorHandler(command.LogErrors(logger)))
	root.Handle(func(*command.Executor) error { return errors.New("db down") })

	root.Execute(testutils.NewCaller("console"), "guild", []string{"x"})
	root.Scope().Wait()

	out := buf.String()
	assert.Contains(t, out, "command failed unexpectedly")
	assert.Contains(t, out, "err=\"db down\"")
	assert.Contains(t, out, "caller=console")
}

func TestExecutor_UsageAndArgs(t *testing.T) {
	root := newTree(t, command.WithUsageMessage("/guild invite <player>"))
	invite := root.MustAddChild("invite")
	got := make(chan []string, 1)
	invite.Handle(func(ex *command.Executor) error {
		if err := ex.RequireArgs(1); err != nil {
			return err
		}
		name, _ := ex.Arg(0)
		_, ok := ex.Arg(5)
		if ok {
			t.Error("out-of-range argument reported present")
		}
		ex.Replyf("invited %s", name)
		got <- ex.Args()
		return nil
	})

	caller := testutils.NewCaller("console")
	root.Execute(caller, "guild", []string{"invite"})
	root.Scope().Wait()
	root.Execute(caller, "guild", []string{"invite", "Bob"})
	root.Scope().Wait()

	assert.Equal(t, []string{"/guild invite <player>", "invited Bob"}, caller.Messages())
	assert.Equal(t, []string{"Bob"}, <-got)
}
