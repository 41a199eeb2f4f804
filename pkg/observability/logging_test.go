package observability_test

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/observability"
	"github.com/stretchr/testify/assert"
)

func TestLogHooks_Levels(t *testing.T) {
	var buf bytes.Buffer
	hooks := observability.LogHooks(logging.NewWithWriter(&buf, slog.LevelInfo))

	hooks.Emit(&domain.CommandEvent{Type: domain.EventDispatch, Command: "invite", Caller: "alice"})
	assert.Empty(t, buf.String(), "debug events are filtered at info level")

	hooks.Emit(&domain.CommandEvent{Type: domain.EventDenied, Command: "invite", Label: "guild invite", Caller: "eve"})
	assert.Contains(t, buf.String(), "command_denied")
	assert.Contains(t, buf.String(), "caller=eve")

	buf.Reset()
	hooks.Emit(&domain.CommandEvent{
		Type:     domain.EventError,
		Command:  "invite",
		Caller:   "alice",
		Handler:  domain.HandlerDefault,
		JobID:    "j1",
		Duration: time.Millisecond,
		Err:      errors.New("db down"),
	})
	out := buf.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "job_id=j1")
	assert.Contains(t, out, `err="db down"`)
}
