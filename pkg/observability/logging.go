package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/arbor/pkg/domain"
)

// LogHooks logs every dispatch event. Denials and rejections are logged at
// info level, unexpected errors at warn (the error handler owns the error
// level), everything else at debug.
func LogHooks(logger *slog.Logger) domain.Hooks {
	at := func(level slog.Level) func(*domain.CommandEvent) {
		return func(e *domain.CommandEvent) {
			if !logger.Enabled(context.Background(), level) {
				return
			}
			attrs := []any{
				"command", e.Command,
				"label", e.Label,
				"caller", e.Caller,
			}
			if e.Handler != "" {
				attrs = append(attrs, "handler", e.Handler)
			}
			if e.JobID != "" {
				attrs = append(attrs, "job_id", e.JobID)
			}
			if e.Duration > 0 {
				attrs = append(attrs, "duration", e.Duration)
			}
			if e.Err != nil {
				attrs = append(attrs, "err", e.Err)
			}
			logger.Log(context.Background(), level, "command_"+string(e.Type), attrs...)
		}
	}
	return domain.Hooks{
		OnDispatch: at(slog.LevelDebug),
		OnDenied:   at(slog.LevelInfo),
		OnRejected: at(slog.LevelInfo),
		OnComplete: at(slog.LevelDebug),
		OnFailure:  at(slog.LevelDebug),
		OnError:    at(slog.LevelWarn),
		OnCanceled: at(slog.LevelDebug),
	}
}
