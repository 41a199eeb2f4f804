// Package guard serializes command handlers that must not run concurrently
// for the same key, locally and optionally across hosts.
package guard

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/command"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
)

// DefaultTTL bounds how long a distributed lock outlives a crashed holder.
const DefaultTTL = 30 * time.Second

// lockEntry is a one-slot semaphore with a reference count.
type lockEntry struct {
	mu   chan struct{}
	refs int
}

// Guard hands out per-key exclusive sections. Unused keys are garbage
// collected by reference counting.
type Guard struct {
	mu    sync.Mutex
	locks map[string]*lockEntry

	locker ports.DistributedLocker
	ttl    time.Duration
	logger *slog.Logger
}

// Option configures the Guard.
type Option func(*Guard)

// WithLocker adds a distributed lock on top of the local one.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(g *Guard) {
		g.locker = locker
	}
}

// WithTTL sets the distributed lock TTL.
func WithTTL(ttl time.Duration) Option {
	return func(g *Guard) {
		g.ttl = ttl
	}
}

// WithLogger configures a logger for the Guard.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Guard) {
		g.logger = logger
	}
}

// New creates a Guard.
func New(opts ...Option) *Guard {
	g := &Guard{
		locks:  make(map[string]*lockEntry),
		ttl:    DefaultTTL,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Guard) acquire(key string) *lockEntry {
	g.mu.Lock()
	defer g.mu.Unlock()

	entry, exists := g.locks[key]
	if !exists {
		entry = &lockEntry{mu: make(chan struct{}, 1)}
		g.locks[key] = entry
	}
	entry.refs++
	return entry
}

func (g *Guard) release(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	entry, exists := g.locks[key]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(g.locks, key)
	}
}

// Held returns the number of keys currently locked or waited on.
func (g *Guard) Held() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.locks)
}

// WithLock runs fn while holding the lock for key. Waiting gives up when ctx
// is done, so a cancelled command never queues forever.
func (g *Guard) WithLock(ctx context.Context, key string, fn func(context.Context) error) error {
	entry := g.acquire(key)
	defer g.release(key)

	select {
	case entry.mu <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-entry.mu }()
	return g.locked(ctx, key, fn)
}

// TryLock is like WithLock but returns busy instead of waiting when the key
// is held in this process.
func (g *Guard) TryLock(ctx context.Context, key string, busy error, fn func(context.Context) error) error {
	entry := g.acquire(key)
	defer g.release(key)

	select {
	case entry.mu <- struct{}{}:
	default:
		return busy
	}
	defer func() { <-entry.mu }()
	return g.locked(ctx, key, fn)
}

// locked runs fn with the local lock for key already held.
func (g *Guard) locked(ctx context.Context, key string, fn func(context.Context) error) error {
	if g.locker != nil {
		unlock, err := g.locker.Lock(ctx, key, g.ttl)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			// ctx may already be cancelled; the release must still go out.
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				g.logger.Warn("failed to release distributed lock (will expire via TTL)",
					"key", key,
					"err", err,
				)
			}
		}()
	}
	return fn(ctx)
}

// KeyFunc derives the lock key of an invocation. An empty key runs the
// handler without locking.
type KeyFunc func(ex *command.Executor) string

// Exclusive wraps h so invocations with the same key run one at a time.
func (g *Guard) Exclusive(key KeyFunc, h command.Handler) command.Handler {
	return func(ex *command.Executor) error {
		k := key(ex)
		if k == "" {
			return h(ex)
		}
		return g.WithLock(ex.Context(), k, func(context.Context) error {
			return h(ex)
		})
	}
}

// Rejecting wraps h so an invocation whose key is already running locally
// fails with busyMessage instead of waiting.
func (g *Guard) Rejecting(key KeyFunc, busyMessage string, h command.Handler) command.Handler {
	return func(ex *command.Executor) error {
		k := key(ex)
		if k == "" {
			return h(ex)
		}
		return g.TryLock(ex.Context(), k, domain.Fail(busyMessage), func(context.Context) error {
			return h(ex)
		})
	}
}

// ByCommand keys on the node name and the first argument, ignoring case,
// e.g. "create:knights".
func ByCommand(ex *command.Executor) string {
	arg, _ := ex.Arg(0)
	return ex.Node().Name() + ":" + strings.ToLower(arg)
}

// ByCaller keys on the caller name.
func ByCaller(ex *command.Executor) string {
	return ex.Caller().Name()
}
