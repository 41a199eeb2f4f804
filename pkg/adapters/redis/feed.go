// Package redis carries disconnect notifications and distributed locks
// between hosts sharing Arbor command trees.
package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

// DefaultChannel is the pub/sub channel disconnect notifications travel on.
const DefaultChannel = "arbor:disconnect"

// Feed subscribes to a channel and reports every published caller id to a
// Disconnector. It implements ports.DisconnectSource.
type Feed struct {
	client  backend.UniversalClient
	target  ports.Disconnector
	channel string
	logger  *slog.Logger
	ready   chan struct{}
}

var _ ports.DisconnectSource = (*Feed)(nil)

// FeedOption configures a Feed.
type FeedOption func(*Feed)

// WithChannel overrides DefaultChannel.
func WithChannel(channel string) FeedOption {
	return func(f *Feed) {
		if channel != "" {
			f.channel = channel
		}
	}
}

// WithLogger configures a logger for the Feed.
func WithLogger(logger *slog.Logger) FeedOption {
	return func(f *Feed) {
		f.logger = logger
	}
}

// NewFeed creates a feed delivering to target.
func NewFeed(client backend.UniversalClient, target ports.Disconnector, opts ...FeedOption) *Feed {
	f := &Feed{
		client:  client,
		target:  target,
		channel: DefaultChannel,
		logger:  logging.NewNop(),
		ready:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Ready is closed once the subscription is confirmed by the server.
func (f *Feed) Ready() <-chan struct{} {
	return f.ready
}

// Run consumes notifications until ctx is done. It returns nil on
// cancellation and an error if the subscription fails or is closed.
func (f *Feed) Run(ctx context.Context) error {
	sub := f.client.Subscribe(ctx, f.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("subscribe %s: %w", f.channel, err)
	}
	close(f.ready)
	f.logger.Info("disconnect feed subscribed", "channel", f.channel)

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return errors.New("disconnect feed: subscription closed")
			}
			id := strings.TrimSpace(msg.Payload)
			if id == "" {
				continue
			}
			f.logger.Debug("remote disconnect", "caller_id", id)
			f.target.Disconnect(id)
		}
	}
}

// Publisher announces disconnects to every host running a Feed on the same channel.
type Publisher struct {
	client  backend.UniversalClient
	channel string
}

// NewPublisher creates a publisher. An empty channel means DefaultChannel.
func NewPublisher(client backend.UniversalClient, channel string) *Publisher {
	if channel == "" {
		channel = DefaultChannel
	}
	return &Publisher{client: client, channel: channel}
}

// Disconnect publishes callerID.
func (p *Publisher) Disconnect(ctx context.Context, callerID string) error {
	if err := p.client.Publish(ctx, p.channel, callerID).Err(); err != nil {
		return fmt.Errorf("publish disconnect: %w", err)
	}
	return nil
}
