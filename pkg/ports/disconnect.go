package ports

import "context"

// DisconnectSource delivers disconnect notifications from outside the process
// to a Disconnector until ctx is done.
type DisconnectSource interface {
	Run(ctx context.Context) error
}
