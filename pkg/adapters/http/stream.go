package http

import (
	"log/slog"
	"sync"
)

// StreamManager fans caller messages out to SSE subscribers.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{} // caller id -> channels
	logger      *slog.Logger
}

func NewStreamManager(logger *slog.Logger) *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
		logger:      logger,
	}
}

// Subscribe registers a channel for callerID. The returned func unsubscribes
// and closes the channel.
func (sm *StreamManager) Subscribe(callerID string) (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 16)
	if _, ok := sm.subscribers[callerID]; !ok {
		sm.subscribers[callerID] = make(map[chan<- string]struct{})
	}
	sm.subscribers[callerID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[callerID]; ok {
			if _, live := subs[ch]; !live {
				return
			}
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, callerID)
			}
		}
	}
}

// Broadcast delivers msg to every subscriber of callerID without blocking.
func (sm *StreamManager) Broadcast(callerID, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[callerID] {
		select {
		case ch <- msg:
		default:
			// slow client
			sm.logger.Warn("sse buffer full, dropping message", "caller_id", callerID)
		}
	}
}

// Subscribers returns the number of open streams for callerID.
func (sm *StreamManager) Subscribers(callerID string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[callerID])
}
