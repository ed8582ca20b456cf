package publisher

import (
	"context"
	"log/slog"
	"sync/atomic"

	audit "github.com/WenyeZhou51/rcssa-match-backend/pkg/platform/audit"
)

// Channel is a Publisher that hands events to a background worker over a
// buffered channel. Emit never blocks the request path: when the buffer is
// full the event is dropped and counted, which is acceptable for audit data
// in this service (the store of record is the registrant store itself).
type Channel struct {
	inbox   chan audit.Event
	dropped atomic.Int64
	logger  *slog.Logger
}

// NewChannel creates a channel publisher with the given buffer size.
func NewChannel(buffer int, logger *slog.Logger) *Channel {
	if buffer <= 0 {
		buffer = 256
	}
	return &Channel{
		inbox:  make(chan audit.Event, buffer),
		logger: logger,
	}
}

// Emit enqueues the event for the worker.
func (p *Channel) Emit(_ context.Context, event audit.Event) error {
	select {
	case p.inbox <- event:
	default:
		n := p.dropped.Add(1)
		if p.logger != nil {
			p.logger.Warn("audit inbox full, dropping event",
				"action", event.Action,
				"dropped_total", n,
			)
		}
	}
	return nil
}

// Inbox exposes the receive side for the worker.
func (p *Channel) Inbox() <-chan audit.Event {
	return p.inbox
}

// Dropped reports how many events have been dropped since startup.
func (p *Channel) Dropped() int64 {
	return p.dropped.Load()
}
