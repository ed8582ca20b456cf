package worker

import (
	"context"
	"log/slog"

	audit "github.com/WenyeZhou51/rcssa-match-backend/pkg/platform/audit"
)

// Sink receives events after they are persisted, typically a Kafka producer.
type Sink interface {
	Publish(ctx context.Context, event audit.Event) error
}

// Worker drains the publisher inbox, persists each event, and forwards it to
// the sink when one is configured. A sink failure is logged, not fatal: the
// store write already succeeded.
type Worker struct {
	store  audit.Store
	sink   Sink
	inbox  <-chan audit.Event
	logger *slog.Logger
}

func New(store audit.Store, inbox <-chan audit.Event, logger *slog.Logger) *Worker {
	return &Worker{store: store, inbox: inbox, logger: logger}
}

// WithSink attaches a downstream sink.
func (w *Worker) WithSink(sink Sink) *Worker {
	w.sink = sink
	return w
}

// Run processes events until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil {
				w.logger.Error("append audit event", "action", event.Action, "error", err)
				continue
			}
			if w.sink == nil {
				continue
			}
			if err := w.sink.Publish(ctx, event); err != nil {
				w.logger.Error("publish audit event", "action", event.Action, "error", err)
			}
		}
	}
}
