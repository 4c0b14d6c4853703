package audit

import (
	"context"
	"log/slog"
)

// Worker drains the publisher inbox into the configured sinks, keeping sink
// latency off the request path. Sink failures are logged and skipped; the
// in-process store already holds the event.
type Worker struct {
	inbox  <-chan Event
	sinks  []Sink
	logger *slog.Logger
}

func NewWorker(inbox <-chan Event, logger *slog.Logger, sinks ...Sink) *Worker {
	return &Worker{inbox: inbox, sinks: sinks, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			for _, sink := range w.sinks {
				if err := sink.Append(ctx, event); err != nil {
					w.logger.ErrorContext(ctx, "audit sink append failed",
						"event_id", event.ID,
						"action", event.Action,
						"error", err,
					)
				}
			}
		}
	}
}
