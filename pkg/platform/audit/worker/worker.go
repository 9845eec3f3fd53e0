package worker

import (
	"context"
	"log/slog"

	"studbook/pkg/platform/audit"
)

// Worker consumes audit events from the publisher inbox and persists them.
// Sink failures are logged and the event dropped; the audit trail must never
// take the service down.
type Worker struct {
	sinks  []audit.Sink
	inbox  <-chan audit.Event
	logger *slog.Logger
}

func New(inbox <-chan audit.Event, logger *slog.Logger, sinks ...audit.Sink) *Worker {
	return &Worker{sinks: sinks, inbox: inbox, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			for _, sink := range w.sinks {
				if err := sink.Append(ctx, event); err != nil {
					w.logger.ErrorContext(ctx, "audit append failed",
						"event", string(event.Name),
						"error", err,
					)
				}
			}
		}
	}
}
