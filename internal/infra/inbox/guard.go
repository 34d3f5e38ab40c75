package inbox

import (
	"context"
	"log/slog"

	"reva/internal/infra/outbox"
)

type Marker interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Forget(ctx context.Context, eventID string) error
}

// Once wraps next so each envelope id is handled at most once per consumer. A failed
// handling releases the mark again.
func Once(marks Marker, next outbox.EnvelopeHandler, logger *slog.Logger) outbox.EnvelopeHandler {
	return outbox.EnvelopeHandlerFunc(func(ctx context.Context, env outbox.Envelope) error {
		seen, err := marks.Seen(ctx, env.ID)
		if err != nil {
			return err
		}
		if seen {
			if logger != nil {
				logger.Debug("inbox duplicate skipped", "event_id", env.ID, "type", env.Type)
			}
			return nil
		}
		if err := next.HandleEnvelope(ctx, env); err != nil {
			if fErr := marks.Forget(ctx, env.ID); fErr != nil && logger != nil {
				logger.Warn("inbox mark not released", "event_id", env.ID, "error", fErr)
			}
			return err
		}
		return nil
	})
}
