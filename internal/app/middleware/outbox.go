package middleware

import (
	"context"

	"reva/internal/app/commands"
	"reva/internal/app/outbox"
)

// OutboxFlush stages event records for the wrapped command and enqueues them when it
// succeeds. Chained inside Transaction the enqueue shares the command's unit of work.
func OutboxFlush(box outbox.Outbox) CommandMiddleware {
	if box == nil {
		panic("middleware: outbox required")
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			ctx = box.Begin(ctx)
			res, err := nextFn(ctx, cmd)
			if err != nil {
				box.Discard(ctx)
				return nil, err
			}
			if err := box.Flush(ctx); err != nil {
				return nil, err
			}
			return res, nil
		})
	}
}
