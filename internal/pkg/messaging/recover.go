package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/sdwijaya/herald/internal/pkg/stacktrace"
)

// safeHandle invokes the handler and converts a panic into an error so one
// bad message cannot take down the whole consumer loop.
func safeHandle(ctx context.Context, handler Handler, msg Message) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("messaging: handler panic: %v", rec)
			slog.ErrorContext(ctx, "message handler panicked",
				slog.String("topic", msg.Topic()),
				slog.String("message_id", msg.ID()),
				slog.Any("panic", rec),
				slog.Any("stack", stacktrace.Shorten(debug.Stack())),
			)
		}
	}()

	return handler(ctx, msg)
}

// finish applies auto-ack semantics after the handler returns.
func finish(ctx context.Context, msg Message, handlerErr error, autoAck bool) {
	if !autoAck {
		return
	}

	if handlerErr != nil {
		if err := msg.Nack(ctx); err != nil {
			slog.WarnContext(ctx, "failed to nack message",
				slog.String("topic", msg.Topic()),
				slog.String("message_id", msg.ID()),
				slog.Any("error", err),
			)
		}

		return
	}

	if err := msg.Ack(ctx); err != nil {
		slog.WarnContext(ctx, "failed to ack message",
			slog.String("topic", msg.Topic()),
			slog.String("message_id", msg.ID()),
			slog.Any("error", err),
		)
	}
}
