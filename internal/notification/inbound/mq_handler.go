package inbound

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/sdwijaya/herald/internal/pkg/idempotency"
	"github.com/sdwijaya/herald/internal/pkg/instrument"
	"github.com/sdwijaya/herald/internal/pkg/messaging"
	"github.com/sdwijaya/herald/internal/pkg/uid"
	"github.com/sdwijaya/herald/internal/shared/event"
)

const keyOfCorrelationID string = "cID"

type MQHandler struct {
	uc    ucConsumer
	uuid  uid.StringID
	guard idempotency.Guard
	ins   instrument.Instrumentation
}

func (h *MQHandler) ensureCorrelationID(ctx context.Context, headers []messaging.Header) context.Context {
	for i := range headers {
		if headers[i].Key == keyOfCorrelationID {
			return instrument.SetCorrelationID(ctx, string(headers[i].Value))
		}
	}
	return instrument.SetCorrelationID(ctx, h.uuid.Generate())
}

// handle decodes the thin event payload and runs fn under the
// idempotency guard, so a broker redelivery of an already-processed
// message is acked without a second run. A message without a broker ID
// runs unguarded; the usecase's conditional status updates still hold.
func (h *MQHandler) handle(ctx context.Context, spanName string, msg messaging.Message, fn func(ctx context.Context, notificationID int64) error) error {
	ctx = h.ensureCorrelationID(ctx, msg.Headers())

	ctx, span := h.ins.Tracer("notification.inbound.mq").Start(ctx, spanName)
	defer span.End()

	body := msg.Body()

	var payload event.NotificationMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse pipeline message, dropping",
			"topic", msg.Topic(),
			"msg_body", string(body),
			"error", err,
		)

		return nil
	}

	run := func(ctx context.Context) error { return fn(ctx, payload.NotificationID) }

	if msg.ID() == "" {
		return run(ctx)
	}

	err := h.guard.Exec(ctx, msg.Topic()+":"+msg.ID(), run)
	if errors.Is(err, idempotency.ErrCompleted) || errors.Is(err, idempotency.ErrInProgress) {
		slog.InfoContext(ctx, "message already handled, acking",
			"topic", msg.Topic(),
			"message_id", msg.ID(),
			"notification_id", payload.NotificationID,
		)

		return nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to handle pipeline message",
			"topic", msg.Topic(),
			"notification_id", payload.NotificationID,
			"error", err,
		)

		return err
	}

	return nil
}

// IngestedNotification routes a freshly created notification through the
// policy engine.
func (h *MQHandler) IngestedNotification(ctx context.Context, msg messaging.Message) error {
	return h.handle(ctx, "IngestedNotification", msg, h.uc.Process)
}

// DeliverableNotification runs a delivery attempt for a notification
// whose wait ended, whether it came from the scheduler or a digest.
func (h *MQHandler) DeliverableNotification(ctx context.Context, msg messaging.Message) error {
	return h.handle(ctx, "DeliverableNotification", msg, h.uc.Deliver)
}
