// Package mq publishes pipeline events to the message bus.
package mq

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/sdwijaya/herald/internal/pkg/instrument"
	"github.com/sdwijaya/herald/internal/pkg/messaging"
	"github.com/sdwijaya/herald/internal/shared/event"
	"go.opentelemetry.io/otel/codes"
)

const keyOfCorrelationID = "cID"

type Messaging struct {
	client messaging.Publisher
	ins    instrument.Instrumentation
}

func New(client messaging.Publisher, ins instrument.Instrumentation) *Messaging {
	return &Messaging{client: client, ins: ins}
}

func (m *Messaging) PublishIngested(ctx context.Context, notificationID int64) error {
	return m.publish(ctx, "PublishIngested", event.NotificationInDestination, event.NotificationMessage{
		NotificationID: notificationID,
	}, notificationID)
}

func (m *Messaging) PublishScheduled(ctx context.Context, notificationID int64) error {
	return m.publish(ctx, "PublishScheduled", event.NotificationScheduledDestination, event.NotificationMessage{
		NotificationID: notificationID,
	}, notificationID)
}

func (m *Messaging) PublishAggregated(ctx context.Context, notificationID int64) error {
	return m.publish(ctx, "PublishAggregated", event.NotificationAggregatedDestination, event.NotificationMessage{
		NotificationID: notificationID,
	}, notificationID)
}

func (m *Messaging) PublishDeadLetter(ctx context.Context, notificationID int64, originalTopic, reason string) error {
	return m.publish(ctx, "PublishDeadLetter", event.NotificationDLQDestination, event.DeadLetterMessage{
		NotificationID: notificationID,
		OriginalTopic:  originalTopic,
		Reason:         reason,
		FailedAt:       time.Now().UTC(),
	}, notificationID)
}

func (m *Messaging) publish(ctx context.Context, spanName, topic string, payload any, key int64) error {
	ctx, span := m.ins.Tracer("notification.outbound.mq").Start(ctx, spanName)
	defer span.End()

	body, err := json.Marshal(payload)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	cID := instrument.GetCorrelationID(ctx)
	err = m.client.Publish(ctx, topic, messaging.OutgoingMessage{
		Body:    body,
		Key:     []byte(strconv.FormatInt(key, 10)),
		Headers: []messaging.Header{{Key: keyOfCorrelationID, Value: []byte(cID)}},
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
