package inbound

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/sdwijaya/herald/internal/pkg/config"
	"github.com/sdwijaya/herald/internal/pkg/goroutine"
	"github.com/sdwijaya/herald/internal/pkg/idempotency"
	"github.com/sdwijaya/herald/internal/pkg/instrument"
	"github.com/sdwijaya/herald/internal/pkg/messaging"
	"github.com/sdwijaya/herald/internal/pkg/uid"
	"github.com/sdwijaya/herald/internal/shared/event"
	"github.com/sethvargo/go-retry"
)

func RegisterMQConsumer(
	ctx context.Context,
	cfg config.Config,
	routine *goroutine.Manager,
	messenger messaging.Messaging,
	uuid uid.StringID,
	guard idempotency.Guard,
	uc ucConsumer,
	ins instrument.Instrumentation,
) {
	mqHandler := &MQHandler{uc: uc, uuid: uuid, guard: guard, ins: ins}

	enabledConsumerNames := cfg.GetArray("modules.notification.consumer_names")
	concurrency := int(cfg.GetInt32("modules.notification.consumer_concurrency"))
	if concurrency <= 0 {
		concurrency = 10
	}

	consumers := []struct {
		name    string
		topic   string
		handler messaging.Handler
	}{
		{
			name:    event.ConsumerOrchestrator,
			topic:   event.NotificationInDestination,
			handler: mqHandler.IngestedNotification,
		},
		{
			name:    event.ConsumerDelivery,
			topic:   event.NotificationScheduledDestination,
			handler: mqHandler.DeliverableNotification,
		},
		{
			name:    event.ConsumerDelivery,
			topic:   event.NotificationAggregatedDestination,
			handler: mqHandler.DeliverableNotification,
		},
	}

	for _, consumer := range consumers {
		if len(enabledConsumerNames) > 0 && !slices.Contains(enabledConsumerNames, consumer.name) {
			continue
		}

		routine.Go(ctx, func(pCtx context.Context) error {
			slog.InfoContext(pCtx, "running consumer", "consumer", consumer.name, "topic", consumer.topic)

			// Reconnect with fibonacci backoff; a broker outage must not
			// kill the consumer for good.
			backoff := retry.WithCappedDuration(30*time.Second, retry.NewFibonacci(time.Second))

			return retry.Do(pCtx, backoff, func(rCtx context.Context) error {
				err := messenger.Consume(rCtx,
					consumer.topic,
					consumer.handler,
					messaging.WithChannel(consumer.name),
					messaging.WithQueueGroup(consumer.name),
					messaging.WithGroup(consumer.name),
					messaging.WithAutoAck(true),
					messaging.WithConcurrency(concurrency),
					messaging.WithMaxInFlight(concurrency),
				)
				if err != nil && rCtx.Err() == nil {
					slog.ErrorContext(rCtx, "consumer stopped, reconnecting",
						"consumer", consumer.name,
						"topic", consumer.topic,
						"error", err,
					)

					return retry.RetryableError(err)
				}

				return err
			})
		})
	}
}
