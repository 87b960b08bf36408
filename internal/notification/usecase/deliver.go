package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sdwijaya/herald/internal/notification/entity"
	"github.com/sdwijaya/herald/internal/pkg/goerror"
	"github.com/sdwijaya/herald/internal/shared/event"
)

// maxBackoff caps the exponential retry delay.
const maxBackoff = time.Minute

// Deliver runs one delivery attempt for the notification. It claims the
// record with a conditional transition to PROCESSING, invokes the channel
// adapter under a timeout, and books the outcome: SENT, a retry wait in
// QUEUED, or FAILED plus a dead-letter publish once the attempt budget is
// spent.
func (s *Usecase) Deliver(ctx context.Context, notificationID int64) error {
	ctx, span := s.startSpan(ctx, "Deliver")
	defer span.End()

	n, err := s.repoDB.GetNotification(ctx, notificationID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "notification to deliver not found", "notification_id", notificationID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get notification %d: %w", notificationID, err)
	}

	switch n.Status {
	case entity.StatusPending, entity.StatusScheduled, entity.StatusQueued:
		if n.Expired(s.clock.Now()) {
			return s.failNotification(ctx, n.ID, n.Status, "expired")
		}

		applied, err := s.repoDB.UpdateStatus(ctx, entity.UpdateStatus{
			ID:             n.ID,
			ExpectedStatus: n.Status,
			Status:         entity.StatusProcessing,
			ClearSchedule:  true,
		})
		if err != nil {
			return fmt.Errorf("claim notification %d: %w", n.ID, err)
		}
		if !applied {
			slog.InfoContext(ctx, "notification taken by another worker", "notification_id", n.ID)
			return nil
		}
	case entity.StatusProcessing:
		// already claimed by the stage that published this message
		if n.Expired(s.clock.Now()) {
			return s.failNotification(ctx, n.ID, n.Status, "expired")
		}
	default:
		slog.InfoContext(ctx, "notification not deliverable, skipping",
			"notification_id", n.ID,
			"status", n.Status.String(),
		)

		return nil
	}

	providerRef, sendErr := s.send(ctx, *n)
	attempt := entity.DeliveryAttempt{
		NotificationID: n.ID,
		Attempt:        n.RetryCount + 1,
		Success:        sendErr == nil,
		ProviderRef:    providerRef,
		AttemptedAt:    s.clock.Now(),
	}
	if sendErr != nil {
		attempt.FailReason = sendErr.Error()
	}

	if err := s.repoDB.AppendAttempt(ctx, attempt); err != nil {
		slog.ErrorContext(ctx, "failed to repo append delivery attempt", "notification_id", n.ID, "error", err)
	}

	if sendErr == nil {
		return s.markSent(ctx, *n, providerRef)
	}

	return s.bookFailure(ctx, *n, sendErr)
}

// send invokes the channel adapter under the configured timeout. A
// missing adapter is a permanent failure.
func (s *Usecase) send(ctx context.Context, n entity.Notification) (string, error) {
	adapter, ok := s.adapters[n.Channel]
	if !ok {
		return "", fmt.Errorf("no adapter for channel %s: %w", n.Channel.String(), entity.ErrPermanentDelivery)
	}

	ctx, cancel := context.WithTimeout(ctx, s.settings.adapterTimeout)
	defer cancel()

	return adapter.Send(ctx, n)
}

func (s *Usecase) markSent(ctx context.Context, n entity.Notification, providerRef string) error {
	sentAt := s.clock.Now()

	if _, err := s.repoDB.UpdateStatus(ctx, entity.UpdateStatus{
		ID:             n.ID,
		ExpectedStatus: entity.StatusProcessing,
		Status:         entity.StatusSent,
		SentAt:         &sentAt,
	}); err != nil {
		return fmt.Errorf("mark notification %d sent: %w", n.ID, err)
	}

	slog.InfoContext(ctx, "notification sent",
		"notification_id", n.ID,
		"user_id", n.UserID,
		"channel", n.Channel.String(),
		"attempt", n.RetryCount+1,
		"provider_ref", providerRef,
	)

	return nil
}

// bookFailure applies the retry policy after a failed attempt. Transient
// failures wait out an exponential backoff in QUEUED; permanent failures
// and an exhausted budget end in FAILED with one dead-letter publish.
func (s *Usecase) bookFailure(ctx context.Context, n entity.Notification, sendErr error) error {
	retryCount := n.RetryCount + 1
	reason := sendErr.Error()
	attemptedAt := s.clock.Now()

	permanent := errors.Is(sendErr, entity.ErrPermanentDelivery)
	if !permanent && retryCount < s.settings.maxRetries {
		wakeup := attemptedAt.Add(backoff(retryCount))

		if _, err := s.repoDB.UpdateStatus(ctx, entity.UpdateStatus{
			ID:             n.ID,
			ExpectedStatus: entity.StatusProcessing,
			Status:         entity.StatusQueued,
			ScheduledFor:   &wakeup,
			RetryCount:     &retryCount,
			LastRetryAt:    &attemptedAt,
			FailReason:     &reason,
		}); err != nil {
			return fmt.Errorf("queue notification %d for retry: %w", n.ID, err)
		}

		slog.WarnContext(ctx, "delivery failed, retry queued",
			"notification_id", n.ID,
			"attempt", retryCount,
			"retry_at", wakeup,
			"error", sendErr,
		)

		return nil
	}

	if _, err := s.repoDB.UpdateStatus(ctx, entity.UpdateStatus{
		ID:             n.ID,
		ExpectedStatus: entity.StatusProcessing,
		Status:         entity.StatusFailed,
		RetryCount:     &retryCount,
		LastRetryAt:    &attemptedAt,
		FailReason:     &reason,
	}); err != nil {
		return fmt.Errorf("fail notification %d: %w", n.ID, err)
	}

	slog.ErrorContext(ctx, "delivery failed permanently",
		"notification_id", n.ID,
		"attempt", retryCount,
		"permanent", permanent,
		"error", sendErr,
	)

	if err := s.repoMQ.PublishDeadLetter(ctx, n.ID, s.originTopic(n), reason); err != nil {
		slog.ErrorContext(ctx, "failed to publish dead letter", "notification_id", n.ID, "error", err)
	}

	return nil
}

// backoff is the wait before retry attempt n, doubling per attempt.
func backoff(retry int32) time.Duration {
	d := time.Second * (1 << uint(retry))
	if d > maxBackoff {
		return maxBackoff
	}

	return d
}

// originTopic names the topic the notification last traveled on, for the
// dead-letter record.
func (s *Usecase) originTopic(n entity.Notification) string {
	switch {
	case n.IsDigest():
		return event.NotificationAggregatedDestination
	case n.Status == entity.StatusPending:
		return event.NotificationInDestination
	default:
		return event.NotificationScheduledDestination
	}
}
