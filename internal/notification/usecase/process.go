package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sdwijaya/herald/internal/notification/entity"
	"github.com/sdwijaya/herald/internal/pkg/goerror"
)

// Process is the orchestration step for a freshly ingested notification.
// It re-reads current state, evaluates policy, and routes the record to
// immediate delivery, the scheduler, or the aggregation buckets.
//
// The PENDING check plus conditional status updates make redelivered
// messages no-ops, so the bus may hand the same message to two workers.
func (s *Usecase) Process(ctx context.Context, notificationID int64) error {
	ctx, span := s.startSpan(ctx, "Process")
	defer span.End()

	n, err := s.repoDB.GetNotification(ctx, notificationID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "notification to process not found", "notification_id", notificationID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get notification %d: %w", notificationID, err)
	}

	if n.Status != entity.StatusPending {
		slog.InfoContext(ctx, "notification already routed, skipping",
			"notification_id", n.ID,
			"status", n.Status.String(),
		)

		return nil
	}

	now := s.clock.Now()
	if n.Expired(now) {
		return s.failNotification(ctx, n.ID, n.Status, "expired")
	}

	pref, err := s.repoDB.GetPreference(ctx, n.UserID)
	if errors.Is(err, goerror.ErrNotFound) {
		return s.failNotification(ctx, n.ID, n.Status, "user preferences not found")
	}
	if err != nil {
		return fmt.Errorf("get preference for user %d: %w", n.UserID, err)
	}
	usage, err := s.rateUsage(ctx, n.UserID, n.Channel, now)
	if err != nil {
		return fmt.Errorf("rate usage for user %d: %w", n.UserID, err)
	}

	decision := Decide(*n, *pref, usage, now)
	slog.InfoContext(ctx, "policy decided",
		"notification_id", n.ID,
		"user_id", n.UserID,
		"channel", n.Channel.String(),
		"priority", n.Priority.String(),
		"decision", decision.Kind.String(),
	)

	switch decision.Kind {
	case entity.DecisionReject:
		return s.failNotification(ctx, n.ID, n.Status, decision.Reason)

	case entity.DecisionDeliverNow:
		return s.Deliver(ctx, n.ID)

	case entity.DecisionDefer:
		return s.reschedule(ctx, n.ID, n.Status, entity.StatusScheduled, decision.At)

	case entity.DecisionThrottle:
		return s.reschedule(ctx, n.ID, n.Status, entity.StatusQueued, decision.At)

	case entity.DecisionAggregate:
		return s.routeToBucket(ctx, *n)

	default:
		return fmt.Errorf("unexpected policy decision %q for notification %d", decision.Kind.String(), n.ID)
	}
}

// failNotification moves the record to FAILED with a recorded reason. The
// rejection stays visible instead of being silently dropped.
func (s *Usecase) failNotification(ctx context.Context, id int64, expected entity.Status, reason string) error {
	applied, err := s.repoDB.UpdateStatus(ctx, entity.UpdateStatus{
		ID:             id,
		ExpectedStatus: expected,
		Status:         entity.StatusFailed,
		FailReason:     &reason,
	})
	if err != nil {
		return fmt.Errorf("fail notification %d: %w", id, err)
	}
	if !applied {
		slog.InfoContext(ctx, "notification taken by another worker", "notification_id", id)
		return nil
	}

	slog.InfoContext(ctx, "notification failed by policy", "notification_id", id, "reason", reason)

	return nil
}

// reschedule parks the record in a waiting state until at.
func (s *Usecase) reschedule(ctx context.Context, id int64, expected, next entity.Status, at time.Time) error {
	applied, err := s.repoDB.UpdateStatus(ctx, entity.UpdateStatus{
		ID:             id,
		ExpectedStatus: expected,
		Status:         next,
		ScheduledFor:   &at,
	})
	if err != nil {
		return fmt.Errorf("reschedule notification %d: %w", id, err)
	}
	if !applied {
		slog.InfoContext(ctx, "notification taken by another worker", "notification_id", id)
		return nil
	}

	slog.InfoContext(ctx, "notification rescheduled",
		"notification_id", id,
		"status", next.String(),
		"scheduled_for", at,
	)

	return nil
}
