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

// RunScheduler ticks on the configured interval and wakes up deferred
// notifications whose time arrived. It returns when ctx is canceled,
// letting the in-flight tick finish first.
func (s *Usecase) RunScheduler(ctx context.Context) error {
	slog.InfoContext(ctx, "scheduler started", "interval", s.settings.schedulerInterval)

	ticker := time.NewTicker(s.settings.schedulerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "scheduler stopped")
			return nil
		case <-ticker.C:
			if err := s.SchedulerTick(ctx); err != nil {
				slog.ErrorContext(ctx, "scheduler tick failed", "error", err)
			}
		}
	}
}

// SchedulerTick processes one batch of due notifications. Policy is
// re-evaluated per record because preferences may have changed since the
// original deferral. A failing record is marked FAILED and the loop moves
// on; one bad record never aborts the batch.
func (s *Usecase) SchedulerTick(ctx context.Context) error {
	ctx, span := s.startSpan(ctx, "SchedulerTick")
	defer span.End()

	now := s.clock.Now()

	due, err := s.repoDB.FindDue(ctx, now, s.settings.schedulerBatch)
	if err != nil {
		return fmt.Errorf("find due notifications: %w", err)
	}
	if len(due) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "scheduler batch loaded", "count", len(due))

	for _, n := range due {
		if err := s.wakeup(ctx, n); err != nil {
			slog.ErrorContext(ctx, "failed to wake up notification", "notification_id", n.ID, "error", err)

			reason := "scheduler wakeup failed: " + err.Error()
			if ferr := s.failNotification(ctx, n.ID, n.Status, reason); ferr != nil {
				slog.ErrorContext(ctx, "failed to mark stuck notification failed",
					"notification_id", n.ID,
					"error", ferr,
				)
			}
		}
	}

	return nil
}

// wakeup re-decides policy for one due notification and routes it.
func (s *Usecase) wakeup(ctx context.Context, n entity.Notification) error {
	if n.Expired(s.clock.Now()) {
		return s.failNotification(ctx, n.ID, n.Status, "expired")
	}

	pref, err := s.repoDB.GetPreference(ctx, n.UserID)
	if errors.Is(err, goerror.ErrNotFound) {
		return s.failNotification(ctx, n.ID, n.Status, "user preferences not found")
	}
	if err != nil {
		return fmt.Errorf("get preference for user %d: %w", n.UserID, err)
	}

	now := s.clock.Now()
	usage, err := s.rateUsage(ctx, n.UserID, n.Channel, now)
	if err != nil {
		return fmt.Errorf("rate usage for user %d: %w", n.UserID, err)
	}

	decision := Decide(n, *pref, usage, now)

	switch decision.Kind {
	case entity.DecisionReject:
		return s.failNotification(ctx, n.ID, n.Status, decision.Reason)

	case entity.DecisionDefer:
		return s.reschedule(ctx, n.ID, n.Status, entity.StatusScheduled, decision.At)

	case entity.DecisionThrottle:
		return s.reschedule(ctx, n.ID, n.Status, entity.StatusQueued, decision.At)

	case entity.DecisionAggregate:
		return s.routeToBucket(ctx, n)

	case entity.DecisionDeliverNow:
		return s.dispatchDue(ctx, n)

	default:
		return fmt.Errorf("unexpected policy decision %q", decision.Kind.String())
	}
}

// dispatchDue claims the record and hands it to the delivery topic.
func (s *Usecase) dispatchDue(ctx context.Context, n entity.Notification) error {
	applied, err := s.repoDB.UpdateStatus(ctx, entity.UpdateStatus{
		ID:             n.ID,
		ExpectedStatus: n.Status,
		Status:         entity.StatusProcessing,
		ClearSchedule:  true,
	})
	if err != nil {
		return fmt.Errorf("claim due notification %d: %w", n.ID, err)
	}
	if !applied {
		slog.InfoContext(ctx, "due notification taken by another worker", "notification_id", n.ID)
		return nil
	}

	if err := s.repoMQ.PublishScheduled(ctx, n.ID); err != nil {
		return fmt.Errorf("publish due notification %d: %w", n.ID, err)
	}

	slog.InfoContext(ctx, "due notification dispatched",
		"notification_id", n.ID,
		"user_id", n.UserID,
		"channel", n.Channel.String(),
	)

	return nil
}
