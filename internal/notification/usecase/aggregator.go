package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/sdwijaya/herald/internal/notification/entity"
)

type bucketKey struct {
	userID  int64
	channel entity.Channel
	hour    int64
}

type bucket struct {
	items []entity.Notification
}

// routeToBucket parks a low-priority notification for aggregation. The
// record moves to QUEUED with no wakeup time so the scheduler leaves it
// alone, then joins the in-memory bucket for its (user, channel, hour).
func (s *Usecase) routeToBucket(ctx context.Context, n entity.Notification) error {
	applied, err := s.repoDB.UpdateStatus(ctx, entity.UpdateStatus{
		ID:             n.ID,
		ExpectedStatus: n.Status,
		Status:         entity.StatusQueued,
		ClearSchedule:  true,
	})
	if err != nil {
		return fmt.Errorf("park notification %d for aggregation: %w", n.ID, err)
	}
	if !applied {
		slog.InfoContext(ctx, "notification taken by another worker", "notification_id", n.ID)
		return nil
	}

	key := bucketKey{
		userID:  n.UserID,
		channel: n.Channel,
		hour:    s.clock.Now().Truncate(time.Hour).Unix(),
	}

	s.bucketMu.Lock()
	b, ok := s.buckets[key]
	if !ok {
		b = &bucket{}
		s.buckets[key] = b
	}
	b.items = append(b.items, n)
	size := len(b.items)
	s.bucketMu.Unlock()

	s.aggregatedTotal.Inc()
	slog.InfoContext(ctx, "notification parked for aggregation",
		"notification_id", n.ID,
		"user_id", n.UserID,
		"channel", n.Channel.String(),
		"bucket_size", size,
	)

	return nil
}

// RunAggregator sweeps closed buckets on the configured interval. On
// shutdown every remaining bucket is flushed; buckets lost to a crash are
// an accepted at-most-once tradeoff, surfaced through the lost counter.
func (s *Usecase) RunAggregator(ctx context.Context) error {
	slog.InfoContext(ctx, "aggregator started", "sweep_interval", s.settings.aggregatorSweep)

	ticker := time.NewTicker(s.settings.aggregatorSweep)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.FlushBuckets(context.WithoutCancel(ctx))
			slog.InfoContext(ctx, "aggregator stopped")

			return nil
		case <-ticker.C:
			s.SweepBuckets(ctx)
		}
	}
}

// SweepBuckets closes every bucket whose hour key is at or before the
// current hour and digests its contents.
func (s *Usecase) SweepBuckets(ctx context.Context) {
	s.sweep(ctx, false)
}

// FlushBuckets closes every bucket regardless of age.
func (s *Usecase) FlushBuckets(ctx context.Context) {
	s.sweep(ctx, true)
}

func (s *Usecase) sweep(ctx context.Context, force bool) {
	ctx, span := s.startSpan(ctx, "SweepBuckets")
	defer span.End()

	currentHour := s.clock.Now().Truncate(time.Hour).Unix()

	s.bucketMu.Lock()
	closed := make(map[bucketKey]*bucket)
	for key, b := range s.buckets {
		if force || key.hour <= currentHour {
			closed[key] = b
			delete(s.buckets, key)
		}
	}
	s.bucketMu.Unlock()

	for key, b := range closed {
		if err := s.closeBucket(ctx, key, b.items); err != nil {
			s.lostBucketTotal.Inc()
			slog.ErrorContext(ctx, "failed to close aggregation bucket",
				"user_id", key.userID,
				"channel", key.channel.String(),
				"items", len(b.items),
				"lost_total", s.lostBucketTotal.Load(),
				"error", err,
			)
		}
	}
}

// closeBucket digests a bucket with two or more items into one summary
// notification; a singleton is promoted back to normal delivery since a
// one-item digest would only add wrapping.
func (s *Usecase) closeBucket(ctx context.Context, key bucketKey, items []entity.Notification) error {
	if len(items) == 0 {
		return nil
	}

	if len(items) == 1 {
		return s.promoteSingleton(ctx, items[0])
	}

	digestID := s.uid.Generate()
	scheduledFor := time.Unix(key.hour, 0).UTC()

	digest := entity.CreateNotification{
		ID:             digestID,
		UserID:         key.userID,
		Channel:        key.channel,
		Priority:       entity.PriorityLow,
		Category:       "digest",
		Subject:        fmt.Sprintf("You have %d notifications", len(items)),
		Message:        digestMessage(items),
		Status:         entity.StatusProcessing,
		ContentHash:    s.contentFingerprint(key.userID, key.channel, fmt.Sprintf("digest:%d:%d", key.hour, digestID)),
		ScheduledFor:   &scheduledFor,
		AggregatedFrom: lo.Map(items, func(n entity.Notification, _ int) int64 { return n.ID }),
	}

	if err := s.repoDB.CreateNotification(ctx, digest); err != nil {
		return fmt.Errorf("create digest: %w", err)
	}

	for _, item := range items {
		applied, err := s.repoDB.UpdateStatus(ctx, entity.UpdateStatus{
			ID:             item.ID,
			ExpectedStatus: entity.StatusQueued,
			Status:         entity.StatusAggregated,
			AggregatedInto: &digestID,
		})
		if err != nil {
			slog.ErrorContext(ctx, "failed to mark original aggregated",
				"notification_id", item.ID,
				"digest_id", digestID,
				"error", err,
			)

			continue
		}
		if !applied {
			slog.WarnContext(ctx, "aggregated original changed state, left out of digest link",
				"notification_id", item.ID,
				"digest_id", digestID,
			)
		}
	}

	if err := s.repoMQ.PublishAggregated(ctx, digestID); err != nil {
		return fmt.Errorf("publish digest %d: %w", digestID, err)
	}

	s.digestTotal.Inc()
	slog.InfoContext(ctx, "digest created",
		"digest_id", digestID,
		"user_id", key.userID,
		"channel", key.channel.String(),
		"originals", len(items),
	)

	return nil
}

// promoteSingleton sends a lone bucket item back through normal delivery.
func (s *Usecase) promoteSingleton(ctx context.Context, n entity.Notification) error {
	applied, err := s.repoDB.UpdateStatus(ctx, entity.UpdateStatus{
		ID:             n.ID,
		ExpectedStatus: entity.StatusQueued,
		Status:         entity.StatusProcessing,
		ClearSchedule:  true,
	})
	if err != nil {
		return fmt.Errorf("promote singleton %d: %w", n.ID, err)
	}
	if !applied {
		slog.InfoContext(ctx, "singleton changed state, skipping promotion", "notification_id", n.ID)
		return nil
	}

	if err := s.repoMQ.PublishAggregated(ctx, n.ID); err != nil {
		return fmt.Errorf("publish promoted singleton %d: %w", n.ID, err)
	}

	slog.InfoContext(ctx, "singleton promoted to delivery", "notification_id", n.ID)

	return nil
}

// digestMessage renders the grouped summary body: per-category counts
// followed by the original subjects.
func digestMessage(items []entity.Notification) string {
	counts := lo.CountValuesBy(items, func(n entity.Notification) string { return n.Category })

	categories := lo.Keys(counts)
	sort.Strings(categories)

	var sb strings.Builder
	for _, c := range categories {
		fmt.Fprintf(&sb, "%s: %d\n", c, counts[c])
	}
	sb.WriteString("\n")
	for _, n := range items {
		sb.WriteString("- " + n.Subject + "\n")
	}

	return strings.TrimRight(sb.String(), "\n")
}
