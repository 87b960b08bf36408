package usecase

import (
	"context"
	"time"

	"github.com/sdwijaya/herald/internal/notification/entity"
)

// Decide evaluates delivery policy for one notification. It is a pure
// function of its inputs so concurrent workers can re-evaluate it from
// current store state at any time.
//
// Precedence: disabled channel, priority bypass, quiet hours, rate
// limits, aggregation. Quiet hours win over rate limits because they
// express user consent rather than a soft volume cap.
func Decide(n entity.Notification, pref entity.UserPreference, usage entity.RateUsage, now time.Time) entity.Decision {
	eff := pref.Effective(n.Channel)

	if !eff.Enabled {
		return entity.Decision{Kind: entity.DecisionReject, Reason: "channel disabled"}
	}

	if n.Priority.Bypass() {
		return entity.Decision{Kind: entity.DecisionDeliverNow}
	}

	if eff.QuietHours != nil && eff.QuietHours.Contains(now) {
		return entity.Decision{Kind: entity.DecisionDefer, At: eff.QuietHours.NextEnd(now)}
	}

	if overLimit(eff, usage) {
		return entity.Decision{Kind: entity.DecisionThrottle, At: nextHour(now)}
	}

	// Digests ride low priority but must never fold into another digest.
	if n.Priority == entity.PriorityLow && !n.IsDigest() {
		return entity.Decision{Kind: entity.DecisionAggregate}
	}

	return entity.Decision{Kind: entity.DecisionDeliverNow}
}

// overLimit checks the trailing-window counts against the effective
// limits. A nil limit means unlimited.
func overLimit(eff entity.EffectiveSettings, usage entity.RateUsage) bool {
	if eff.HourlyLimit != nil && usage.Hourly >= *eff.HourlyLimit {
		return true
	}
	if eff.DailyLimit != nil && usage.Daily >= *eff.DailyLimit {
		return true
	}

	return false
}

// nextHour is the top of the hour after now, where a throttled
// notification is rescheduled.
func nextHour(now time.Time) time.Time {
	return now.Truncate(time.Hour).Add(time.Hour)
}

// rateUsage loads the trailing delivered volume for the policy rate
// check. Counts come from the store at decision time, never a cache.
func (s *Usecase) rateUsage(ctx context.Context, userID int64, ch entity.Channel, now time.Time) (entity.RateUsage, error) {
	hourly, err := s.repoDB.CountDelivered(ctx, userID, ch, now.Add(-time.Hour))
	if err != nil {
		return entity.RateUsage{}, err
	}

	daily, err := s.repoDB.CountDelivered(ctx, userID, ch, now.Add(-24*time.Hour))
	if err != nil {
		return entity.RateUsage{}, err
	}

	return entity.RateUsage{Hourly: hourly, Daily: daily}, nil
}
