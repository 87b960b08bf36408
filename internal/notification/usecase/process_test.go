package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/sdwijaya/herald/internal/notification/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pendingNotification(id, userID int64, priority entity.Priority) entity.Notification {
	return entity.Notification{
		ID:       id,
		UserID:   userID,
		Channel:  entity.ChannelEmail,
		Priority: priority,
		Category: "alerts",
		Subject:  "CPU high",
		Message:  "CPU above 90%",
		Status:   entity.StatusPending,
	}
}

func TestProcess(t *testing.T) {
	t.Run("MissingRecordIsNoop", func(t *testing.T) {
		fx := newFixture(t, nil)

		require.NoError(t, fx.uc.Process(t.Context(), 999))
	})

	t.Run("AlreadyRoutedIsNoop", func(t *testing.T) {
		fx := newFixture(t, nil)
		n := pendingNotification(1, 7, entity.PriorityMedium)
		n.Status = entity.StatusSent
		fx.db.put(n)

		require.NoError(t, fx.uc.Process(t.Context(), 1))
		assert.Empty(t, fx.db.updates)
	})

	t.Run("NoPreferencesFails", func(t *testing.T) {
		fx := newFixture(t, nil)
		fx.db.put(pendingNotification(1, 7, entity.PriorityMedium))

		require.NoError(t, fx.uc.Process(t.Context(), 1))

		stored := fx.db.get(1)
		assert.Equal(t, entity.StatusFailed, stored.Status)
		assert.Equal(t, "user preferences not found", stored.FailReason)
	})

	t.Run("ExpiredFailsWithoutAttempt", func(t *testing.T) {
		fx := newFixture(t, nil)
		n := pendingNotification(1, 7, entity.PriorityUrgent)
		cutoff := fx.clock.now.Add(-time.Minute)
		n.ExpiresAt = &cutoff
		fx.db.put(n)
		require.NoError(t, fx.db.UpsertPreference(t.Context(), *enabledPreference(7)))

		require.NoError(t, fx.uc.Process(t.Context(), 1))

		stored := fx.db.get(1)
		assert.Equal(t, entity.StatusFailed, stored.Status)
		assert.Equal(t, "expired", stored.FailReason)
		assert.Empty(t, fx.db.attempts)
	})

	t.Run("DisabledChannelFailsWithoutAttempt", func(t *testing.T) {
		fx := newFixture(t, nil)
		fx.db.put(pendingNotification(1, 7, entity.PriorityUrgent))
		pref := enabledPreference(7)
		pref.Channels = map[entity.Channel]entity.ChannelPreference{
			entity.ChannelEmail: {Channel: entity.ChannelEmail, Enabled: false},
		}
		require.NoError(t, fx.db.UpsertPreference(t.Context(), *pref))

		require.NoError(t, fx.uc.Process(t.Context(), 1))

		stored := fx.db.get(1)
		assert.Equal(t, entity.StatusFailed, stored.Status)
		assert.Equal(t, "channel disabled", stored.FailReason)
		assert.Empty(t, fx.db.attempts)
	})

	t.Run("DeliverNowSends", func(t *testing.T) {
		sent := 0
		adapters := map[entity.Channel]ChannelAdapter{
			entity.ChannelEmail: adapterFunc(func(context.Context, entity.Notification) (string, error) {
				sent++
				return "ref-1", nil
			}),
		}
		fx := newFixture(t, adapters)
		fx.db.put(pendingNotification(1, 7, entity.PriorityMedium))
		require.NoError(t, fx.db.UpsertPreference(t.Context(), *enabledPreference(7)))

		require.NoError(t, fx.uc.Process(t.Context(), 1))

		assert.Equal(t, 1, sent)
		assert.Equal(t, entity.StatusSent, fx.db.get(1).Status)
	})

	t.Run("QuietHoursSchedules", func(t *testing.T) {
		fx := newFixture(t, nil)
		fx.clock.now = time.Date(2026, time.March, 10, 23, 30, 0, 0, time.UTC)
		fx.db.now = fx.clock.now
		fx.db.put(pendingNotification(1, 7, entity.PriorityMedium))
		pref := enabledPreference(7)
		pref.QuietHours = &entity.QuietHours{Start: "22:00", End: "07:00"}
		require.NoError(t, fx.db.UpsertPreference(t.Context(), *pref))

		require.NoError(t, fx.uc.Process(t.Context(), 1))

		stored := fx.db.get(1)
		assert.Equal(t, entity.StatusScheduled, stored.Status)
		require.NotNil(t, stored.ScheduledFor)
		assert.Equal(t, time.Date(2026, time.March, 11, 7, 0, 0, 0, time.UTC), *stored.ScheduledFor)
	})

	t.Run("OverLimitQueuesForNextHour", func(t *testing.T) {
		fx := newFixture(t, nil)
		fx.db.put(pendingNotification(1, 7, entity.PriorityMedium))
		limit := int64(2)
		pref := enabledPreference(7)
		pref.HourlyLimit = &limit
		require.NoError(t, fx.db.UpsertPreference(t.Context(), *pref))
		fx.db.hourly = 2

		require.NoError(t, fx.uc.Process(t.Context(), 1))

		stored := fx.db.get(1)
		assert.Equal(t, entity.StatusQueued, stored.Status)
		require.NotNil(t, stored.ScheduledFor)
		assert.Equal(t, time.Date(2026, time.March, 10, 15, 0, 0, 0, time.UTC), *stored.ScheduledFor)
	})

	t.Run("LowPriorityParksForAggregation", func(t *testing.T) {
		fx := newFixture(t, nil)
		fx.db.put(pendingNotification(1, 7, entity.PriorityLow))
		require.NoError(t, fx.db.UpsertPreference(t.Context(), *enabledPreference(7)))

		require.NoError(t, fx.uc.Process(t.Context(), 1))

		stored := fx.db.get(1)
		assert.Equal(t, entity.StatusQueued, stored.Status)
		assert.Nil(t, stored.ScheduledFor)
	})
}
