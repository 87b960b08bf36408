package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/sdwijaya/herald/internal/notification/entity"
	"github.com/sdwijaya/herald/internal/shared/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeliver(t *testing.T) {
	t.Run("SuccessMarksSentAndRecordsAttempt", func(t *testing.T) {
		adapters := map[entity.Channel]ChannelAdapter{
			entity.ChannelEmail: adapterFunc(func(context.Context, entity.Notification) (string, error) {
				return "prov-42", nil
			}),
		}
		fx := newFixture(t, adapters)
		fx.db.put(pendingNotification(1, 7, entity.PriorityMedium))

		require.NoError(t, fx.uc.Deliver(t.Context(), 1))

		stored := fx.db.get(1)
		assert.Equal(t, entity.StatusSent, stored.Status)
		require.NotNil(t, stored.SentAt)
		assert.Equal(t, fx.clock.now, *stored.SentAt)

		require.Len(t, fx.db.attempts, 1)
		assert.True(t, fx.db.attempts[0].Success)
		assert.Equal(t, int32(1), fx.db.attempts[0].Attempt)
		assert.Equal(t, "prov-42", fx.db.attempts[0].ProviderRef)
	})

	t.Run("TransientFailureQueuesRetryWithBackoff", func(t *testing.T) {
		adapters := map[entity.Channel]ChannelAdapter{
			entity.ChannelEmail: adapterFunc(func(context.Context, entity.Notification) (string, error) {
				return "", errors.New("provider timeout")
			}),
		}
		fx := newFixture(t, adapters)
		fx.db.put(pendingNotification(1, 7, entity.PriorityMedium))

		require.NoError(t, fx.uc.Deliver(t.Context(), 1))

		stored := fx.db.get(1)
		assert.Equal(t, entity.StatusQueued, stored.Status)
		assert.Equal(t, int32(1), stored.RetryCount)
		require.NotNil(t, stored.LastRetryAt)
		assert.Equal(t, fx.clock.now, *stored.LastRetryAt)
		require.NotNil(t, stored.ScheduledFor)
		assert.Equal(t, fx.clock.now.Add(2*time.Second), *stored.ScheduledFor)
		assert.Empty(t, fx.mq.deadLetter)
	})

	t.Run("ExpiredFailsWithoutAttempt", func(t *testing.T) {
		fx := newFixture(t, nil)
		n := pendingNotification(1, 7, entity.PriorityMedium)
		n.Status = entity.StatusQueued
		wakeup := fx.clock.now
		n.ScheduledFor = &wakeup
		cutoff := fx.clock.now.Add(-time.Second)
		n.ExpiresAt = &cutoff
		fx.db.put(n)

		require.NoError(t, fx.uc.Deliver(t.Context(), 1))

		stored := fx.db.get(1)
		assert.Equal(t, entity.StatusFailed, stored.Status)
		assert.Equal(t, "expired", stored.FailReason)
		assert.Empty(t, fx.db.attempts)
		assert.Empty(t, fx.mq.deadLetter)
	})

	t.Run("ExhaustedBudgetFailsWithOneDeadLetter", func(t *testing.T) {
		adapters := map[entity.Channel]ChannelAdapter{
			entity.ChannelEmail: adapterFunc(func(context.Context, entity.Notification) (string, error) {
				return "", errors.New("provider down")
			}),
		}
		fx := newFixture(t, adapters)

		n := pendingNotification(1, 7, entity.PriorityMedium)
		n.Status = entity.StatusQueued
		wakeup := fx.clock.now
		n.ScheduledFor = &wakeup
		n.RetryCount = 2
		fx.db.put(n)

		require.NoError(t, fx.uc.Deliver(t.Context(), 1))

		stored := fx.db.get(1)
		assert.Equal(t, entity.StatusFailed, stored.Status)
		assert.Equal(t, int32(3), stored.RetryCount)

		require.Len(t, fx.mq.deadLetter, 1)
		assert.Equal(t, int64(1), fx.mq.deadLetter[0].ID)
		assert.Equal(t, event.NotificationScheduledDestination, fx.mq.deadLetter[0].Topic)
		assert.Equal(t, "provider down", fx.mq.deadLetter[0].Reason)
	})

	t.Run("PermanentErrorSkipsRetries", func(t *testing.T) {
		adapters := map[entity.Channel]ChannelAdapter{
			entity.ChannelEmail: adapterFunc(func(context.Context, entity.Notification) (string, error) {
				return "", fmt.Errorf("recipient unknown: %w", entity.ErrPermanentDelivery)
			}),
		}
		fx := newFixture(t, adapters)
		fx.db.put(pendingNotification(1, 7, entity.PriorityMedium))

		require.NoError(t, fx.uc.Deliver(t.Context(), 1))

		stored := fx.db.get(1)
		assert.Equal(t, entity.StatusFailed, stored.Status)
		assert.Equal(t, int32(1), stored.RetryCount)
		require.Len(t, fx.mq.deadLetter, 1)
		assert.Equal(t, event.NotificationInDestination, fx.mq.deadLetter[0].Topic)
	})

	t.Run("MissingAdapterIsPermanent", func(t *testing.T) {
		fx := newFixture(t, nil)
		fx.db.put(pendingNotification(1, 7, entity.PriorityMedium))

		require.NoError(t, fx.uc.Deliver(t.Context(), 1))

		assert.Equal(t, entity.StatusFailed, fx.db.get(1).Status)
		assert.Len(t, fx.mq.deadLetter, 1)
	})

	t.Run("AlreadyClaimedProcessingProceeds", func(t *testing.T) {
		adapters := map[entity.Channel]ChannelAdapter{
			entity.ChannelEmail: adapterFunc(func(context.Context, entity.Notification) (string, error) {
				return "ref", nil
			}),
		}
		fx := newFixture(t, adapters)
		n := pendingNotification(1, 7, entity.PriorityMedium)
		n.Status = entity.StatusProcessing
		fx.db.put(n)

		require.NoError(t, fx.uc.Deliver(t.Context(), 1))

		assert.Equal(t, entity.StatusSent, fx.db.get(1).Status)
	})

	t.Run("TerminalStatusSkipped", func(t *testing.T) {
		fx := newFixture(t, nil)
		n := pendingNotification(1, 7, entity.PriorityMedium)
		n.Status = entity.StatusCancelled
		fx.db.put(n)

		require.NoError(t, fx.uc.Deliver(t.Context(), 1))

		assert.Equal(t, entity.StatusCancelled, fx.db.get(1).Status)
		assert.Empty(t, fx.db.attempts)
	})

	t.Run("MissingRecordIsNoop", func(t *testing.T) {
		fx := newFixture(t, nil)

		require.NoError(t, fx.uc.Deliver(t.Context(), 123))
	})
}

func TestBackoff(t *testing.T) {
	assert.Equal(t, 2*time.Second, backoff(1))
	assert.Equal(t, 4*time.Second, backoff(2))
	assert.Equal(t, 8*time.Second, backoff(3))
	assert.Equal(t, 32*time.Second, backoff(5))
	assert.Equal(t, time.Minute, backoff(6))
	assert.Equal(t, time.Minute, backoff(20))
}

func TestDeliverRetryCycleStopsAtBudget(t *testing.T) {
	attempts := 0
	adapters := map[entity.Channel]ChannelAdapter{
		entity.ChannelEmail: adapterFunc(func(context.Context, entity.Notification) (string, error) {
			attempts++
			return "", errors.New("still down")
		}),
	}
	fx := newFixture(t, adapters)
	fx.db.put(pendingNotification(1, 7, entity.PriorityMedium))

	// Drive the full retry cycle the scheduler would otherwise pace out.
	for range 5 {
		require.NoError(t, fx.uc.Deliver(t.Context(), 1))
	}

	assert.Equal(t, 3, attempts)
	assert.Equal(t, entity.StatusFailed, fx.db.get(1).Status)
	assert.Len(t, fx.db.attempts, 3)
	assert.Len(t, fx.mq.deadLetter, 1)
}
