package usecase

import (
	"testing"
	"time"

	"github.com/sdwijaya/herald/internal/notification/entity"
	"github.com/stretchr/testify/assert"
)

func TestDecide(t *testing.T) {
	noon := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	lateNight := time.Date(2026, time.March, 10, 23, 30, 0, 0, time.UTC)
	limit1 := int64(1)
	limit10 := int64(10)

	quietNight := &entity.QuietHours{Start: "22:00", End: "07:00"}

	tests := []struct {
		name     string
		n        entity.Notification
		pref     entity.UserPreference
		usage    entity.RateUsage
		now      time.Time
		wantKind entity.DecisionKind
		wantAt   time.Time
	}{
		{
			name:     "MediumPriorityDeliversNow",
			n:        entity.Notification{Channel: entity.ChannelEmail, Priority: entity.PriorityMedium},
			pref:     entity.UserPreference{},
			now:      noon,
			wantKind: entity.DecisionDeliverNow,
		},
		{
			name: "DisabledChannelRejects",
			n:    entity.Notification{Channel: entity.ChannelPush, Priority: entity.PriorityUrgent},
			pref: entity.UserPreference{Channels: map[entity.Channel]entity.ChannelPreference{
				entity.ChannelPush: {Channel: entity.ChannelPush, Enabled: false},
			}},
			now:      noon,
			wantKind: entity.DecisionReject,
		},
		{
			name:     "HighPriorityBypassesQuietHours",
			n:        entity.Notification{Channel: entity.ChannelEmail, Priority: entity.PriorityHigh},
			pref:     entity.UserPreference{QuietHours: quietNight},
			now:      lateNight,
			wantKind: entity.DecisionDeliverNow,
		},
		{
			name:     "UrgentBypassesRateLimit",
			n:        entity.Notification{Channel: entity.ChannelEmail, Priority: entity.PriorityUrgent},
			pref:     entity.UserPreference{HourlyLimit: &limit1},
			usage:    entity.RateUsage{Hourly: 5},
			now:      noon,
			wantKind: entity.DecisionDeliverNow,
		},
		{
			name:     "QuietHoursDefersToNextEnd",
			n:        entity.Notification{Channel: entity.ChannelEmail, Priority: entity.PriorityMedium},
			pref:     entity.UserPreference{QuietHours: quietNight},
			now:      lateNight,
			wantKind: entity.DecisionDefer,
			wantAt:   time.Date(2026, time.March, 11, 7, 0, 0, 0, time.UTC),
		},
		{
			name:     "QuietHoursWinOverRateLimit",
			n:        entity.Notification{Channel: entity.ChannelEmail, Priority: entity.PriorityMedium},
			pref:     entity.UserPreference{QuietHours: quietNight, HourlyLimit: &limit1},
			usage:    entity.RateUsage{Hourly: 3},
			now:      lateNight,
			wantKind: entity.DecisionDefer,
			wantAt:   time.Date(2026, time.March, 11, 7, 0, 0, 0, time.UTC),
		},
		{
			name:     "HourlyLimitThrottlesToNextHour",
			n:        entity.Notification{Channel: entity.ChannelEmail, Priority: entity.PriorityMedium},
			pref:     entity.UserPreference{HourlyLimit: &limit1},
			usage:    entity.RateUsage{Hourly: 1},
			now:      noon.Add(25 * time.Minute),
			wantKind: entity.DecisionThrottle,
			wantAt:   time.Date(2026, time.March, 10, 13, 0, 0, 0, time.UTC),
		},
		{
			name:     "DailyLimitThrottles",
			n:        entity.Notification{Channel: entity.ChannelEmail, Priority: entity.PriorityMedium},
			pref:     entity.UserPreference{DailyLimit: &limit10},
			usage:    entity.RateUsage{Daily: 10},
			now:      noon,
			wantKind: entity.DecisionThrottle,
			wantAt:   time.Date(2026, time.March, 10, 13, 0, 0, 0, time.UTC),
		},
		{
			name:     "UnderLimitPasses",
			n:        entity.Notification{Channel: entity.ChannelEmail, Priority: entity.PriorityMedium},
			pref:     entity.UserPreference{HourlyLimit: &limit10, DailyLimit: &limit10},
			usage:    entity.RateUsage{Hourly: 9, Daily: 9},
			now:      noon,
			wantKind: entity.DecisionDeliverNow,
		},
		{
			name:     "NilLimitsMeanUnlimited",
			n:        entity.Notification{Channel: entity.ChannelEmail, Priority: entity.PriorityMedium},
			pref:     entity.UserPreference{},
			usage:    entity.RateUsage{Hourly: 100000, Daily: 100000},
			now:      noon,
			wantKind: entity.DecisionDeliverNow,
		},
		{
			name:     "LowPriorityAggregates",
			n:        entity.Notification{Channel: entity.ChannelEmail, Priority: entity.PriorityLow},
			pref:     entity.UserPreference{},
			now:      noon,
			wantKind: entity.DecisionAggregate,
		},
		{
			name:     "LowPriorityDigestDeliversNow",
			n:        entity.Notification{Channel: entity.ChannelEmail, Priority: entity.PriorityLow, AggregatedFrom: []int64{1, 2}},
			pref:     entity.UserPreference{},
			now:      noon,
			wantKind: entity.DecisionDeliverNow,
		},
		{
			name: "ChannelQuietHoursOverrideGlobal",
			n:    entity.Notification{Channel: entity.ChannelSMS, Priority: entity.PriorityMedium},
			pref: entity.UserPreference{
				QuietHours: quietNight,
				Channels: map[entity.Channel]entity.ChannelPreference{
					entity.ChannelSMS: {
						Channel:    entity.ChannelSMS,
						Enabled:    true,
						QuietHours: &entity.QuietHours{Start: "01:00", End: "02:00"},
					},
				},
			},
			now:      lateNight,
			wantKind: entity.DecisionDeliverNow,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Decide(tc.n, tc.pref, tc.usage, tc.now)

			assert.Equal(t, tc.wantKind, got.Kind)
			if !tc.wantAt.IsZero() {
				assert.Equal(t, tc.wantAt, got.At)
			}
		})
	}
}

func TestDecideRejectReason(t *testing.T) {
	pref := entity.UserPreference{Channels: map[entity.Channel]entity.ChannelPreference{
		entity.ChannelEmail: {Channel: entity.ChannelEmail, Enabled: false},
	}}

	got := Decide(entity.Notification{Channel: entity.ChannelEmail, Priority: entity.PriorityUrgent}, pref,
		entity.RateUsage{}, time.Now())

	assert.Equal(t, entity.DecisionReject, got.Kind)
	assert.Equal(t, "channel disabled", got.Reason)
}
