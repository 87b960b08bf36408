package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusRoundTrip(t *testing.T) {
	for _, s := range []Status{
		StatusPending, StatusProcessing, StatusScheduled, StatusQueued, StatusAggregated,
		StatusSent, StatusDelivered, StatusFailed, StatusRead, StatusCancelled,
	} {
		assert.Equal(t, s, StatusFromString(s.String()))
	}

	assert.Equal(t, StatusUnknown, StatusFromString("bogus"))
	assert.Equal(t, StatusQueued, StatusFromString("  Queued "))
}

func TestStatusIsTerminal(t *testing.T) {
	terminal := map[Status]bool{
		StatusAggregated: true,
		StatusFailed:     true,
		StatusRead:       true,
		StatusCancelled:  true,
	}

	for s := StatusPending; s <= StatusCancelled; s++ {
		assert.Equal(t, terminal[s], s.IsTerminal(), "status %s", s)
	}
}

func TestStatusCanTransition(t *testing.T) {
	tests := []struct {
		from Status
		to   Status
		want bool
	}{
		{StatusPending, StatusProcessing, true},
		{StatusPending, StatusScheduled, true},
		{StatusPending, StatusQueued, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusSent, false},
		{StatusProcessing, StatusSent, true},
		{StatusProcessing, StatusQueued, true},
		{StatusProcessing, StatusFailed, true},
		{StatusProcessing, StatusDelivered, false},
		{StatusScheduled, StatusProcessing, true},
		{StatusScheduled, StatusQueued, true},
		{StatusQueued, StatusAggregated, true},
		{StatusQueued, StatusScheduled, true},
		{StatusQueued, StatusProcessing, true},
		{StatusSent, StatusDelivered, true},
		{StatusSent, StatusRead, false},
		{StatusDelivered, StatusRead, true},
		{StatusDelivered, StatusFailed, false},
		{StatusFailed, StatusProcessing, false},
		{StatusRead, StatusDelivered, false},
		{StatusCancelled, StatusPending, false},
		{StatusAggregated, StatusProcessing, false},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, tc.from.CanTransition(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestUpdateStatusValid(t *testing.T) {
	tests := []struct {
		name string
		u    UpdateStatus
		want bool
	}{
		{name: "ForwardStep", u: UpdateStatus{ExpectedStatus: StatusPending, Status: StatusProcessing}, want: true},
		{name: "RefreshSameState", u: UpdateStatus{ExpectedStatus: StatusScheduled, Status: StatusScheduled}, want: true},
		{name: "BackwardStep", u: UpdateStatus{ExpectedStatus: StatusSent, Status: StatusPending}, want: false},
		{name: "OutOfTerminal", u: UpdateStatus{ExpectedStatus: StatusCancelled, Status: StatusProcessing}, want: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.u.Valid())
		})
	}
}

func TestChannelAndPriorityParsing(t *testing.T) {
	assert.Equal(t, ChannelEmail, ChannelFromString(" EMAIL "))
	assert.Equal(t, ChannelSMS, ChannelFromString("sms"))
	assert.Equal(t, ChannelPush, ChannelFromString("push"))
	assert.Equal(t, ChannelUnknown, ChannelFromString("fax"))

	assert.Equal(t, PriorityUrgent, PriorityFromString("urgent"))
	assert.Equal(t, PriorityUnknown, PriorityFromString(""))

	assert.False(t, PriorityLow.Bypass())
	assert.False(t, PriorityMedium.Bypass())
	assert.True(t, PriorityHigh.Bypass())
	assert.True(t, PriorityUrgent.Bypass())
}

func TestNotificationIsDigest(t *testing.T) {
	assert.False(t, Notification{}.IsDigest())
	assert.True(t, Notification{AggregatedFrom: []int64{1, 2}}.IsDigest())
}
