package entity

import (
	"strconv"
	"strings"
	"time"
)

// QuietHours is a daily window in which notifications are deferred.
// Start and End use "HH:mm" and the window may span midnight.
type QuietHours struct {
	Start string
	End   string
}

// minutesOfDay parses "HH:mm" into minutes since midnight.
func minutesOfDay(v string) (int, bool) {
	hh, mm, ok := strings.Cut(v, ":")
	if !ok || len(hh) != 2 || len(mm) != 2 {
		return 0, false
	}

	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return 0, false
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return 0, false
	}

	return h*60 + m, true
}

// Valid reports whether both boundaries parse as HH:mm.
func (q QuietHours) Valid() bool {
	_, okStart := minutesOfDay(q.Start)
	_, okEnd := minutesOfDay(q.End)

	return okStart && okEnd
}

// Contains reports whether now falls inside the window, boundaries
// inclusive. A window whose start is after its end spans midnight.
func (q QuietHours) Contains(now time.Time) bool {
	start, okStart := minutesOfDay(q.Start)
	end, okEnd := minutesOfDay(q.End)
	if !okStart || !okEnd {
		return false
	}

	cur := now.Hour()*60 + now.Minute()
	if start <= end {
		return start <= cur && cur <= end
	}

	return cur >= start || cur <= end
}

// NextEnd returns the first end-boundary timestamp after now, in now's
// location. For a 22:00-07:00 window queried at 23:30 that is the next
// day's 07:00.
func (q QuietHours) NextEnd(now time.Time) time.Time {
	end, ok := minutesOfDay(q.End)
	if !ok {
		return now
	}

	boundary := time.Date(now.Year(), now.Month(), now.Day(), end/60, end%60, 0, 0, now.Location())
	if !boundary.After(now) {
		boundary = boundary.AddDate(0, 0, 1)
	}

	return boundary
}

// ChannelPreference is one channel's delivery settings. Nil limits mean
// unlimited.
type ChannelPreference struct {
	Channel     Channel
	Enabled     bool
	QuietHours  *QuietHours
	HourlyLimit *int64
	DailyLimit  *int64
}

// UserPreference holds a user's per-channel settings plus global
// fallbacks applied when a channel leaves a setting unset.
type UserPreference struct {
	UserID      int64
	QuietHours  *QuietHours
	HourlyLimit *int64
	DailyLimit  *int64
	Channels    map[Channel]ChannelPreference
	UpdatedAt   time.Time
}

// EffectiveSettings is the resolved policy input for one channel.
type EffectiveSettings struct {
	Enabled     bool
	QuietHours  *QuietHours
	HourlyLimit *int64
	DailyLimit  *int64
}

// Effective resolves the settings for ch. Channel-specific values win
// over global ones, and a channel with no record at all is enabled with
// the global fallbacks.
func (p UserPreference) Effective(ch Channel) EffectiveSettings {
	eff := EffectiveSettings{
		Enabled:     true,
		QuietHours:  p.QuietHours,
		HourlyLimit: p.HourlyLimit,
		DailyLimit:  p.DailyLimit,
	}

	cp, ok := p.Channels[ch]
	if !ok {
		return eff
	}

	eff.Enabled = cp.Enabled
	if cp.QuietHours != nil {
		eff.QuietHours = cp.QuietHours
	}
	if cp.HourlyLimit != nil {
		eff.HourlyLimit = cp.HourlyLimit
	}
	if cp.DailyLimit != nil {
		eff.DailyLimit = cp.DailyLimit
	}

	return eff
}
