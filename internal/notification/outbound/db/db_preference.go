package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sdwijaya/herald/internal/notification/entity"
)

// channelPrefRow is the JSONB shape for one channel's settings.
type channelPrefRow struct {
	Channel     string  `json:"channel"`
	Enabled     bool    `json:"enabled"`
	QuietStart  *string `json:"quiet_start,omitempty"`
	QuietEnd    *string `json:"quiet_end,omitempty"`
	HourlyLimit *int64  `json:"hourly_limit,omitempty"`
	DailyLimit  *int64  `json:"daily_limit,omitempty"`
}

func (s *DB) GetPreference(ctx context.Context, userID int64) (_ *entity.UserPreference, err error) {
	ctx, span := s.startSpan(ctx, "GetPreference")
	defer func() { s.endSpan(span, err) }()

	const query = `
		SELECT user_id, quiet_start, quiet_end, hourly_limit, daily_limit, channels, updated_at
		FROM user_preferences
		WHERE user_id = $1`

	var (
		pref       entity.UserPreference
		quietStart *string
		quietEnd   *string
		channels   []byte
	)
	err = s.conn.QueryRow(ctx, query, userID).Scan(
		&pref.UserID, &quietStart, &quietEnd,
		&pref.HourlyLimit, &pref.DailyLimit, &channels, &pref.UpdatedAt,
	)
	if err != nil {
		return nil, s.mapError(err)
	}

	if quietStart != nil && quietEnd != nil {
		pref.QuietHours = &entity.QuietHours{Start: *quietStart, End: *quietEnd}
	}

	var rows []channelPrefRow
	if len(channels) > 0 {
		if err = json.Unmarshal(channels, &rows); err != nil {
			return nil, fmt.Errorf("decode channel preferences for user %d: %w", userID, err)
		}
	}

	pref.Channels = make(map[entity.Channel]entity.ChannelPreference, len(rows))
	for _, row := range rows {
		ch := entity.ChannelFromString(row.Channel)
		cp := entity.ChannelPreference{
			Channel:     ch,
			Enabled:     row.Enabled,
			HourlyLimit: row.HourlyLimit,
			DailyLimit:  row.DailyLimit,
		}
		if row.QuietStart != nil && row.QuietEnd != nil {
			cp.QuietHours = &entity.QuietHours{Start: *row.QuietStart, End: *row.QuietEnd}
		}
		pref.Channels[ch] = cp
	}

	return &pref, nil
}

func (s *DB) UpsertPreference(ctx context.Context, pref entity.UserPreference) (err error) {
	ctx, span := s.startSpan(ctx, "UpsertPreference")
	defer func() { s.endSpan(span, err) }()

	rows := make([]channelPrefRow, 0, len(pref.Channels))
	for _, cp := range pref.Channels {
		row := channelPrefRow{
			Channel:     cp.Channel.String(),
			Enabled:     cp.Enabled,
			HourlyLimit: cp.HourlyLimit,
			DailyLimit:  cp.DailyLimit,
		}
		if cp.QuietHours != nil {
			row.QuietStart = &cp.QuietHours.Start
			row.QuietEnd = &cp.QuietHours.End
		}
		rows = append(rows, row)
	}

	channels, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("encode channel preferences for user %d: %w", pref.UserID, err)
	}

	var quietStart, quietEnd *string
	if pref.QuietHours != nil {
		quietStart = &pref.QuietHours.Start
		quietEnd = &pref.QuietHours.End
	}

	const query = `
		INSERT INTO user_preferences (
			user_id, quiet_start, quiet_end, hourly_limit, daily_limit, channels, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			quiet_start = EXCLUDED.quiet_start,
			quiet_end = EXCLUDED.quiet_end,
			hourly_limit = EXCLUDED.hourly_limit,
			daily_limit = EXCLUDED.daily_limit,
			channels = EXCLUDED.channels,
			updated_at = NOW()`

	_, err = s.conn.Exec(ctx, query,
		pref.UserID, quietStart, quietEnd, pref.HourlyLimit, pref.DailyLimit, channels,
	)

	return s.mapError(err)
}
