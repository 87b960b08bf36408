package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/sdwijaya/herald/internal/notification/entity"
	"github.com/sdwijaya/herald/internal/pkg/goerror"
)

type QuietHoursInput struct {
	Start string `validate:"required,hhmm"`
	End   string `validate:"required,hhmm"`
}

type ChannelPreferenceInput struct {
	Channel     string `validate:"required,oneof=email sms push"`
	Enabled     bool
	QuietHours  *QuietHoursInput `validate:"omitempty"`
	HourlyLimit *int64           `validate:"omitempty,gt=0"`
	DailyLimit  *int64           `validate:"omitempty,gt=0"`
}

type UpsertPreferenceInput struct {
	UserID      int64                    `validate:"required,gt=0"`
	QuietHours  *QuietHoursInput         `validate:"omitempty"`
	HourlyLimit *int64                   `validate:"omitempty,gt=0"`
	DailyLimit  *int64                   `validate:"omitempty,gt=0"`
	Channels    []ChannelPreferenceInput `validate:"omitempty,max=8,dive"`
}

// GetPreference returns the stored settings for one user.
func (s *Usecase) GetPreference(ctx context.Context, userID int64) (*entity.UserPreference, error) {
	ctx, span := s.startSpan(ctx, "GetPreference")
	defer span.End()

	if userID <= 0 {
		return nil, goerror.NewInvalidFormat("user id must be positive")
	}

	pref, err := s.repoDB.GetPreference(ctx, userID)
	if errors.Is(err, goerror.ErrNotFound) {
		return nil, goerror.NewNotFound("user preferences not found")
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get preference", "user_id", userID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return pref, nil
}

// UpsertPreference stores a user's settings, replacing any existing
// record whole.
func (s *Usecase) UpsertPreference(ctx context.Context, in UpsertPreferenceInput) error {
	ctx, span := s.startSpan(ctx, "UpsertPreference")
	defer span.End()

	for i := range in.Channels {
		in.Channels[i].Channel = strings.ToLower(strings.TrimSpace(in.Channels[i].Channel))
	}

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	pref := entity.UserPreference{
		UserID:      in.UserID,
		QuietHours:  quietHoursFromInput(in.QuietHours),
		HourlyLimit: in.HourlyLimit,
		DailyLimit:  in.DailyLimit,
		Channels:    make(map[entity.Channel]entity.ChannelPreference, len(in.Channels)),
		UpdatedAt:   s.clock.Now(),
	}
	for _, cp := range in.Channels {
		ch := entity.ChannelFromString(cp.Channel)
		pref.Channels[ch] = entity.ChannelPreference{
			Channel:     ch,
			Enabled:     cp.Enabled,
			QuietHours:  quietHoursFromInput(cp.QuietHours),
			HourlyLimit: cp.HourlyLimit,
			DailyLimit:  cp.DailyLimit,
		}
	}

	if err := s.repoDB.UpsertPreference(ctx, pref); err != nil {
		slog.ErrorContext(ctx, "failed to repo upsert preference", "user_id", in.UserID, "error", err)
		return goerror.NewServer(err)
	}

	slog.InfoContext(ctx, "preference upserted", "user_id", in.UserID, "channels", len(in.Channels))

	return nil
}

func quietHoursFromInput(in *QuietHoursInput) *entity.QuietHours {
	if in == nil {
		return nil
	}

	return &entity.QuietHours{Start: in.Start, End: in.End}
}
