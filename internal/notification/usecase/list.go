package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/sdwijaya/herald/internal/notification/entity"
	"github.com/sdwijaya/herald/internal/pkg/goerror"
)

type ListInput struct {
	UserID  int64  `validate:"required,gt=0"`
	Channel string `validate:"omitempty,oneof=email sms push"`
	Status  string `validate:"omitempty,oneof=pending processing scheduled queued aggregated sent delivered failed read cancelled"`
	Limit   int32  `validate:"omitempty,gte=1,lte=100"`
	Offset  int32  `validate:"omitempty,gte=0"`
}

// List returns a user's notifications, newest first.
func (s *Usecase) List(ctx context.Context, in ListInput) ([]entity.Notification, error) {
	ctx, span := s.startSpan(ctx, "List")
	defer span.End()

	in.Channel = strings.ToLower(strings.TrimSpace(in.Channel))
	in.Status = strings.ToLower(strings.TrimSpace(in.Status))
	if in.Limit == 0 {
		in.Limit = 20
	}

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	items, err := s.repoDB.ListNotifications(ctx, entity.ListFilter{
		UserID:  in.UserID,
		Channel: entity.ChannelFromString(in.Channel),
		Status:  entity.StatusFromString(in.Status),
		Limit:   in.Limit,
		Offset:  in.Offset,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo list notifications", "user_id", in.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return items, nil
}

type GetOutput struct {
	Notification entity.Notification
	Attempts     []entity.DeliveryAttempt
}

// Get returns one notification with its recorded delivery attempts.
func (s *Usecase) Get(ctx context.Context, id int64) (*GetOutput, error) {
	ctx, span := s.startSpan(ctx, "Get")
	defer span.End()

	if id <= 0 {
		return nil, goerror.NewInvalidFormat("notification id must be positive")
	}

	n, err := s.repoDB.GetNotification(ctx, id)
	if errors.Is(err, goerror.ErrNotFound) {
		return nil, goerror.NewNotFound("notification not found")
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get notification", "notification_id", id, "error", err)
		return nil, goerror.NewServer(err)
	}

	attempts, err := s.repoDB.ListAttempts(ctx, id)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo list delivery attempts", "notification_id", id, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &GetOutput{Notification: *n, Attempts: attempts}, nil
}
