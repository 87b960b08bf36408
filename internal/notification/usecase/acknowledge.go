package usecase

import (
	"context"
	"log/slog"

	"github.com/sdwijaya/herald/internal/notification/entity"
	"github.com/sdwijaya/herald/internal/pkg/goerror"
)

// MarkDelivered records a provider delivery acknowledgement, moving a
// SENT notification to DELIVERED. Late or repeated acknowledgements are
// reported as a conflict instead of overwriting later state.
func (s *Usecase) MarkDelivered(ctx context.Context, notificationID int64) error {
	ctx, span := s.startSpan(ctx, "MarkDelivered")
	defer span.End()

	if notificationID <= 0 {
		return goerror.NewInvalidFormat("notification id must be positive")
	}

	deliveredAt := s.clock.Now()

	applied, err := s.repoDB.UpdateStatus(ctx, entity.UpdateStatus{
		ID:             notificationID,
		ExpectedStatus: entity.StatusSent,
		Status:         entity.StatusDelivered,
		DeliveredAt:    &deliveredAt,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo mark delivered", "notification_id", notificationID, "error", err)
		return goerror.NewServer(err)
	}
	if !applied {
		return goerror.NewBusiness("notification is not awaiting delivery acknowledgement", goerror.CodeConflict)
	}

	slog.InfoContext(ctx, "notification delivered", "notification_id", notificationID)

	return nil
}

// MarkRead records the user opening a DELIVERED notification.
func (s *Usecase) MarkRead(ctx context.Context, notificationID int64) error {
	ctx, span := s.startSpan(ctx, "MarkRead")
	defer span.End()

	if notificationID <= 0 {
		return goerror.NewInvalidFormat("notification id must be positive")
	}

	readAt := s.clock.Now()

	applied, err := s.repoDB.UpdateStatus(ctx, entity.UpdateStatus{
		ID:             notificationID,
		ExpectedStatus: entity.StatusDelivered,
		Status:         entity.StatusRead,
		ReadAt:         &readAt,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo mark read", "notification_id", notificationID, "error", err)
		return goerror.NewServer(err)
	}
	if !applied {
		return goerror.NewBusiness("notification is not in a readable state", goerror.CodeConflict)
	}

	slog.InfoContext(ctx, "notification read", "notification_id", notificationID)

	return nil
}
