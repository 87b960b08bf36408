package inbound

import (
	"context"

	"github.com/sdwijaya/herald/internal/notification/entity"
	"github.com/sdwijaya/herald/internal/notification/usecase"
)

type ucConsumer interface {
	Process(ctx context.Context, notificationID int64) error
	Deliver(ctx context.Context, notificationID int64) error
}

type uc interface {
	ucConsumer

	Create(ctx context.Context, in usecase.CreateInput) (*usecase.CreateOutput, error)
	List(ctx context.Context, in usecase.ListInput) ([]entity.Notification, error)
	Get(ctx context.Context, id int64) (*usecase.GetOutput, error)
	MarkDelivered(ctx context.Context, notificationID int64) error
	MarkRead(ctx context.Context, notificationID int64) error
	GetPreference(ctx context.Context, userID int64) (*entity.UserPreference, error)
	UpsertPreference(ctx context.Context, in usecase.UpsertPreferenceInput) error
}
