package notification

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sdwijaya/herald/internal/notification/entity"
	"github.com/sdwijaya/herald/internal/notification/inbound"
	"github.com/sdwijaya/herald/internal/notification/outbound/channel"
	"github.com/sdwijaya/herald/internal/notification/outbound/db"
	"github.com/sdwijaya/herald/internal/notification/outbound/mq"
	"github.com/sdwijaya/herald/internal/notification/usecase"
	"github.com/sdwijaya/herald/internal/pkg/clock"
	"github.com/sdwijaya/herald/internal/pkg/config"
	"github.com/sdwijaya/herald/internal/pkg/goroutine"
	"github.com/sdwijaya/herald/internal/pkg/hash"
	"github.com/sdwijaya/herald/internal/pkg/idempotency"
	"github.com/sdwijaya/herald/internal/pkg/instrument"
	"github.com/sdwijaya/herald/internal/pkg/mail"
	"github.com/sdwijaya/herald/internal/pkg/messaging"
	"github.com/sdwijaya/herald/internal/pkg/router"
	"github.com/sdwijaya/herald/internal/pkg/uid"
	"github.com/sdwijaya/herald/internal/pkg/validator"
)

type Dependency struct {
	Ctx         context.Context
	DBConn      *pgxpool.Pool
	Messaging   messaging.Messaging
	Config      config.Config
	Instrument  instrument.Instrumentation
	UID         uid.NumberID
	UUID        uid.StringID
	Clock       clock.Clocker
	Goroutine   *goroutine.Manager
	Validator   validator.Validator
	Router      *router.Router
	Mail        mail.Mail
	Idempotency idempotency.Guard
	Fingerprint hash.Fingerprinter
}

func New(dep Dependency) error {
	dbNotif := db.NewDB(dep.DBConn, dep.Instrument)
	mqNotif := mq.New(dep.Messaging, dep.Instrument)

	adapters := map[entity.Channel]usecase.ChannelAdapter{
		entity.ChannelEmail: channel.NewEmail(
			dep.Mail,
			dep.Config.GetString("modules.notification.email_from"),
			dep.UUID,
			dep.Instrument,
		),
		entity.ChannelSMS: channel.NewSMS(
			nil,
			dep.Config.GetString("modules.notification.sms.endpoint"),
			dep.Config.GetString("modules.notification.sms.api_key"),
			dep.Instrument,
		),
		entity.ChannelPush: channel.NewPush(
			nil,
			dep.Config.GetString("modules.notification.push.endpoint"),
			dep.Config.GetString("modules.notification.push.api_key"),
			dep.Instrument,
		),
	}

	uc := usecase.NewNotification(usecase.Dependency{
		RepoDB:      dbNotif,
		RepoMQ:      mqNotif,
		Config:      dep.Config,
		UID:         dep.UID,
		Clock:       dep.Clock,
		Validator:   dep.Validator,
		Fingerprint: dep.Fingerprint,
		Adapters:    adapters,
		Instrument:  dep.Instrument,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)
	if dep.Ctx != nil {
		inbound.RegisterMQConsumer(dep.Ctx, dep.Config, dep.Goroutine, dep.Messaging,
			dep.UUID, dep.Idempotency, uc, dep.Instrument)

		dep.Goroutine.Go(dep.Ctx, uc.RunScheduler)
		dep.Goroutine.Go(dep.Ctx, uc.RunAggregator)
	}

	return nil
}
