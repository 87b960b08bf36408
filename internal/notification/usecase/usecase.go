package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/sdwijaya/herald/internal/notification/entity"
	"github.com/sdwijaya/herald/internal/pkg/clock"
	"github.com/sdwijaya/herald/internal/pkg/config"
	"github.com/sdwijaya/herald/internal/pkg/hash"
	"github.com/sdwijaya/herald/internal/pkg/instrument"
	"github.com/sdwijaya/herald/internal/pkg/uid"
	"github.com/sdwijaya/herald/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/atomic"
)

type repoDB interface {
	CreateNotification(ctx context.Context, data entity.CreateNotification) error
	GetNotification(ctx context.Context, id int64) (*entity.Notification, error)
	UpdateStatus(ctx context.Context, u entity.UpdateStatus) (bool, error)
	FindDue(ctx context.Context, now time.Time, limit int32) ([]entity.Notification, error)
	ListNotifications(ctx context.Context, filter entity.ListFilter) ([]entity.Notification, error)

	ExistsDuplicate(ctx context.Context, contentHash string, since time.Time) (bool, error)
	CountDelivered(ctx context.Context, userID int64, ch entity.Channel, since time.Time) (int64, error)

	AppendAttempt(ctx context.Context, attempt entity.DeliveryAttempt) error
	ListAttempts(ctx context.Context, notificationID int64) ([]entity.DeliveryAttempt, error)

	GetPreference(ctx context.Context, userID int64) (*entity.UserPreference, error)
	UpsertPreference(ctx context.Context, pref entity.UserPreference) error
}

type repoMQ interface {
	PublishIngested(ctx context.Context, notificationID int64) error
	PublishScheduled(ctx context.Context, notificationID int64) error
	PublishAggregated(ctx context.Context, notificationID int64) error
	PublishDeadLetter(ctx context.Context, notificationID int64, originalTopic, reason string) error
}

// ChannelAdapter sends one notification through a provider and returns
// the provider's reference on success. Errors wrapping
// entity.ErrPermanentDelivery skip the retry budget.
type ChannelAdapter interface {
	Send(ctx context.Context, n entity.Notification) (string, error)
}

// settings are the pipeline tunables, loaded once at construction.
type settings struct {
	dedupWindow       time.Duration
	schedulerInterval time.Duration
	schedulerBatch    int32
	aggregatorSweep   time.Duration
	maxRetries        int32
	adapterTimeout    time.Duration
}

func loadSettings(cfg config.Config) settings {
	st := settings{
		dedupWindow:       cfg.GetMinute("pipeline.dedup_window_minutes"),
		schedulerInterval: cfg.GetSecond("pipeline.scheduler_interval_seconds"),
		schedulerBatch:    cfg.GetInt32("pipeline.scheduler_batch_size"),
		aggregatorSweep:   cfg.GetMinute("pipeline.aggregator_sweep_minutes"),
		maxRetries:        cfg.GetInt32("pipeline.max_retries"),
		adapterTimeout:    cfg.GetSecond("pipeline.adapter_timeout_seconds"),
	}

	if st.dedupWindow <= 0 {
		st.dedupWindow = time.Hour
	}
	if st.schedulerInterval <= 0 {
		st.schedulerInterval = time.Minute
	}
	if st.schedulerBatch <= 0 {
		st.schedulerBatch = 100
	}
	if st.aggregatorSweep <= 0 {
		st.aggregatorSweep = 5 * time.Minute
	}
	if st.maxRetries <= 0 {
		st.maxRetries = 3
	}
	if st.adapterTimeout <= 0 {
		st.adapterTimeout = 10 * time.Second
	}

	return st
}

type Usecase struct {
	repoDB      repoDB
	repoMQ      repoMQ
	cfg         config.Config
	uid         uid.NumberID
	clock       clock.Clocker
	validator   validator.Validator
	fingerprint hash.Fingerprinter
	adapters    map[entity.Channel]ChannelAdapter
	ins         instrument.Instrumentation
	settings    settings

	bucketMu sync.Mutex
	buckets  map[bucketKey]*bucket

	aggregatedTotal *atomic.Int64
	digestTotal     *atomic.Int64
	lostBucketTotal *atomic.Int64
}

type Dependency struct {
	RepoDB      repoDB
	RepoMQ      repoMQ
	Config      config.Config
	UID         uid.NumberID
	Clock       clock.Clocker
	Validator   validator.Validator
	Fingerprint hash.Fingerprinter
	Adapters    map[entity.Channel]ChannelAdapter
	Instrument  instrument.Instrumentation
}

func NewNotification(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:          dep.RepoDB,
		repoMQ:          dep.RepoMQ,
		cfg:             dep.Config,
		uid:             dep.UID,
		clock:           dep.Clock,
		validator:       dep.Validator,
		fingerprint:     dep.Fingerprint,
		adapters:        dep.Adapters,
		ins:             dep.Instrument,
		settings:        loadSettings(dep.Config),
		buckets:         make(map[bucketKey]*bucket),
		aggregatedTotal: atomic.NewInt64(0),
		digestTotal:     atomic.NewInt64(0),
		lostBucketTotal: atomic.NewInt64(0),
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("notification.usecase").Start(ctx, name)
}
