package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/sdwijaya/herald/internal/notification/entity"
	"github.com/sdwijaya/herald/internal/pkg/config"
	"github.com/sdwijaya/herald/internal/pkg/goerror"
	"github.com/sdwijaya/herald/internal/pkg/hash"
	"github.com/sdwijaya/herald/internal/pkg/instrument"
	"github.com/sdwijaya/herald/internal/pkg/validator"
	"github.com/stretchr/testify/require"
)

// fakeClock returns a fixed instant so policy windows are deterministic.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

// seqID hands out incrementing IDs starting at base.
type seqID struct {
	mu   sync.Mutex
	next int64
}

func (s *seqID) Generate() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++

	return s.next
}

// fakeDB is an in-memory repoDB honoring conditional status updates.
type fakeDB struct {
	mu            sync.Mutex
	notifications map[int64]*entity.Notification
	attempts      []entity.DeliveryAttempt
	preferences   map[int64]*entity.UserPreference
	updates       []entity.UpdateStatus

	now       time.Time
	dupExists bool
	dupErr    error
	hourly    int64
	daily     int64
	countErr  error
	updateErr error
	createErr error
	findErr   error
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		notifications: make(map[int64]*entity.Notification),
		preferences:   make(map[int64]*entity.UserPreference),
	}
}

func (f *fakeDB) put(n entity.Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := n
	f.notifications[n.ID] = &cp
}

func (f *fakeDB) get(id int64) entity.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()

	return *f.notifications[id]
}

func (f *fakeDB) CreateNotification(_ context.Context, data entity.CreateNotification) error {
	if f.createErr != nil {
		return f.createErr
	}

	f.put(entity.Notification{
		ID:             data.ID,
		UserID:         data.UserID,
		Channel:        data.Channel,
		Priority:       data.Priority,
		Category:       data.Category,
		Subject:        data.Subject,
		Message:        data.Message,
		Template:       data.Template,
		TemplateData:   data.TemplateData,
		Status:         data.Status,
		ContentHash:    data.ContentHash,
		ScheduledFor:   data.ScheduledFor,
		ExpiresAt:      data.ExpiresAt,
		FailReason:     data.FailReason,
		AggregatedFrom: data.AggregatedFrom,
	})

	return nil
}

func (f *fakeDB) GetNotification(_ context.Context, id int64) (*entity.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	n, ok := f.notifications[id]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	cp := *n

	return &cp, nil
}

func (f *fakeDB) UpdateStatus(_ context.Context, u entity.UpdateStatus) (bool, error) {
	if f.updateErr != nil {
		return false, f.updateErr
	}
	if !u.Valid() {
		return false, fmt.Errorf("illegal status transition %s to %s", u.ExpectedStatus.String(), u.Status.String())
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.updates = append(f.updates, u)

	n, ok := f.notifications[u.ID]
	if !ok || n.Status != u.ExpectedStatus {
		return false, nil
	}

	n.Status = u.Status
	if u.ScheduledFor != nil {
		n.ScheduledFor = u.ScheduledFor
	}
	if u.ClearSchedule {
		n.ScheduledFor = nil
	}
	if u.RetryCount != nil {
		n.RetryCount = *u.RetryCount
	}
	if u.LastRetryAt != nil {
		n.LastRetryAt = u.LastRetryAt
	}
	if u.FailReason != nil {
		n.FailReason = *u.FailReason
	}
	if u.AggregatedInto != nil {
		n.AggregatedInto = u.AggregatedInto
	}
	if u.SentAt != nil {
		n.SentAt = u.SentAt
	}
	if u.DeliveredAt != nil {
		n.DeliveredAt = u.DeliveredAt
	}
	if u.ReadAt != nil {
		n.ReadAt = u.ReadAt
	}

	return true, nil
}

func (f *fakeDB) FindDue(_ context.Context, now time.Time, limit int32) ([]entity.Notification, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	var due []entity.Notification
	for _, n := range f.notifications {
		waiting := n.Status == entity.StatusScheduled || n.Status == entity.StatusQueued
		if waiting && n.ScheduledFor != nil && !n.ScheduledFor.After(now) {
			due = append(due, *n)
		}
		if int32(len(due)) >= limit {
			break
		}
	}

	return due, nil
}

func (f *fakeDB) ListNotifications(_ context.Context, filter entity.ListFilter) ([]entity.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []entity.Notification
	for _, n := range f.notifications {
		if filter.UserID != 0 && n.UserID != filter.UserID {
			continue
		}
		out = append(out, *n)
	}

	return out, nil
}

func (f *fakeDB) ExistsDuplicate(context.Context, string, time.Time) (bool, error) {
	return f.dupExists, f.dupErr
}

func (f *fakeDB) CountDelivered(_ context.Context, _ int64, _ entity.Channel, since time.Time) (int64, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	// The narrower window carries the hourly figure.
	if f.now.Sub(since) < 2*time.Hour {
		return f.hourly, nil
	}

	return f.daily, nil
}

func (f *fakeDB) AppendAttempt(_ context.Context, attempt entity.DeliveryAttempt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts = append(f.attempts, attempt)

	return nil
}

func (f *fakeDB) ListAttempts(_ context.Context, notificationID int64) ([]entity.DeliveryAttempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []entity.DeliveryAttempt
	for _, a := range f.attempts {
		if a.NotificationID == notificationID {
			out = append(out, a)
		}
	}

	return out, nil
}

func (f *fakeDB) GetPreference(_ context.Context, userID int64) (*entity.UserPreference, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	p, ok := f.preferences[userID]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	cp := *p

	return &cp, nil
}

func (f *fakeDB) UpsertPreference(_ context.Context, pref entity.UserPreference) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.preferences[pref.UserID] = &pref

	return nil
}

// fakeMQ records every publish by topic intent.
type fakeMQ struct {
	mu         sync.Mutex
	ingested   []int64
	scheduled  []int64
	aggregated []int64
	deadLetter []struct {
		ID     int64
		Topic  string
		Reason string
	}
	publishErr error
}

func (f *fakeMQ) PublishIngested(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.publishErr != nil {
		return f.publishErr
	}
	f.ingested = append(f.ingested, id)

	return nil
}

func (f *fakeMQ) PublishScheduled(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.publishErr != nil {
		return f.publishErr
	}
	f.scheduled = append(f.scheduled, id)

	return nil
}

func (f *fakeMQ) PublishAggregated(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.publishErr != nil {
		return f.publishErr
	}
	f.aggregated = append(f.aggregated, id)

	return nil
}

func (f *fakeMQ) PublishDeadLetter(_ context.Context, id int64, originalTopic, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.publishErr != nil {
		return f.publishErr
	}
	f.deadLetter = append(f.deadLetter, struct {
		ID     int64
		Topic  string
		Reason string
	}{id, originalTopic, reason})

	return nil
}

// adapterFunc adapts a plain function into a ChannelAdapter.
type adapterFunc func(ctx context.Context, n entity.Notification) (string, error)

func (f adapterFunc) Send(ctx context.Context, n entity.Notification) (string, error) {
	return f(ctx, n)
}

type fixture struct {
	uc    *Usecase
	db    *fakeDB
	mq    *fakeMQ
	clock *fakeClock
}

func newFixture(t *testing.T, adapters map[entity.Channel]ChannelAdapter) *fixture {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte("app: {}"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = cfg.Close() })

	v10, err := validator.NewV10Validator()
	require.NoError(t, err)

	db := newFakeDB()
	mq := &fakeMQ{}
	clk := &fakeClock{now: time.Date(2026, time.March, 10, 14, 30, 0, 0, time.UTC)}
	db.now = clk.now

	uc := NewNotification(Dependency{
		RepoDB:      db,
		RepoMQ:      mq,
		Config:      cfg,
		UID:         &seqID{next: 1000},
		Clock:       clk,
		Validator:   v10,
		Fingerprint: hash.NewHMACSHA256("test-secret"),
		Adapters:    adapters,
		Instrument:  instrument.NewNoop(),
	})

	return &fixture{uc: uc, db: db, mq: mq, clock: clk}
}

func enabledPreference(userID int64) *entity.UserPreference {
	return &entity.UserPreference{UserID: userID}
}
