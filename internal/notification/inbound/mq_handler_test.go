package inbound

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sdwijaya/herald/internal/pkg/idempotency"
	"github.com/sdwijaya/herald/internal/pkg/instrument"
	"github.com/sdwijaya/herald/internal/pkg/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubConsumer struct {
	processed []int64
	delivered []int64
	err       error
}

func (s *stubConsumer) Process(_ context.Context, id int64) error {
	s.processed = append(s.processed, id)
	return s.err
}

func (s *stubConsumer) Deliver(_ context.Context, id int64) error {
	s.delivered = append(s.delivered, id)
	return s.err
}

type stubGuard struct {
	calls int
	err   error
}

func (g *stubGuard) Exec(ctx context.Context, _ string, fn func(context.Context) error) error {
	g.calls++
	if g.err != nil {
		return g.err
	}
	return fn(ctx)
}

type stubUUID struct{}

func (stubUUID) Generate() string { return "uuid-1" }

type testMessage struct {
	body    []byte
	id      string
	topic   string
	headers []messaging.Header
}

func (m *testMessage) Body() []byte                { return m.body }
func (m *testMessage) Key() []byte                 { return nil }
func (m *testMessage) Headers() []messaging.Header { return m.headers }
func (m *testMessage) ID() string                  { return m.id }
func (m *testMessage) Topic() string               { return m.topic }
func (m *testMessage) Timestamp() time.Time        { return time.Time{} }
func (m *testMessage) Ack(context.Context) error   { return nil }
func (m *testMessage) Nack(context.Context) error  { return nil }

func newTestHandler(uc ucConsumer, guard idempotency.Guard) *MQHandler {
	return &MQHandler{uc: uc, uuid: stubUUID{}, guard: guard, ins: instrument.NewNoop()}
}

func TestMQHandler(t *testing.T) {
	t.Run("IngestedRunsProcess", func(t *testing.T) {
		uc := &stubConsumer{}
		guard := &stubGuard{}
		h := newTestHandler(uc, guard)

		err := h.IngestedNotification(t.Context(), &testMessage{
			body:  []byte(`{"notification_id":42}`),
			id:    "m-1",
			topic: "notifications.in",
		})

		require.NoError(t, err)
		assert.Equal(t, []int64{42}, uc.processed)
		assert.Equal(t, 1, guard.calls)
	})

	t.Run("DeliverableRunsDeliver", func(t *testing.T) {
		uc := &stubConsumer{}
		h := newTestHandler(uc, &stubGuard{})

		err := h.DeliverableNotification(t.Context(), &testMessage{
			body:  []byte(`{"notification_id":7}`),
			id:    "m-2",
			topic: "notifications.scheduled",
		})

		require.NoError(t, err)
		assert.Equal(t, []int64{7}, uc.delivered)
	})

	t.Run("MalformedPayloadDropped", func(t *testing.T) {
		uc := &stubConsumer{}
		h := newTestHandler(uc, &stubGuard{})

		err := h.IngestedNotification(t.Context(), &testMessage{
			body:  []byte("not json"),
			id:    "m-3",
			topic: "notifications.in",
		})

		require.NoError(t, err)
		assert.Empty(t, uc.processed)
	})

	t.Run("AlreadyHandledAcked", func(t *testing.T) {
		uc := &stubConsumer{}
		h := newTestHandler(uc, &stubGuard{err: idempotency.ErrCompleted})

		err := h.IngestedNotification(t.Context(), &testMessage{
			body:  []byte(`{"notification_id":42}`),
			id:    "m-4",
			topic: "notifications.in",
		})

		require.NoError(t, err)
		assert.Empty(t, uc.processed)
	})

	t.Run("InProgressAcked", func(t *testing.T) {
		h := newTestHandler(&stubConsumer{}, &stubGuard{err: idempotency.ErrInProgress})

		err := h.IngestedNotification(t.Context(), &testMessage{
			body:  []byte(`{"notification_id":42}`),
			id:    "m-5",
			topic: "notifications.in",
		})

		require.NoError(t, err)
	})

	t.Run("UsecaseErrorPropagatesForNack", func(t *testing.T) {
		uc := &stubConsumer{err: errors.New("db down")}
		h := newTestHandler(uc, &stubGuard{})

		err := h.IngestedNotification(t.Context(), &testMessage{
			body:  []byte(`{"notification_id":42}`),
			id:    "m-6",
			topic: "notifications.in",
		})

		require.Error(t, err)
	})

	t.Run("MissingBrokerIDSkipsGuard", func(t *testing.T) {
		uc := &stubConsumer{}
		guard := &stubGuard{}
		h := newTestHandler(uc, guard)

		err := h.IngestedNotification(t.Context(), &testMessage{
			body:  []byte(`{"notification_id":42}`),
			topic: "notifications.in",
		})

		require.NoError(t, err)
		assert.Equal(t, []int64{42}, uc.processed)
		assert.Zero(t, guard.calls)
	})
}
