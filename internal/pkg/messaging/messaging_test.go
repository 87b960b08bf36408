package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/nsqio/go-nsq"
	"github.com/sdwijaya/herald/internal/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubMessage is a minimal Message for handler plumbing tests.
type stubMessage struct {
	body   []byte
	topic  string
	acked  int
	nacked int
}

func (m *stubMessage) Body() []byte         { return m.body }
func (m *stubMessage) Key() []byte          { return nil }
func (m *stubMessage) Headers() []Header    { return nil }
func (m *stubMessage) ID() string           { return "stub-1" }
func (m *stubMessage) Topic() string        { return m.topic }
func (m *stubMessage) Timestamp() time.Time { return time.Time{} }
func (m *stubMessage) Ack(context.Context) error {
	m.acked++
	return nil
}
func (m *stubMessage) Nack(context.Context) error {
	m.nacked++
	return nil
}

func TestSafeHandle(t *testing.T) {
	t.Run("HandlerErrorPassedThrough", func(t *testing.T) {
		want := errors.New("boom")

		got := safeHandle(t.Context(), func(context.Context, Message) error { return want }, &stubMessage{})

		assert.ErrorIs(t, got, want)
	})

	t.Run("PanicBecomesError", func(t *testing.T) {
		got := safeHandle(t.Context(), func(context.Context, Message) error {
			panic("bad payload")
		}, &stubMessage{topic: "notifications.in"})

		require.Error(t, got)
		assert.Contains(t, got.Error(), "handler panic")
	})
}

func TestFinish(t *testing.T) {
	t.Run("AutoAckOnSuccess", func(t *testing.T) {
		msg := &stubMessage{}

		finish(t.Context(), msg, nil, true)

		assert.Equal(t, 1, msg.acked)
		assert.Zero(t, msg.nacked)
	})

	t.Run("AutoNackOnError", func(t *testing.T) {
		msg := &stubMessage{}

		finish(t.Context(), msg, errors.New("boom"), true)

		assert.Zero(t, msg.acked)
		assert.Equal(t, 1, msg.nacked)
	})

	t.Run("ManualAckLeavesMessageAlone", func(t *testing.T) {
		msg := &stubMessage{}

		finish(t.Context(), msg, errors.New("boom"), false)

		assert.Zero(t, msg.acked)
		assert.Zero(t, msg.nacked)
	})
}

func TestNSQEnvelopeRoundTrip(t *testing.T) {
	raw, err := json.Marshal(nsqEnvelope{
		Body:    []byte(`{"notification_id":42}`),
		Key:     []byte("42"),
		Headers: []Header{{Key: "cID", Value: []byte("abc")}},
	})
	require.NoError(t, err)

	msg := newNSQMessage(nsq.NewMessage(nsq.MessageID{}, raw), "notifications.in")

	assert.Equal(t, []byte(`{"notification_id":42}`), msg.Body())
	assert.Equal(t, []byte("42"), msg.Key())
	require.Len(t, msg.Headers(), 1)
	assert.Equal(t, "cID", msg.Headers()[0].Key)
	assert.Equal(t, "notifications.in", msg.Topic())
}

func TestNSQForeignBodyFallback(t *testing.T) {
	msg := newNSQMessage(nsq.NewMessage(nsq.MessageID{}, []byte("plain text")), "notifications.in")

	assert.Equal(t, []byte("plain text"), msg.Body())
	assert.Nil(t, msg.Key())
	assert.Empty(t, msg.Headers())
}

func TestNewFromConfigUnknownDriver(t *testing.T) {
	cfg, err := config.NewViperFromBytes("yaml", []byte("messaging:\n  driver: rabbit\n"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = cfg.Close() })

	_, err = NewFromConfig(cfg)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported driver")
}
