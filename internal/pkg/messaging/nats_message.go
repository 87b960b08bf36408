package messaging

import (
	"context"
	"time"

	"github.com/nats-io/nats.go"
)

type natsMessage struct {
	msg      *nats.Msg
	topic    string
	received time.Time
}

var _ Message = (*natsMessage)(nil)

func (m *natsMessage) Body() []byte { return m.msg.Data }

func (m *natsMessage) Key() []byte { return nil }

func (m *natsMessage) Headers() []Header {
	headers := make([]Header, 0, len(m.msg.Header))
	for key, values := range m.msg.Header {
		for _, v := range values {
			headers = append(headers, Header{Key: key, Value: []byte(v)})
		}
	}

	return headers
}

// ID comes from the Nats-Msg-Id header when the publisher set one.
func (m *natsMessage) ID() string {
	return m.msg.Header.Get(nats.MsgIdHdr)
}

func (m *natsMessage) Topic() string { return m.topic }

// Timestamp is the local receive time; core NATS carries no broker time.
func (m *natsMessage) Timestamp() time.Time { return m.received }

func (m *natsMessage) Ack(_ context.Context) error { return nil }

func (m *natsMessage) Nack(_ context.Context) error { return nil }
