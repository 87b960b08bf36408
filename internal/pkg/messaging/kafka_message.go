package messaging

import (
	"context"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
)

type kafkaMessage struct {
	msg    kafka.Message
	reader *kafka.Reader
}

var _ Message = (*kafkaMessage)(nil)

func (m *kafkaMessage) Body() []byte { return m.msg.Value }

func (m *kafkaMessage) Key() []byte { return m.msg.Key }

func (m *kafkaMessage) Headers() []Header {
	headers := make([]Header, 0, len(m.msg.Headers))
	for _, h := range m.msg.Headers {
		headers = append(headers, Header{Key: h.Key, Value: h.Value})
	}

	return headers
}

// ID is topic/partition/offset, which uniquely identifies the record and is
// stable across redeliveries.
func (m *kafkaMessage) ID() string {
	return m.msg.Topic + "/" + strconv.Itoa(m.msg.Partition) + "/" + strconv.FormatInt(m.msg.Offset, 10)
}

func (m *kafkaMessage) Topic() string { return m.msg.Topic }

func (m *kafkaMessage) Timestamp() time.Time { return m.msg.Time }

func (m *kafkaMessage) Ack(ctx context.Context) error {
	return m.reader.CommitMessages(ctx, m.msg)
}

// Nack leaves the offset uncommitted; the group redelivers the message on
// the next rebalance or restart.
func (m *kafkaMessage) Nack(_ context.Context) error { return nil }
