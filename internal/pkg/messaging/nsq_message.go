package messaging

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nsqio/go-nsq"
)

type nsqMessage struct {
	msg      *nsq.Message
	topic    string
	envelope nsqEnvelope
}

var _ Message = (*nsqMessage)(nil)

// newNSQMessage decodes the publish envelope; a body that is not an
// envelope is treated as a bare payload from a foreign producer.
func newNSQMessage(m *nsq.Message, topic string) *nsqMessage {
	msg := &nsqMessage{msg: m, topic: topic}
	if err := json.Unmarshal(m.Body, &msg.envelope); err != nil || msg.envelope.Body == nil {
		msg.envelope = nsqEnvelope{Body: m.Body}
	}

	return msg
}

func (m *nsqMessage) Body() []byte { return m.envelope.Body }

func (m *nsqMessage) Key() []byte { return m.envelope.Key }

func (m *nsqMessage) Headers() []Header { return m.envelope.Headers }

func (m *nsqMessage) ID() string {
	id := m.msg.ID

	return string(id[:])
}

func (m *nsqMessage) Topic() string { return m.topic }

func (m *nsqMessage) Timestamp() time.Time {
	return time.Unix(0, m.msg.Timestamp)
}

func (m *nsqMessage) Ack(_ context.Context) error {
	m.msg.Finish()

	return nil
}

func (m *nsqMessage) Nack(_ context.Context) error {
	m.msg.Requeue(-1)

	return nil
}
