// Package messaging provides a broker-agnostic publish/consume client.
//
// The pipeline only assumes an at-least-once, topic-addressed log; the
// concrete broker (Kafka, NATS, NSQ) is selected by configuration through
// the factory. Handlers must therefore tolerate redelivery.
package messaging

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrHandlerRequired is returned when Consume is called with a nil handler.
var ErrHandlerRequired = errors.New("messaging: handler is required")

// ErrTopicRequired is returned when the topic name is empty.
var ErrTopicRequired = errors.New("messaging: topic is required")

// Messaging is a broker client that can publish and consume messages.
type Messaging interface {
	io.Closer

	Publisher
	Consumer
}

// Publisher publishes messages to a topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, msg OutgoingMessage) error
}

// Consumer consumes messages from a topic. Consume blocks until the context
// is canceled or the underlying subscription fails.
type Consumer interface {
	Consume(ctx context.Context, topic string, handler Handler, opts ...ConsumeOption) error
}

// Handler processes one received message. With auto-ack enabled, a nil
// return acks the message and a non-nil return nacks it for redelivery.
type Handler func(ctx context.Context, msg Message) error

// OutgoingMessage is a broker-agnostic message to publish.
type OutgoingMessage struct {
	// Body is the message payload.
	Body []byte
	// Key is used for partitioning on brokers that support it.
	Key []byte
	// Headers carry message metadata such as the correlation ID.
	Headers []Header
}

// Header is a key/value pair attached to a message.
type Header struct {
	Key   string
	Value []byte
}

// Message is a broker-agnostic received message.
type Message interface {
	// Body returns the message payload.
	Body() []byte
	// Key returns the partition key when the broker has one.
	Key() []byte
	// Headers returns message headers.
	Headers() []Header
	// ID returns a broker-unique message identity, stable across
	// redeliveries where the broker allows it.
	ID() string
	// Topic returns the topic the message arrived on.
	Topic() string
	// Timestamp returns the broker timestamp.
	Timestamp() time.Time

	// Ack marks the message as processed.
	Ack(ctx context.Context) error
	// Nack requests redelivery.
	Nack(ctx context.Context) error
}
