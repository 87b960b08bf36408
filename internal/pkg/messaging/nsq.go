package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/nsqio/go-nsq"
)

// NSQConfig configures the NSQ driver.
type NSQConfig struct {
	NSQDAddress       string
	LookupdAddresses  []string
	MaxRequeueAttempt int
}

// nsqEnvelope wraps the payload so headers and key survive NSQ's bare body.
type nsqEnvelope struct {
	Body    []byte   `json:"body"`
	Key     []byte   `json:"key,omitempty"`
	Headers []Header `json:"headers,omitempty"`
}

// NSQ implements Messaging on top of nsqio/go-nsq.
type NSQ struct {
	cfg      NSQConfig
	producer *nsq.Producer

	mu        sync.Mutex
	consumers []*nsq.Consumer
	closed    bool
}

// NewNSQ creates an NSQ messaging client with a producer connected to nsqd.
func NewNSQ(cfg NSQConfig) (*NSQ, error) {
	if cfg.NSQDAddress == "" {
		return nil, errors.New("messaging: nsqd address is required")
	}
	if cfg.MaxRequeueAttempt <= 0 {
		cfg.MaxRequeueAttempt = 5
	}

	producer, err := nsq.NewProducer(cfg.NSQDAddress, nsq.NewConfig())
	if err != nil {
		return nil, fmt.Errorf("messaging: nsq producer: %w", err)
	}

	return &NSQ{cfg: cfg, producer: producer}, nil
}

// Publish wraps the message in an envelope and publishes it to the topic.
func (n *NSQ) Publish(_ context.Context, topic string, msg OutgoingMessage) error {
	if topic == "" {
		return ErrTopicRequired
	}

	body, err := json.Marshal(nsqEnvelope{Body: msg.Body, Key: msg.Key, Headers: msg.Headers})
	if err != nil {
		return fmt.Errorf("messaging: nsq envelope encode: %w", err)
	}

	if err := n.producer.Publish(topic, body); err != nil {
		return fmt.Errorf("messaging: nsq publish to %s: %w", topic, err)
	}

	return nil
}

// Consume subscribes to the topic on the configured channel and blocks
// until the context is done. Nack requeues with NSQ's own backoff until the
// attempt limit, after which the message is finished and dropped.
func (n *NSQ) Consume(ctx context.Context, topic string, handler Handler, opts ...ConsumeOption) error {
	if topic == "" {
		return ErrTopicRequired
	}
	if handler == nil {
		return ErrHandlerRequired
	}

	co := newConsumeOptions(opts...)
	if co.channel == "" {
		co.channel = "default"
	}

	cfg := nsq.NewConfig()
	cfg.MaxInFlight = co.maxInFlight
	cfg.MaxAttempts = uint16(n.cfg.MaxRequeueAttempt)

	consumer, err := nsq.NewConsumer(topic, co.channel, cfg)
	if err != nil {
		return fmt.Errorf("messaging: nsq consumer for %s: %w", topic, err)
	}

	consumer.AddConcurrentHandlers(nsq.HandlerFunc(func(m *nsq.Message) error {
		m.DisableAutoResponse()

		msg := newNSQMessage(m, topic)
		handlerErr := safeHandle(ctx, handler, msg)
		finish(ctx, msg, handlerErr, co.autoAck)

		return nil
	}), co.concurrency)

	if len(n.cfg.LookupdAddresses) > 0 {
		err = consumer.ConnectToNSQLookupds(n.cfg.LookupdAddresses)
	} else {
		err = consumer.ConnectToNSQD(n.cfg.NSQDAddress)
	}
	if err != nil {
		consumer.Stop()

		return fmt.Errorf("messaging: nsq connect for %s: %w", topic, err)
	}

	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		consumer.Stop()

		return errors.New("messaging: nsq client is closed")
	}
	n.consumers = append(n.consumers, consumer)
	n.mu.Unlock()

	select {
	case <-ctx.Done():
		consumer.Stop()
		<-consumer.StopChan
	case <-consumer.StopChan:
	}

	return nil
}

// Close stops the producer and every active consumer.
func (n *NSQ) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return nil
	}
	n.closed = true

	n.producer.Stop()
	for _, c := range n.consumers {
		c.Stop()
		<-c.StopChan
	}

	return nil
}
