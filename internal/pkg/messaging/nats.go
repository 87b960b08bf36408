package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

// NATSConfig configures the NATS driver.
type NATSConfig struct {
	URL  string
	Name string
}

// NATS implements Messaging on top of core NATS subjects. Delivery is
// at-most-once per queue group; the pipeline's own persistence covers
// messages lost between publish and handle.
type NATS struct {
	conn *nats.Conn
}

// NewNATS connects to the NATS server.
func NewNATS(cfg NATSConfig) (*NATS, error) {
	if cfg.URL == "" {
		cfg.URL = nats.DefaultURL
	}

	conn, err := nats.Connect(cfg.URL,
		nats.Name(cfg.Name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("messaging: nats connect: %w", err)
	}

	return &NATS{conn: conn}, nil
}

// Publish sends one message on the subject.
func (n *NATS) Publish(_ context.Context, topic string, msg OutgoingMessage) error {
	if topic == "" {
		return ErrTopicRequired
	}

	m := nats.NewMsg(topic)
	m.Data = msg.Body
	for _, h := range msg.Headers {
		m.Header.Add(h.Key, string(h.Value))
	}

	if err := n.conn.PublishMsg(m); err != nil {
		return fmt.Errorf("messaging: nats publish to %s: %w", topic, err)
	}

	return nil
}

// Consume subscribes to the subject, optionally within a queue group, and
// feeds messages to a bounded worker pool until the context is done.
func (n *NATS) Consume(ctx context.Context, topic string, handler Handler, opts ...ConsumeOption) error {
	if topic == "" {
		return ErrTopicRequired
	}
	if handler == nil {
		return ErrHandlerRequired
	}

	co := newConsumeOptions(opts...)

	jobs := make(chan *nats.Msg, co.maxInFlight)

	deliver := func(m *nats.Msg) {
		select {
		case jobs <- m:
		case <-ctx.Done():
		}
	}

	var (
		sub *nats.Subscription
		err error
	)
	if co.queueGroup != "" {
		sub, err = n.conn.QueueSubscribe(topic, co.queueGroup, deliver)
	} else {
		sub, err = n.conn.Subscribe(topic, deliver)
	}
	if err != nil {
		return fmt.Errorf("messaging: nats subscribe to %s: %w", topic, err)
	}

	var wg sync.WaitGroup
	for range co.concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for m := range jobs {
				msg := &natsMessage{msg: m, topic: topic, received: time.Now()}
				finish(ctx, msg, safeHandle(ctx, handler, msg), co.autoAck)
			}
		}()
	}

	<-ctx.Done()

	err = sub.Drain()
	close(jobs)
	wg.Wait()

	if err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
		return fmt.Errorf("messaging: nats drain %s: %w", topic, err)
	}

	return nil
}

// Close drains the connection so in-flight messages finish first.
func (n *NATS) Close() error {
	if n.conn.IsClosed() {
		return nil
	}

	return n.conn.Drain()
}
