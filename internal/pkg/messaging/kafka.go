package messaging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaConfig configures the Kafka driver.
type KafkaConfig struct {
	Brokers  []string
	ClientID string
}

// Kafka implements Messaging on top of segmentio/kafka-go.
type Kafka struct {
	cfg    KafkaConfig
	writer *kafka.Writer

	mu      sync.Mutex
	readers []*kafka.Reader
	closed  bool
}

// NewKafka creates a Kafka messaging client.
func NewKafka(cfg KafkaConfig) (*Kafka, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("messaging: kafka brokers are required")
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 20 * time.Millisecond,
	}

	return &Kafka{cfg: cfg, writer: writer}, nil
}

// Publish writes one message to the topic. The key, when set, pins the
// message to a partition so per-key ordering holds.
func (k *Kafka) Publish(ctx context.Context, topic string, msg OutgoingMessage) error {
	if topic == "" {
		return ErrTopicRequired
	}

	headers := make([]kafka.Header, 0, len(msg.Headers))
	for _, h := range msg.Headers {
		headers = append(headers, kafka.Header{Key: h.Key, Value: h.Value})
	}

	err := k.writer.WriteMessages(ctx, kafka.Message{
		Topic:   topic,
		Key:     msg.Key,
		Value:   msg.Body,
		Headers: headers,
	})
	if err != nil {
		return fmt.Errorf("messaging: kafka publish to %s: %w", topic, err)
	}

	return nil
}

// Consume fetches messages from the topic within a consumer group and feeds
// them to a bounded worker pool. Offsets are committed on Ack, so an
// unhandled message is redelivered after a rebalance.
func (k *Kafka) Consume(ctx context.Context, topic string, handler Handler, opts ...ConsumeOption) error {
	if topic == "" {
		return ErrTopicRequired
	}
	if handler == nil {
		return ErrHandlerRequired
	}

	co := newConsumeOptions(opts...)

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        k.cfg.Brokers,
		GroupID:        co.group,
		Topic:          topic,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0, // synchronous commits
	})

	k.mu.Lock()
	if k.closed {
		k.mu.Unlock()
		_ = reader.Close()

		return errors.New("messaging: kafka client is closed")
	}
	k.readers = append(k.readers, reader)
	k.mu.Unlock()

	jobs := make(chan kafka.Message)

	var wg sync.WaitGroup
	for range co.concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for m := range jobs {
				msg := &kafkaMessage{msg: m, reader: reader}
				finish(ctx, msg, safeHandle(ctx, handler, msg), co.autoAck)
			}
		}()
	}

	var fetchErr error
	for {
		m, err := reader.FetchMessage(ctx)
		if err != nil {
			if !errors.Is(err, context.Canceled) && !errors.Is(err, io.EOF) {
				fetchErr = fmt.Errorf("messaging: kafka fetch from %s: %w", topic, err)
			}

			break
		}

		select {
		case jobs <- m:
		case <-ctx.Done():
		}

		if ctx.Err() != nil {
			break
		}
	}

	close(jobs)
	wg.Wait()

	return fetchErr
}

// Close shuts down the writer and every active reader.
func (k *Kafka) Close() error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.closed {
		return nil
	}
	k.closed = true

	err := k.writer.Close()
	for _, r := range k.readers {
		err = errors.Join(err, r.Close())
	}

	return err
}
