package messaging

// ConsumeOption configures a subscription.
type ConsumeOption func(*consumeOptions)

type consumeOptions struct {
	group       string
	channel     string
	queueGroup  string
	concurrency int
	maxInFlight int
	autoAck     bool
}

func newConsumeOptions(opts ...ConsumeOption) consumeOptions {
	co := consumeOptions{
		concurrency: 1,
		maxInFlight: 1,
		autoAck:     true,
	}
	for _, opt := range opts {
		opt(&co)
	}

	if co.concurrency < 1 {
		co.concurrency = 1
	}
	if co.maxInFlight < co.concurrency {
		co.maxInFlight = co.concurrency
	}

	return co
}

// WithGroup sets the Kafka consumer group ID.
func WithGroup(group string) ConsumeOption {
	return func(co *consumeOptions) { co.group = group }
}

// WithChannel sets the NSQ channel name.
func WithChannel(channel string) ConsumeOption {
	return func(co *consumeOptions) { co.channel = channel }
}

// WithQueueGroup sets the NATS queue group name.
func WithQueueGroup(queueGroup string) ConsumeOption {
	return func(co *consumeOptions) { co.queueGroup = queueGroup }
}

// WithConcurrency sets how many handler goroutines run per subscription.
func WithConcurrency(n int) ConsumeOption {
	return func(co *consumeOptions) { co.concurrency = n }
}

// WithMaxInFlight bounds unacked deliveries on brokers that support it.
func WithMaxInFlight(n int) ConsumeOption {
	return func(co *consumeOptions) { co.maxInFlight = n }
}

// WithAutoAck controls whether the driver acks on a nil handler error and
// nacks on a non-nil one. Disable it to ack manually from the handler.
func WithAutoAck(auto bool) ConsumeOption {
	return func(co *consumeOptions) { co.autoAck = auto }
}
