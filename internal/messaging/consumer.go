package messaging

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.uber.org/zap"
)

// Handler processes a single event. A returned error nacks the message for redelivery.
type Handler[T any] func(ctx context.Context, event *T) error

// ConsumerOption configures a Consumer.
type ConsumerOption func(*consumerConfig)

type consumerConfig struct {
	handlerTimeout time.Duration
}

// WithHandlerTimeout bounds each handler call. Zero means no deadline.
func WithHandlerTimeout(d time.Duration) ConsumerOption {
	return func(c *consumerConfig) {
		c.handlerTimeout = d
	}
}

// Consumer decodes JSON messages of one topic into T and hands them to a Handler.
type Consumer[T any] struct {
	subscriber message.Subscriber
	topic      string
	handler    Handler[T]
	cfg        consumerConfig
	logger     *zap.Logger
	cancel     context.CancelFunc
	done       chan struct{}
}

// NewConsumer creates a consumer for topic.
func NewConsumer[T any](
	subscriber message.Subscriber,
	topic string,
	handler Handler[T],
	logger *zap.Logger,
	opts ...ConsumerOption,
) *Consumer[T] {
	var cfg consumerConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Consumer[T]{
		subscriber: subscriber,
		topic:      topic,
		handler:    handler,
		cfg:        cfg,
		logger:     logger.With(zap.String("topic", topic)),
		done:       make(chan struct{}),
	}
}

// Topic returns the subscribed topic.
func (c *Consumer[T]) Topic() string {
	return c.topic
}

// Start subscribes and processes messages in the background until ctx ends or Shutdown is called.
func (c *Consumer[T]) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)

	msgs, err := c.subscriber.Subscribe(ctx, c.topic)
	if err != nil {
		cancel()

		return err
	}

	c.cancel = cancel

	go func() {
		defer close(c.done)

		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}

				c.process(ctx, msg)
			}
		}
	}()

	return nil
}

func (c *Consumer[T]) process(ctx context.Context, msg *message.Message) {
	log := c.logger.With(
		zap.String("message_id", msg.UUID),
		zap.String("request_id", msg.Metadata.Get("request_id")),
	)

	var event T
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		// Redelivery cannot fix a malformed payload.
		log.Error("dropping malformed event", zap.Error(err))
		msg.Ack()

		return
	}

	if c.cfg.handlerTimeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, c.cfg.handlerTimeout)
		defer cancel()
	}

	if err := c.handler(ctx, &event); err != nil {
		log.Error("failed to handle event", zap.Error(err))
		msg.Nack()

		return
	}

	msg.Ack()
	log.Debug("processed event")
}

// Shutdown stops the consumer and waits for the in-flight message. It is a no-op before Start.
func (c *Consumer[T]) Shutdown() error {
	if c.cancel == nil {
		return nil
	}

	c.cancel()
	<-c.done

	return nil
}
