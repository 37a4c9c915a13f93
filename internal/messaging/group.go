package messaging

import (
	"context"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.uber.org/zap"
)

// Runnable represents a component that can be started and shutdown.
type Runnable interface {
	Start(ctx context.Context) error
	Shutdown() error
}

type topicNamer interface {
	Topic() string
}

// ConsumerGroup runs consumers sharing one subscriber and closes the subscriber on shutdown.
type ConsumerGroup struct {
	consumers  []Runnable
	subscriber message.Subscriber
	logger     *zap.Logger
}

// NewConsumerGroup creates an empty consumer group.
func NewConsumerGroup(subscriber message.Subscriber, logger *zap.Logger) *ConsumerGroup {
	return &ConsumerGroup{
		subscriber: subscriber,
		logger:     logger,
	}
}

// Add registers consumers; they start in the order added.
func (g *ConsumerGroup) Add(consumers ...Runnable) {
	g.consumers = append(g.consumers, consumers...)
}

// Topics lists the topics of registered consumers that expose one.
func (g *ConsumerGroup) Topics() []string {
	topics := make([]string, 0, len(g.consumers))

	for _, consumer := range g.consumers {
		if named, ok := consumer.(topicNamer); ok {
			topics = append(topics, named.Topic())
		}
	}

	return topics
}

// Start starts every consumer. If one fails, the ones already running are stopped.
func (g *ConsumerGroup) Start(ctx context.Context) error {
	for i, consumer := range g.consumers {
		if err := consumer.Start(ctx); err != nil {
			for _, started := range g.consumers[:i] {
				_ = started.Shutdown()
			}

			return fmt.Errorf("start consumer %s: %w", describe(consumer, i), err)
		}
	}

	g.logger.Info("consumer group started",
		zap.Int("count", len(g.consumers)),
		zap.Strings("topics", g.Topics()),
	)

	return nil
}

// Shutdown stops every consumer, then closes the subscriber.
func (g *ConsumerGroup) Shutdown() error {
	g.logger.Info("shutting down consumer group")

	errs := make([]error, 0, len(g.consumers)+1)
	for _, consumer := range g.consumers {
		errs = append(errs, consumer.Shutdown())
	}

	errs = append(errs, g.subscriber.Close())

	return errors.Join(errs...)
}

func describe(consumer Runnable, index int) string {
	if named, ok := consumer.(topicNamer); ok {
		return named.Topic()
	}

	return fmt.Sprintf("#%d", index)
}
