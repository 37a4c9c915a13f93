package analytics

import (
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/serroba/short-links/internal/messaging"
	"go.uber.org/zap"
)

// HandlerTimeout bounds a single store write; a timed out event is redelivered.
const HandlerTimeout = 5 * time.Second

// NewConsumers returns one consumer per link event topic, each persisting into store.
func NewConsumers(subscriber message.Subscriber, store Store, logger *zap.Logger) []messaging.Runnable {
	timeout := messaging.WithHandlerTimeout(HandlerTimeout)

	return []messaging.Runnable{
		messaging.NewConsumer[LinkCreatedEvent](subscriber, TopicLinkCreated, store.SaveLinkCreated, logger, timeout),
		messaging.NewConsumer[LinkVisitedEvent](subscriber, TopicLinkVisited, store.SaveLinkVisited, logger, timeout),
	}
}
