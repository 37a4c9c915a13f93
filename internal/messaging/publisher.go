package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-chi/chi/v5/middleware"
)

// Publish is a function that publishes a typed event.
type Publish[T any] func(ctx context.Context, event *T) error

// NewPublishFunc creates a typed publish function for a specific topic.
func NewPublishFunc[T any](publisher message.Publisher, topic string) Publish[T] {
	return func(ctx context.Context, event *T) error {
		payload, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("marshal %s event: %w", topic, err)
		}

		msg := message.NewMessage(watermill.NewUUID(), payload)
		msg.SetContext(ctx)
		msg.Metadata.Set("topic", topic)

		if reqID := middleware.GetReqID(ctx); reqID != "" {
			msg.Metadata.Set("request_id", reqID)
		}

		return publisher.Publish(topic, msg)
	}
}

// Discard returns a publish function that drops every event, used when events are disabled.
func Discard[T any]() Publish[T] {
	return func(context.Context, *T) error { return nil }
}

// PublisherGroup manages the underlying publisher lifecycle.
type PublisherGroup struct {
	publisher message.Publisher
}

// NewPublisherGroup creates a new publisher group.
func NewPublisherGroup(publisher message.Publisher) *PublisherGroup {
	return &PublisherGroup{publisher: publisher}
}

// Publisher returns the underlying message publisher for creating typed publish functions.
func (g *PublisherGroup) Publisher() message.Publisher {
	return g.publisher
}

// Shutdown closes the underlying publisher.
func (g *PublisherGroup) Shutdown() error {
	return g.publisher.Close()
}
