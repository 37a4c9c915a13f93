package container

import (
	"fmt"
	"os"

	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/samber/do"
	"github.com/serroba/short-links/internal/analytics"
	analyticsstore "github.com/serroba/short-links/internal/analytics/store"
	"github.com/serroba/short-links/internal/messaging"
	"go.uber.org/zap"
)

// PublisherGroupPackage provides the *messaging.PublisherGroup over Redis streams.
func PublisherGroupPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*messaging.PublisherGroup, error) {
		client := do.MustInvoke[*Redis](i)
		logger := do.MustInvoke[*zap.Logger](i)

		publisher, err := redisstream.NewPublisher(redisstream.PublisherConfig{
			Client:     client.Client,
			Marshaller: redisstream.DefaultMarshallerUnmarshaller{},
		}, messaging.NewZapLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("redis stream publisher: %w", err)
		}

		return messaging.NewPublisherGroup(publisher), nil
	})
}

// AnalyticsStorePackage provides the analytics.Store chosen by --analytics-store.
func AnalyticsStorePackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (analytics.Store, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		switch opts.AnalyticsStore {
		case AnalyticsNoop:
			return analyticsstore.NewNoop(logger), nil
		case AnalyticsPostgres:
			db := do.MustInvoke[*Database](i)

			return analyticsstore.NewPostgres(db.Pool), nil
		default:
			return nil, fmt.Errorf("unknown analytics store %q", opts.AnalyticsStore)
		}
	})
}

// ConsumerGroupPackage provides the *messaging.ConsumerGroup persisting link events.
func ConsumerGroupPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*messaging.ConsumerGroup, error) {
		opts := do.MustInvoke[*Options](i)
		client := do.MustInvoke[*Redis](i)
		sink := do.MustInvoke[analytics.Store](i)
		logger := do.MustInvoke[*zap.Logger](i)

		consumer, err := os.Hostname()
		if err != nil {
			consumer = "consumer"
		}

		subscriber, err := redisstream.NewSubscriber(redisstream.SubscriberConfig{
			Client:        client.Client,
			Unmarshaller:  redisstream.DefaultMarshallerUnmarshaller{},
			ConsumerGroup: opts.ConsumerGroup,
			Consumer:      consumer,
		}, messaging.NewZapLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("redis stream subscriber: %w", err)
		}

		group := messaging.NewConsumerGroup(subscriber, logger)
		group.Add(analytics.NewConsumers(subscriber, sink, logger)...)

		return group, nil
	})
}
