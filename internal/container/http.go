package container

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor" // CBOR format support for huma
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/samber/do"
	"github.com/serroba/short-links/internal/analytics"
	"github.com/serroba/short-links/internal/connection"
	"github.com/serroba/short-links/internal/handlers"
	"github.com/serroba/short-links/internal/health"
	"github.com/serroba/short-links/internal/messaging"
	"github.com/serroba/short-links/internal/middleware"
	"github.com/serroba/short-links/internal/shortener"
	"go.uber.org/zap"
)

// HTTPPackage provides the *chi.Mux and the huma.API with every route registered.
func HTTPPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*chi.Mux, error) {
		logger := do.MustInvoke[*zap.Logger](i)

		router := chi.NewMux()
		router.Use(chimw.RequestID)
		router.Use(chimw.Recoverer)
		router.Use(middleware.AccessLog(logger))

		return router, nil
	})

	do.Provide(injector, func(i *do.Injector) (huma.API, error) {
		opts := do.MustInvoke[*Options](i)
		router := do.MustInvoke[*chi.Mux](i)
		registry := do.MustInvoke[*shortener.Registry](i)
		tracker := do.MustInvoke[*connection.Tracker](i)
		logger := do.MustInvoke[*zap.Logger](i)

		api := humachi.New(router, huma.DefaultConfig("Short Links", "1.0.0"))
		api.UseMiddleware(middleware.RequestMeta(api, opts.TrustProxy))

		publishCreated := messaging.Discard[analytics.LinkCreatedEvent]()
		publishVisited := messaging.Discard[analytics.LinkVisitedEvent]()

		if opts.Events {
			publisher := do.MustInvoke[*messaging.PublisherGroup](i).Publisher()
			publishCreated = messaging.NewPublishFunc[analytics.LinkCreatedEvent](publisher, analytics.TopicLinkCreated)
			publishVisited = messaging.NewPublishFunc[analytics.LinkVisitedEvent](publisher, analytics.TopicLinkVisited)
		}

		var cache health.Checker
		if opts.Cache || opts.Events {
			cache = health.NewRedisChecker(do.MustInvoke[*Redis](i).Client)
		}

		health.RegisterRoutes(api, health.NewHandler(tracker, cache, opts.Environment,
			health.WithCacheTimeout(millis(opts.CacheTimeoutMs))))
		handlers.RegisterRoutes(api, handlers.NewURLHandler(registry, publishCreated, publishVisited, logger))

		return api, nil
	})
}
