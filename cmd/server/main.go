package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/samber/do"
	"github.com/serroba/short-links/internal/connection"
	"github.com/serroba/short-links/internal/container"
	"github.com/serroba/short-links/internal/store/migrations"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// checkStoreTimeout bounds the retries of check-store.
const checkStoreTimeout = 30 * time.Second

func registerPackages(injector *do.Injector, options *container.Options) {
	do.ProvideValue(injector, options)
	container.LoggerPackage(injector)
	container.RedisPackage(injector)
	container.PostgresPackage(injector)
	container.StorePackage(injector)
	container.ConnectionPackage(injector)
	container.GuardPackage(injector)
	container.RegistryPackage(injector)
	container.PublisherGroupPackage(injector)
	container.HTTPPackage(injector)
}

func main() {
	// A missing .env file is fine; real environment variables still apply.
	_ = godotenv.Load()

	cli := humacli.New(func(hooks humacli.Hooks, options *container.Options) {
		injector := do.New()
		registerPackages(injector, options)

		var server *http.Server

		hooks.OnStart(func() {
			logger := do.MustInvoke[*zap.Logger](injector)
			router := do.MustInvoke[*chi.Mux](injector)

			// Invoke API to trigger route registration
			_ = do.MustInvoke[huma.API](injector)

			// Requests are served in degraded mode until the first successful ping.
			do.MustInvoke[*connection.Supervisor](injector).Start(context.Background())

			server = &http.Server{
				Addr:              fmt.Sprintf(":%d", options.Port),
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
			}

			logger.Info("server starting",
				zap.Int("port", options.Port),
				zap.String("environment", options.Environment),
			)

			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Fatal("server failed", zap.Error(err))
			}
		})

		hooks.OnStop(func() {
			logger := do.MustInvoke[*zap.Logger](injector)
			logger.Info("shutting down")

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if server != nil {
				if err := server.Shutdown(ctx); err != nil {
					logger.Error("server shutdown error", zap.Error(err))
				}
			}

			if err := injector.Shutdown(); err != nil {
				logger.Error("service shutdown error", zap.Error(err))
			}

			logger.Info("shutdown complete")
			_ = logger.Sync()
		})
	})

	cli.Root().AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Apply the PostgreSQL schema and exit",
		Run: humacli.WithOptions(func(_ *cobra.Command, _ []string, options *container.Options) {
			logger := mustLogger(options)

			if options.StoreDriver != container.DriverPostgres {
				logger.Info("nothing to migrate, schema is created on open",
					zap.String("driver", options.StoreDriver))

				return
			}

			if err := migrations.Run(options.DatabaseURL, logger); err != nil {
				logger.Fatal("migration failed", zap.Error(err))
			}
		}),
	})

	cli.Root().AddCommand(&cobra.Command{
		Use:   "check-store",
		Short: "Probe the mapping store and exit non-zero when it is unreachable",
		Run: humacli.WithOptions(func(_ *cobra.Command, _ []string, options *container.Options) {
			injector := do.New()
			registerPackages(injector, options)

			logger := do.MustInvoke[*zap.Logger](injector)
			backend := do.MustInvoke[*container.Backend](injector)

			ctx, cancel := context.WithTimeout(context.Background(), checkStoreTimeout)
			defer cancel()

			err := connection.Connect(ctx, backend.Pinger, options.Supervision(), logger)
			_ = injector.Shutdown()

			if err != nil {
				logger.Error("store unreachable", zap.String("driver", options.StoreDriver), zap.Error(err))
				os.Exit(1)
			}

			logger.Info("store reachable", zap.String("driver", options.StoreDriver))
		}),
	})

	cli.Run()
}

func mustLogger(options *container.Options) *zap.Logger {
	logger, err := container.NewLogger(options.LogFormat, options.LogLevel)
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	return logger
}
