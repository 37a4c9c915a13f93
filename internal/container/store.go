package container

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/serroba/short-links/internal/availability"
	"github.com/serroba/short-links/internal/connection"
	"github.com/serroba/short-links/internal/shortener"
	"github.com/serroba/short-links/internal/store"
	"github.com/serroba/short-links/internal/store/migrations"
	"go.uber.org/zap"
)

// Redis owns the shared Redis client.
type Redis struct {
	*redis.Client
}

// Shutdown closes the client.
func (r *Redis) Shutdown() error {
	return r.Close()
}

// RedisPackage provides *Redis.
func RedisPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*Redis, error) {
		opts := do.MustInvoke[*Options](i)

		return &Redis{Client: redis.NewClient(&redis.Options{
			Addr:                  opts.RedisAddr,
			ContextTimeoutEnabled: true,
		})}, nil
	})
}

// Database owns the PostgreSQL pool.
type Database struct {
	*pgxpool.Pool
}

// Shutdown closes the pool.
func (d *Database) Shutdown() error {
	d.Close()

	return nil
}

// PostgresPackage provides *Database. The pool connects lazily, so a down server does not block startup.
func PostgresPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*Database, error) {
		opts := do.MustInvoke[*Options](i)

		pool, err := pgxpool.New(context.Background(), opts.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("postgres pool: %w", err)
		}

		return &Database{Pool: pool}, nil
	})
}

// Backend is the durable mapping store selected by --store-driver.
type Backend struct {
	Repository shortener.Repository
	Pinger     connection.Pinger
	// OnConnect runs once the store first answers, nil when there is nothing to prepare.
	OnConnect func(ctx context.Context) error
	shutdown  func() error
}

// Shutdown releases driver resources that are not owned by another service.
func (b *Backend) Shutdown() error {
	if b.shutdown == nil {
		return nil
	}

	return b.shutdown()
}

// StorePackage provides *Backend, wrapping it in the Redis cache when enabled.
func StorePackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*Backend, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		backend, err := openBackend(i, opts, logger)
		if err != nil {
			return nil, err
		}

		if opts.Cache {
			client := do.MustInvoke[*Redis](i)
			ttl := time.Duration(opts.CacheTTL) * time.Second
			backend.Repository = store.NewRedisCacheRepository(backend.Repository, client.Client, ttl,
				store.WithCacheTimeout(millis(opts.CacheTimeoutMs)))
		}

		logger.Info("mapping store configured",
			zap.String("driver", opts.StoreDriver),
			zap.Bool("cache", opts.Cache),
		)

		return backend, nil
	})
}

func openBackend(i *do.Injector, opts *Options, logger *zap.Logger) (*Backend, error) {
	switch opts.StoreDriver {
	case DriverPostgres:
		db := do.MustInvoke[*Database](i)
		pg := store.NewPostgresStore(db.Pool)

		return &Backend{
			Repository: pg,
			Pinger:     pg,
			OnConnect: func(ctx context.Context) error {
				return migrations.RunContext(ctx, opts.DatabaseURL, logger)
			},
		}, nil
	case DriverSQLite:
		lite, err := store.OpenSQLite(context.Background(), opts.SQLitePath)
		if err != nil {
			return nil, err
		}

		return &Backend{Repository: lite, Pinger: lite, shutdown: lite.Shutdown}, nil
	case DriverMemory:
		mem := store.NewMemoryStore()

		return &Backend{Repository: mem, Pinger: mem}, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", opts.StoreDriver)
	}
}

// ConnectionPackage provides the *connection.Tracker and its *connection.Supervisor.
// The supervisor is not started here; the server starts it once serving begins.
func ConnectionPackage(injector *do.Injector) {
	do.Provide(injector, func(_ *do.Injector) (*connection.Tracker, error) {
		return connection.NewTracker(connection.StateDisconnected), nil
	})

	do.Provide(injector, func(i *do.Injector) (*connection.Supervisor, error) {
		opts := do.MustInvoke[*Options](i)
		backend := do.MustInvoke[*Backend](i)
		tracker := do.MustInvoke[*connection.Tracker](i)
		logger := do.MustInvoke[*zap.Logger](i)

		supervisor, err := connection.NewSupervisor(backend.Pinger, tracker, opts.Supervision(), logger)
		if err != nil {
			return nil, err
		}

		if backend.OnConnect != nil {
			supervisor.OnConnect(backend.OnConnect)
		}

		return supervisor, nil
	})
}

// GuardPackage provides the *availability.Guard in front of the backend.
func GuardPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*availability.Guard, error) {
		opts := do.MustInvoke[*Options](i)
		backend := do.MustInvoke[*Backend](i)
		tracker := do.MustInvoke[*connection.Tracker](i)
		logger := do.MustInvoke[*zap.Logger](i)

		return availability.NewGuard(backend.Repository, tracker, opts.Timeouts(), logger), nil
	})
}

// RegistryPackage provides the *shortener.Registry. It depends on the supervisor so that
// injector shutdown drains pending clicks while the store is still marked connected.
func RegistryPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*shortener.Registry, error) {
		_ = do.MustInvoke[*connection.Supervisor](i)
		opts := do.MustInvoke[*Options](i)
		guard := do.MustInvoke[*availability.Guard](i)
		logger := do.MustInvoke[*zap.Logger](i)

		generator, err := shortener.NewCodeGenerator(opts.CodeLength)
		if err != nil {
			return nil, err
		}

		return shortener.NewRegistry(guard, generator, logger,
			shortener.WithBaseURL(opts.BaseURL),
			shortener.WithMaxCreateAttempts(opts.MaxCreateAttempts),
		), nil
	})
}
