// Package bootstrap assembles the process runtime (user store, cache and event publisher) from configuration.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"exercisetracker/internal/cache"
	"exercisetracker/internal/config"
	"exercisetracker/internal/database"
	"exercisetracker/internal/events"
	"exercisetracker/internal/middleware"
	"exercisetracker/internal/repository"

	"github.com/redis/go-redis/v9"
)

// Runtime holds the long-lived handles shared by the HTTP server and the seeder.
type Runtime struct {
	Users     repository.UserRepository
	Redis     *redis.Client
	Publisher events.Publisher

	closers []func(context.Context) error
}

// InitRuntime connects the store selected by cfg.StoreDriver, then Redis and Kafka when configured.
// Redis and Kafka are optional; the store is not.
func InitRuntime(ctx context.Context, cfg *config.Config) (*Runtime, error) {
	rt := &Runtime{}

	users, err := rt.connectStore(ctx, cfg)
	if err != nil {
		_ = rt.Close(ctx)
		return nil, err
	}
	users = repository.NewInstrumentedUserRepository(users, cfg.StoreDriver)

	// Nil when REDIS_URL is empty or unreachable.
	rt.Redis = cache.Connect(cfg.RedisURL)
	if rt.Redis != nil {
		client := rt.Redis
		rt.closers = append(rt.closers, func(context.Context) error { return client.Close() })
	}
	rt.Users = repository.NewCachedUserRepository(users, cache.New(rt.Redis))

	if brokers := cfg.KafkaBrokerList(); len(brokers) > 0 {
		publisher := events.NewKafkaPublisher(brokers, cfg.KafkaTopic)
		rt.Publisher = publisher
		rt.closers = append(rt.closers, func(context.Context) error { return publisher.Close() })
		middleware.Logger.Info("Kafka event publishing enabled",
			slog.Any("brokers", brokers),
			slog.String("topic", cfg.KafkaTopic),
		)
	} else {
		rt.Publisher = events.Nop{}
	}

	return rt, nil
}

func (rt *Runtime) connectStore(ctx context.Context, cfg *config.Config) (repository.UserRepository, error) {
	switch cfg.StoreDriver {
	case config.DriverMongo:
		client, db, err := database.ConnectMongo(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("database connection failed: %w", err)
		}
		rt.closers = append(rt.closers, client.Disconnect)
		return repository.NewMongoUserRepository(db), nil
	case config.DriverPostgres, config.DriverSQLite:
		db, err := database.Connect(cfg)
		if err != nil {
			return nil, fmt.Errorf("database connection failed: %w", err)
		}
		rt.closers = append(rt.closers, func(context.Context) error { return database.Close(db) })
		return repository.NewGormUserRepository(db), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// Close releases every handle in reverse order of acquisition and reports all failures.
func (rt *Runtime) Close(ctx context.Context) error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	rt.closers = nil
	return errors.Join(errs...)
}
