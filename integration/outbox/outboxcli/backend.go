package outboxcli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dmitrymomot/messaging/core/config"
	"github.com/dmitrymomot/messaging/core/health"
	"github.com/dmitrymomot/messaging/core/notification"
	mongodb "github.com/dmitrymomot/messaging/integration/database/mongo"
	"github.com/dmitrymomot/messaging/integration/database/pg"
	"github.com/dmitrymomot/messaging/integration/database/redis"
	"github.com/dmitrymomot/messaging/integration/outbox/mongooutbox"
	"github.com/dmitrymomot/messaging/integration/outbox/pgoutbox"
	"github.com/dmitrymomot/messaging/integration/outbox/redisoutbox"
)

// Backend names accepted by --backend.
const (
	BackendPostgres = "pg"
	BackendRedis    = "redis"
	BackendMongo    = "mongo"
)

// Backend is an opened outbox store.
type Backend struct {
	Store   notification.Store
	Migrate func(ctx context.Context) error
	Health  health.Check
	Close   func() error
}

// Opener opens the backend with the given name.
type Opener func(ctx context.Context, name string, log *slog.Logger) (*Backend, error)

// OpenFromEnv connects to the named backend using the connection settings of
// its integration package (PG_*, REDIS_*, MONGODB_*).
func OpenFromEnv(ctx context.Context, name string, log *slog.Logger) (*Backend, error) {
	switch name {
	case BackendPostgres:
		var cfg pg.Config
		if err := config.Load(&cfg); err != nil {
			return nil, err
		}
		pool, err := pg.Connect(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return &Backend{
			Store:   pgoutbox.New(pool),
			Migrate: func(ctx context.Context) error { return pgoutbox.Migrate(ctx, pool, log) },
			Health:  health.Named(name, pg.Healthcheck(pool)),
			Close:   func() error { pool.Close(); return nil },
		}, nil

	case BackendRedis:
		var cfg redis.Config
		if err := config.Load(&cfg); err != nil {
			return nil, err
		}
		client, err := redis.Connect(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return &Backend{
			Store:   redisoutbox.New(client),
			Migrate: func(context.Context) error { return nil },
			Health:  health.Named(name, redis.Healthcheck(client)),
			Close:   client.Close,
		}, nil

	case BackendMongo:
		var cfg mongodb.Config
		if err := config.Load(&cfg); err != nil {
			return nil, err
		}
		client, err := mongodb.New(ctx, cfg)
		if err != nil {
			return nil, err
		}
		store := mongooutbox.New(client.Database(cfg.Database))
		return &Backend{
			Store:   store,
			Migrate: store.EnsureIndexes,
			Health:  health.Named(name, mongodb.Healthcheck(client)),
			Close:   func() error { return client.Disconnect(context.Background()) },
		}, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, name)
}
