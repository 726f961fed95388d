// Package backend opens the document store selected by configuration and
// stacks the circuit breaker and the LRU cache on top of it.
package backend

import (
	"context"
	"fmt"

	"github.com/skillera/skillera-hub/config"
	"github.com/skillera/skillera-hub/internal/infrastructure/persistence/docstore"
	"github.com/skillera/skillera-hub/internal/infrastructure/persistence/mongostore"
	"github.com/skillera/skillera-hub/internal/infrastructure/persistence/objectstore"
	"github.com/skillera/skillera-hub/internal/infrastructure/persistence/postgres"
	"github.com/skillera/skillera-hub/internal/infrastructure/persistence/redis"
	"github.com/skillera/skillera-hub/pkg/logger"
)

// Backend is an opened store with its optional Redis client.
type Backend struct {
	// Store is the fully wrapped store to hand to repositories.
	Store docstore.Store

	// Protected is the breaker layer, nil for the memory backend.
	Protected *docstore.ProtectedStore

	// Cache is the LRU layer, nil when caching is disabled.
	Cache *docstore.CachedStore

	// Redis is nil when REDIS_DISABLED is set.
	Redis *redis.Cache

	// Postgres is set for the postgres backend; cmd/admin runs migrations on it.
	Postgres *postgres.Connection

	closers []func(context.Context) error
}

// Open connects the configured backend.
func Open(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Backend, error) {
	if log == nil {
		log = logger.Nop()
	}
	b := &Backend{}

	raw, err := b.openRaw(ctx, cfg, log)
	if err != nil {
		_ = b.Close(context.Background())
		return nil, err
	}

	store := docstore.Store(raw)
	if cfg.Storage.Backend != config.BackendMemory {
		b.Protected = docstore.NewProtectedStore(store, log)
		store = b.Protected
		if cfg.Cache.Enabled {
			cached, err := docstore.NewCachedStore(store, cfg.Cache.Size, log)
			if err != nil {
				_ = b.Close(context.Background())
				return nil, fmt.Errorf("backend: cache: %w", err)
			}
			b.Cache = cached
			store = cached
		}
	}
	b.Store = store

	if !cfg.Redis.Disabled {
		rc, err := redis.NewCache(ctx, RedisConfig(cfg.Redis))
		if err != nil {
			_ = b.Close(context.Background())
			return nil, fmt.Errorf("backend: redis: %w", err)
		}
		b.Redis = rc
		b.closers = append(b.closers, func(context.Context) error { return rc.Close() })
	}

	log.Info("document store ready",
		logger.Backend(b.Store.Name()),
		logger.Bool("redis", b.Redis != nil),
	)
	return b, nil
}

func (b *Backend) openRaw(ctx context.Context, cfg *config.Config, log *logger.Logger) (docstore.Store, error) {
	switch cfg.Storage.Backend {
	case config.BackendMemory:
		return docstore.NewMemoryStore(), nil

	case config.BackendS3:
		client, err := objectstore.NewClient(ctx, objectstore.Config{
			Bucket:    cfg.S3.Bucket,
			Region:    cfg.S3.Region,
			Endpoint:  cfg.S3.Endpoint,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Prefix:    cfg.S3.Prefix,
			PathStyle: cfg.S3.PathStyle,
		})
		if err != nil {
			return nil, err
		}
		return objectstore.New(client, cfg.S3.Bucket, cfg.S3.Prefix), nil

	case config.BackendPostgres:
		conn, err := postgres.NewConnection(ctx, PostgresConfig(cfg.Database))
		if err != nil {
			return nil, err
		}
		b.Postgres = conn
		b.closers = append(b.closers, func(context.Context) error { conn.Close(); return nil })

		if cfg.Database.AutoMigrate {
			n, err := postgres.NewMigrator(conn).Migrate(ctx)
			if err != nil {
				return nil, err
			}
			if n > 0 {
				log.Info("applied migrations", logger.Int("count", n))
			}
		}
		return postgres.NewDocumentStore(conn), nil

	case config.BackendMongo:
		ms, err := mongostore.Connect(ctx, mongostore.Config{
			URI:        cfg.Mongo.URI,
			Database:   cfg.Mongo.Database,
			Collection: cfg.Mongo.Collection,
			Timeout:    cfg.Mongo.Timeout,
		})
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, ms.Close)
		return ms, nil

	default:
		return nil, fmt.Errorf("backend: unknown storage backend %q", cfg.Storage.Backend)
	}
}

// Close releases connections in reverse order of opening.
func (b *Backend) Close(ctx context.Context) error {
	var first error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](ctx); err != nil && first == nil {
			first = err
		}
	}
	b.closers = nil
	return first
}

// PostgresConfig maps the database section to pool settings.
func PostgresConfig(c config.DatabaseConfig) postgres.Config {
	pc := postgres.DefaultConfig()
	pc.URL = c.URL
	pc.MaxConns = int32(c.MaxConns)
	pc.MinConns = int32(c.MinConns)
	pc.MaxConnLifetime = c.ConnMaxLifetime
	pc.MaxConnIdleTime = c.ConnMaxIdleTime
	return pc
}

// RedisConfig maps the redis section to client settings.
func RedisConfig(c config.RedisConfig) redis.Config {
	rc := redis.DefaultConfig()
	rc.Host = c.Host
	rc.Port = c.Port
	rc.Password = c.Password
	rc.DB = c.DB
	rc.PoolSize = c.PoolSize
	rc.MinIdleConns = c.MinIdleConns
	rc.DialTimeout = c.DialTimeout
	rc.ReadTimeout = c.ReadTimeout
	rc.WriteTimeout = c.WriteTimeout
	if c.KeyPrefix != "" {
		rc.KeyPrefix = c.KeyPrefix
	}
	return rc
}
