package app

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/skillera/skillera-hub/config"
	"github.com/skillera/skillera-hub/internal/application/command"
	"github.com/skillera/skillera-hub/internal/application/eventhandler"
	"github.com/skillera/skillera-hub/internal/domain/leaderboard"
	"github.com/skillera/skillera-hub/internal/domain/progression"
	"github.com/skillera/skillera-hub/internal/domain/school"
	"github.com/skillera/skillera-hub/internal/domain/shared"
	"github.com/skillera/skillera-hub/internal/infrastructure/messaging"
	"github.com/skillera/skillera-hub/internal/infrastructure/persistence/backend"
	"github.com/skillera/skillera-hub/internal/infrastructure/persistence/docstore"
	"github.com/skillera/skillera-hub/internal/infrastructure/persistence/redis"
	"github.com/skillera/skillera-hub/internal/infrastructure/persistence/seed"
	httpapi "github.com/skillera/skillera-hub/internal/interface/http"
	"github.com/skillera/skillera-hub/internal/interface/http/handlers"
	"github.com/skillera/skillera-hub/pkg/logger"
	"github.com/skillera/skillera-hub/pkg/timeutil"
)

// EventBus is the in-memory or Redis-backed bus.
type EventBus interface {
	shared.EventPublisher
	shared.EventSubscriber
	Close() error
}

// Runtime is a fully wired process: storage, bus and handlers.
type Runtime struct {
	Config   *config.Config
	Log      *logger.Logger
	Backend  *backend.Backend
	Bus      EventBus
	Students *docstore.StudentRepository
	Catalog  *school.Catalog
	Clock    timeutil.Clock

	// LeaderboardCache is nil when the cache flag is off or Redis is disabled.
	LeaderboardCache leaderboard.SnapshotCache

	Deps httpapi.Dependencies
}

// NewLogger builds the process logger from the observability section.
func NewLogger(cfg *config.Config) *logger.Logger {
	opts := logger.DefaultOptions()
	opts.Level = logger.ParseLevel(cfg.Observability.LogLevel)
	if cfg.Observability.LogFormat == string(logger.FormatConsole) {
		opts.Format = logger.FormatConsole
	}
	return logger.New(opts).With(
		logger.String("app", cfg.App.Name),
		logger.String("env", string(cfg.App.Environment)),
	)
}

// Bootstrap opens the configured backend and wires everything on top of it.
func Bootstrap(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Runtime, error) {
	b, err := backend.Open(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	rt := &Runtime{
		Config:   cfg,
		Log:      log,
		Backend:  b,
		Students: docstore.NewStudentRepository(b.Store),
		Catalog:  docstore.NewCatalog(b.Store),
		Clock:    timeutil.SystemClock{},
	}

	if cfg.Storage.Seed {
		if err := rt.Seed(ctx); err != nil {
			_ = b.Close(ctx)
			return nil, err
		}
	}

	rt.Bus, err = newEventBus(cfg, b, log)
	if err != nil {
		_ = b.Close(ctx)
		return nil, err
	}

	flags := cfg.Features
	logFeatures(log, flags)
	if flags.IsEnabled(config.FeatureLeaderboardCache) && b.Redis != nil {
		rt.LeaderboardCache = redis.NewLeaderboardCache(b.Redis, 0)
	}

	opts := []command.ExecutorOption{
		command.WithStrictInvariant(flags.IsEnabled(config.FeatureSettlementStrictInvariant)),
	}
	if flags.IsEnabled(config.FeatureSettlementRedisLock) && b.Redis != nil {
		opts = append(opts, command.WithLocker(redis.NewStudentLocker(b.Redis, log)))
	}

	if err := rt.subscribe(); err != nil {
		_ = rt.Close(ctx)
		return nil, err
	}

	seedRand := cfg.Storage.RandomSeed
	if seedRand == 0 {
		seedRand = time.Now().UnixNano()
	}

	rt.Deps = Build(Components{
		Students:         rt.Students,
		Catalog:          rt.Catalog,
		Publisher:        rt.Bus,
		Clock:            rt.Clock,
		Calendar:         timeutil.NewCalendar(cfg.App.Location),
		Random:           progression.NewLockedRand(seedRand),
		EmailDomain:      cfg.School.EmailDomain,
		LeaderboardCache: rt.LeaderboardCache,
		ExecutorOptions:  opts,
		Tokens:           httpapi.NewTokenVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer),
		Health:           rt.healthChecks(),
		Logger:           log,
	})
	return rt, nil
}

func logFeatures(log *logger.Logger, flags *config.FeatureFlags) {
	if flags == nil {
		return
	}
	var on []string
	for name, f := range flags.GetAllFeatures() {
		if f.Enabled {
			on = append(on, name)
		}
	}
	sort.Strings(on)
	log.Info("feature flags", logger.Strings("enabled", on))
}

// Seed writes the embedded catalog into an empty store.
func (rt *Runtime) Seed(ctx context.Context) error {
	f, err := seed.Embedded()
	if err != nil {
		return err
	}
	res, err := seed.NewSeeder(rt.Students, rt.Catalog, rt.Clock, rt.Config.School.EmailDomain, rt.Log).Run(ctx, f)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	if !res.Skipped {
		rt.Log.Info("seeded store",
			logger.Int("students", res.Students),
			logger.Strings("collections", res.Collections),
		)
	}
	return nil
}

// Close stops the bus and releases connections.
func (rt *Runtime) Close(ctx context.Context) error {
	if rt.Bus != nil {
		if err := rt.Bus.Close(); err != nil {
			rt.Log.Warn("event bus close failed", logger.Err(err))
		}
	}
	return rt.Backend.Close(ctx)
}

// HTTPConfig maps the http section to server settings.
func HTTPConfig(cfg *config.Config) httpapi.Config {
	hc := httpapi.DefaultConfig()
	hc.Addr = cfg.HTTP.Addr
	hc.ReadTimeout = cfg.HTTP.ReadTimeout
	hc.WriteTimeout = cfg.HTTP.WriteTimeout
	hc.RequestTimeout = cfg.HTTP.RequestTimeout
	hc.AllowedOrigins = cfg.HTTP.AllowedOrigins
	hc.DefaultPageSize = cfg.HTTP.DefaultPageSize
	hc.RateLimitPerMinute = cfg.HTTP.RateLimitPerMinute
	hc.RateLimitBurst = cfg.HTTP.RateLimitBurst
	hc.Release = cfg.IsProduction()
	return hc
}

func newEventBus(cfg *config.Config, b *backend.Backend, log *logger.Logger) (EventBus, error) {
	local := messaging.DefaultInMemoryEventBusConfig()
	local.Logger = log

	if !cfg.Features.IsEnabled(config.FeatureEventsFanout) || b.Redis == nil {
		return messaging.NewInMemoryEventBus(local), nil
	}
	bus, err := messaging.NewRedisEventBus(messaging.RedisEventBusConfig{
		Transport: b.Redis,
		Channel:   cfg.Redis.KeyPrefix + "events",
		Local:     local,
		Logger:    log,
	})
	if err != nil {
		return nil, fmt.Errorf("event bus: %w", err)
	}
	return bus, nil
}

func (rt *Runtime) subscribe() error {
	if err := eventhandler.NewOnProgressChangedHandler(rt.LeaderboardCache, rt.Log).Subscribe(rt.Bus); err != nil {
		return err
	}
	if err := eventhandler.NewOnMilestoneHandler(rt.Log).Subscribe(rt.Bus); err != nil {
		return err
	}

	// a typed nil would slip past the handler's nil check
	var docs eventhandler.DocumentCache
	if rt.Backend.Cache != nil {
		docs = rt.Backend.Cache
	}
	return eventhandler.NewOnRemoteWriteHandler(docs, rt.Log).Subscribe(rt.Bus)
}

func (rt *Runtime) healthChecks() handlers.HealthChecker {
	h := handlers.NewCompositeHealthChecker(rt.Config.App.Version)
	if p, ok := rt.Backend.Store.(docstore.Pinger); ok {
		h.AddCheck("store", handlers.PingCheck(p))
	}
	if p := rt.Backend.Protected; p != nil {
		h.AddCheck("store_circuit", handlers.BreakerCheck(p))
	}
	if rt.Backend.Redis != nil {
		// without the lock Redis only backs caches and fan-out
		if rt.Config.Features.IsEnabled(config.FeatureSettlementRedisLock) {
			h.AddCheck("redis", handlers.PingCheck(rt.Backend.Redis))
		} else {
			h.AddOptionalCheck("redis", handlers.PingCheck(rt.Backend.Redis))
		}
	}
	return h
}
