// Package initializer wires configuration into concrete infrastructure and
// hands back the dependency bundle services are built from.
package initializer

import (
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/solventhq/walletcore/infra"
	infracache "github.com/solventhq/walletcore/infra/cache"
	infraeventbus "github.com/solventhq/walletcore/infra/eventbus"
	infraopstate "github.com/solventhq/walletcore/infra/opstate"
	infrarepository "github.com/solventhq/walletcore/infra/repository"
	"github.com/solventhq/walletcore/pkg/config"
)

// InitializeDependencies builds the full dependency bundle from config:
// database, redis-backed caches and operation-state store, and the event
// bus with the optional Kafka publisher attached.
func InitializeDependencies(cfg *config.App) (*config.Deps, error) {
	logger := setupLogger(cfg.Log)

	db, err := infra.NewDBConnection(*cfg.DB, cfg.Env)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	redisClient, err := newRedisClient(cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	bus := infraeventbus.NewWithMemory(logger)
	if len(cfg.Kafka.Brokers) > 0 {
		publisher, err := infraeventbus.NewKafkaPublisher(*cfg.Kafka, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize kafka publisher: %w", err)
		}
		publisher.RegisterTransferEvents(bus)
		logger.Info("kafka publisher attached",
			"brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
	} else {
		logger.Info("no kafka brokers configured; transfer events stay in-process")
	}

	// The caches carry only the deployment namespace; the logical prefixes
	// (cfg.Idempotency.Prefix, cfg.BalanceCache.Prefix) are applied by the
	// services that build the keys.
	keyPrefix := cfg.Redis.KeyPrefix
	return &config.Deps{
		Uow: infrarepository.NewUoW(db),
		OpStateStore: infraopstate.NewRedisStore(
			redisClient,
			keyPrefix+"op:",
			cfg.OpState.TerminalTTL,
			logger,
		),
		IdempotencyCache: infracache.NewRedisCache(redisClient, keyPrefix, logger),
		BalanceCache:     infracache.NewRedisCache(redisClient, keyPrefix, logger),
		EventBus: bus,
		Logger:   logger,
		Config:   cfg,
	}, nil
}

// NewMemoryDeps builds a bundle on in-memory infrastructure. Used by tests
// and local tooling that has no Redis or Kafka at hand; the unit of work is
// left for the caller to supply.
func NewMemoryDeps(cfg *config.App, logger *slog.Logger) *config.Deps {
	return &config.Deps{
		OpStateStore:     infraopstate.NewMemoryStore(cfg.OpState.TerminalTTL),
		IdempotencyCache: infracache.NewMemoryCache(),
		BalanceCache:     infracache.NewMemoryCache(),
		EventBus:         infraeventbus.NewWithMemory(logger),
		Logger:           logger,
		Config:           cfg,
	}
}

func newRedisClient(cnf *config.Redis) (*redis.Client, error) {
	opt, err := redis.ParseURL(cnf.URL)
	if err != nil {
		return nil, err
	}
	opt.PoolSize = cnf.PoolSize
	opt.DialTimeout = cnf.DialTimeout
	opt.ReadTimeout = cnf.ReadTimeout
	opt.WriteTimeout = cnf.WriteTimeout
	return redis.NewClient(opt), nil
}
