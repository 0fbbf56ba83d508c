package fx

import (
	"context"
	"database/sql"
	"fmt"

	"arzmania-cards/internal/catalog"
	"arzmania-cards/internal/clock"
	"arzmania-cards/internal/config"
	"arzmania-cards/internal/cooldown"
	"arzmania-cards/internal/database"
	"arzmania-cards/internal/ledger"
	"arzmania-cards/internal/logger"
	"arzmania-cards/internal/loot"
	"arzmania-cards/internal/pgstore"
	"arzmania-cards/internal/random"
	"arzmania-cards/internal/redisstore"
	"arzmania-cards/internal/repository"
	"arzmania-cards/internal/server"
	"arzmania-cards/internal/service"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func ProvideClock() clock.Clock {
	return clock.System{}
}

func ProvideRandom(cfg *config.Config, logger zerolog.Logger) (random.Source, error) {
	if cfg.RandomSeed != 0 {
		logger.Warn().Int64("seed", cfg.RandomSeed).Msg("using fixed random seed")
		return random.New(cfg.RandomSeed), nil
	}
	return random.NewFromEntropy()
}

func ProvideLootTable(cfg *config.Config) (loot.Table, error) {
	if len(cfg.RarityRates) == 0 {
		return loot.DefaultTable(), nil
	}
	return loot.ParseTable(cfg.RarityRates)
}

// ProvidePostgres connects only when a backend needs it and returns nil
// otherwise.
func ProvidePostgres(lc fx.Lifecycle, cfg *config.Config, logger zerolog.Logger) (*pgstore.DB, error) {
	if !cfg.UsesPostgres() {
		return nil, nil
	}
	db, err := pgstore.Open(context.Background(), cfg.PostgresDSN, logger)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			db.Close()
			return nil
		},
	})
	return db, nil
}

// ProvideRedis connects only for the redis cooldown backend and returns nil
// otherwise.
func ProvideRedis(lc fx.Lifecycle, cfg *config.Config, logger zerolog.Logger) (*redis.Client, error) {
	if cfg.CooldownBackend != config.BackendRedis {
		return nil, nil
	}
	rdb, err := redisstore.NewRedis(context.Background(), cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, err
	}
	logger.Info().Str("addr", cfg.RedisAddr).Msg("redis connection established")
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return rdb.Close()
		},
	})
	return rdb, nil
}

func ProvideLedgerBackend(cfg *config.Config, sqlDB *sql.DB, pg *pgstore.DB, logger zerolog.Logger) (ledger.Backend, error) {
	switch cfg.StateBackend {
	case config.BackendSQLite:
		return repository.NewLedgerRepository(sqlDB, logger), nil
	case config.BackendPostgres:
		return pgstore.NewLedgerStore(pg), nil
	case config.BackendMemory:
		return ledger.NewMemoryBackend(), nil
	default:
		return nil, fmt.Errorf("unsupported state backend %q", cfg.StateBackend)
	}
}

func ProvideCooldownBackend(cfg *config.Config, sqlDB *sql.DB, pg *pgstore.DB, rdb *redis.Client, logger zerolog.Logger) (cooldown.Backend, error) {
	switch cfg.CooldownBackend {
	case config.BackendSQLite:
		return repository.NewCooldownRepository(sqlDB, logger), nil
	case config.BackendPostgres:
		return pgstore.NewCooldownStore(pg), nil
	case config.BackendRedis:
		return redisstore.NewCooldownStore(rdb), nil
	case config.BackendMemory:
		return cooldown.NewMemoryBackend(), nil
	default:
		return nil, fmt.Errorf("unsupported cooldown backend %q", cfg.CooldownBackend)
	}
}

func ProvideLootService(
	cfg *config.Config,
	selector *loot.Selector,
	cat *catalog.Catalog,
	gate *cooldown.Gate,
	inventory *repository.InventoryRepository,
	clk clock.Clock,
	logger zerolog.Logger,
) *service.LootService {
	return service.NewLootService(selector, cat, gate, inventory, clk, cfg.LootCooldown, logger)
}

func ProvideStatsService(
	cfg *config.Config,
	store *ledger.Store,
	inventory *repository.InventoryRepository,
	lootSvc *service.LootService,
	cat *catalog.Catalog,
	logger zerolog.Logger,
) *service.StatsService {
	return service.NewStatsService(store, inventory, lootSvc, cat, cfg.RivalLimit, logger)
}

// LoadCatalog publishes the first catalog snapshot before the server
// accepts requests.
func LoadCatalog(lc fx.Lifecycle, catalogSvc *service.CatalogService) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return catalogSvc.Reload(ctx)
		},
	})
}

var Module = fx.Options(
	config.Module,
	fx.Provide(logger.New),
	fx.Provide(database.New),
	fx.Provide(ProvidePostgres),
	fx.Provide(ProvideRedis),
	// core
	fx.Provide(ProvideClock),
	fx.Provide(ProvideRandom),
	fx.Provide(ProvideLootTable),
	fx.Provide(loot.NewSelector),
	fx.Provide(catalog.New),
	// repos
	fx.Provide(repository.NewItemRepository),
	fx.Provide(repository.NewInventoryRepository),
	fx.Provide(ProvideLedgerBackend),
	fx.Provide(ProvideCooldownBackend),
	fx.Provide(ledger.NewStore),
	fx.Provide(cooldown.NewGate),
	// svc
	fx.Provide(ProvideLootService),
	fx.Provide(ProvideStatsService),
	fx.Provide(service.NewDuelService),
	fx.Provide(service.NewCatalogService),
	fx.Provide(service.NewInventoryService),
	fx.Invoke(LoadCatalog),
	// server
	fx.Provide(server.NewCardServer),
)
