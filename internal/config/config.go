package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendMemory   = "memory"
)

type Config struct {
	DBPath     string `env:"DB_PATH" envDefault:"cards.db"`
	ServerPort string `env:"SERVER_PORT" envDefault:"8080"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat  string `env:"LOG_FORMAT" envDefault:"json"`

	// StateBackend stores duel records, CooldownBackend loot cooldowns.
	StateBackend    string `env:"STATE_BACKEND" envDefault:"sqlite"`
	CooldownBackend string `env:"COOLDOWN_BACKEND"`
	PostgresDSN     string `env:"POSTGRES_DSN"`
	RedisAddr       string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword   string `env:"REDIS_PASSWORD"`
	RedisDB         int    `env:"REDIS_DB" envDefault:"0"`

	LootCooldown time.Duration `env:"LOOT_COOLDOWN" envDefault:"2h"`
	// RandomSeed makes draws reproducible when non-zero.
	RandomSeed  int64              `env:"RANDOM_SEED"`
	RarityRates map[string]float64 `env:"RARITY_RATES" envKeyValSeparator:"="`
	RivalLimit  int                `env:"RIVAL_LIMIT" envDefault:"5"`
}

// Load reads .env when present, then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return Parse()
}

// Parse reads configuration from the process environment only.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.CooldownBackend == "" {
		cfg.CooldownBackend = cfg.StateBackend
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StateBackend {
	case BackendSQLite, BackendPostgres, BackendMemory:
	default:
		return fmt.Errorf("STATE_BACKEND must be one of sqlite, postgres, memory; got %q", c.StateBackend)
	}
	switch c.CooldownBackend {
	case BackendSQLite, BackendPostgres, BackendRedis, BackendMemory:
	default:
		return fmt.Errorf("COOLDOWN_BACKEND must be one of sqlite, postgres, redis, memory; got %q", c.CooldownBackend)
	}
	if (c.StateBackend == BackendPostgres || c.CooldownBackend == BackendPostgres) && c.PostgresDSN == "" {
		return fmt.Errorf("POSTGRES_DSN is required for the postgres backend")
	}
	if c.LootCooldown < 0 {
		return fmt.Errorf("LOOT_COOLDOWN must not be negative, got %s", c.LootCooldown)
	}
	if c.RivalLimit <= 0 {
		return fmt.Errorf("RIVAL_LIMIT must be positive, got %d", c.RivalLimit)
	}
	return nil
}

// UsesPostgres reports whether any store needs a postgres pool.
func (c *Config) UsesPostgres() bool {
	return c.StateBackend == BackendPostgres || c.CooldownBackend == BackendPostgres
}

// LogSummary logs the loaded configuration without secrets.
func LogSummary(cfg *Config, logger zerolog.Logger) {
	logger.Info().
		Str("db_path", cfg.DBPath).
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Str("state_backend", cfg.StateBackend).
		Str("cooldown_backend", cfg.CooldownBackend).
		Dur("loot_cooldown", cfg.LootCooldown).
		Bool("fixed_seed", cfg.RandomSeed != 0).
		Int("rival_limit", cfg.RivalLimit).
		Msg("configuration loaded")
}

var Module = fx.Options(
	fx.Provide(Load),
	fx.Invoke(LogSummary),
)
