// Package pgstore keeps duel records and cooldowns in PostgreSQL so that
// several processes can share them.
package pgstore

import (
	"context"
	"embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

//go:embed schema.sql
var schema embed.FS

type DB struct{ *pgxpool.Pool }

// Open connects to dsn, verifies the connection and applies the schema.
func Open(ctx context.Context, dsn string, logger zerolog.Logger) (*DB, error) {
	p, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	db := &DB{p}
	if err := db.Ping(ctx); err != nil {
		p.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	if err := Migrate(ctx, db); err != nil {
		p.Close()
		return nil, fmt.Errorf("failed to apply postgres schema: %w", err)
	}
	logger.Info().Msg("postgres connection established")
	return db, nil
}

func Migrate(ctx context.Context, db *DB) error {
	sqlBytes, err := schema.ReadFile("schema.sql")
	if err != nil {
		return err
	}
	_, err = db.Exec(ctx, string(sqlBytes))
	return err
}
