package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"arzmania-cards/internal/domain"
	"arzmania-cards/internal/kv"

	"github.com/rs/zerolog"
)

// LedgerRepository stores duel records in duel_history, one row per
// canonical pair. It implements ledger.Backend.
type LedgerRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewLedgerRepository(sqlDB *sql.DB, logger zerolog.Logger) *LedgerRepository {
	return &LedgerRepository{
		db:     sqlDB,
		logger: logger,
	}
}

const ledgerColumns = `player1_id, player2_id, player1_wins, player2_wins, total_duels, last_duel`

func (r *LedgerRepository) Load(ctx context.Context, key domain.PairKey) (domain.LedgerRecord, int64, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+ledgerColumns+`, version FROM duel_history WHERE player1_id = ? AND player2_id = ?`,
		key.Low, key.High)

	var (
		rec     domain.LedgerRecord
		last    int64
		version int64
	)
	err := row.Scan(&rec.Key.Low, &rec.Key.High, &rec.FirstWins, &rec.SecondWins, &rec.TotalDuels, &last, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.LedgerRecord{}, 0, nil
	}
	if err != nil {
		return domain.LedgerRecord{}, 0, fmt.Errorf("failed to load duel record %s: %w", key, err)
	}
	rec.LastDuelAt = fromUnix(last)
	return rec, version, nil
}

func (r *LedgerRepository) CompareAndSwap(ctx context.Context, key domain.PairKey, version int64, rec domain.LedgerRecord) error {
	var (
		res sql.Result
		err error
	)
	if version == 0 {
		res, err = r.db.ExecContext(ctx, `
			INSERT INTO duel_history (`+ledgerColumns+`, version) VALUES (?, ?, ?, ?, ?, ?, 1)
			ON CONFLICT (player1_id, player2_id) DO NOTHING`,
			key.Low, key.High, rec.FirstWins, rec.SecondWins, rec.TotalDuels, toUnix(rec.LastDuelAt))
	} else {
		res, err = r.db.ExecContext(ctx, `
			UPDATE duel_history
			SET player1_wins = ?, player2_wins = ?, total_duels = ?, last_duel = ?, version = version + 1
			WHERE player1_id = ? AND player2_id = ? AND version = ?`,
			rec.FirstWins, rec.SecondWins, rec.TotalDuels, toUnix(rec.LastDuelAt), key.Low, key.High, version)
	}
	if err != nil {
		r.logger.Error().Err(err).Str("pair", key.String()).Msg("failed to write duel record")
		return fmt.Errorf("failed to write duel record %s: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		r.logger.Debug().Str("pair", key.String()).Int64("version", version).Msg("duel record version conflict")
		return kv.Conflict("duel record " + key.String())
	}
	return nil
}

func (r *LedgerRepository) ListByParticipant(ctx context.Context, id int64) ([]domain.LedgerRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+ledgerColumns+` FROM duel_history WHERE player1_id = ? OR player2_id = ?`, id, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list duel records of %d: %w", id, err)
	}
	defer rows.Close()

	var recs []domain.LedgerRecord
	for rows.Next() {
		var (
			rec  domain.LedgerRecord
			last int64
		)
		if err := rows.Scan(&rec.Key.Low, &rec.Key.High, &rec.FirstWins, &rec.SecondWins, &rec.TotalDuels, &last); err != nil {
			return nil, err
		}
		rec.LastDuelAt = fromUnix(last)
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}
