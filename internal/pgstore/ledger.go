package pgstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"arzmania-cards/internal/domain"
	"arzmania-cards/internal/kv"

	"github.com/jackc/pgx/v5"
)

// LedgerStore implements ledger.Backend.
type LedgerStore struct {
	db *DB
}

func NewLedgerStore(db *DB) *LedgerStore {
	return &LedgerStore{db: db}
}

func (s *LedgerStore) Load(ctx context.Context, key domain.PairKey) (domain.LedgerRecord, int64, error) {
	rec := domain.LedgerRecord{Key: key}
	var version int64
	err := s.db.QueryRow(ctx, `
		SELECT player1_wins, player2_wins, total_duels, last_duel, version
		  FROM duel_history WHERE player1_id = $1 AND player2_id = $2
	`, key.Low, key.High).Scan(&rec.FirstWins, &rec.SecondWins, &rec.TotalDuels, &rec.LastDuelAt, &version)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.LedgerRecord{}, 0, nil
	}
	if err != nil {
		return domain.LedgerRecord{}, 0, fmt.Errorf("load duel record %s: %w", key, err)
	}
	rec.LastDuelAt = rec.LastDuelAt.UTC()
	return rec, version, nil
}

func (s *LedgerStore) CompareAndSwap(ctx context.Context, key domain.PairKey, version int64, rec domain.LedgerRecord) error {
	var sql string
	args := []any{key.Low, key.High, rec.FirstWins, rec.SecondWins, rec.TotalDuels, rec.LastDuelAt}
	if version == 0 {
		sql = `
		INSERT INTO duel_history (player1_id, player2_id, player1_wins, player2_wins, total_duels, last_duel, version)
		VALUES ($1, $2, $3, $4, $5, $6, 1)
		ON CONFLICT (player1_id, player2_id) DO NOTHING`
	} else {
		sql = `
		UPDATE duel_history
		   SET player1_wins = $3,
		       player2_wins = $4,
		       total_duels = $5,
		       last_duel = $6,
		       version = version + 1
		 WHERE player1_id = $1 AND player2_id = $2 AND version = $7`
		args = append(args, version)
	}
	tag, err := s.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("write duel record %s: %w", key, err)
	}
	if tag.RowsAffected() == 0 {
		return kv.Conflict("duel record " + key.String())
	}
	return nil
}

func (s *LedgerStore) ListByParticipant(ctx context.Context, id int64) ([]domain.LedgerRecord, error) {
	rows, err := s.db.Query(ctx, `
		SELECT player1_id, player2_id, player1_wins, player2_wins, total_duels, last_duel
		  FROM duel_history WHERE player1_id = $1 OR player2_id = $1
	`, id)
	if err != nil {
		return nil, fmt.Errorf("list duel records of %d: %w", id, err)
	}
	defer rows.Close()

	var out []domain.LedgerRecord
	for rows.Next() {
		var (
			rec  domain.LedgerRecord
			last time.Time
		)
		if err := rows.Scan(&rec.Key.Low, &rec.Key.High, &rec.FirstWins, &rec.SecondWins, &rec.TotalDuels, &last); err != nil {
			return nil, err
		}
		rec.LastDuelAt = last.UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}
