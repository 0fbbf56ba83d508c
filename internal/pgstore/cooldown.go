package pgstore

import (
	"context"
	"errors"
	"fmt"

	"arzmania-cards/internal/domain"
	"arzmania-cards/internal/kv"

	"github.com/jackc/pgx/v5"
)

// CooldownStore implements cooldown.Backend.
type CooldownStore struct {
	db *DB
}

func NewCooldownStore(db *DB) *CooldownStore {
	return &CooldownStore{db: db}
}

func (s *CooldownStore) Load(ctx context.Context, id int64) (domain.CooldownRecord, int64, error) {
	rec := domain.CooldownRecord{ParticipantID: id}
	var version int64
	err := s.db.QueryRow(ctx,
		`SELECT last_action_at, version FROM cooldowns WHERE user_id = $1`, id).Scan(&rec.LastActionAt, &version)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.CooldownRecord{}, 0, nil
	}
	if err != nil {
		return domain.CooldownRecord{}, 0, fmt.Errorf("load cooldown of %d: %w", id, err)
	}
	rec.LastActionAt = rec.LastActionAt.UTC()
	return rec, version, nil
}

func (s *CooldownStore) CompareAndSwap(ctx context.Context, id int64, version int64, rec domain.CooldownRecord) error {
	sql := `
		INSERT INTO cooldowns (user_id, last_action_at, version) VALUES ($1, $2, 1)
		ON CONFLICT (user_id) DO NOTHING`
	args := []any{id, rec.LastActionAt}
	if version > 0 {
		sql = `
		UPDATE cooldowns SET last_action_at = $2, version = version + 1
		 WHERE user_id = $1 AND version = $3`
		args = append(args, version)
	}
	tag, err := s.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("write cooldown of %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return kv.Conflict(fmt.Sprintf("cooldown of %d", id))
	}
	return nil
}
