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

// CooldownRepository implements cooldown.Backend on the cooldowns table.
type CooldownRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewCooldownRepository(sqlDB *sql.DB, logger zerolog.Logger) *CooldownRepository {
	return &CooldownRepository{
		db:     sqlDB,
		logger: logger,
	}
}

func (r *CooldownRepository) Load(ctx context.Context, id int64) (domain.CooldownRecord, int64, error) {
	var last, version int64
	err := r.db.QueryRowContext(ctx,
		`SELECT last_action_at, version FROM cooldowns WHERE user_id = ?`, id).Scan(&last, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.CooldownRecord{}, 0, nil
	}
	if err != nil {
		return domain.CooldownRecord{}, 0, fmt.Errorf("failed to load cooldown of %d: %w", id, err)
	}
	return domain.CooldownRecord{ParticipantID: id, LastActionAt: fromUnix(last)}, version, nil
}

func (r *CooldownRepository) CompareAndSwap(ctx context.Context, id int64, version int64, rec domain.CooldownRecord) error {
	var (
		res sql.Result
		err error
	)
	if version == 0 {
		res, err = r.db.ExecContext(ctx, `
			INSERT INTO cooldowns (user_id, last_action_at, version) VALUES (?, ?, 1)
			ON CONFLICT (user_id) DO NOTHING`, id, toUnix(rec.LastActionAt))
	} else {
		res, err = r.db.ExecContext(ctx, `
			UPDATE cooldowns SET last_action_at = ?, version = version + 1
			WHERE user_id = ? AND version = ?`, toUnix(rec.LastActionAt), id, version)
	}
	if err != nil {
		return fmt.Errorf("failed to write cooldown of %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		r.logger.Debug().Int64("user_id", id).Int64("version", version).Msg("cooldown version conflict")
		return kv.Conflict(fmt.Sprintf("cooldown of %d", id))
	}
	return nil
}
