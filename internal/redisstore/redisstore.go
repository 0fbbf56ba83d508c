// Package redisstore keeps cooldowns in Redis, using WATCH/MULTI
// transactions as the compare-and-swap.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"arzmania-cards/internal/domain"
	"arzmania-cards/internal/kv"

	"github.com/redis/go-redis/v9"
)

const (
	KeyCooldown = "cooldown:%d"

	fieldLastAction = "last_action_at"
	fieldVersion    = "version"
)

func NewRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return rdb, nil
}

// CooldownStore implements cooldown.Backend. Each participant is a hash
// holding the last action as Unix nanoseconds and a version counter.
type CooldownStore struct {
	rdb *redis.Client
}

func NewCooldownStore(rdb *redis.Client) *CooldownStore {
	return &CooldownStore{rdb: rdb}
}

func (s *CooldownStore) Load(ctx context.Context, id int64) (domain.CooldownRecord, int64, error) {
	vals, err := s.rdb.HMGet(ctx, fmt.Sprintf(KeyCooldown, id), fieldLastAction, fieldVersion).Result()
	if err != nil {
		return domain.CooldownRecord{}, 0, fmt.Errorf("load cooldown of %d: %w", id, err)
	}
	if vals[0] == nil || vals[1] == nil {
		return domain.CooldownRecord{}, 0, nil
	}
	at, err := parseInt(vals[0])
	if err != nil {
		return domain.CooldownRecord{}, 0, fmt.Errorf("cooldown of %d: %w", id, err)
	}
	version, err := parseInt(vals[1])
	if err != nil {
		return domain.CooldownRecord{}, 0, fmt.Errorf("cooldown of %d: %w", id, err)
	}
	return domain.CooldownRecord{ParticipantID: id, LastActionAt: time.Unix(0, at).UTC()}, version, nil
}

func (s *CooldownStore) CompareAndSwap(ctx context.Context, id int64, version int64, rec domain.CooldownRecord) error {
	key := fmt.Sprintf(KeyCooldown, id)
	conflict := kv.Conflict(fmt.Sprintf("cooldown of %d", id))

	err := s.rdb.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.HGet(ctx, key, fieldVersion).Int64()
		if errors.Is(err, redis.Nil) {
			current = 0
		} else if err != nil {
			return err
		}
		if current != version {
			return conflict
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key,
				fieldLastAction, rec.LastActionAt.UnixNano(),
				fieldVersion, version+1)
			return nil
		})
		return err
	}, key)

	if errors.Is(err, redis.TxFailedErr) {
		return conflict
	}
	if err != nil && !errors.Is(err, conflict) {
		return fmt.Errorf("write cooldown of %d: %w", id, err)
	}
	return err
}

func parseInt(v any) (int64, error) {
	s, ok := v.(string)
	if !ok {
		return 0, fmt.Errorf("unexpected value %T", v)
	}
	return strconv.ParseInt(s, 10, 64)
}
