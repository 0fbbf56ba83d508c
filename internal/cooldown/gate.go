// Package cooldown throttles how often a participant may repeat an action.
package cooldown

import (
	"context"
	"fmt"
	"time"

	"arzmania-cards/internal/domain"
	apperrors "arzmania-cards/internal/errors"
	"arzmania-cards/internal/kv"
)

// ResetSlack is how far past the refractory period Reset moves the last
// action, so the next attempt is allowed even if the caller's clock reads
// slightly behind.
const ResetSlack = time.Millisecond

type Backend interface {
	kv.Versioned[int64, domain.CooldownRecord]
}

type Result struct {
	Allowed   bool
	Remaining time.Duration
}

type Gate struct {
	backend Backend
	locks   *kv.KeyLock[int64]
}

func NewGate(backend Backend) *Gate {
	return &Gate{backend: backend, locks: kv.NewKeyLock[int64]()}
}

// TryConsume allows the action when id has no recorded action or the last
// one is at least d before now, and records now as the last action in the
// same atomic step. A denied call leaves the record untouched and reports
// how long is left.
func (g *Gate) TryConsume(ctx context.Context, id int64, now time.Time, d time.Duration) (Result, error) {
	if d < 0 {
		return Result{}, apperrors.Newf(apperrors.CodeInvalidInput, "cooldown duration must not be negative, got %s", d)
	}

	var res Result
	_, err := kv.Update[int64, domain.CooldownRecord](ctx, g.backend, g.locks, id,
		func(current domain.CooldownRecord, found bool) (domain.CooldownRecord, bool, error) {
			res = evaluate(current, found, now, d)
			if !res.Allowed {
				return current, false, nil
			}
			return domain.CooldownRecord{ParticipantID: id, LastActionAt: now}, true, nil
		})
	if err != nil {
		return Result{}, fmt.Errorf("consume cooldown for %d: %w", id, err)
	}
	return res, nil
}

// Peek reports what TryConsume would answer without recording anything.
func (g *Gate) Peek(ctx context.Context, id int64, now time.Time, d time.Duration) (Result, error) {
	if d < 0 {
		return Result{}, apperrors.Newf(apperrors.CodeInvalidInput, "cooldown duration must not be negative, got %s", d)
	}
	current, version, err := g.backend.Load(ctx, id)
	if err != nil {
		return Result{}, fmt.Errorf("load cooldown for %d: %w", id, err)
	}
	return evaluate(current, version > 0, now, d), nil
}

// Reset backdates the last action of id so that the next TryConsume with
// the same duration, at now or later, is allowed.
func (g *Gate) Reset(ctx context.Context, id int64, now time.Time, d time.Duration) error {
	if d < 0 {
		return apperrors.Newf(apperrors.CodeInvalidInput, "cooldown duration must not be negative, got %s", d)
	}
	backdated := now.Add(-d - ResetSlack)
	_, err := kv.Update[int64, domain.CooldownRecord](ctx, g.backend, g.locks, id,
		func(domain.CooldownRecord, bool) (domain.CooldownRecord, bool, error) {
			return domain.CooldownRecord{ParticipantID: id, LastActionAt: backdated}, true, nil
		})
	if err != nil {
		return fmt.Errorf("reset cooldown for %d: %w", id, err)
	}
	return nil
}

func evaluate(current domain.CooldownRecord, found bool, now time.Time, d time.Duration) Result {
	if !found {
		return Result{Allowed: true}
	}
	elapsed := now.Sub(current.LastActionAt)
	if elapsed >= d {
		return Result{Allowed: true}
	}
	return Result{Allowed: false, Remaining: d - elapsed}
}

// NewMemoryBackend keeps cooldowns in process memory.
func NewMemoryBackend() Backend {
	return kv.NewMemory[int64, domain.CooldownRecord]("cooldown")
}
