// Package ledger keeps the cumulative duel record of every pair of
// participants.
//
// Records are stored once per canonical pair (see domain.Canonicalize), so a
// duel recorded from either direction lands on the same record. Writes to
// the same pair are serialized in-process with a per-key lock and guarded
// across processes by the backend's compare-and-swap.
package ledger

import (
	"context"
	"fmt"
	"sort"

	"arzmania-cards/internal/clock"
	"arzmania-cards/internal/domain"
	"arzmania-cards/internal/kv"
)

// Backend persists ledger records.
type Backend interface {
	kv.Versioned[domain.PairKey, domain.LedgerRecord]
	// ListByParticipant returns every record whose key contains id.
	ListByParticipant(ctx context.Context, id int64) ([]domain.LedgerRecord, error)
}

type Store struct {
	backend Backend
	locks   *kv.KeyLock[domain.PairKey]
	clock   clock.Clock
}

func NewStore(backend Backend, clk clock.Clock) *Store {
	return &Store{
		backend: backend,
		locks:   kv.NewKeyLock[domain.PairKey](),
		clock:   clk,
	}
}

// RecordResult adds one duel between a and b to their record and returns
// the record as stored afterwards.
func (s *Store) RecordResult(ctx context.Context, a, b int64, aWon bool) (domain.LedgerRecord, error) {
	key, swapped, err := domain.Canonicalize(a, b)
	if err != nil {
		return domain.LedgerRecord{}, err
	}
	// The canonical first slot won when a won and a is Low, or when b won
	// and b is Low.
	firstWon := aWon != swapped
	now := s.clock.Now()

	rec, err := kv.Update[domain.PairKey, domain.LedgerRecord](ctx, s.backend, s.locks, key,
		func(current domain.LedgerRecord, found bool) (domain.LedgerRecord, bool, error) {
			next := current
			if !found {
				next = domain.LedgerRecord{Key: key}
			}
			if firstWon {
				next.FirstWins++
			} else {
				next.SecondWins++
			}
			next.TotalDuels++
			next.LastDuelAt = now
			return next, true, nil
		})
	if err != nil {
		return domain.LedgerRecord{}, fmt.Errorf("record duel %s: %w", key, err)
	}
	return rec, nil
}

// GetRecord returns the record of a and b. ok is false when they have
// never dueled.
func (s *Store) GetRecord(ctx context.Context, a, b int64) (rec domain.LedgerRecord, ok bool, err error) {
	key, _, err := domain.Canonicalize(a, b)
	if err != nil {
		return domain.LedgerRecord{}, false, err
	}
	rec, version, err := s.backend.Load(ctx, key)
	if err != nil {
		return domain.LedgerRecord{}, false, fmt.Errorf("load duel record %s: %w", key, err)
	}
	if version == 0 {
		return domain.LedgerRecord{}, false, nil
	}
	return rec, true, nil
}

// GetAllForParticipant returns id's record against every opponent, seen
// from id, ordered by opponent id.
func (s *Store) GetAllForParticipant(ctx context.Context, id int64) ([]domain.LedgerView, error) {
	recs, err := s.backend.ListByParticipant(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list duel records for %d: %w", id, err)
	}
	views := make([]domain.LedgerView, 0, len(recs))
	for _, rec := range recs {
		if !rec.Key.Has(id) {
			continue
		}
		views = append(views, rec.ViewFor(id))
	}
	sort.Slice(views, func(i, j int) bool { return views[i].OpponentID < views[j].OpponentID })
	return views, nil
}

// MemoryBackend keeps records in process memory.
type MemoryBackend struct {
	*kv.Memory[domain.PairKey, domain.LedgerRecord]
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{Memory: kv.NewMemory[domain.PairKey, domain.LedgerRecord]("duel record")}
}

func (m *MemoryBackend) ListByParticipant(_ context.Context, id int64) ([]domain.LedgerRecord, error) {
	var out []domain.LedgerRecord
	m.Range(func(key domain.PairKey, rec domain.LedgerRecord) bool {
		if key.Has(id) {
			out = append(out, rec)
		}
		return true
	})
	return out, nil
}
