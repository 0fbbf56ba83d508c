package redisstore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"arzmania-cards/internal/cooldown"
	"arzmania-cards/internal/domain"
	apperrors "arzmania-cards/internal/errors"

	"github.com/alicebob/miniredis/v2"
)

func newTestStore(t *testing.T) *CooldownStore {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb, err := NewRedis(context.Background(), mr.Addr(), "", 0)
	if err != nil {
		t.Fatalf("NewRedis() error = %v", err)
	}
	t.Cleanup(func() { rdb.Close() })
	return NewCooldownStore(rdb)
}

func TestCooldownStoreCompareAndSwap(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_, version, err := store.Load(ctx, 8)
	if err != nil || version != 0 {
		t.Fatalf("Load(absent) version = %d, %v; want 0", version, err)
	}

	at := time.Unix(1_700_000_000, 123456789).UTC()
	if err := store.CompareAndSwap(ctx, 8, 0, domain.CooldownRecord{ParticipantID: 8, LastActionAt: at}); err != nil {
		t.Fatalf("CompareAndSwap() error = %v", err)
	}
	rec, version, err := store.Load(ctx, 8)
	if err != nil || version != 1 || !rec.LastActionAt.Equal(at) {
		t.Fatalf("Load() = %+v, %d, %v; want %v at version 1", rec, version, err, at)
	}

	if err := store.CompareAndSwap(ctx, 8, 0, rec); !errors.Is(err, apperrors.ErrStorageConflict) {
		t.Errorf("stale CompareAndSwap() error = %v, want ErrStorageConflict", err)
	}
}

func TestCooldownStoreThroughGate(t *testing.T) {
	ctx := context.Background()
	gate := cooldown.NewGate(newTestStore(t))
	now := time.Unix(1_700_000_000, 0)

	const callers = 16
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := gate.TryConsume(ctx, 3, now, 2*time.Hour)
			if err != nil {
				t.Errorf("TryConsume() error = %v", err)
				return
			}
			if res.Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if allowed != 1 {
		t.Errorf("allowed = %d, want exactly 1", allowed)
	}

	if err := gate.Reset(ctx, 3, now, 2*time.Hour); err != nil {
		t.Fatal(err)
	}
	if res, err := gate.TryConsume(ctx, 3, now, 2*time.Hour); err != nil || !res.Allowed {
		t.Errorf("TryConsume() after reset = %+v, %v", res, err)
	}
}
