package cooldown

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	apperrors "arzmania-cards/internal/errors"

	"golang.org/x/sync/errgroup"
)

var t0 = time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

func TestTryConsumeWindow(t *testing.T) {
	ctx := context.Background()
	g := NewGate(NewMemoryBackend())
	const d = 2 * time.Hour

	res, err := g.TryConsume(ctx, 1, t0, d)
	if err != nil || !res.Allowed {
		t.Fatalf("first TryConsume = %+v, %v; want allowed", res, err)
	}

	res, err = g.TryConsume(ctx, 1, t0.Add(time.Second), d)
	if err != nil {
		t.Fatalf("TryConsume() error = %v", err)
	}
	if res.Allowed {
		t.Fatal("second TryConsume allowed, want denied")
	}
	if want := d - time.Second; res.Remaining != want {
		t.Fatalf("Remaining = %s, want %s", res.Remaining, want)
	}

	// A denied attempt must not push the window.
	res, err = g.TryConsume(ctx, 1, t0.Add(d+time.Second), d)
	if err != nil || !res.Allowed {
		t.Fatalf("TryConsume after window = %+v, %v; want allowed", res, err)
	}
}

func TestTryConsumeExactBoundaryAllowed(t *testing.T) {
	ctx := context.Background()
	g := NewGate(NewMemoryBackend())
	if _, err := g.TryConsume(ctx, 1, t0, time.Hour); err != nil {
		t.Fatal(err)
	}
	res, err := g.TryConsume(ctx, 1, t0.Add(time.Hour), time.Hour)
	if err != nil || !res.Allowed {
		t.Fatalf("TryConsume at boundary = %+v, %v; want allowed", res, err)
	}
}

func TestParticipantsAreIndependent(t *testing.T) {
	ctx := context.Background()
	g := NewGate(NewMemoryBackend())
	if _, err := g.TryConsume(ctx, 1, t0, time.Hour); err != nil {
		t.Fatal(err)
	}
	res, err := g.TryConsume(ctx, 2, t0, time.Hour)
	if err != nil || !res.Allowed {
		t.Fatalf("other participant = %+v, %v; want allowed", res, err)
	}
}

func TestResetThenTryConsumeAllowed(t *testing.T) {
	ctx := context.Background()
	g := NewGate(NewMemoryBackend())
	const d = 2 * time.Hour

	for _, id := range []int64{1, 2} {
		if id == 1 {
			if _, err := g.TryConsume(ctx, id, t0, d); err != nil {
				t.Fatal(err)
			}
		}
		now := t0.Add(time.Minute)
		if err := g.Reset(ctx, id, now, d); err != nil {
			t.Fatalf("Reset(%d) error = %v", id, err)
		}
		res, err := g.TryConsume(ctx, id, now, d)
		if err != nil || !res.Allowed {
			t.Fatalf("TryConsume(%d) after Reset = %+v, %v; want allowed", id, res, err)
		}
	}
}

func TestPeekDoesNotConsume(t *testing.T) {
	ctx := context.Background()
	g := NewGate(NewMemoryBackend())

	res, err := g.Peek(ctx, 1, t0, time.Hour)
	if err != nil || !res.Allowed {
		t.Fatalf("Peek() = %+v, %v", res, err)
	}
	res, err = g.TryConsume(ctx, 1, t0, time.Hour)
	if err != nil || !res.Allowed {
		t.Fatalf("TryConsume after Peek = %+v, %v; want allowed", res, err)
	}
	res, err = g.Peek(ctx, 1, t0.Add(10*time.Minute), time.Hour)
	if err != nil || res.Allowed || res.Remaining != 50*time.Minute {
		t.Fatalf("Peek() = %+v, %v; want 50m remaining", res, err)
	}
}

func TestNegativeDurationRejected(t *testing.T) {
	ctx := context.Background()
	g := NewGate(NewMemoryBackend())
	if _, err := g.TryConsume(ctx, 1, t0, -time.Second); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("TryConsume() error = %v, want ErrInvalidInput", err)
	}
	if err := g.Reset(ctx, 1, t0, -time.Second); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("Reset() error = %v, want ErrInvalidInput", err)
	}
	if _, err := g.Peek(ctx, 1, t0, -time.Second); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("Peek() error = %v, want ErrInvalidInput", err)
	}
}

func TestConcurrentTryConsumeAllowsExactlyOne(t *testing.T) {
	ctx := context.Background()
	g := NewGate(NewMemoryBackend())

	var allowed atomic.Int32
	var eg errgroup.Group
	for i := 0; i < 64; i++ {
		eg.Go(func() error {
			res, err := g.TryConsume(ctx, 42, t0, time.Hour)
			if err != nil {
				return err
			}
			if res.Allowed {
				allowed.Add(1)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		t.Fatalf("TryConsume() error = %v", err)
	}
	if got := allowed.Load(); got != 1 {
		t.Fatalf("%d concurrent calls allowed, want 1", got)
	}
}
