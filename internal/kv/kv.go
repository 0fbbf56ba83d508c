// Package kv defines the compare-and-swap contract that ledger and cooldown
// state is stored through, plus helpers to run a read-modify-write against
// it as one atomic unit per key.
//
// A Versioned store tracks a version per key. Version 0 means the key is
// absent. CompareAndSwap succeeds only when the stored version still equals
// the version the caller loaded; otherwise it returns an error matching
// ErrStorageConflict and stores nothing.
package kv

import (
	"context"
	"errors"

	apperrors "arzmania-cards/internal/errors"
)

type Versioned[K comparable, V any] interface {
	Load(ctx context.Context, key K) (value V, version int64, err error)
	CompareAndSwap(ctx context.Context, key K, version int64, value V) error
}

// maxAttempts bounds Update: the first attempt plus one retry on conflict.
const maxAttempts = 2

// Mutator computes the next value from the current one. found is false
// when the key is absent. Returning write=false leaves the store untouched.
type Mutator[V any] func(current V, found bool) (next V, write bool, err error)

// Update serializes on key through locks, then loads, mutates and
// compare-and-swaps. A conflict, such as another process writing the key,
// is retried once before being returned.
func Update[K comparable, V any](ctx context.Context, store Versioned[K, V], locks *KeyLock[K], key K, mutate Mutator[V]) (V, error) {
	unlock := locks.Lock(key)
	defer unlock()

	var zero V
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		current, version, err := store.Load(ctx, key)
		if err != nil {
			return zero, err
		}
		next, write, err := mutate(current, version > 0)
		if err != nil {
			return zero, err
		}
		if !write {
			return current, nil
		}
		err = store.CompareAndSwap(ctx, key, version, next)
		if err == nil {
			return next, nil
		}
		if !errors.Is(err, apperrors.ErrStorageConflict) {
			return zero, err
		}
		lastErr = err
	}
	return zero, lastErr
}

// Conflict builds the error a store returns from a failed compare-and-swap.
func Conflict(what string) error {
	return apperrors.New(apperrors.CodeStorageConflict, what+" was modified concurrently")
}
