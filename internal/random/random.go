// Package random provides the randomness capability used by loot draws and
// duel tiebreaks.
//
// Resolution code depends only on the Source interface, so tests can pass a
// fixed-seed generator or a scripted fake.
package random

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand"
	"sync"
)

// Source yields uniform random values.
type Source interface {
	// Float64 returns a uniform value in [0, 1).
	Float64() float64
	// Bool returns true or false with equal probability.
	Bool() bool
	// IntN returns a uniform value in [0, n). It panics if n <= 0.
	IntN(n int) int
}

// Seeded is a Source backed by math/rand. It is safe for concurrent use.
type Seeded struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New returns a Source that is deterministic for a given seed.
func New(seed int64) *Seeded {
	return &Seeded{rng: rand.New(rand.NewSource(seed))}
}

// NewFromEntropy seeds a Source from crypto/rand.
func NewFromEntropy() (*Seeded, error) {
	seed, err := NewSeed()
	if err != nil {
		return nil, err
	}
	return New(seed), nil
}

func (s *Seeded) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

func (s *Seeded) Bool() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(2) == 1
}

func (s *Seeded) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(n)
}

// NewSeed generates a random seed using crypto/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}

	return int64(binary.LittleEndian.Uint64(b[:])), nil
}
