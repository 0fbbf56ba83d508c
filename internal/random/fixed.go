package random

import "sync"

// Scripted replays preset values in order. Once a queue is exhausted the
// last value is repeated; an empty queue yields the zero value.
type Scripted struct {
	mu     sync.Mutex
	Floats []float64
	Bools  []bool
	Ints   []int

	FloatCalls int
	BoolCalls  int
	IntCalls   int
}

var _ Source = (*Scripted)(nil)

func (s *Scripted) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := pick(s.Floats, s.FloatCalls)
	s.FloatCalls++
	return v
}

func (s *Scripted) Bool() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := pick(s.Bools, s.BoolCalls)
	s.BoolCalls++
	return v
}

func (s *Scripted) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := pick(s.Ints, s.IntCalls)
	s.IntCalls++
	if n <= 0 {
		panic("random: IntN called with n <= 0")
	}
	return v % n
}

func pick[T any](values []T, call int) T {
	var zero T
	if len(values) == 0 {
		return zero
	}
	if call >= len(values) {
		return values[len(values)-1]
	}
	return values[call]
}
