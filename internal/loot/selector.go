// Package loot draws reward items from a catalog pool using weighted rarity
// tiers.
package loot

import (
	"arzmania-cards/internal/domain"
	apperrors "arzmania-cards/internal/errors"
	"arzmania-cards/internal/random"
)

type Selector struct {
	table Table
	rng   random.Source
}

func NewSelector(table Table, rng random.Source) *Selector {
	return &Selector{table: table, rng: rng}
}

func (s *Selector) Table() Table {
	return s.table
}

// Select rolls a rarity tier and returns a uniformly chosen pool item of that
// tier. When the pool has no item of the rolled tier, the item is chosen
// uniformly from the whole pool instead, so the draw only fails on an empty
// pool. The pool is never modified.
func (s *Selector) Select(pool []domain.Item) (domain.Item, error) {
	if len(pool) == 0 {
		return domain.Item{}, apperrors.ErrEmptyPool
	}

	tier := s.table.Roll(s.rng.Float64())

	matching := 0
	for i := range pool {
		if pool[i].Rarity == tier {
			matching++
		}
	}
	if matching == 0 {
		return pool[s.rng.IntN(len(pool))], nil
	}

	n := s.rng.IntN(matching)
	for i := range pool {
		if pool[i].Rarity != tier {
			continue
		}
		if n == 0 {
			return pool[i], nil
		}
		n--
	}
	// unreachable: n < matching
	return pool[len(pool)-1], nil
}
