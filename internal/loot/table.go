package loot

import (
	"fmt"
	"math"
	"strings"

	"arzmania-cards/internal/domain"
	apperrors "arzmania-cards/internal/errors"
)

// sumTolerance is how far the probabilities of a table may drift from 1.
const sumTolerance = 1e-6

// Table maps each rarity tier to its draw probability. The zero value gives
// every tier probability 0 and always rolls the last tier; build tables with
// NewTable or DefaultTable.
type Table struct {
	rates [len(domain.Rarities)]float64
}

// DefaultTable returns the standard drop rates.
func DefaultTable() Table {
	t, err := NewTable(map[domain.Rarity]float64{
		domain.RarityC:      0.35,
		domain.RarityR:      0.30,
		domain.RaritySR:     0.20,
		domain.RaritySSR:    0.10,
		domain.RarityUR:     0.04,
		domain.RarityLR:     0.009,
		domain.RaritySecret: 0.001,
	})
	if err != nil {
		panic(err)
	}
	return t
}

// NewTable validates rates and builds a table. Tiers not present in rates
// get probability 0.
func NewTable(rates map[domain.Rarity]float64) (Table, error) {
	var t Table
	sum := 0.0
	for r, p := range rates {
		i := r.Index()
		if i < 0 {
			return Table{}, apperrors.Newf(apperrors.CodeInvalidRarityRate, "unknown rarity %q", r)
		}
		if p < 0 || math.IsNaN(p) || math.IsInf(p, 0) {
			return Table{}, apperrors.Newf(apperrors.CodeInvalidRarityRate, "rate for %s must be a non-negative number, got %v", r, p)
		}
		t.rates[i] = p
		sum += p
	}
	if math.Abs(sum-1) > sumTolerance {
		return Table{}, apperrors.Newf(apperrors.CodeInvalidRarityRate, "rates must sum to 1, got %v", sum)
	}
	return t, nil
}

// ParseTable builds a table from configuration keyed by rarity label.
func ParseTable(raw map[string]float64) (Table, error) {
	rates := make(map[domain.Rarity]float64, len(raw))
	for label, p := range raw {
		r, err := domain.ParseRarity(label)
		if err != nil {
			return Table{}, apperrors.Wrap(apperrors.CodeInvalidRarityRate, fmt.Sprintf("rarity table entry %q", label), err)
		}
		rates[r] += p
	}
	return NewTable(rates)
}

func (t Table) Probability(r domain.Rarity) float64 {
	i := r.Index()
	if i < 0 {
		return 0
	}
	return t.rates[i]
}

// Roll maps a uniform value in [0,1) to a tier by walking tiers in canonical
// order and returning the first whose cumulative mass reaches r. If rounding
// leaves r above the final sum, the last tier with non-zero mass is returned.
func (t Table) Roll(r float64) domain.Rarity {
	cumulative := 0.0
	last := 0
	for i, p := range t.rates {
		if p <= 0 {
			continue
		}
		cumulative += p
		last = i
		if cumulative >= r {
			return domain.Rarities[i]
		}
	}
	return domain.Rarities[last]
}

func (t Table) String() string {
	parts := make([]string, 0, len(t.rates))
	for i, p := range t.rates {
		parts = append(parts, fmt.Sprintf("%s=%g", domain.Rarities[i], p))
	}
	return strings.Join(parts, ",")
}
