// Package combat resolves a duel between two stat profiles.
//
// # Rounds
//
// A duel is three rounds played in a fixed order:
//
//  1. Power: the higher power wins; equal values tie.
//  2. Protection: the higher protection wins; equal values tie.
//  3. Total: the higher power+protection wins. An exact tie is settled by
//     a coin flip from the supplied random.Source, so round 3 always has a
//     winner.
//
// Tied rounds count for neither side. The side with more round wins takes
// the duel. Since round 3 is always decided, the score can be as low as 1-0
// when rounds 1 and 2 both tie.
//
// # Determinism
//
// The coin flip is the only randomness consumed, and only when the totals are
// equal. Resolve does not validate stats; that happens when items are
// created.
package combat

import (
	"arzmania-cards/internal/domain"
	"arzmania-cards/internal/random"
)

// Resolve plays a duel between a (side A) and b (side B).
func Resolve(a, b domain.StatProfile, coin random.Source) domain.DuelOutcome {
	var out domain.DuelOutcome

	out.Rounds[0] = compare(1, domain.CategoryPower, a.Power, b.Power)
	out.Rounds[1] = compare(2, domain.CategoryProtection, a.Protection, b.Protection)

	total := compare(3, domain.CategoryTotal, a.Total(), b.Total())
	if total.Winner == domain.SideNone {
		total.CoinFlip = true
		if coin.Bool() {
			total.Winner = domain.SideA
		} else {
			total.Winner = domain.SideB
		}
	}
	out.Rounds[2] = total

	for _, r := range out.Rounds {
		switch r.Winner {
		case domain.SideA:
			out.WinsA++
		case domain.SideB:
			out.WinsB++
		}
	}

	// Round 3 always has a winner and agrees with any single decided earlier
	// round, so WinsA == WinsB cannot happen.
	if out.WinsA > out.WinsB {
		out.Winner = domain.SideA
	} else {
		out.Winner = domain.SideB
	}
	return out
}

func compare(index int, category domain.StatCategory, va, vb int) domain.Round {
	r := domain.Round{Index: index, Category: category, ValueA: va, ValueB: vb}
	switch {
	case va > vb:
		r.Winner = domain.SideA
	case vb > va:
		r.Winner = domain.SideB
	default:
		r.Winner = domain.SideNone
	}
	return r
}
