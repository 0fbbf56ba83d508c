package domain

import (
	"fmt"

	apperrors "arzmania-cards/internal/errors"
)

// PairKey is the order-independent key of two distinct participants.
type PairKey struct {
	Low  int64
	High int64
}

// Canonicalize orders a and b. swapped reports whether a ended up as High,
// which callers need to attribute a's result to the right slot.
func Canonicalize(a, b int64) (key PairKey, swapped bool, err error) {
	if a == b {
		return PairKey{}, false, apperrors.Newf(apperrors.CodeSelfPair, "participant %d cannot be paired with itself", a)
	}
	if a < b {
		return PairKey{Low: a, High: b}, false, nil
	}
	return PairKey{Low: b, High: a}, true, nil
}

// Other returns the participant of the pair that is not id.
func (k PairKey) Other(id int64) int64 {
	if id == k.Low {
		return k.High
	}
	return k.Low
}

func (k PairKey) Has(id int64) bool {
	return id == k.Low || id == k.High
}

func (k PairKey) String() string {
	return fmt.Sprintf("%d:%d", k.Low, k.High)
}
