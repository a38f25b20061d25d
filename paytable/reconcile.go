package paytable

import (
	"errors"
	"math"
)

var (
	ErrNegativeTarget = errors.New("prize pool is negative")
	ErrNoAmounts      = errors.New("no amounts to pay a nonzero prize pool")
)

// Reconcile rounds each raw amount to the nearest multiple of unit, then
// pushes whatever the rounding lost onto the last nonzero amount (or the
// first amount, if they are all zero).  If rounding overshot, the excess is
// taken from the end, emptying entries before moving up a place, so no
// amount goes below zero.  The result always sums to exactly target; at most
// one entry is not a multiple of unit.
//
// A unit of zero or less is treated as 1.
func Reconcile(raw []float64, unit int64, target int64) ([]int64, error) {
	if target < 0 {
		return nil, ErrNegativeTarget
	}
	if len(raw) == 0 {
		if target != 0 {
			return nil, ErrNoAmounts
		}
		return []int64{}, nil
	}
	if unit <= 0 {
		unit = 1
	}

	out := make([]int64, len(raw))
	if target == 0 {
		return out, nil
	}

	var total int64
	for i, a := range raw {
		out[i] = int64(math.Round(a/float64(unit))) * unit
		total += out[i]
	}

	diff := target - total
	if diff == 0 {
		return out, nil
	}

	if diff < 0 {
		for i := len(out) - 1; i >= 0 && diff < 0; i-- {
			take := min(out[i], -diff)
			out[i] -= take
			diff += take
		}
		return out, nil
	}

	at := 0
	for i := len(out) - 1; i >= 0; i-- {
		if out[i] != 0 {
			at = i
			break
		}
	}
	out[at] += diff
	return out, nil
}
