package paytable

import (
	"errors"
	"fmt"

	"github.com/ts4z/chipclock/equity"
)

// ErrUnsortedChips is returned when chip counts are not in finishing order.
// Custom matrices pay by rank and ICM/ChipEV pay by player; adding them up
// position by position only makes sense if position i is both.
var ErrUnsortedChips = errors.New("chip counts must be sorted in descending order")

// Distribution is a combined percentage vector, indexed by finishing
// position, along with any degradations that went into it.
type Distribution struct {
	Percentages      []float64 `json:"percentages"`
	Degraded         bool      `json:"icm_degraded,omitempty"`
	UsedFallbackRule bool      `json:"used_fallback_rule,omitempty"`
}

// Combine weights each allocation by its PercentOfPool and sums them into one
// vector the same length as chips.
func Combine(allocs []Allocation, chips []int64) (*Distribution, error) {
	for i := 1; i < len(chips); i++ {
		if chips[i] > chips[i-1] {
			return nil, ErrUnsortedChips
		}
	}

	n := len(chips)
	d := &Distribution{Percentages: make([]float64, n)}

	for i := range allocs {
		a := &allocs[i]
		var v []float64
		switch a.Kind {
		case KindCustomMatrix:
			p, fallback, err := a.RankPercentages(n)
			if err != nil {
				return nil, fmt.Errorf("allocation %d: %w", i, err)
			}
			d.UsedFallbackRule = d.UsedFallbackRule || fallback
			v = p
		case KindChipEV:
			v = equity.ChipEV(chips)
		case KindICM:
			prizes, fallback, err := icmPrizes(allocs, i, n)
			if err != nil {
				return nil, fmt.Errorf("allocation %d: %w", i, err)
			}
			d.UsedFallbackRule = d.UsedFallbackRule || fallback
			eq, degraded := equity.Calculate(chips, prizes)
			d.Degraded = d.Degraded || degraded
			v = eq
		default:
			return nil, fmt.Errorf("allocation %d: unknown kind %q", i, a.Kind)
		}

		w := a.PercentOfPool / 100
		for j := 0; j < n && j < len(v); j++ {
			d.Percentages[j] += v[j] * w
		}
	}

	return d, nil
}

// icmPrizes picks the theoretical prize ladder for the ICM allocation at
// index i: its own rules, else the first custom matrix's rules, else winner
// take all.
func icmPrizes(allocs []Allocation, i, n int) ([]float64, bool, error) {
	if len(allocs[i].Rules) > 0 {
		return allocs[i].RankPercentages(n)
	}
	for j := range allocs {
		if allocs[j].Kind == KindCustomMatrix && len(allocs[j].Rules) > 0 {
			return allocs[j].RankPercentages(n)
		}
	}
	return []float64{100}, false, nil
}
