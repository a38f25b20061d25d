// Package equity estimates each player's share of a prize pool from their
// chip stack.
//
// All results are percentages (0..100) of whatever prize vector was passed
// in.  Chip vectors and results are indexed by player, not by rank.
package equity

import (
	"log"

	"github.com/ts4z/chipclock/varz"
)

// MaxICMPlayers is the largest field ICM enumerates exactly.  The number of
// finish orders grows factorially; past this, Calculate falls back to ChipEV.
const MaxICMPlayers = 9

var (
	icmDegradedToChipEV = varz.NewInt("icmDegradedToChipEV")
)

// ChipEV gives each player their share of the chips.  If nobody has any
// chips, everybody gets an equal share.
func ChipEV(chips []int64) []float64 {
	eq := make([]float64, len(chips))
	if len(chips) == 0 {
		return eq
	}
	var total int64
	for _, c := range chips {
		total += c
	}
	if total <= 0 {
		for i := range eq {
			eq[i] = 100 / float64(len(chips))
		}
		return eq
	}
	for i, c := range chips {
		eq[i] = float64(c) * 100 / float64(total)
	}
	return eq
}

// ICM computes Independent Chip Model equity.  prizes[r] is the percentage
// paid to rank r+1; it is padded with zeros (or truncated) to len(chips).
//
// ICM enumerates every finish order, so callers should check len(chips)
// against MaxICMPlayers, or use Calculate.
func ICM(chips []int64, prizes []float64) []float64 {
	n := len(chips)
	eq := make([]float64, n)
	if n == 0 {
		return eq
	}
	prize := make([]float64, n)
	copy(prize, prizes)

	// probs[player][rank]
	probs := make([][]float64, n)
	for i := range probs {
		probs[i] = make([]float64, n)
	}

	var total int64
	for _, c := range chips {
		if c > 0 {
			total += c
		}
	}

	used := make([]bool, n)
	enumerate(chips, used, 0, total, 1.0, probs)

	for p := 0; p < n; p++ {
		for r := 0; r < n; r++ {
			eq[p] += probs[p][r] * prize[r]
		}
	}
	return eq
}

// enumerate assigns rank to each remaining player with chips, weighted by
// stack, and recurses.  Once the remaining players hold no chips at all, the
// rest of the probability mass is spread evenly over the remaining players
// and ranks instead of being enumerated.  This is an approximation for
// fields with several busted stacks.
func enumerate(chips []int64, used []bool, rank int, remaining int64, p float64, probs [][]float64) {
	n := len(chips)
	if rank >= n {
		return
	}

	if remaining <= 0 {
		left := n - rank
		share := p / float64(left)
		for i := 0; i < n; i++ {
			if used[i] {
				continue
			}
			for r := rank; r < n; r++ {
				probs[i][r] += share
			}
		}
		return
	}

	for i := 0; i < n; i++ {
		if used[i] || chips[i] <= 0 {
			continue
		}
		pi := p * float64(chips[i]) / float64(remaining)
		probs[i][rank] += pi
		used[i] = true
		enumerate(chips, used, rank+1, remaining-chips[i], pi, probs)
		used[i] = false
	}
}

// Calculate runs ICM when the field is small enough and ChipEV otherwise.
// degraded reports the fallback.
func Calculate(chips []int64, prizes []float64) (eq []float64, degraded bool) {
	if len(chips) > MaxICMPlayers {
		log.Printf("warning: ICM requested for %d players (max %d), using ChipEV instead", len(chips), MaxICMPlayers)
		icmDegradedToChipEV.Add(1)
		return ChipEV(chips), true
	}
	return ICM(chips, prizes), false
}
