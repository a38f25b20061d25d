package builtins

import (
	"github.com/ts4z/chipclock/paytable"
)

// Built-in payout structures have negative IDs so they never collide with
// rows in the database.
const (
	BARGEPayoutID    int64 = -1
	BARGEWithICMID   int64 = -2
	ChipChopPayoutID int64 = -3
	WinnerTakeAllID  int64 = -4
)

// bargeRules is the BARGE 2025 unified payout table from page 14 of the 2025
// BARGE Structures PDF.  Fewer than 5 players is winner take all.
var bargeRules = []paytable.Rule{
	{MinPlayers: 1, MaxPlayers: 4, Percentages: []float64{100}},
	{MinPlayers: 5, MaxPlayers: 8, Percentages: []float64{65, 35}},
	{MinPlayers: 9, MaxPlayers: 15, Percentages: []float64{50, 30, 20}},
	{MinPlayers: 16, MaxPlayers: 24, Percentages: []float64{42, 26, 18, 14}},
	{MinPlayers: 25, MaxPlayers: 35, Percentages: []float64{36, 24, 17, 13, 10}},
	{MinPlayers: 36, MaxPlayers: 47, Percentages: []float64{31, 22, 17, 13, 10, 7}},
	{MinPlayers: 48, MaxPlayers: 55, Percentages: []float64{28, 21, 16, 13, 10, 7, 5}},
	{MinPlayers: 56, MaxPlayers: 64, Percentages: []float64{27, 20, 16, 12, 9, 7, 5, 4}},
	{MinPlayers: 65, MaxPlayers: 72, Percentages: []float64{26, 19, 15, 12, 9, 7, 5, 4, 3}},
	{MinPlayers: 73, MaxPlayers: 80, Percentages: []float64{25, 19, 14, 11, 9, 7, 5, 4, 3, 3}},
	{MinPlayers: 81, MaxPlayers: 96, Percentages: []float64{25, 18, 13, 10, 8, 6, 5, 4, 3, 3, 2.5, 2.5}},
	{MinPlayers: 97, MaxPlayers: 120, Percentages: []float64{25, 17, 12, 9, 7, 6, 4, 3, 3, 3, 2.5, 2.5, 2, 2, 2}},
	{MinPlayers: 121, MaxPlayers: 144, Percentages: []float64{24, 16, 12, 9, 7, 5, 4, 3, 2.5, 2.5, 2.25, 2.25, 2, 2, 2, 1.5, 1.5, 1.5}},
	{MinPlayers: 145, MaxPlayers: 168, Percentages: []float64{23, 15, 11, 8.5, 6, 5, 4, 3, 2.5, 2.5, 2.25, 2.25, 2, 2, 2, 1.5, 1.5, 1.5, 1.5, 1.5, 1.5}},
}

func BARGEPayoutStructure() *paytable.PayoutStructure {
	return &paytable.PayoutStructure{
		ID:           BARGEPayoutID,
		Name:         "BARGE Unified Poker Payouts",
		RoundingUnit: 5,
		Allocations: []paytable.Allocation{
			{Kind: paytable.KindCustomMatrix, PercentOfPool: 100, Rules: cloneRules(bargeRules)},
		},
	}
}

// BARGEWithICM pays 95% of the pool off the BARGE table and settles the
// last 5% by ICM on the same ladder, as a deal at the final table would.
func BARGEWithICM() *paytable.PayoutStructure {
	return &paytable.PayoutStructure{
		ID:           BARGEWithICMID,
		Name:         "BARGE + 5% ICM",
		RoundingUnit: 5,
		Allocations: []paytable.Allocation{
			{Kind: paytable.KindCustomMatrix, PercentOfPool: 95, Rules: cloneRules(bargeRules)},
			{Kind: paytable.KindICM, PercentOfPool: 5},
		},
	}
}

// ChipChop splits the whole pool by chip count.
func ChipChop() *paytable.PayoutStructure {
	return &paytable.PayoutStructure{
		ID:           ChipChopPayoutID,
		Name:         "Chip Chop",
		RoundingUnit: 1,
		Allocations: []paytable.Allocation{
			{Kind: paytable.KindChipEV, PercentOfPool: 100},
		},
	}
}

func WinnerTakeAll() *paytable.PayoutStructure {
	return &paytable.PayoutStructure{
		ID:           WinnerTakeAllID,
		Name:         "Winner Take All",
		RoundingUnit: 1,
		Allocations: []paytable.Allocation{{
			Kind:          paytable.KindCustomMatrix,
			PercentOfPool: 100,
			Rules:         []paytable.Rule{{MinPlayers: 1, MaxPlayers: 1 << 30, Percentages: []float64{100}}},
		}},
	}
}

// PayoutStructures returns fresh copies of every built-in payout structure.
func PayoutStructures() []*paytable.PayoutStructure {
	return []*paytable.PayoutStructure{
		BARGEPayoutStructure(),
		BARGEWithICM(),
		ChipChop(),
		WinnerTakeAll(),
	}
}

func cloneRules(rules []paytable.Rule) []paytable.Rule {
	out := make([]paytable.Rule, len(rules))
	for i, r := range rules {
		out[i] = r
		out[i].Percentages = append([]float64(nil), r.Percentages...)
	}
	return out
}
