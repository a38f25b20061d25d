package paytable

import (
	"fmt"
	"math"
	"sort"
)

// Validate returns human-readable problems with the payout structure.  None
// of these stop Payout from working; they are for an operator to fix.
func (ps *PayoutStructure) Validate() []string {
	var problems []string
	add := func(f string, args ...any) {
		problems = append(problems, fmt.Sprintf(f, args...))
	}

	if len(ps.Allocations) == 0 {
		add("no allocations")
		return problems
	}

	weight := 0.0
	for i, a := range ps.Allocations {
		weight += a.PercentOfPool
		if a.PercentOfPool < 0 {
			add("allocation %d: negative percent of pool %.2f", i, a.PercentOfPool)
		}
		switch a.Kind {
		case KindCustomMatrix:
			if len(a.Rules) == 0 {
				add("allocation %d: custom matrix has no rules", i)
			}
		case KindICM, KindChipEV:
		default:
			add("allocation %d: unknown kind %q", i, a.Kind)
		}
		for _, p := range validateRules(a.Rules) {
			add("allocation %d: %s", i, p)
		}
	}
	if math.Abs(weight-100) > sumTolerance {
		add("allocations sum to %.2f%% of the pool, not 100%%", weight)
	}

	return problems
}

func validateRules(rules []Rule) []string {
	var problems []string
	add := func(f string, args ...any) {
		problems = append(problems, fmt.Sprintf(f, args...))
	}

	for i, r := range rules {
		if r.MinPlayers > r.MaxPlayers {
			add("rule %d: min players %d > max players %d", i, r.MinPlayers, r.MaxPlayers)
		}
		if len(r.Percentages) == 0 {
			add("rule %d: no percentages", i)
			continue
		}
		if total := sum(r.Percentages); math.Abs(total-100) > sumTolerance {
			add("rule %d [%d,%d]: percentages sum to %.2f, not 100", i, r.MinPlayers, r.MaxPlayers, total)
		}
		for j := 1; j < len(r.Percentages); j++ {
			if r.Percentages[j] > r.Percentages[j-1] {
				add("rule %d: place %d pays more than place %d", i, j+1, j)
				break
			}
		}
		for j, p := range r.Percentages {
			if p < 0 {
				add("rule %d: place %d is negative", i, j+1)
			}
		}
		if r.PlacesPaid < 0 || r.PlacesPaid > len(r.Percentages) {
			add("rule %d: places paid %d out of range 0..%d", i, r.PlacesPaid, len(r.Percentages))
		}
	}

	sorted := make([]Rule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].MinPlayers < sorted[j].MinPlayers })
	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1], sorted[i]
		switch {
		case cur.MinPlayers <= prev.MaxPlayers:
			add("players %d..%d covered by more than one rule", cur.MinPlayers, min(prev.MaxPlayers, cur.MaxPlayers))
		case cur.MinPlayers > prev.MaxPlayers+1:
			add("no rule for %d..%d players", prev.MaxPlayers+1, cur.MinPlayers-1)
		}
	}

	return problems
}
