package paytable

import (
	"errors"
	"log"
	"math"

	"github.com/ts4z/chipclock/varz"
)

var ErrNoRules = errors.New("no payout rules configured")

// sumTolerance is how far a percentage vector may be from 100 before the
// runtime complains about it.
const sumTolerance = 0.01

var (
	fallbackRuleUsed = varz.NewInt("fallbackRuleUsed")
	badRuleSum       = varz.NewInt("badRuleSum")
)

// FindRule returns the first rule covering numPlayers.  If no rule covers it,
// the first rule is returned and fallback is true; this is a configuration
// problem but not a fatal one.
func FindRule(rules []Rule, numPlayers int) (rule *Rule, fallback bool, err error) {
	if len(rules) == 0 {
		return nil, false, ErrNoRules
	}
	for i := range rules {
		if rules[i].Matches(numPlayers) {
			return &rules[i], false, nil
		}
	}
	log.Printf("warning: no payout rule covers %d players, degraded to first rule [%d,%d]",
		numPlayers, rules[0].MinPlayers, rules[0].MaxPlayers)
	fallbackRuleUsed.Add(1)
	return &rules[0], true, nil
}

// Redistribute folds the percentages for places past n into the first n
// places, split evenly.  The total is conserved.  If there are at least as
// many places as percentages, a copy is returned unchanged.
func Redistribute(percentages []float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	if n >= len(percentages) {
		return append([]float64(nil), percentages...)
	}
	out := make([]float64, n)
	copy(out, percentages[:n])
	excess := 0.0
	for _, p := range percentages[n:] {
		excess += p
	}
	boost := excess / float64(n)
	for i := range out {
		out[i] += boost
	}
	return out
}

// RankPercentages resolves the rank-indexed percentage vector this rule pays
// for numPlayers entrants.  PlacesPaid, when set, caps the paid places first.
func (r *Rule) RankPercentages(numPlayers int) []float64 {
	p := r.Percentages
	if r.PlacesPaid > 0 && r.PlacesPaid < len(p) {
		p = Redistribute(p, r.PlacesPaid)
	}
	return Redistribute(p, numPlayers)
}

// RankPercentages resolves a rank-indexed vector for numPlayers from the
// allocation's rules.  A rule that doesn't sum to 100 is logged but still
// used.
func (a *Allocation) RankPercentages(numPlayers int) (p []float64, fallback bool, err error) {
	rule, fallback, err := FindRule(a.Rules, numPlayers)
	if err != nil {
		return nil, false, err
	}
	if total := sum(rule.Percentages); math.Abs(total-100) > sumTolerance {
		log.Printf("warning: payout rule [%d,%d] sums to %.2f, not 100", rule.MinPlayers, rule.MaxPlayers, total)
		badRuleSum.Add(1)
	}
	return rule.RankPercentages(numPlayers), fallback, nil
}

func sum(a []float64) float64 {
	t := 0.0
	for _, x := range a {
		t += x
	}
	return t
}
