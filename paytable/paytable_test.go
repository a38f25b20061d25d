package paytable

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

var approx = cmpopts.EquateApprox(0, 1e-9)

func TestRedistribute(t *testing.T) {
	tests := []struct {
		name string
		in   []float64
		n    int
		want []float64
	}{
		{"fewer entrants than places", []float64{50, 30, 20}, 2, []float64{60, 40}},
		{"one entrant", []float64{50, 30, 20}, 1, []float64{100}},
		{"exact", []float64{50, 30, 20}, 3, []float64{50, 30, 20}},
		{"more entrants than places", []float64{65, 35}, 9, []float64{65, 35}},
		{"no entrants", []float64{65, 35}, 0, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Redistribute(tt.in, tt.n)
			if diff := cmp.Diff(tt.want, got, approx); diff != "" {
				t.Errorf("Redistribute(%v, %d) mismatch (-want +got):\n%s", tt.in, tt.n, diff)
			}
		})
	}
}

func TestRedistributeConservesTotal(t *testing.T) {
	in := []float64{25, 17, 12, 9, 7, 6, 4, 3, 3, 3, 2.5, 2.5, 2, 2, 2}
	for n := 1; n < len(in); n++ {
		if got := sum(Redistribute(in, n)); got < 100-1e-9 || got > 100+1e-9 {
			t.Errorf("sum(Redistribute(..., %d)) = %v, want 100", n, got)
		}
	}
}

func TestRedistributeDoesNotAlias(t *testing.T) {
	in := []float64{65, 35}
	out := Redistribute(in, 5)
	out[0] = 0
	if in[0] != 65 {
		t.Errorf("Redistribute modified its input: %v", in)
	}
}

func TestFindRule(t *testing.T) {
	rules := []Rule{
		{MinPlayers: 2, MaxPlayers: 4, Percentages: []float64{100}},
		{MinPlayers: 5, MaxPlayers: 8, Percentages: []float64{65, 35}},
		{MinPlayers: 9, MaxPlayers: 15, Percentages: []float64{50, 30, 20}},
	}

	tests := []struct {
		players      int
		wantMin      int
		wantFallback bool
	}{
		{2, 2, false},
		{4, 2, false},
		{5, 5, false},
		{8, 5, false},
		{15, 9, false},
		{16, 2, true},
		{1, 2, true},
	}
	for _, tt := range tests {
		r, fallback, err := FindRule(rules, tt.players)
		if err != nil {
			t.Fatalf("FindRule(%d) error: %v", tt.players, err)
		}
		if r.MinPlayers != tt.wantMin || fallback != tt.wantFallback {
			t.Errorf("FindRule(%d) = [%d..], %v, want [%d..], %v",
				tt.players, r.MinPlayers, fallback, tt.wantMin, tt.wantFallback)
		}
	}

	before := fallbackRuleUsed.Value()
	if _, _, err := FindRule(rules, 100); err != nil {
		t.Fatal(err)
	}
	if got := fallbackRuleUsed.Value() - before; got != 1 {
		t.Errorf("fallbackRuleUsed went up by %d, want 1", got)
	}

	if _, _, err := FindRule(nil, 3); !errors.Is(err, ErrNoRules) {
		t.Errorf("FindRule(nil) error = %v, want %v", err, ErrNoRules)
	}
}

func TestRulePlacesPaid(t *testing.T) {
	r := &Rule{MinPlayers: 1, MaxPlayers: 100, PlacesPaid: 2, Percentages: []float64{50, 30, 20}}

	if diff := cmp.Diff([]float64{60, 40}, r.RankPercentages(10), approx); diff != "" {
		t.Errorf("RankPercentages(10) mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{100}, r.RankPercentages(1), approx); diff != "" {
		t.Errorf("RankPercentages(1) mismatch (-want +got):\n%s", diff)
	}
}

func TestRankPercentagesBadSumStillComputes(t *testing.T) {
	a := &Allocation{
		Kind:          KindCustomMatrix,
		PercentOfPool: 100,
		Rules:         []Rule{{MinPlayers: 1, MaxPlayers: 10, Percentages: []float64{50, 30}}},
	}
	before := badRuleSum.Value()
	p, _, err := a.RankPercentages(3)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]float64{50, 30}, p, approx); diff != "" {
		t.Errorf("RankPercentages mismatch (-want +got):\n%s", diff)
	}
	if badRuleSum.Value() != before+1 {
		t.Errorf("badRuleSum = %d, want %d", badRuleSum.Value(), before+1)
	}
}

func TestCombine(t *testing.T) {
	matrix := Allocation{
		Kind:  KindCustomMatrix,
		Rules: []Rule{{MinPlayers: 1, MaxPlayers: 10, Percentages: []float64{50, 30, 20}}},
	}

	tests := []struct {
		name   string
		allocs []Allocation
		chips  []int64
		want   []float64
	}{
		{
			name:   "matrix only",
			allocs: []Allocation{withWeight(matrix, 100)},
			chips:  []int64{3, 2, 1},
			want:   []float64{50, 30, 20},
		},
		{
			name:   "matrix pads to field size",
			allocs: []Allocation{withWeight(matrix, 100)},
			chips:  []int64{5, 4, 3, 2, 1},
			want:   []float64{50, 30, 20, 0, 0},
		},
		{
			name:   "half matrix half chipev",
			allocs: []Allocation{withWeight(matrix, 50), {Kind: KindChipEV, PercentOfPool: 50}},
			chips:  []int64{5000, 3000, 2000},
			want:   []float64{50, 30, 20},
		},
		{
			name: "icm borrows the matrix ladder",
			allocs: []Allocation{
				{Kind: KindICM, PercentOfPool: 100},
				{Kind: KindCustomMatrix, Rules: []Rule{{MinPlayers: 1, MaxPlayers: 10, Percentages: []float64{65, 35}}}},
			},
			chips: []int64{3000, 1000},
			want:  []float64{57.5, 42.5},
		},
		{
			name:   "icm without a ladder is winner take all",
			allocs: []Allocation{{Kind: KindICM, PercentOfPool: 100}},
			chips:  []int64{3000, 1000},
			want:   []float64{75, 25},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Combine(tt.allocs, tt.chips)
			if err != nil {
				t.Fatalf("Combine() error: %v", err)
			}
			if diff := cmp.Diff(tt.want, d.Percentages, approx); diff != "" {
				t.Errorf("Combine() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func withWeight(a Allocation, w float64) Allocation {
	a.PercentOfPool = w
	return a
}

func TestCombineRejectsUnsortedChips(t *testing.T) {
	_, err := Combine([]Allocation{{Kind: KindChipEV, PercentOfPool: 100}}, []int64{100, 300, 200})
	if !errors.Is(err, ErrUnsortedChips) {
		t.Errorf("Combine() error = %v, want %v", err, ErrUnsortedChips)
	}
}

func TestCombineUnknownKind(t *testing.T) {
	if _, err := Combine([]Allocation{{Kind: "lottery", PercentOfPool: 100}}, []int64{1}); err == nil {
		t.Errorf("Combine() with unknown kind: got nil error")
	}
}

func TestCombineFlagsDegradation(t *testing.T) {
	chips := make([]int64, 12)
	for i := range chips {
		chips[i] = int64(1000 - i)
	}
	d, err := Combine([]Allocation{{Kind: KindICM, PercentOfPool: 100}}, chips)
	if err != nil {
		t.Fatal(err)
	}
	if !d.Degraded {
		t.Errorf("Degraded = false for %d players, want true", len(chips))
	}
}

func TestReconcile(t *testing.T) {
	tests := []struct {
		name   string
		raw    []float64
		unit   int64
		target int64
		want   []int64
	}{
		{"thirds", []float64{333.33, 333.33, 333.34}, 100, 1000, []int64{300, 300, 400}},
		{"exact", []float64{500, 300, 200}, 100, 1000, []int64{500, 300, 200}},
		{"overshoot goes to last", []float64{460, 290, 250}, 100, 1000, []int64{500, 300, 200}},
		{"skip trailing zeros", []float64{940, 40, 20}, 100, 1000, []int64{1000, 0, 0}},
		{"all zero rounds to first", []float64{30, 30, 40}, 100, 100, []int64{100, 0, 0}},
		{"unit of zero is one", []float64{10.4, 20.4, 69.2}, 0, 100, []int64{10, 20, 70}},
		{"zero target", []float64{1, 2, 3}, 1, 0, []int64{0, 0, 0}},
		{"overshoot empties from the end", []float64{50, 50, 50, 50}, 100, 200, []int64{100, 100, 0, 0}},
		{"overshoot leaves partial", []float64{150, 150, 150}, 100, 450, []int64{200, 200, 50}},
		{"empty", nil, 5, 0, []int64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Reconcile(tt.raw, tt.unit, tt.target)
			if err != nil {
				t.Fatalf("Reconcile() error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Reconcile() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestReconcileErrors(t *testing.T) {
	if _, err := Reconcile([]float64{1}, 1, -5); !errors.Is(err, ErrNegativeTarget) {
		t.Errorf("negative target: error = %v, want %v", err, ErrNegativeTarget)
	}
	if _, err := Reconcile(nil, 1, 5); !errors.Is(err, ErrNoAmounts) {
		t.Errorf("empty amounts: error = %v, want %v", err, ErrNoAmounts)
	}
}

func TestReconcileAlwaysSumsToTarget(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for trial := 0; trial < 500; trial++ {
		n := 1 + r.Intn(20)
		target := r.Int63n(10_000_000)
		unit := []int64{1, 5, 25, 100, 1000}[r.Intn(5)]

		weights := make([]float64, n)
		total := 0.0
		for i := range weights {
			weights[i] = r.Float64()
			total += weights[i]
		}
		raw := make([]float64, n)
		for i := range raw {
			raw[i] = weights[i] / total * float64(target)
		}

		got, err := Reconcile(raw, unit, target)
		if err != nil {
			t.Fatalf("Reconcile() error: %v", err)
		}
		var s int64
		off := 0
		for _, a := range got {
			if a < 0 {
				t.Errorf("Reconcile(%v, %d, %d) = %v: negative amount", raw, unit, target, got)
			}
			s += a
			if a%unit != 0 {
				off++
			}
		}
		if s != target {
			t.Errorf("sum(Reconcile(%v, %d, %d)) = %d", raw, unit, target, s)
		}
		if off > 1 {
			t.Errorf("Reconcile(%v, %d, %d) = %v: %d entries off the unit, want at most 1", raw, unit, target, got, off)
		}
	}
}

func TestPayout(t *testing.T) {
	ps := &PayoutStructure{
		Name:         "test",
		RoundingUnit: 100,
		Allocations: []Allocation{{
			Kind:          KindCustomMatrix,
			PercentOfPool: 100,
			Rules: []Rule{
				{MinPlayers: 1, MaxPlayers: 4, Percentages: []float64{100}},
				{MinPlayers: 5, MaxPlayers: 20, Percentages: []float64{50, 30, 20}},
			},
		}},
	}

	p, err := ps.Payout(99_950, []int64{900, 800, 700, 600, 500}, 1)
	if err != nil {
		t.Fatalf("Payout() error: %v", err)
	}
	if diff := cmp.Diff([]int64{50_000, 30_000, 19_950, 0, 0}, p.Amounts); diff != "" {
		t.Errorf("Payout() mismatch (-want +got):\n%s", diff)
	}

	if _, err := ps.Payout(1000, nil, 1); err == nil {
		t.Errorf("Payout() with no players: got nil error")
	}
}

func TestUnit(t *testing.T) {
	tests := []struct {
		own, def, want int64
	}{
		{100, 5, 100},
		{0, 5, 5},
		{0, 0, 1},
	}
	for _, tt := range tests {
		ps := &PayoutStructure{RoundingUnit: tt.own}
		if got := ps.Unit(tt.def); got != tt.want {
			t.Errorf("Unit(%d) with own %d = %d, want %d", tt.def, tt.own, got, tt.want)
		}
	}
}

func TestClone(t *testing.T) {
	ps := &PayoutStructure{
		Name: "orig",
		Allocations: []Allocation{{
			Kind:  KindCustomMatrix,
			Rules: []Rule{{MinPlayers: 1, MaxPlayers: 2, Percentages: []float64{100}}},
		}},
	}
	c := ps.Clone()
	if diff := cmp.Diff(ps, c); diff != "" {
		t.Errorf("Clone() mismatch (-want +got):\n%s", diff)
	}
	c.Allocations[0].Rules[0].Percentages[0] = 1
	if ps.Allocations[0].Rules[0].Percentages[0] != 100 {
		t.Errorf("Clone() shares percentages with the original")
	}
}
