package equity

import (
	"math"
	"math/rand"
	"testing"
)

const epsilon = 1e-9

func sum(xs []float64) float64 {
	s := 0.0
	for _, x := range xs {
		s += x
	}
	return s
}

func closeTo(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestChipEV(t *testing.T) {
	got := ChipEV([]int64{5000, 3000, 2000})
	want := []float64{50, 30, 20}
	for i := range want {
		if !closeTo(got[i], want[i]) {
			t.Errorf("ChipEV()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	if s := sum(got); s != 100 {
		t.Errorf("ChipEV() sums to %v, want exactly 100", s)
	}
}

func TestChipEVNoChips(t *testing.T) {
	got := ChipEV([]int64{0, 0, 0, 0})
	for i, g := range got {
		if g != 25 {
			t.Errorf("ChipEV()[%d] = %v, want 25", i, g)
		}
	}
	if len(ChipEV(nil)) != 0 {
		t.Errorf("ChipEV(nil) should be empty")
	}
}

func TestICMHeadsUp(t *testing.T) {
	got := ICM([]int64{3000, 1000}, []float64{65, 35})
	want := []float64{57.5, 42.5}
	for i := range want {
		if !closeTo(got[i], want[i]) {
			t.Errorf("ICM()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestICMEqualStacks(t *testing.T) {
	got := ICM([]int64{1000, 1000, 1000}, []float64{50, 30, 20})
	for i, g := range got {
		if !closeTo(g, 100.0/3) {
			t.Errorf("ICM()[%d] = %v, want %v", i, g, 100.0/3)
		}
	}
}

func TestICMThreeWay(t *testing.T) {
	// Worked by hand: P(A first)=.5, P(A second)=.3*5/7+.2*5/8.
	chips := []int64{5000, 3000, 2000}
	prizes := []float64{50, 30, 20}
	got := ICM(chips, prizes)

	pA2 := 0.3*5.0/7.0 + 0.2*5.0/8.0
	pA3 := 1 - 0.5 - pA2
	wantA := 0.5*50 + pA2*30 + pA3*20
	if !closeTo(got[0], wantA) {
		t.Errorf("ICM()[0] = %v, want %v", got[0], wantA)
	}
	if !closeTo(sum(got), 100) {
		t.Errorf("ICM() sums to %v, want 100", sum(got))
	}
	// ICM flattens: the big stack gets less than its chip share, the short
	// stack more.
	if got[0] >= 50 || got[2] <= 20 {
		t.Errorf("ICM() = %v, want compression toward the middle", got)
	}
}

func TestICMZeroChipShortcut(t *testing.T) {
	got := ICM([]int64{100, 0, 0}, []float64{50, 30, 20})
	want := []float64{50, 25, 25}
	for i := range want {
		if !closeTo(got[i], want[i]) {
			t.Errorf("ICM()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestICMPadsPrizes(t *testing.T) {
	got := ICM([]int64{700, 200, 100}, []float64{100})
	want := []float64{70, 20, 10}
	for i := range want {
		if !closeTo(got[i], want[i]) {
			t.Errorf("ICM()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestICMSumsTo100(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	prizes := []float64{40, 25, 15, 10, 5, 3, 2}
	for n := 1; n <= MaxICMPlayers; n++ {
		for trial := 0; trial < 5; trial++ {
			chips := make([]int64, n)
			for i := range chips {
				chips[i] = rng.Int63n(20000)
			}
			// at least one live stack
			chips[0] += 1
			eq := ICM(chips, prizes)

			want := 0.0
			for r := 0; r < n && r < len(prizes); r++ {
				want += prizes[r]
			}
			if n >= len(prizes) && !closeTo(want, 100) {
				t.Fatalf("bad test prizes")
			}
			if math.Abs(sum(eq)-want) > 1e-6 {
				t.Errorf("n=%d chips=%v: ICM sums to %v, want %v", n, chips, sum(eq), want)
			}
			for i, e := range eq {
				if e < -epsilon {
					t.Errorf("n=%d: equity[%d] = %v < 0", n, i, e)
				}
			}
		}
	}
}

func TestCalculateDegrades(t *testing.T) {
	chips := make([]int64, MaxICMPlayers+1)
	for i := range chips {
		chips[i] = int64(1000 * (i + 1))
	}
	before := icmDegradedToChipEV.Value()
	eq, degraded := Calculate(chips, []float64{50, 30, 20})
	if !degraded {
		t.Fatalf("Calculate() with %d players: degraded = false, want true", len(chips))
	}
	want := ChipEV(chips)
	for i := range want {
		if eq[i] != want[i] {
			t.Errorf("Calculate()[%d] = %v, want ChipEV %v", i, eq[i], want[i])
		}
	}
	if icmDegradedToChipEV.Value() != before+1 {
		t.Errorf("degrade counter not bumped")
	}
}

func TestCalculateUsesICMAtCap(t *testing.T) {
	chips := []int64{9000, 8000, 7000, 6000, 5000, 4000, 3000, 2000, 1000}
	_, degraded := Calculate(chips, []float64{50, 30, 20})
	if degraded {
		t.Errorf("Calculate() with %d players degraded, want exact ICM", len(chips))
	}
}
