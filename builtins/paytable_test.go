package builtins

import (
	"math"
	"testing"
)

func TestSumTo100(t *testing.T) {
	for i, r := range bargeRules {
		sum := 0.0
		for _, p := range r.Percentages {
			sum += p
		}
		if math.Abs(sum-100) > 1e-9 {
			t.Errorf("rule %d[%d,%d] sums to %v, want 100", i, r.MinPlayers, r.MaxPlayers, sum)
		}
	}
}

func TestBuiltinsValidate(t *testing.T) {
	for _, ps := range PayoutStructures() {
		if problems := ps.Validate(); len(problems) != 0 {
			t.Errorf("%s: %q", ps.Name, problems)
		}
		if ps.ID >= 0 {
			t.Errorf("%s: ID = %d, want negative", ps.Name, ps.ID)
		}
	}
}

func descendingChips(n int) []int64 {
	chips := make([]int64, n)
	for i := range chips {
		chips[i] = int64(10_000 * (n - i))
	}
	return chips
}

func TestPayout(t *testing.T) {
	tests := []struct {
		name          string
		prizePool     int64
		numPlayers    int
		wantNumPrizes int
	}{
		{"2 players - winner takes all", 999983, 2, 1},
		{"5 players - top 2 (BARGE 5-8)", 999983, 5, 2},
		{"10 players - top 3 (BARGE 9-15)", 999983, 10, 3},
		{"20 players - top 4 (BARGE 16-24)", 999983, 20, 4},
		{"50 players - top 7 (BARGE 48-55)", 999983, 50, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := BARGEPayoutStructure().Payout(tt.prizePool, descendingChips(tt.numPlayers), 1)
			if err != nil {
				t.Fatalf("Payout() returned error: %v", err)
			}
			prizes := p.Amounts

			paid := 0
			total := int64(0)
			for _, a := range prizes {
				total += a
				if a > 0 {
					paid++
				}
			}
			if paid != tt.wantNumPrizes {
				t.Errorf("got %d prizes, want %d", paid, tt.wantNumPrizes)
			}
			if total != tt.prizePool {
				t.Errorf("total prizes = %d, want %d", total, tt.prizePool)
			}

			for i := 1; i < len(prizes); i++ {
				if prizes[i] > prizes[i-1] {
					t.Errorf("prize[%d] = %d > prize[%d] = %d (should be descending)",
						i, prizes[i], i-1, prizes[i-1])
				}
			}

			t.Logf("Prize pool: %d, Players: %d", tt.prizePool, tt.numPlayers)
			for i, prize := range prizes[:paid] {
				t.Logf("  Place %d: %d (%.2f%%)", i+1, prize, float64(prize)/float64(tt.prizePool)*100)
			}
		})
	}
}

func TestPayoutBeyondTableFallsBack(t *testing.T) {
	p, err := BARGEPayoutStructure().Payout(100_000, descendingChips(200), 1)
	if err != nil {
		t.Fatalf("Payout() returned error: %v", err)
	}
	if !p.UsedFallbackRule {
		t.Errorf("UsedFallbackRule = false for 200 players, want true")
	}
	if p.Amounts[0] != 100_000 {
		t.Errorf("first place = %d, want the whole pool from the first rule", p.Amounts[0])
	}
}

func TestBARGEWithICMSumsToPool(t *testing.T) {
	chips := []int64{50_000, 30_000, 15_000, 5_000, 0, 0, 0, 0, 0, 0}
	p, err := BARGEWithICM().Payout(100_000, chips, 1)
	if err != nil {
		t.Fatalf("Payout() returned error: %v", err)
	}
	total := int64(0)
	for _, a := range p.Amounts {
		total += a
	}
	if total != 100_000 {
		t.Errorf("total = %d, want 100000", total)
	}
	if !p.Degraded {
		t.Errorf("Degraded = false for %d players, want true", len(chips))
	}

	p, err = BARGEWithICM().Payout(100_000, chips[:9], 1)
	if err != nil {
		t.Fatalf("Payout() returned error: %v", err)
	}
	if p.Degraded {
		t.Errorf("Degraded = true for 9 players, want false")
	}
	if p.Amounts[0] <= p.Amounts[1] {
		t.Errorf("chip leader gets %d, second gets %d", p.Amounts[0], p.Amounts[1])
	}
}
