// Package paytable provides data models and stateless functions for turning
// a payout structure and a set of final chip counts into prize amounts.
package paytable

import (
	"fmt"
)

type AllocationKind string

const (
	KindICM          AllocationKind = "icm"
	KindChipEV       AllocationKind = "chipev"
	KindCustomMatrix AllocationKind = "custom_matrix"
)

// Rule defines the payout percentages for a range of player counts.
// Percentages are 0..100, index 0 = 1st place.
type Rule struct {
	MinPlayers  int       `yaml:"min_players" json:"min_players"` // inclusive
	MaxPlayers  int       `yaml:"max_players" json:"max_players"` // inclusive
	PlacesPaid  int       `yaml:"places_paid,omitempty" json:"places_paid,omitempty"`
	Percentages []float64 `yaml:"percentages" json:"percentages"`
}

func (r *Rule) Matches(numPlayers int) bool {
	return numPlayers >= r.MinPlayers && numPlayers <= r.MaxPlayers
}

// Allocation is a weighted slice of the prize pool paid out under one model.
// Rules is required for custom matrices.  An ICM allocation may carry its
// own Rules to use as the theoretical prize ladder.
type Allocation struct {
	Kind          AllocationKind `yaml:"kind" json:"kind"`
	PercentOfPool float64        `yaml:"percent_of_pool" json:"percent_of_pool"`
	Rules         []Rule         `yaml:"rules,omitempty" json:"rules,omitempty"`
}

// PayoutStructure is a collection of allocations whose weights are expected
// to add up to 100.
type PayoutStructure struct {
	ID           int64        `yaml:"id,omitempty" json:"id"`
	Name         string       `yaml:"name" json:"name"`
	RoundingUnit int64        `yaml:"rounding_unit,omitempty" json:"rounding_unit"`
	Allocations  []Allocation `yaml:"allocations" json:"allocations"`
}

// PayoutStructureSlug is a lightweight representation of a payout structure
// for lists.
type PayoutStructureSlug struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Payout is the result of applying a payout structure to a finished field.
// Both slices are indexed by finishing position.
type Payout struct {
	Distribution
	Amounts []int64 `json:"amounts"`
}

// Unit returns the structure's rounding unit, or def if it has none.
func (ps *PayoutStructure) Unit(def int64) int64 {
	if ps.RoundingUnit > 0 {
		return ps.RoundingUnit
	}
	if def > 0 {
		return def
	}
	return 1
}

// Payout calculates the prize for each finisher.  chips must be sorted in
// descending order; chips[i] belongs to the player finishing in place i+1.
// The amounts always add up to exactly pool.
func (ps *PayoutStructure) Payout(pool int64, chips []int64, defaultUnit int64) (*Payout, error) {
	if len(chips) == 0 {
		return nil, fmt.Errorf("no players to pay in %q", ps.Name)
	}

	d, err := Combine(ps.Allocations, chips)
	if err != nil {
		return nil, fmt.Errorf("can't combine allocations for %q: %w", ps.Name, err)
	}

	raw := make([]float64, len(d.Percentages))
	for i, p := range d.Percentages {
		raw[i] = p / 100 * float64(pool)
	}

	amounts, err := Reconcile(raw, ps.Unit(defaultUnit), pool)
	if err != nil {
		return nil, fmt.Errorf("can't round payouts for %q: %w", ps.Name, err)
	}

	return &Payout{Distribution: *d, Amounts: amounts}, nil
}

func (r Rule) clone() Rule {
	r.Percentages = append([]float64(nil), r.Percentages...)
	return r
}

func (ps *PayoutStructure) Clone() *PayoutStructure {
	clone := &PayoutStructure{
		ID:           ps.ID,
		Name:         ps.Name,
		RoundingUnit: ps.RoundingUnit,
		Allocations:  make([]Allocation, len(ps.Allocations)),
	}
	for i, a := range ps.Allocations {
		clone.Allocations[i] = a
		if a.Rules != nil {
			clone.Allocations[i].Rules = make([]Rule, len(a.Rules))
			for j, r := range a.Rules {
				clone.Allocations[i].Rules[j] = r.clone()
			}
		}
	}
	return clone
}
