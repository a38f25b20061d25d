package model

import (
	"fmt"
	"time"
)

// TournamentStatus is the lifecycle state of a tournament.
type TournamentStatus string

const (
	StatusScheduled    TournamentStatus = "scheduled"
	StatusRegistration TournamentStatus = "registration"
	StatusInProgress   TournamentStatus = "in_progress"
	StatusCompleted    TournamentStatus = "completed"
	StatusCancelled    TournamentStatus = "cancelled"
)

var nextStatus = map[TournamentStatus]TournamentStatus{
	StatusScheduled:    StatusRegistration,
	StatusRegistration: StatusInProgress,
	StatusInProgress:   StatusCompleted,
}

// IsTerminal is true for Completed and Cancelled.
func (s TournamentStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransitionTo reports whether the lifecycle allows s -> to.  Tournaments
// move forward one step at a time, or to Cancelled from any state that isn't
// terminal.
func (s TournamentStatus) CanTransitionTo(to TournamentStatus) bool {
	if s.IsTerminal() {
		return false
	}
	if to == StatusCancelled {
		return true
	}
	return nextStatus[s] == to
}

// Tournaments are the things that we're running.
type Tournament struct {
	TournamentID int64
	Version      int64

	Name              string
	StartsAt          time.Time
	BuyIn             int64 // goes to the prize pool
	Fee               int64 // goes to the house
	MaxPlayers        int
	RebuyLimit        int
	StartingChips     int64
	StructureID       int64
	PayoutStructureID int64
	Status            TournamentStatus
}

// Transition moves the tournament to a new status if the lifecycle allows it.
func (t *Tournament) Transition(to TournamentStatus) error {
	if !t.Status.CanTransitionTo(to) {
		return fmt.Errorf("tournament %d can't go from %q to %q", t.TournamentID, t.Status, to)
	}
	t.Status = to
	return nil
}

func (t *Tournament) Clone() *Tournament {
	cpy := *t
	return &cpy
}

// StartTime combines a date ("2006-01-02") and a wall time ("15:04") in loc.
func StartTime(date, clock string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation("2006-01-02 15:04", date+" "+clock, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("can't parse start %q %q: %w", date, clock, err)
	}
	return t, nil
}
