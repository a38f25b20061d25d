package model

import (
	"time"
)

type RegistrationStatus string

const (
	RegistrationActive    RegistrationStatus = "registered"
	RegistrationCancelled RegistrationStatus = "cancelled"
)

// Registration is one member's entry in a tournament.  Rank and Prize are
// nil until the tournament is settled.
type Registration struct {
	RegistrationID int64
	TournamentID   int64
	MemberID       int64
	BuyInCount     int
	FinalChipCount int64
	Status         RegistrationStatus

	Rank  *int
	Prize *int64
}

func (r *Registration) IsCancelled() bool {
	return r.Status == RegistrationCancelled
}

func (r *Registration) Clone() *Registration {
	cpy := *r
	if r.Rank != nil {
		rank := *r.Rank
		cpy.Rank = &rank
	}
	if r.Prize != nil {
		prize := *r.Prize
		cpy.Prize = &prize
	}
	return &cpy
}

// SettlementResult is the outcome of settlement for one registration.
type SettlementResult struct {
	RegistrationID int64
	MemberID       int64
	Rank           int
	Prize          int64
}

type LedgerEntryType string

const (
	LedgerWin LedgerEntryType = "win"
)

// LedgerEntry credits (or debits) a member's balance.  At most one entry of
// each type exists per member per tournament.
type LedgerEntry struct {
	EntryID      string
	TournamentID int64
	MemberID     int64
	Type         LedgerEntryType
	Amount       int64
	CreatedAt    time.Time
}
