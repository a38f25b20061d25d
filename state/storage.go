package state

// package state manages persistence.

import (
	"context"
	"errors"
	"fmt"

	"github.com/ts4z/chipclock/model"
	"github.com/ts4z/chipclock/paytable"
)

var (
	// ErrAlreadySettled means the tournament is Completed; settling it again
	// does nothing.
	ErrAlreadySettled = errors.New("tournament is already settled")

	// ErrNotInProgress means the tournament is not in a state that can be
	// settled.
	ErrNotInProgress = errors.New("tournament is not in progress")

	// ErrVersionConflict means somebody else changed the tournament after it
	// was read.
	ErrVersionConflict = errors.New("tournament changed concurrently")
)

type Closer interface {
	Close()
}

type TournamentStorage interface {
	CreateTournament(ctx context.Context, t *model.Tournament) (int64, error)
	FetchTournament(ctx context.Context, id int64) (*model.Tournament, error)
	SaveTournament(ctx context.Context, t *model.Tournament) error
}

type StructureStorage interface {
	CreateStructure(ctx context.Context, s *model.Structure) (int64, error)
	FetchStructure(ctx context.Context, id int64) (*model.Structure, error)
	FetchStructureSlugs(ctx context.Context, offset, limit int) ([]*model.StructureSlug, error)
}

type PayoutStorage interface {
	FetchPayoutStructure(ctx context.Context, id int64) (*paytable.PayoutStructure, error)
	FetchPayoutStructureSlugs(ctx context.Context) ([]*paytable.PayoutStructureSlug, error)
}

type RegistrationStorage interface {
	CreateRegistration(ctx context.Context, r *model.Registration) (int64, error)
	FetchRegistrations(ctx context.Context, tournamentID int64) ([]*model.Registration, error)
	FetchLedgerEntries(ctx context.Context, tournamentID int64) ([]*model.LedgerEntry, error)
}

// Settlement is everything written when a tournament is settled.  It is
// committed all at once or not at all.
type Settlement struct {
	TournamentID int64
	// Version is the tournament version the results were computed from.
	Version int64
	Results []model.SettlementResult
	Ledger  []*model.LedgerEntry
	// Registrations are the active registrations as they were read when the
	// results were computed.
	Registrations []*model.Registration
}

// CheckRegistrations returns ErrVersionConflict unless the active entries in
// current are exactly st.Registrations, with the same buy-ins and chip
// counts, and every result belongs to one of them.
func (st *Settlement) CheckRegistrations(current []*model.Registration) error {
	seen := make(map[int64]*model.Registration, len(st.Registrations))
	for _, r := range st.Registrations {
		seen[r.RegistrationID] = r
	}

	active := 0
	for _, r := range current {
		if r.IsCancelled() {
			continue
		}
		active++
		was, ok := seen[r.RegistrationID]
		if !ok {
			return fmt.Errorf("%w: registration %d is new", ErrVersionConflict, r.RegistrationID)
		}
		if was.BuyInCount != r.BuyInCount || was.FinalChipCount != r.FinalChipCount {
			return fmt.Errorf("%w: registration %d changed", ErrVersionConflict, r.RegistrationID)
		}
	}
	if active != len(seen) {
		return fmt.Errorf("%w: %d registrations no longer active", ErrVersionConflict, len(seen)-active)
	}

	if len(st.Results) != len(seen) {
		return fmt.Errorf("%w: %d results for %d registrations", ErrVersionConflict, len(st.Results), len(seen))
	}
	for _, res := range st.Results {
		if _, ok := seen[res.RegistrationID]; !ok {
			return fmt.Errorf("%w: result for unknown registration %d", ErrVersionConflict, res.RegistrationID)
		}
	}
	return nil
}

type SettlementStorage interface {
	// CommitSettlement writes the results, marks the tournament Completed,
	// and inserts the ledger entries.  Ledger entries that already exist are
	// skipped.  Returns ErrAlreadySettled, ErrNotInProgress or
	// ErrVersionConflict if the tournament moved on since it was read.
	CommitSettlement(ctx context.Context, s *Settlement) error
}

// AppStorage is everything the server needs.
type AppStorage interface {
	Closer
	TournamentStorage
	StructureStorage
	PayoutStorage
	RegistrationStorage
	SettlementStorage
}

// CheckSettleable maps a tournament status to the error CommitSettlement
// should return for it, or nil if it can be settled.
func CheckSettleable(s model.TournamentStatus) error {
	switch s {
	case model.StatusInProgress:
		return nil
	case model.StatusCompleted:
		return ErrAlreadySettled
	default:
		return ErrNotInProgress
	}
}
