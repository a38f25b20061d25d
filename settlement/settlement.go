// Package settlement ranks the players of a finished tournament, pays them,
// and records the result.
//
// Settlement refuses to run unless the counted chips match the chips issued,
// and writes nothing at all if anything goes wrong.
package settlement

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/ts4z/chipclock/builtins"
	"github.com/ts4z/chipclock/dep"
	"github.com/ts4z/chipclock/model"
	"github.com/ts4z/chipclock/paytable"
	"github.com/ts4z/chipclock/state"
	"github.com/ts4z/chipclock/varz"
)

var (
	ErrAlreadySettled = state.ErrAlreadySettled
	ErrNotInProgress  = state.ErrNotInProgress
	ErrNoPlayers      = errors.New("no active registrations to settle")
)

var (
	settlementsCommitted = varz.NewInt("settlementsCommitted")
	settlementsRefused   = varz.NewInt("settlementsRefused")
	chipImbalances       = varz.NewInt("chipImbalances")
)

// ChipImbalanceError means the chips counted at the end don't match the
// chips that were sold.  Discrepancy is positive if there are extra chips.
type ChipImbalanceError struct {
	TournamentID int64
	Issued       int64
	Counted      int64
}

func (e *ChipImbalanceError) Discrepancy() int64 {
	return e.Counted - e.Issued
}

func (e *ChipImbalanceError) Error() string {
	return fmt.Sprintf("tournament %d chip count is off by %+d: counted %d, issued %d",
		e.TournamentID, e.Discrepancy(), e.Counted, e.Issued)
}

type Storage interface {
	FetchTournament(ctx context.Context, id int64) (*model.Tournament, error)
	FetchRegistrations(ctx context.Context, tournamentID int64) ([]*model.Registration, error)
	FetchPayoutStructure(ctx context.Context, id int64) (*paytable.PayoutStructure, error)
	state.SettlementStorage
}

type Clock interface {
	Now() time.Time
}

// Result is what settling (or planning to settle) a tournament produces.
type Result struct {
	TournamentID    int64                    `json:"tournament_id"`
	PrizePool       int64                    `json:"prize_pool"`
	PayoutStructure string                   `json:"payout_structure"`
	Distribution    paytable.Distribution    `json:"distribution"`
	Results         []model.SettlementResult `json:"results"`
	Ledger          []*model.LedgerEntry     `json:"ledger"`

	version       int64
	registrations []*model.Registration
}

func (r *Result) settlement() *state.Settlement {
	return &state.Settlement{
		TournamentID:  r.TournamentID,
		Version:       r.version,
		Results:       r.Results,
		Ledger:        r.Ledger,
		Registrations: r.registrations,
	}
}

type Settler struct {
	storage      Storage
	clock        Clock
	roundingUnit int64
}

// NewSettler makes a Settler.  roundingUnit is used for payout structures
// that don't set one.
func NewSettler(storage Storage, clock Clock, roundingUnit int64) *Settler {
	return &Settler{
		storage:      dep.Required(storage),
		clock:        dep.Required(clock),
		roundingUnit: roundingUnit,
	}
}

// Settle ranks and pays the tournament, marks it Completed, and credits the
// winners, all at once.
func (s *Settler) Settle(ctx context.Context, tournamentID int64) (*Result, error) {
	r, err := s.Plan(ctx, tournamentID)
	if err != nil {
		settlementsRefused.Add(1)
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	err = s.storage.CommitSettlement(ctx, r.settlement())
	if err != nil {
		settlementsRefused.Add(1)
		return nil, fmt.Errorf("can't commit settlement of tournament %d: %w", tournamentID, err)
	}

	settlementsCommitted.Add(1)
	log.Printf("settled tournament %d: pool %d, %d players, %d paid",
		tournamentID, r.PrizePool, len(r.Results), len(r.Ledger))
	return r, nil
}

// Plan works out what Settle would do without writing anything.
func (s *Settler) Plan(ctx context.Context, tournamentID int64) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t, err := s.storage.FetchTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if err := state.CheckSettleable(t.Status); err != nil {
		return nil, fmt.Errorf("tournament %d is %s: %w", tournamentID, t.Status, err)
	}

	regs, err := s.storage.FetchRegistrations(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	active := activeRegistrations(regs)

	if err := checkChips(t, active); err != nil {
		chipImbalances.Add(1)
		return nil, err
	}
	if len(active) == 0 {
		return nil, ErrNoPlayers
	}

	Rank(active)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	psID := t.PayoutStructureID
	if psID == 0 {
		psID = builtins.BARGEPayoutID
	}
	ps, err := s.storage.FetchPayoutStructure(ctx, psID)
	if err != nil {
		return nil, err
	}

	pool := PrizePool(t, active)
	chips := make([]int64, len(active))
	for i, r := range active {
		chips[i] = r.FinalChipCount
	}
	payout, err := ps.Payout(pool, chips, s.roundingUnit)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	res := &Result{
		TournamentID:    tournamentID,
		PrizePool:       pool,
		PayoutStructure: ps.Name,
		Distribution:    payout.Distribution,
		Results:         make([]model.SettlementResult, len(active)),
		Ledger:          []*model.LedgerEntry{},
		version:         t.Version,
		registrations:   active,
	}
	for i, r := range active {
		prize := payout.Amounts[i]
		res.Results[i] = model.SettlementResult{
			RegistrationID: r.RegistrationID,
			MemberID:       r.MemberID,
			Rank:           i + 1,
			Prize:          prize,
		}
		if prize > 0 {
			res.Ledger = append(res.Ledger, &model.LedgerEntry{
				EntryID:      uuid.NewString(),
				TournamentID: tournamentID,
				MemberID:     r.MemberID,
				Type:         model.LedgerWin,
				Amount:       prize,
				CreatedAt:    now,
			})
		}
	}
	return res, nil
}

func activeRegistrations(regs []*model.Registration) []*model.Registration {
	active := []*model.Registration{}
	for _, r := range regs {
		if !r.IsCancelled() {
			active = append(active, r)
		}
	}
	return active
}

func checkChips(t *model.Tournament, active []*model.Registration) error {
	var issued, counted int64
	for _, r := range active {
		issued += int64(r.BuyInCount) * t.StartingChips
		counted += r.FinalChipCount
	}
	if issued != counted {
		return &ChipImbalanceError{TournamentID: t.TournamentID, Issued: issued, Counted: counted}
	}
	return nil
}

// Rank sorts registrations into finishing order, most chips first.  Equal
// stacks stay in the order they came in; there is no other tie-break.
func Rank(regs []*model.Registration) {
	sort.SliceStable(regs, func(i, j int) bool {
		return regs[i].FinalChipCount > regs[j].FinalChipCount
	})
}

// PrizePool is the buy-ins paid by the active registrations.  Fees are not
// part of the pool.
func PrizePool(t *model.Tournament, active []*model.Registration) int64 {
	var pool int64
	for _, r := range active {
		pool += int64(r.BuyInCount) * t.BuyIn
	}
	return pool
}
