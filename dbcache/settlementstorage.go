package dbcache

import (
	"context"

	"github.com/ts4z/chipclock/model"
	"github.com/ts4z/chipclock/paytable"
	"github.com/ts4z/chipclock/state"
)

type settlementBackend interface {
	FetchRegistrations(ctx context.Context, tournamentID int64) ([]*model.Registration, error)
	state.SettlementStorage
}

// SettlementStorage reads tournaments and payout structures from the caches
// and commits to the database, dropping the settled tournament from the
// cache.  A stale cached tournament can't settle twice; the commit checks
// the version under lock.
type SettlementStorage struct {
	tournaments *TournamentStorage
	payouts     state.PayoutStorage
	next        settlementBackend
}

func NewSettlementStorage(tournaments *TournamentStorage, payouts state.PayoutStorage, next settlementBackend) *SettlementStorage {
	return &SettlementStorage{
		tournaments: tournaments,
		payouts:     payouts,
		next:        next,
	}
}

func (s *SettlementStorage) FetchTournament(ctx context.Context, id int64) (*model.Tournament, error) {
	return s.tournaments.FetchTournament(ctx, id)
}

func (s *SettlementStorage) FetchRegistrations(ctx context.Context, tournamentID int64) ([]*model.Registration, error) {
	return s.next.FetchRegistrations(ctx, tournamentID)
}

func (s *SettlementStorage) FetchPayoutStructure(ctx context.Context, id int64) (*paytable.PayoutStructure, error) {
	return s.payouts.FetchPayoutStructure(ctx, id)
}

func (s *SettlementStorage) CommitSettlement(ctx context.Context, st *state.Settlement) error {
	err := s.next.CommitSettlement(ctx, st)
	// Success or not, what we have is probably stale.
	s.tournaments.cache.Remove(st.TournamentID)
	return err
}
