package fakes

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/ts4z/chipclock/defaults"
	"github.com/ts4z/chipclock/he"
	"github.com/ts4z/chipclock/model"
	"github.com/ts4z/chipclock/paytable"
	"github.com/ts4z/chipclock/state"
)

type ledgerKey struct {
	tournamentID int64
	memberID     int64
	typ          model.LedgerEntryType
}

// Storage is an in-memory state.AppStorage.  Everything it hands out is a
// copy, so callers can't change stored state behind its back.
type Storage struct {
	rw sync.Mutex

	nextID        int64
	tournaments   map[int64]*model.Tournament
	structures    map[int64]*model.Structure
	registrations map[int64][]*model.Registration
	ledger        map[ledgerKey]*model.LedgerEntry
	ledgerOrder   []ledgerKey
	payouts       *state.BuiltinPayoutStorage
	payoutsByID   map[int64]*paytable.PayoutStructure

	// FailCommit, if set, makes CommitSettlement fail before writing
	// anything.
	FailCommit error
}

var _ state.AppStorage = (*Storage)(nil)

func NewStorage() *Storage {
	return &Storage{
		nextID:        1,
		tournaments:   map[int64]*model.Tournament{},
		structures:    map[int64]*model.Structure{},
		registrations: map[int64][]*model.Registration{},
		ledger:        map[ledgerKey]*model.LedgerEntry{},
		payouts:       state.NewBuiltinPayoutStorage(),
		payoutsByID:   map[int64]*paytable.PayoutStructure{},
	}
}

func (s *Storage) Lock() func() {
	s.rw.Lock()
	return func() { s.rw.Unlock() }
}

func (s *Storage) Close() {}

func (s *Storage) id() int64 {
	id := s.nextID
	s.nextID++
	return id
}

func (s *Storage) CreateTournament(ctx context.Context, t *model.Tournament) (int64, error) {
	unlock := s.Lock()
	defer unlock()
	cpy := t.Clone()
	cpy.TournamentID = s.id()
	cpy.Version = 0
	s.tournaments[cpy.TournamentID] = cpy
	return cpy.TournamentID, nil
}

func (s *Storage) FetchTournament(ctx context.Context, id int64) (*model.Tournament, error) {
	unlock := s.Lock()
	defer unlock()
	if t, ok := s.tournaments[id]; ok {
		return t.Clone(), nil
	}
	return nil, he.HTTPCodedErrorf(404, "tournament id %d not found", id)
}

func (s *Storage) SaveTournament(ctx context.Context, t *model.Tournament) error {
	unlock := s.Lock()
	defer unlock()
	old, ok := s.tournaments[t.TournamentID]
	if !ok {
		return he.HTTPCodedErrorf(404, "tournament id %d not found", t.TournamentID)
	}
	if old.Version != t.Version {
		return fmt.Errorf("%w: have version %d, got %d", state.ErrVersionConflict, old.Version, t.Version)
	}
	t.Version++
	s.tournaments[t.TournamentID] = t.Clone()
	return nil
}

func (s *Storage) CreateStructure(ctx context.Context, st *model.Structure) (int64, error) {
	unlock := s.Lock()
	defer unlock()
	cpy := st.Clone()
	cpy.StructureID = s.id()
	s.structures[cpy.StructureID] = cpy
	return cpy.StructureID, nil
}

func (s *Storage) FetchStructure(ctx context.Context, id int64) (*model.Structure, error) {
	if id == defaults.DefaultStructureID {
		return defaults.Structure(), nil
	}
	unlock := s.Lock()
	defer unlock()
	if st, ok := s.structures[id]; ok {
		return st.Clone(), nil
	}
	return nil, he.HTTPCodedErrorf(404, "structure id %d not found", id)
}

func (s *Storage) FetchStructureSlugs(ctx context.Context, offset, limit int) ([]*model.StructureSlug, error) {
	unlock := s.Lock()
	defer unlock()
	slugs := []*model.StructureSlug{}
	for id, st := range s.structures {
		slugs = append(slugs, &model.StructureSlug{ID: id, Name: st.Name})
	}
	sort.Slice(slugs, func(i, j int) bool { return slugs[i].ID < slugs[j].ID })
	if offset >= len(slugs) {
		return []*model.StructureSlug{}, nil
	}
	slugs = slugs[offset:]
	if limit < len(slugs) {
		slugs = slugs[:limit]
	}
	return slugs, nil
}

// AddPayoutStructure stores a payout structure under a new positive ID.
func (s *Storage) AddPayoutStructure(ps *paytable.PayoutStructure) int64 {
	unlock := s.Lock()
	defer unlock()
	cpy := ps.Clone()
	cpy.ID = s.id()
	s.payoutsByID[cpy.ID] = cpy
	return cpy.ID
}

func (s *Storage) FetchPayoutStructure(ctx context.Context, id int64) (*paytable.PayoutStructure, error) {
	if id < 0 {
		return s.payouts.FetchPayoutStructure(ctx, id)
	}
	unlock := s.Lock()
	defer unlock()
	if ps, ok := s.payoutsByID[id]; ok {
		return ps.Clone(), nil
	}
	return nil, he.HTTPCodedErrorf(404, "payout structure %d not found", id)
}

func (s *Storage) FetchPayoutStructureSlugs(ctx context.Context) ([]*paytable.PayoutStructureSlug, error) {
	slugs, err := s.payouts.FetchPayoutStructureSlugs(ctx)
	if err != nil {
		return nil, err
	}
	unlock := s.Lock()
	defer unlock()
	mine := []*paytable.PayoutStructureSlug{}
	for id, ps := range s.payoutsByID {
		mine = append(mine, &paytable.PayoutStructureSlug{ID: id, Name: ps.Name})
	}
	sort.Slice(mine, func(i, j int) bool { return mine[i].ID < mine[j].ID })
	return append(slugs, mine...), nil
}

func (s *Storage) CreateRegistration(ctx context.Context, r *model.Registration) (int64, error) {
	unlock := s.Lock()
	defer unlock()
	if _, ok := s.tournaments[r.TournamentID]; !ok {
		return -1, he.HTTPCodedErrorf(404, "tournament id %d not found", r.TournamentID)
	}
	cpy := r.Clone()
	cpy.RegistrationID = s.id()
	if cpy.Status == "" {
		cpy.Status = model.RegistrationActive
	}
	s.registrations[r.TournamentID] = append(s.registrations[r.TournamentID], cpy)
	return cpy.RegistrationID, nil
}

func (s *Storage) FetchRegistrations(ctx context.Context, tournamentID int64) ([]*model.Registration, error) {
	unlock := s.Lock()
	defer unlock()
	regs := []*model.Registration{}
	for _, r := range s.registrations[tournamentID] {
		regs = append(regs, r.Clone())
	}
	return regs, nil
}

func (s *Storage) FetchLedgerEntries(ctx context.Context, tournamentID int64) ([]*model.LedgerEntry, error) {
	unlock := s.Lock()
	defer unlock()
	entries := []*model.LedgerEntry{}
	for _, k := range s.ledgerOrder {
		if k.tournamentID == tournamentID {
			cpy := *s.ledger[k]
			entries = append(entries, &cpy)
		}
	}
	return entries, nil
}

// CommitSettlement checks everything before changing anything, all under one
// lock, so a failed commit leaves no trace.
func (s *Storage) CommitSettlement(ctx context.Context, st *state.Settlement) error {
	unlock := s.Lock()
	defer unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if s.FailCommit != nil {
		return s.FailCommit
	}

	t, ok := s.tournaments[st.TournamentID]
	if !ok {
		return he.HTTPCodedErrorf(404, "tournament id %d not found", st.TournamentID)
	}
	if err := state.CheckSettleable(t.Status); err != nil {
		return err
	}
	if t.Version != st.Version {
		return fmt.Errorf("%w: have version %d, settled from %d", state.ErrVersionConflict, t.Version, st.Version)
	}

	if err := st.CheckRegistrations(s.registrations[st.TournamentID]); err != nil {
		return err
	}
	byID := map[int64]*model.Registration{}
	for _, r := range s.registrations[st.TournamentID] {
		byID[r.RegistrationID] = r
	}

	for _, res := range st.Results {
		rank, prize := res.Rank, res.Prize
		r := byID[res.RegistrationID]
		r.Rank = &rank
		r.Prize = &prize
	}
	t.Status = model.StatusCompleted
	t.Version++
	for _, e := range st.Ledger {
		k := ledgerKey{e.TournamentID, e.MemberID, e.Type}
		if _, dup := s.ledger[k]; dup {
			continue
		}
		cpy := *e
		s.ledger[k] = &cpy
		s.ledgerOrder = append(s.ledgerOrder, k)
	}
	return nil
}
