package dbcache

import (
	"context"
	"log"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ts4z/chipclock/model"
	"github.com/ts4z/chipclock/paytable"
	"github.com/ts4z/chipclock/state"
	"github.com/ts4z/chipclock/varz"
)

var (
	structureCacheHits   = varz.NewInt("structureCacheHits")
	structureCacheMisses = varz.NewInt("structureCacheMisses")
	payoutCacheHits      = varz.NewInt("payoutCacheHits")
	payoutCacheMisses    = varz.NewInt("payoutCacheMisses")
)

// StructureStorage caches blind structures and payout structures.  Both
// change rarely and are read on every clock tick or settlement.
type StructureStorage struct {
	structures *lru.Cache[int64, *model.Structure]
	payouts    *lru.Cache[int64, *paytable.PayoutStructure]
	next       StructureBackend
}

type StructureBackend interface {
	state.StructureStorage
	state.PayoutStorage
}

var (
	_ state.StructureStorage = (*StructureStorage)(nil)
	_ state.PayoutStorage    = (*StructureStorage)(nil)
)

func NewStructureStorage(size int, next StructureBackend) *StructureStorage {
	structures, err := lru.New[int64, *model.Structure](size)
	if err != nil {
		log.Fatalf("Failed to create structure cache: %v", err)
	}
	payouts, err := lru.New[int64, *paytable.PayoutStructure](size)
	if err != nil {
		log.Fatalf("Failed to create payout structure cache: %v", err)
	}
	return &StructureStorage{
		structures: structures,
		payouts:    payouts,
		next:       next,
	}
}

// CreateStructure implements state.StructureStorage.
func (s *StructureStorage) CreateStructure(ctx context.Context, st *model.Structure) (int64, error) {
	return s.next.CreateStructure(ctx, st)
}

// FetchStructure implements state.StructureStorage.
func (s *StructureStorage) FetchStructure(ctx context.Context, id int64) (*model.Structure, error) {
	if st, ok := s.structures.Get(id); ok {
		structureCacheHits.Add(1)
		return st.Clone(), nil
	}
	structureCacheMisses.Add(1)
	st, err := s.next.FetchStructure(ctx, id)
	if err != nil {
		return nil, err
	}
	s.structures.Add(id, st.Clone())
	return st, nil
}

// FetchStructureSlugs implements state.StructureStorage.
func (s *StructureStorage) FetchStructureSlugs(ctx context.Context, offset, limit int) ([]*model.StructureSlug, error) {
	return s.next.FetchStructureSlugs(ctx, offset, limit)
}

// FetchPayoutStructure implements state.PayoutStorage.
func (s *StructureStorage) FetchPayoutStructure(ctx context.Context, id int64) (*paytable.PayoutStructure, error) {
	if ps, ok := s.payouts.Get(id); ok {
		payoutCacheHits.Add(1)
		return ps.Clone(), nil
	}
	payoutCacheMisses.Add(1)
	ps, err := s.next.FetchPayoutStructure(ctx, id)
	if err != nil {
		return nil, err
	}
	s.payouts.Add(id, ps.Clone())
	return ps, nil
}

// FetchPayoutStructureSlugs implements state.PayoutStorage.
func (s *StructureStorage) FetchPayoutStructureSlugs(ctx context.Context) ([]*paytable.PayoutStructureSlug, error) {
	return s.next.FetchPayoutStructureSlugs(ctx)
}

// StructureInvalidator and PayoutInvalidator adapt StructureStorage to
// dbnotify, one per table.
type StructureInvalidator struct{ s *StructureStorage }
type PayoutInvalidator struct{ s *StructureStorage }

func (s *StructureStorage) Structures() StructureInvalidator { return StructureInvalidator{s} }
func (s *StructureStorage) Payouts() PayoutInvalidator       { return PayoutInvalidator{s} }

func (si StructureInvalidator) CacheInvalidate(_ context.Context, id int64, _ int64) {
	si.s.structures.Remove(id)
}

func (si StructureInvalidator) Fetch(ctx context.Context, id int64) (*model.Structure, error) {
	return si.s.FetchStructure(ctx, id)
}

func (pi PayoutInvalidator) CacheInvalidate(_ context.Context, id int64, _ int64) {
	pi.s.payouts.Remove(id)
}

func (pi PayoutInvalidator) Fetch(ctx context.Context, id int64) (*paytable.PayoutStructure, error) {
	return pi.s.FetchPayoutStructure(ctx, id)
}
