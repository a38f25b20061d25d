package state

import (
	"context"
	"sort"

	"github.com/ts4z/chipclock/builtins"
	"github.com/ts4z/chipclock/he"
	"github.com/ts4z/chipclock/paytable"
)

// BuiltinPayoutStorage serves the payout structures compiled into the
// binary.  They all have negative IDs.
type BuiltinPayoutStorage struct {
	structures map[int64]*paytable.PayoutStructure
}

var _ PayoutStorage = (*BuiltinPayoutStorage)(nil)

func NewBuiltinPayoutStorage() *BuiltinPayoutStorage {
	m := map[int64]*paytable.PayoutStructure{}
	for _, ps := range builtins.PayoutStructures() {
		m[ps.ID] = ps
	}
	return &BuiltinPayoutStorage{structures: m}
}

func (b *BuiltinPayoutStorage) Close() {
	// No resources to clean up
}

func (b *BuiltinPayoutStorage) FetchPayoutStructure(_ context.Context, id int64) (*paytable.PayoutStructure, error) {
	if ps, ok := b.structures[id]; ok {
		return ps.Clone(), nil
	}
	return nil, he.HTTPCodedErrorf(404, "payout structure %d not found", id)
}

func (b *BuiltinPayoutStorage) FetchPayoutStructureSlugs(_ context.Context) ([]*paytable.PayoutStructureSlug, error) {
	slugs := make([]*paytable.PayoutStructureSlug, 0, len(b.structures))
	for _, ps := range b.structures {
		slugs = append(slugs, &paytable.PayoutStructureSlug{ID: ps.ID, Name: ps.Name})
	}
	sort.Slice(slugs, func(i, j int) bool { return slugs[i].ID > slugs[j].ID })
	return slugs, nil
}
