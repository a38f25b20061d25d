package dbcache

import (
	"context"
	"testing"

	"github.com/ts4z/chipclock/builtins"
	"github.com/ts4z/chipclock/fakes"
	"github.com/ts4z/chipclock/model"
	"github.com/ts4z/chipclock/state"
)

func TestTournamentCache(t *testing.T) {
	ctx := context.Background()
	st := fakes.NewStorage()
	id, err := st.CreateTournament(ctx, &model.Tournament{Name: "one", Status: model.StatusScheduled})
	if err != nil {
		t.Fatal(err)
	}
	c := NewTournamentStorage(4, st)

	hits := tournamentStorageCacheHits.Value()
	a, err := c.FetchTournament(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.FetchTournament(ctx, id); err != nil {
		t.Fatal(err)
	}
	if got := tournamentStorageCacheHits.Value() - hits; got != 1 {
		t.Errorf("cache hits = %d, want 1", got)
	}

	// Callers can't scribble on the cache.
	a.Name = "scribbled"
	b, _ := c.FetchTournament(ctx, id)
	if b.Name != "one" {
		t.Errorf("Name = %q, want one", b.Name)
	}

	// Someone else writes behind our back.
	other, _ := st.FetchTournament(ctx, id)
	other.Name = "two"
	if err := st.SaveTournament(ctx, other); err != nil {
		t.Fatal(err)
	}
	if stale, _ := c.FetchTournament(ctx, id); stale.Name != "one" {
		t.Errorf("expected the stale cached copy, got %q", stale.Name)
	}
	c.CacheInvalidate(ctx, id, other.Version)
	if fresh, _ := c.FetchTournament(ctx, id); fresh.Name != "two" {
		t.Errorf("after invalidate Name = %q, want two", fresh.Name)
	}
}

func TestTournamentCacheSaveThrough(t *testing.T) {
	ctx := context.Background()
	st := fakes.NewStorage()
	id, _ := st.CreateTournament(ctx, &model.Tournament{Name: "one"})
	c := NewTournamentStorage(4, st)

	tm, _ := c.FetchTournament(ctx, id)
	tm.Name = "renamed"
	if err := c.SaveTournament(ctx, tm); err != nil {
		t.Fatal(err)
	}
	got, _ := c.FetchTournament(ctx, id)
	if got.Name != "renamed" || got.Version != 1 {
		t.Errorf("got %q version %d, want renamed version 1", got.Name, got.Version)
	}

	// A save from an old version fails and doesn't poison the cache.
	tm.Version = 0
	if err := c.SaveTournament(ctx, tm); err == nil {
		t.Errorf("SaveTournament() with stale version: got nil error")
	}
	if got, _ := c.FetchTournament(ctx, id); got.Version != 1 {
		t.Errorf("Version = %d after failed save, want 1", got.Version)
	}
}

func TestStructureCache(t *testing.T) {
	ctx := context.Background()
	st := fakes.NewStorage()
	c := NewStructureStorage(4, st)

	misses := payoutCacheMisses.Value()
	for i := 0; i < 3; i++ {
		ps, err := c.FetchPayoutStructure(ctx, builtins.BARGEPayoutID)
		if err != nil {
			t.Fatal(err)
		}
		ps.Name = "scribbled"
	}
	if got := payoutCacheMisses.Value() - misses; got != 1 {
		t.Errorf("misses = %d, want 1", got)
	}
	ps, _ := c.FetchPayoutStructure(ctx, builtins.BARGEPayoutID)
	if ps.Name != "BARGE Unified Poker Payouts" {
		t.Errorf("Name = %q", ps.Name)
	}

	c.Payouts().CacheInvalidate(ctx, builtins.BARGEPayoutID, 0)
	if _, err := c.Payouts().Fetch(ctx, builtins.BARGEPayoutID); err != nil {
		t.Fatal(err)
	}
	if got := payoutCacheMisses.Value() - misses; got != 2 {
		t.Errorf("misses after invalidate = %d, want 2", got)
	}

	sid, _ := st.CreateStructure(ctx, &model.Structure{Name: "s", Levels: []*model.Level{{DurationMinutes: 15, SmallBlind: 1, BigBlind: 2}}})
	if _, err := c.Structures().Fetch(ctx, sid); err != nil {
		t.Fatal(err)
	}
	if _, err := c.FetchStructure(ctx, 999); err == nil {
		t.Errorf("FetchStructure(999): got nil error")
	}
}

func TestSettlementStorageDropsCachedTournament(t *testing.T) {
	ctx := context.Background()
	st := fakes.NewStorage()
	id, _ := st.CreateTournament(ctx, &model.Tournament{Name: "one", Status: model.StatusInProgress})
	tournaments := NewTournamentStorage(4, st)
	ss := NewSettlementStorage(tournaments, NewStructureStorage(4, st), st)

	tm, err := ss.FetchTournament(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if err := ss.CommitSettlement(ctx, &state.Settlement{TournamentID: id, Version: tm.Version}); err != nil {
		t.Fatal(err)
	}

	got, err := tournaments.FetchTournament(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != model.StatusCompleted {
		t.Errorf("Status = %v after settling, want %v", got.Status, model.StatusCompleted)
	}
	if _, err := ss.FetchPayoutStructure(ctx, builtins.BARGEPayoutID); err != nil {
		t.Errorf("FetchPayoutStructure: %v", err)
	}
}
