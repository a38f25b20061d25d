package gossip

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ts4z/chipclock/fakes"
	"github.com/ts4z/chipclock/model"
)

func newTournament(t *testing.T, st *fakes.Storage) int64 {
	t.Helper()
	id, err := st.CreateTournament(context.Background(), &model.Tournament{Name: "t", Status: model.StatusInProgress})
	if err != nil {
		t.Fatal(err)
	}
	return id
}

func TestWaitReturnsNewerVersionImmediately(t *testing.T) {
	ctx := context.Background()
	st := fakes.NewStorage()
	id := newTournament(t, st)
	g := NewTournamentGossiper(st)

	tm, _ := st.FetchTournament(ctx, id)
	if err := st.SaveTournament(ctx, tm); err != nil {
		t.Fatal(err)
	}

	got, err := g.Wait(ctx, id, 0)
	if err != nil {
		t.Fatal(err)
	}
	if got.Version != 1 {
		t.Errorf("Version = %d, want 1", got.Version)
	}
}

func TestWaitWokenByChange(t *testing.T) {
	ctx := context.Background()
	st := fakes.NewStorage()
	id := newTournament(t, st)
	g := NewTournamentGossiper(st)

	done := make(chan *model.Tournament)
	go func() {
		got, err := g.Wait(ctx, id, 0)
		if err != nil {
			t.Errorf("Wait: %v", err)
		}
		done <- got
	}()

	// Keep notifying until the waiter has registered and is woken.
	tm, _ := st.FetchTournament(ctx, id)
	tm.Name = "renamed"
	if err := st.SaveTournament(ctx, tm); err != nil {
		t.Fatal(err)
	}
	for {
		g.NotifyChanged(ctx, id)
		select {
		case got := <-done:
			if got == nil || got.Name != "renamed" {
				t.Errorf("woken with %+v, want renamed tournament", got)
			}
			return
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestWaitCancelled(t *testing.T) {
	st := fakes.NewStorage()
	id := newTournament(t, st)
	g := NewTournamentGossiper(st)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := g.Wait(ctx, id, 0); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Wait = %v, want DeadlineExceeded", err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if n := len(g.waiters[id]); n != 0 {
		t.Errorf("%d waiters left after cancel, want 0", n)
	}
}

func TestWaitUnknownTournament(t *testing.T) {
	g := NewTournamentGossiper(fakes.NewStorage())
	if _, err := g.Wait(context.Background(), 42, 0); err == nil {
		t.Errorf("Wait(42): got nil error")
	}
}
