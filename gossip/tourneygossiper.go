package gossip

import (
	"context"
	"log"
	"sync"

	"github.com/ts4z/chipclock/model"
	"github.com/ts4z/chipclock/varz"
)

var (
	waitersWoken = varz.NewInt("waitersWoken")
)

type TournamentFetcher interface {
	FetchTournament(ctx context.Context, id int64) (*model.Tournament, error)
}

// TournamentGossiper provides a tattletale for changes to tournaments.
// Waiters hold a version; they are woken with the tournament as soon as the
// stored version differs.
type TournamentGossiper struct {
	mu      sync.Mutex
	waiters map[int64][]chan *model.Tournament
	next    TournamentFetcher
}

func NewTournamentGossiper(next TournamentFetcher) *TournamentGossiper {
	return &TournamentGossiper{
		waiters: make(map[int64][]chan *model.Tournament),
		next:    next,
	}
}

// Wait returns the tournament once its version is something other than
// version.  If it already is, that's immediately.
func (g *TournamentGossiper) Wait(ctx context.Context, id int64, version int64) (*model.Tournament, error) {
	ch, t, err := g.register(ctx, id, version)
	if err != nil || t != nil {
		return t, err
	}

	select {
	case t := <-ch:
		return t, nil
	case <-ctx.Done():
		g.unregister(id, ch)
		return nil, ctx.Err()
	}
}

// register holds the lock across the fetch so an update can't slip in
// between the version check and the registration.
func (g *TournamentGossiper) register(ctx context.Context, id int64, version int64) (chan *model.Tournament, *model.Tournament, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	t, err := g.next.FetchTournament(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if t.Version != version {
		if t.Version < version {
			log.Printf("can't happen: reported version %d is newer than stored version %d for tournament %d", version, t.Version, id)
		}
		return nil, t, nil
	}

	ch := make(chan *model.Tournament, 1)
	g.waiters[id] = append(g.waiters[id], ch)
	return ch, nil, nil
}

func (g *TournamentGossiper) unregister(id int64, ch chan *model.Tournament) {
	g.mu.Lock()
	defer g.mu.Unlock()
	waiters := g.waiters[id]
	for i, w := range waiters {
		if w == ch {
			g.waiters[id] = append(waiters[:i], waiters[i+1:]...)
			break
		}
	}
	if len(g.waiters[id]) == 0 {
		delete(g.waiters, id)
	}
}

// NotifyUpdated wakes everyone waiting on t.
func (g *TournamentGossiper) NotifyUpdated(_ context.Context, t *model.Tournament) {
	g.mu.Lock()
	waiters := g.waiters[t.TournamentID]
	delete(g.waiters, t.TournamentID)
	g.mu.Unlock()

	for _, ch := range waiters {
		ch <- t.Clone()
	}
	waitersWoken.Add(int64(len(waiters)))
	if len(waiters) > 0 {
		log.Printf("notified %d waiters of tournament %d version %d", len(waiters), t.TournamentID, t.Version)
	}
}

// NotifyChanged fetches tournament id and wakes its waiters.
func (g *TournamentGossiper) NotifyChanged(ctx context.Context, id int64) {
	t, err := g.next.FetchTournament(ctx, id)
	if err != nil {
		log.Printf("warning: can't fetch tournament %d to notify waiters: %v", id, err)
		return
	}
	g.NotifyUpdated(ctx, t)
}
