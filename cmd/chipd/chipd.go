package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ts4z/chipclock/config"
	"github.com/ts4z/chipclock/dbcache"
	"github.com/ts4z/chipclock/dbnotify"
	"github.com/ts4z/chipclock/dbutil"
	"github.com/ts4z/chipclock/fakes"
	"github.com/ts4z/chipclock/gossip"
	"github.com/ts4z/chipclock/model"
	"github.com/ts4z/chipclock/paytable"
	"github.com/ts4z/chipclock/settlement"
	"github.com/ts4z/chipclock/state"
	"github.com/ts4z/chipclock/ts"
	"github.com/ts4z/chipclock/webapp"
)

// openStorage returns a nil db when running on fakes.
func openStorage(ctx context.Context) (state.AppStorage, *sql.DB) {
	db, err := dbutil.Connect(ctx)
	if errors.Is(err, dbutil.ErrFakeConnector) {
		log.Printf("warning: using in-memory storage; nothing will be saved")
		return fakes.NewStorage(), nil
	}
	if err != nil {
		log.Fatalf("can't configure database: %v", err)
	}
	return state.NewDBStorage(db), db
}

// newListener invalidates our caches when another server writes, and wakes
// anyone waiting on a changed tournament.
func newListener(db *sql.DB, tournaments *dbcache.TournamentStorage, structures *dbcache.StructureStorage, g *gossip.TournamentGossiper) (*dbnotify.Listener, error) {
	return dbnotify.NewListener(db,
		dbnotify.NewChangeDispatcher[*model.Tournament]("tournaments", tournaments, tournaments, g.NotifyUpdated),
		dbnotify.NewChangeDispatcher[*model.Structure]("structures", structures.Structures(), structures.Structures(), nil),
		dbnotify.NewChangeDispatcher[*paytable.PayoutStructure]("payout_structures", structures.Payouts(), structures.Payouts(), nil),
	)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	config.Init()

	clock := ts.NewRealClock()

	storage, db := openStorage(ctx)
	defer storage.Close()

	tournaments := dbcache.NewTournamentStorage(config.CacheSize(), storage)
	structures := dbcache.NewStructureStorage(config.CacheSize(), storage)

	gossiper := gossip.NewTournamentGossiper(tournaments)

	if db != nil {
		listener, err := newListener(db, tournaments, structures, gossiper)
		if err != nil {
			log.Fatalf("can't configure db notifications: %v", err)
		}
		go listener.Run(ctx)
	}

	settler := settlement.NewSettler(
		dbcache.NewSettlementStorage(tournaments, structures, storage),
		clock,
		config.DefaultRoundingUnit())

	app := webapp.New(&webapp.Config{
		TournamentStorage: tournaments,
		StructureStorage:  structures,
		PayoutStorage:     structures,
		Settler:           settler,
		Gossiper:          gossiper,
		Clock:             clock,
		FallbackMinutes:   config.FallbackLevelMinutes(),
		RoundingUnit:      config.DefaultRoundingUnit(),
		AllowedOrigins:    config.AllowedOrigins(),
	})

	if err := app.Serve(ctx, config.ListenAddress()); err != nil {
		log.Fatalf("can't serve: %v", err)
	}
}
