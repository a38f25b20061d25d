package dbcache

import (
	"context"
	"log"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ts4z/chipclock/model"
	"github.com/ts4z/chipclock/state"
	"github.com/ts4z/chipclock/varz"
)

var (
	tournamentStorageCacheHits            = varz.NewInt("tournamentStorageCacheHits")
	tournamentStorageCacheMisses          = varz.NewInt("tournamentStorageCacheMisses")
	tournamentStorageCacheDuplicateUpdate = varz.NewInt("tournamentStorageCacheDuplicateUpdate")
)

// TournamentStorage keeps recently read tournaments.  Writes go through;
// writes made by other servers arrive via CacheInvalidate.
type TournamentStorage struct {
	cache *lru.Cache[int64, *model.Tournament]
	lock  sync.Mutex
	next  state.TournamentStorage
}

var _ state.TournamentStorage = (*TournamentStorage)(nil)

func NewTournamentStorage(size int, next state.TournamentStorage) *TournamentStorage {
	cache, err := lru.New[int64, *model.Tournament](size)
	if err != nil {
		log.Fatalf("Failed to create TournamentStorage cache: %v", err)
	}
	return &TournamentStorage{
		cache: cache,
		next:  next,
	}
}

// CreateTournament implements state.TournamentStorage.
func (s *TournamentStorage) CreateTournament(ctx context.Context, t *model.Tournament) (int64, error) {
	return s.next.CreateTournament(ctx, t)
}

// Fetch is FetchTournament under the name dbnotify wants.
func (s *TournamentStorage) Fetch(ctx context.Context, id int64) (*model.Tournament, error) {
	return s.FetchTournament(ctx, id)
}

// CacheInvalidate drops the cached tournament if it is no newer than
// version.
func (s *TournamentStorage) CacheInvalidate(_ context.Context, id int64, version int64) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if t, ok := s.cache.Get(id); ok {
		if t.Version <= version {
			s.cache.Remove(id)
		}
	}
}

func (s *TournamentStorage) CacheStore(_ context.Context, t *model.Tournament) {
	id := t.TournamentID
	s.lock.Lock()
	defer s.lock.Unlock()
	if cached, ok := s.cache.Get(id); ok {
		if cached.Version > t.Version {
			log.Printf("cache: have version %d, incoming %d, ignoring", cached.Version, t.Version)
			return
		} else if cached.Version == t.Version {
			tournamentStorageCacheDuplicateUpdate.Add(1)
			return
		}
	}
	s.cache.Add(id, t.Clone())
}

func (s *TournamentStorage) FetchTournament(ctx context.Context, id int64) (*model.Tournament, error) {
	if t, ok := s.cache.Get(id); ok {
		tournamentStorageCacheHits.Add(1)
		return t.Clone(), nil
	}

	tournamentStorageCacheMisses.Add(1)
	t, err := s.next.FetchTournament(ctx, id)
	if err != nil {
		return nil, err
	}
	s.CacheStore(ctx, t)
	return t, nil
}

func (s *TournamentStorage) SaveTournament(ctx context.Context, t *model.Tournament) error {
	if err := s.next.SaveTournament(ctx, t); err != nil {
		s.cache.Remove(t.TournamentID)
		return err
	}
	s.CacheStore(ctx, t)
	return nil
}
