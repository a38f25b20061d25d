// package tournament derives the state of a tournament clock from the wall
// clock.
//
// There is no stored countdown.  The current level and the time left in it
// are recomputed from the start time and the structure every time somebody
// asks, so a reload (or a crash) loses nothing.  Pausing isn't modeled; a
// late start is handled by moving the start time.

package tournament

import (
	"time"

	"github.com/ts4z/chipclock/model"
	"github.com/ts4z/chipclock/protocol"
)

// DefaultFallbackMinutes is the level length used when a tournament has no
// structure and nothing else was configured.
const DefaultFallbackMinutes = 20

// Clock gets the current time.  clockwork.Clock implements this.
type Clock interface {
	Now() time.Time
}

// ClockState is the derived position of the clock.  It is never persisted.
type ClockState struct {
	HasStarted       bool
	CurrentIndex     int
	SecondsRemaining int64
	IsBreak          bool
	IsFinished       bool
}

func fallbackSeconds(minutes int) int64 {
	if minutes <= 0 {
		minutes = DefaultFallbackMinutes
	}
	return int64(minutes) * 60
}

// Resolve computes the clock state at now for a tournament that started (or
// will start) at start.
//
// A nil or empty structure gets endless levels of fallbackMinutes each.
// Past the end of the structure, the clock sits on the last item with no time
// left.
func Resolve(now, start time.Time, s *model.Structure, fallbackMinutes int) ClockState {
	var levels []*model.Level
	if s != nil {
		levels = s.Levels
	}

	d := now.Sub(start)
	if d < 0 {
		cs := ClockState{SecondsRemaining: fallbackSeconds(fallbackMinutes)}
		if len(levels) > 0 {
			cs.SecondsRemaining = levels[0].Seconds()
			cs.IsBreak = levels[0].IsBreak
		}
		return cs
	}
	elapsed := int64(d / time.Second)

	if len(levels) == 0 {
		dur := fallbackSeconds(fallbackMinutes)
		return ClockState{
			HasStarted:       true,
			CurrentIndex:     int(elapsed / dur),
			SecondsRemaining: dur - elapsed%dur,
		}
	}

	remainder := elapsed
	for i, l := range levels {
		secs := l.Seconds()
		if remainder < secs {
			return ClockState{
				HasStarted:       true,
				CurrentIndex:     i,
				SecondsRemaining: secs - remainder,
				IsBreak:          l.IsBreak,
			}
		}
		remainder -= secs
	}

	last := len(levels) - 1
	return ClockState{
		HasStarted:       true,
		CurrentIndex:     last,
		SecondsRemaining: 0,
		IsBreak:          levels[last].IsBreak,
		IsFinished:       true,
	}
}

// Snapshot is what a display needs to draw the clock.
type Snapshot struct {
	ProtocolVersion int
	TournamentID    int64
	TournamentName  string
	// Version is what a client passes back to wait for the next change.
	Version int64
	ClockState
	Display
}

// Resolver resolves clocks against an injected Clock.
type Resolver struct {
	clock           Clock
	fallbackMinutes int
}

func NewResolver(clock Clock, fallbackMinutes int) *Resolver {
	return &Resolver{
		clock:           clock,
		fallbackMinutes: fallbackMinutes,
	}
}

func (r *Resolver) Resolve(t *model.Tournament, s *model.Structure) ClockState {
	return Resolve(r.clock.Now(), t.StartsAt, s, r.fallbackMinutes)
}

func (r *Resolver) Snapshot(t *model.Tournament, s *model.Structure) *Snapshot {
	cs := r.Resolve(t, s)
	return &Snapshot{
		ProtocolVersion: protocol.Version,
		TournamentID:    t.TournamentID,
		TournamentName:  t.Name,
		Version:         t.Version,
		ClockState:      cs,
		Display:         Describe(cs, s),
	}
}
