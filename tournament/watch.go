package tournament

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/ts4z/chipclock/model"
)

// Watch calls fn with a fresh snapshot right away and then on every tick
// until ctx is done.  Each snapshot is resolved from scratch.
func Watch(ctx context.Context, clock clockwork.Clock, every time.Duration, fallbackMinutes int,
	t *model.Tournament, s *model.Structure, fn func(*Snapshot)) error {
	r := NewResolver(clock, fallbackMinutes)
	ticker := clock.NewTicker(every)
	defer ticker.Stop()

	fn(r.Snapshot(t, s))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.Chan():
			fn(r.Snapshot(t, s))
		}
	}
}
