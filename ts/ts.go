// Package ts is the wall clock for the server and the admin tool.
package ts

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// Clock wraps a clockwork.Clock so that Now is whole milliseconds, which is
// all the access log and the ledger want.
type Clock struct {
	clock clockwork.Clock
}

func NewRealClock() *Clock {
	return NewClock(clockwork.NewRealClock())
}

// NewClock wraps c, usually a clockwork.FakeClock in tests.
func NewClock(c clockwork.Clock) *Clock {
	return &Clock{clock: c}
}

// Now provides a timestamp truncated to the millisecond, in UTC.
func (c *Clock) Now() time.Time {
	return c.clock.Now().UTC().Truncate(time.Millisecond)
}

// Offset is Now moved by d; chipadmin uses it to ask "what will the clock
// say in an hour".
func (c *Clock) Offset(d time.Duration) time.Time {
	return c.Now().Add(d)
}

func (c *Clock) Clockwork() clockwork.Clock {
	return c.clock
}
