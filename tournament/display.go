package tournament

import (
	"fmt"

	"github.com/ts4z/chipclock/model"
	"github.com/ts4z/chipclock/textutil"
)

// Display holds the formatted strings a renderer shows.
type Display struct {
	Countdown  string
	LevelLabel string
	Current    string
	Next       string // next non-break level, or empty
	// SecondsToNextBreak is nil if no break follows the current item.
	SecondsToNextBreak *int64
}

// Describe formats a clock state for display.
func Describe(cs ClockState, s *model.Structure) Display {
	d := Display{
		Countdown: textutil.FormatCountdown(cs.SecondsRemaining),
	}

	if s == nil || len(s.Levels) == 0 {
		d.LevelLabel = fmt.Sprintf("LEVEL %d", cs.CurrentIndex+1)
		d.Current = d.LevelLabel
		d.Next = fmt.Sprintf("LEVEL %d", cs.CurrentIndex+2)
		return d
	}

	cur := s.Levels[cs.CurrentIndex]
	if cur.IsBreak {
		d.LevelLabel = "BREAK"
	} else {
		d.LevelLabel = fmt.Sprintf("LEVEL %d", cur.SequenceNumber)
	}
	d.Current = cur.Blinds()

	if cs.IsFinished {
		return d
	}

	if next := nextLevel(s, cs.CurrentIndex); next != nil {
		d.Next = next.Blinds()
	}
	d.SecondsToNextBreak = secondsToNextBreak(s, cs)
	return d
}

// nextLevel returns the next non-break level after index i, or nil.
func nextLevel(s *model.Structure, i int) *model.Level {
	for j := i + 1; j < len(s.Levels); j++ {
		if !s.Levels[j].IsBreak {
			return s.Levels[j]
		}
	}
	return nil
}

func secondsToNextBreak(s *model.Structure, cs ClockState) *int64 {
	when := cs.SecondsRemaining
	for j := cs.CurrentIndex + 1; j < len(s.Levels); j++ {
		if s.Levels[j].IsBreak {
			return &when
		}
		when += s.Levels[j].Seconds()
	}
	// no break for you
	return nil
}
