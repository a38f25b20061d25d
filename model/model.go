package model

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	dashDashRE = regexp.MustCompile(`\s*--\s*`)
)

// Level is one item of a structure: either a blind level or a break.
type Level struct {
	DurationMinutes int    `yaml:"minutes"`
	IsBreak         bool   `yaml:"break,omitempty"`
	Description     string `yaml:"description,omitempty"`

	// These are meaningless for breaks.
	SequenceNumber int   `yaml:"level,omitempty"`
	SmallBlind     int64 `yaml:"small_blind,omitempty"`
	BigBlind       int64 `yaml:"big_blind,omitempty"`
	Ante           int64 `yaml:"ante,omitempty"`
}

func (l *Level) Duration() time.Duration {
	return time.Duration(l.DurationMinutes) * time.Minute
}

// Seconds is the level length in whole seconds.
func (l *Level) Seconds() int64 {
	return int64(l.DurationMinutes) * 60
}

// Blinds formats the blinds as "100/200" or "100/200 ante 25".  Breaks
// return their description.
func (l *Level) Blinds() string {
	if l.IsBreak {
		if l.Description == "" {
			return "BREAK"
		}
		return l.Description
	}
	if l.Ante > 0 {
		return fmt.Sprintf("%d/%d ante %d", l.SmallBlind, l.BigBlind, l.Ante)
	}
	return fmt.Sprintf("%d/%d", l.SmallBlind, l.BigBlind)
}

func (l *Level) Validate() error {
	if l.DurationMinutes <= 0 {
		return fmt.Errorf("duration must be positive, got %d minutes", l.DurationMinutes)
	}
	if l.IsBreak {
		return nil
	}
	if l.SmallBlind < 0 || l.BigBlind < 0 {
		return errors.New("blinds can't be negative")
	}
	if l.SmallBlind > l.BigBlind {
		return fmt.Errorf("small blind %d exceeds big blind %d", l.SmallBlind, l.BigBlind)
	}
	if l.Ante < 0 {
		return fmt.Errorf("ante can't be negative, got %d", l.Ante)
	}
	return nil
}

// parseBlinds parses "SB/BB" or "SB/BB/ANTE".
func parseBlinds(s string, l *Level) error {
	parts := strings.Split(s, "/")
	if len(parts) < 2 || len(parts) > 3 {
		return fmt.Errorf("can't parse blinds %q", s)
	}
	vals := make([]int64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseInt(strings.TrimSpace(strings.ReplaceAll(p, ",", "")), 10, 64)
		if err != nil {
			return fmt.Errorf("can't parse blinds %q: %w", s, err)
		}
		vals[i] = v
	}
	l.SmallBlind, l.BigBlind = vals[0], vals[1]
	if len(vals) == 3 {
		l.Ante = vals[2]
	}
	return nil
}

// ParseLevels reads one item per line in the form
//
//	MINUTES -- BREAK -- description
//	MINUTES -- SB/BB[/ANTE] -- description
//
// Blank lines are skipped.  Levels are numbered in order, skipping breaks.
func ParseLevels(input string) ([]*Level, error) {
	levels := []*Level{}
	seq := 0
	for _, line := range strings.Split(input, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := dashDashRE.Split(line, 3)
		if len(parts) < 2 {
			return nil, fmt.Errorf("line unparsable: %q", line)
		}
		durationMins, err := strconv.Atoi(parts[0])
		if err != nil {
			return nil, fmt.Errorf("can't parse duration in line %q: %w", line, err)
		}
		lvl := &Level{DurationMinutes: durationMins}
		if len(parts) == 3 {
			lvl.Description = parts[2]
		}
		if strings.EqualFold(parts[1], "BREAK") {
			lvl.IsBreak = true
		} else {
			if err := parseBlinds(parts[1], lvl); err != nil {
				return nil, fmt.Errorf("line %q: %w", line, err)
			}
			seq++
			lvl.SequenceNumber = seq
		}
		if err := lvl.Validate(); err != nil {
			return nil, fmt.Errorf("line %q: %w", line, err)
		}
		levels = append(levels, lvl)
	}
	return levels, nil
}

// Structure describes the blind structure of a tournament.
type Structure struct {
	StructureID int64    `yaml:"id,omitempty"`
	Name        string   `yaml:"name"`
	Levels      []*Level `yaml:"levels"`
}

// StructureSlug is a lightweight representation of a structure for lists.
type StructureSlug struct {
	ID   int64
	Name string
}

// TotalSeconds is the length of the whole structure.
func (s *Structure) TotalSeconds() int64 {
	var total int64
	for _, l := range s.Levels {
		total += l.Seconds()
	}
	return total
}

// Validate checks each level.  An empty structure is valid; the clock falls
// back to fixed-length levels for it.
func (s *Structure) Validate() error {
	for i, l := range s.Levels {
		if err := l.Validate(); err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
	}
	return nil
}

func (s *Structure) Clone() *Structure {
	clone := &Structure{
		StructureID: s.StructureID,
		Name:        s.Name,
		Levels:      make([]*Level, len(s.Levels)),
	}
	for i, l := range s.Levels {
		cpy := *l
		clone.Levels[i] = &cpy
	}
	return clone
}
