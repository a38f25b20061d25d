package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"maze.io/x/duration"

	"github.com/ts4z/chipclock/config"
	"github.com/ts4z/chipclock/defaults"
	"github.com/ts4z/chipclock/model"
	"github.com/ts4z/chipclock/ocsv"
	"github.com/ts4z/chipclock/textutil"
	"github.com/ts4z/chipclock/tournament"
)

var (
	clockStart    string
	clockAt       string
	clockOffset   string
	clockFallback int
	clockFollow   bool
)

// loadStructure picks a parser by extension: .csv is Oakleaf, .yaml/.yml is
// YAML, anything else is "minutes -- blinds -- description" text.
func loadStructure(path string) (*model.Structure, error) {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return model.LoadStructureFile(path)
	case ".csv":
		f, err := openInput(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		levels, err := ocsv.Read(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return &model.Structure{Name: name, Levels: levels}, nil
	default:
		b, err := readInput(path)
		if err != nil {
			return nil, err
		}
		levels, err := model.ParseLevels(string(b))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return &model.Structure{Name: name, Levels: levels}, nil
	}
}

// parseOffset accepts H:MM:SS, MM:SS, or a duration like "1h25m" or "1d",
// optionally negative.
func parseOffset(s string) (time.Duration, error) {
	sign := time.Duration(1)
	if rest, ok := strings.CutPrefix(s, "-"); ok {
		sign, s = -1, rest
	}
	if strings.Contains(s, ":") {
		d, err := textutil.ParseDuration(s)
		return sign * d, err
	}
	d, err := duration.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("can't parse offset %q: %w", s, err)
	}
	return sign * time.Duration(d), nil
}

// parseTime accepts RFC3339 or a local "2006-01-02 15:04".  Empty means now.
func parseTime(s string) (time.Time, error) {
	if s == "" {
		return clock.Now(), nil
	}
	if date, wall, ok := strings.Cut(strings.TrimSpace(s), " "); ok {
		return model.StartTime(date, strings.TrimSpace(wall), time.Local)
	}
	return time.Parse(time.RFC3339, s)
}

func showClock(cmd *cobra.Command, args []string) error {
	s := defaults.Structure()
	if len(args) > 0 {
		var err error
		if s, err = loadStructure(args[0]); err != nil {
			return err
		}
	}

	start, err := parseTime(clockStart)
	if err != nil {
		return fmt.Errorf("bad --start: %w", err)
	}

	if clockFollow {
		if clockAt != "" || clockOffset != "" {
			return errors.New("--follow runs on the real clock; drop --at and --offset")
		}
		return followClock(cmd.Context(), start, s)
	}

	at, err := parseTime(clockAt)
	if err != nil {
		return fmt.Errorf("bad --at: %w", err)
	}
	if clockOffset != "" {
		d, err := parseOffset(clockOffset)
		if err != nil {
			return err
		}
		at = start.Add(d)
	}

	cs := tournament.Resolve(at, start, s, clockFallback)
	return printTable([]string{"field", "value"}, clockRows(cs, s, at))
}

// followClock prints one line a second until interrupted.
func followClock(ctx context.Context, start time.Time, s *model.Structure) error {
	t := &model.Tournament{Name: s.Name, StartsAt: start}
	err := tournament.Watch(ctx, clock.Clockwork(), time.Second, clockFallback, t, s, func(snap *tournament.Snapshot) {
		fmt.Fprintf(out, "%s\t%s\t%s\n", snap.Countdown, snap.LevelLabel, snap.Current)
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func clockRows(cs tournament.ClockState, s *model.Structure, at time.Time) [][]string {
	d := tournament.Describe(cs, s)
	state := "running"
	switch {
	case !cs.HasStarted:
		state = "not started"
	case cs.IsFinished:
		state = "finished"
	case cs.IsBreak:
		state = "on break"
	}
	rows := [][]string{
		{"at", at.Format(time.RFC3339)},
		{"state", state},
		{"level", d.LevelLabel},
		{"current", d.Current},
		{"countdown", d.Countdown},
		{"next", d.Next},
	}
	if d.SecondsToNextBreak != nil {
		rows = append(rows, []string{"next break in", textutil.FormatCountdown(*d.SecondsToNextBreak)})
	}
	return rows
}

func clockCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clock [structure-file]",
		Short: "Show where the clock would be for a structure at some time",
		Args:  cobra.MaximumNArgs(1),
		RunE:  showClock,
	}
	cmd.Flags().StringVar(&clockStart, "start", "", `Tournament start time (RFC3339 or local "2006-01-02 15:04", default now)`)
	cmd.Flags().StringVar(&clockAt, "at", "", `Time to resolve the clock at (RFC3339 or local "2006-01-02 15:04", default now)`)
	cmd.Flags().StringVar(&clockOffset, "offset", "", "Resolve at this long after the start (e.g. 1h25m, 1d, 45:00)")
	cmd.Flags().BoolVar(&clockFollow, "follow", false, "Keep printing the clock every second")
	cmd.Flags().IntVar(&clockFallback, "fallback", config.FallbackLevelMinutes(), "Level length in minutes past the end of an empty structure")
	return cmd
}
