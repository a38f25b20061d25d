package ocsv

/*
This clock took a lot of inspiration from my memories of Patrick Milligan's
Oakleaf Timer.  One thing about the Oakleaf timer is that it manages its
data in CSV format.  For convenience, we can import/export data in a format
that is _somewhat_ Oakleaf compatible.

The Oakleaf format, from its documentation, reads like this:

B, 5,run, Green, silent, , , GAME,STUD, , , , , SEATING,In Progress
R,20,pause,Green, 3chimes,ROUND,1, GAME,STUD,BUTTON,15, BRING IN,5, LIMITS,15-30
R,20,run, Brown, 3chimes,ROUND,2, GAME,STUD,ANTE,5, BRING IN,10, LIMITS,25-50
R,20,run, Green, 3chimes,ROUND,3, GAME,STUD,ANTE,10, BRING IN,20, LIMITS,40-80
B,10,run, Brown, 3chimes,1st, BREAK,GAME,STUD,FINAL,RE-BUYS
R,15,pause,Brown, 3chimes,ROUND,4, GAME,STUD,ANTE,15, BRING IN,25, LIMITS,100-200
R,15,run, Green, 3chimes,ROUND,5, GAME,STUD,ANTE,25, BRING IN,50, LIMITS,150-300
R,15,run, Brown, 3chimes,ROUND,6, GAME,STUD,ANTE,50, BRING IN,75, LIMITS,200-400
R,15,run, Green, 3chimes,ROUND,7, GAME,STUD,ANTE,50, BRING IN,100, LIMITS,300-600

Column 1: Round type:
B Break
R Round
Column 2: Time in minutes. Special case: Zero minutes is an infinite time.
Column 3: State of timer:
Pause Run Hide Pause the timer at the start of this round.
Start the timer running at the start of this round.
Hide and start the timer.
Column 4: Background screen choice. This also matches the deck color. Backgrounds for
Red & Blue as well as Green & Brown KEM decks are provided. In addition,
there are Yellow and Purple background screens which can be used for breaks,
if desired.
Column 5: Sound to play at the start of this round. Current choices are:
Silent Play no sound
1Chime One chime
3Chimes Three chimes
Alarm Smoke alarm sound
Bell_01 Fast bell sound
Bell_02 Slow bell sound
Bell_03 Ships bell sound
Crystal Crystal gong sound
Important note on Sounds: The above list is subject to change, as better
sounds are found. If you like (or dislike) some of the sounds on this list,
please us know so we can keep the “good” sounds and eliminate that “bad”
ones.
There are five areas on the screen that are set from the data file. Each area has a label and data
associated with that label.
Columns 6 & 7: Label and Data for Area 1: Usually the Round or Level
Columns 8 & 9: Label and Data for Area 2: Game choice
Columns 10 & 11: Label and Data for Area 3: Blinds or Antes
Columns 12 & 13: Label and Data for Area 4: Bring-in for Stud, Unused for Flop.
Columns 14 & 15: Label and Data for Area 5: Limits or Blinds (NL)
The text areas are sized to display their contents as large as possible. The contents of the areas
was based on many different tournament structures including TEARS and the World Series of
Poker events. Areas 1 and 4 are “narrow” and Areas 2, 3, and 5 are “wide.”

Unfortunately, I didn't get the display areas to be "the same",
so some alteration is necessary.  On import, the Oakleaf format
will be changed into the model.Structure format somewhat destructively.

*/

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ts4z/chipclock/model"
)

const (
	colType    = 0
	colMinutes = 1
	colLabels  = 5
	minColumns = 2
)

var ErrUntimed = errors.New("untimed (zero minute) levels are not supported")

// Read imports Oakleaf rows as levels.  Round numbers in the file are
// ignored; levels are renumbered in order, skipping breaks.
func Read(r io.Reader) ([]*model.Level, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	levels := []*model.Level{}
	seq := 0
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("can't read oakleaf csv: %w", err)
		}
		line, _ := cr.FieldPos(0)
		for i := range record {
			record[i] = strings.TrimSpace(record[i])
		}
		if len(record) == 1 && record[0] == "" {
			continue
		}

		lvl, err := parseRecord(record)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if !lvl.IsBreak {
			seq++
			lvl.SequenceNumber = seq
		}
		if err := lvl.Validate(); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		levels = append(levels, lvl)
	}
	return levels, nil
}

func parseRecord(record []string) (*model.Level, error) {
	if len(record) < minColumns {
		return nil, fmt.Errorf("want at least %d columns, got %d", minColumns, len(record))
	}

	mins, err := strconv.Atoi(record[colMinutes])
	if err != nil {
		return nil, fmt.Errorf("can't parse minutes %q: %w", record[colMinutes], err)
	}
	if mins == 0 {
		return nil, ErrUntimed
	}
	lvl := &model.Level{DurationMinutes: mins}

	switch strings.ToUpper(record[colType]) {
	case "B":
		lvl.IsBreak = true
		lvl.Description = breakDescription(record)
		return lvl, nil
	case "R":
	default:
		return nil, fmt.Errorf("unknown row type %q", record[colType])
	}

	haveBlinds := false
	for i := colLabels; i+1 < len(record); i += 2 {
		label, data := strings.ToUpper(record[i]), record[i+1]
		switch label {
		case "GAME":
			lvl.Description = data
		case "ANTE":
			if lvl.Ante, err = strconv.ParseInt(data, 10, 64); err != nil {
				return nil, fmt.Errorf("can't parse ante %q: %w", data, err)
			}
		case "LIMITS", "BLINDS":
			if err := parsePair(data, lvl); err != nil {
				return nil, err
			}
			haveBlinds = true
		}
	}
	if !haveBlinds {
		return nil, errors.New("round has no LIMITS or BLINDS column")
	}
	return lvl, nil
}

// parsePair reads "15-30" or "15/30".
func parsePair(data string, lvl *model.Level) error {
	sb, bb, ok := strings.Cut(data, "-")
	if !ok {
		sb, bb, ok = strings.Cut(data, "/")
	}
	if !ok {
		return fmt.Errorf("can't parse blinds %q", data)
	}
	var err error
	if lvl.SmallBlind, err = strconv.ParseInt(strings.TrimSpace(sb), 10, 64); err != nil {
		return fmt.Errorf("can't parse small blind in %q: %w", data, err)
	}
	if lvl.BigBlind, err = strconv.ParseInt(strings.TrimSpace(bb), 10, 64); err != nil {
		return fmt.Errorf("can't parse big blind in %q: %w", data, err)
	}
	return nil
}

// breakDescription keeps the display text of a break, minus the game.
func breakDescription(record []string) string {
	words := []string{}
	for i := colLabels; i < len(record); i++ {
		if strings.EqualFold(record[i], "GAME") {
			i++
			continue
		}
		if record[i] != "" {
			words = append(words, record[i])
		}
	}
	return strings.Join(words, " ")
}

// Write exports levels in a form Read accepts.  Colors and sounds are
// fixed; we have neither.
func Write(w io.Writer, levels []*model.Level) error {
	cw := csv.NewWriter(w)
	for _, l := range levels {
		var record []string
		if l.IsBreak {
			record = []string{"B", strconv.Itoa(l.DurationMinutes), "run", "Brown", "silent", l.Description}
		} else {
			record = []string{
				"R", strconv.Itoa(l.DurationMinutes), "run", "Green", "3chimes",
				"ROUND", strconv.Itoa(l.SequenceNumber),
				"GAME", l.Description,
				"ANTE", strconv.FormatInt(l.Ante, 10),
				"", "",
				"BLINDS", fmt.Sprintf("%d-%d", l.SmallBlind, l.BigBlind),
			}
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("can't write oakleaf csv: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
