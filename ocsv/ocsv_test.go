package ocsv

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ts4z/chipclock/model"
)

const oakleafSample = `B, 5,run, Green, silent, , , GAME,STUD, , , , , SEATING,In Progress
R,20,pause,Green, 3chimes,ROUND,1, GAME,STUD,BUTTON,15, BRING IN,5, LIMITS,15-30
R,20,run, Brown, 3chimes,ROUND,2, GAME,STUD,ANTE,5, BRING IN,10, LIMITS,25-50
B,10,run, Brown, 3chimes,1st, BREAK,GAME,STUD,FINAL,RE-BUYS
R,15,pause,Brown, 3chimes,ROUND,4, GAME,STUD,ANTE,15, BRING IN,25, LIMITS,100-200
`

func TestRead(t *testing.T) {
	got, err := Read(strings.NewReader(oakleafSample))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	want := []*model.Level{
		{DurationMinutes: 5, IsBreak: true, Description: "SEATING In Progress"},
		{DurationMinutes: 20, Description: "STUD", SequenceNumber: 1, SmallBlind: 15, BigBlind: 30},
		{DurationMinutes: 20, Description: "STUD", SequenceNumber: 2, SmallBlind: 25, BigBlind: 50, Ante: 5},
		{DurationMinutes: 10, IsBreak: true, Description: "1st BREAK FINAL RE-BUYS"},
		{DurationMinutes: 15, Description: "STUD", SequenceNumber: 3, SmallBlind: 100, BigBlind: 200, Ante: 15},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Read mismatch (-want +got):\n%s", diff)
	}
}

func TestReadErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"unknown type", "X,20,run,Green,silent,ROUND,1,,,,,,,LIMITS,1-2\n"},
		{"bad minutes", "R,xx,run,Green,silent,ROUND,1,,,,,,,LIMITS,1-2\n"},
		{"no blinds", "R,20,run,Green,silent,ROUND,1\n"},
		{"bad blinds", "R,20,run,Green,silent,ROUND,1,,,,,,,LIMITS,lots\n"},
		{"inverted blinds", "R,20,run,Green,silent,ROUND,1,,,,,,,LIMITS,200-100\n"},
		{"short row", "R\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Read(strings.NewReader(tt.input)); err == nil {
				t.Errorf("Read(%q): got nil error", tt.input)
			}
		})
	}
}

func TestReadUntimed(t *testing.T) {
	_, err := Read(strings.NewReader("R,0,run,Green,silent,ROUND,1,,,,,,,LIMITS,1-2\n"))
	if !errors.Is(err, ErrUntimed) {
		t.Errorf("Read(untimed) = %v, want ErrUntimed", err)
	}
}

func TestWriteReadsBack(t *testing.T) {
	levels, err := model.ParseLevels(`
20 -- 25/50 -- NLHE
20 -- 50/100/25
10 -- BREAK -- color up
20 -- 100/200/25`)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := Write(&buf, levels); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if diff := cmp.Diff(levels, got); diff != "" {
		t.Errorf("Write/Read mismatch (-want +got):\n%s", diff)
	}
}
