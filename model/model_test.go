package model

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestParseLevels(t *testing.T) {
	input := `20 -- 100/200 -- opening
10 -- BREAK -- color up

20 -- 200/400/50 -- second level`
	got, err := ParseLevels(input)
	if err != nil {
		t.Fatalf("ParseLevels() returned error: %v", err)
	}
	want := []*Level{
		{DurationMinutes: 20, Description: "opening", SequenceNumber: 1, SmallBlind: 100, BigBlind: 200},
		{DurationMinutes: 10, IsBreak: true, Description: "color up"},
		{DurationMinutes: 20, Description: "second level", SequenceNumber: 2, SmallBlind: 200, BigBlind: 400, Ante: 50},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseLevels() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseLevelsErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"no separator", "20 100/200"},
		{"bad minutes", "x -- 100/200"},
		{"zero minutes", "0 -- BREAK"},
		{"small over big", "20 -- 300/200"},
		{"negative ante", "20 -- 100/200/-5"},
		{"garbage blinds", "20 -- lots"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseLevels(tt.input); err == nil {
				t.Errorf("ParseLevels(%q) = nil error, want error", tt.input)
			}
		})
	}
}

func TestBlinds(t *testing.T) {
	tests := []struct {
		level *Level
		want  string
	}{
		{&Level{SmallBlind: 100, BigBlind: 200}, "100/200"},
		{&Level{SmallBlind: 100, BigBlind: 200, Ante: 25}, "100/200 ante 25"},
		{&Level{IsBreak: true}, "BREAK"},
		{&Level{IsBreak: true, Description: "DINNER"}, "DINNER"},
	}
	for _, tt := range tests {
		if got := tt.level.Blinds(); got != tt.want {
			t.Errorf("Blinds() = %q, want %q", got, tt.want)
		}
	}
}

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to TournamentStatus
		want     bool
	}{
		{StatusScheduled, StatusRegistration, true},
		{StatusRegistration, StatusInProgress, true},
		{StatusInProgress, StatusCompleted, true},
		{StatusScheduled, StatusInProgress, false},
		{StatusScheduled, StatusCompleted, false},
		{StatusInProgress, StatusCancelled, true},
		{StatusScheduled, StatusCancelled, true},
		{StatusCompleted, StatusCancelled, false},
		{StatusCompleted, StatusInProgress, false},
		{StatusCancelled, StatusRegistration, false},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
			t.Errorf("%q.CanTransitionTo(%q) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestTransitionLeavesStatusOnError(t *testing.T) {
	tm := &Tournament{TournamentID: 3, Status: StatusCompleted}
	if err := tm.Transition(StatusInProgress); err == nil {
		t.Fatalf("Transition() from completed = nil error, want error")
	}
	if tm.Status != StatusCompleted {
		t.Errorf("Status = %q, want %q", tm.Status, StatusCompleted)
	}
}

func TestParseStructureYAML(t *testing.T) {
	in := []byte(`
name: Friday
levels:
  - minutes: 20
    small_blind: 100
    big_blind: 200
  - minutes: 10
    break: true
    description: color up
  - minutes: 20
    small_blind: 200
    big_blind: 400
    ante: 50
`)
	s, err := ParseStructureYAML(in)
	if err != nil {
		t.Fatalf("ParseStructureYAML() returned error: %v", err)
	}
	if len(s.Levels) != 3 {
		t.Fatalf("got %d levels, want 3", len(s.Levels))
	}
	if s.Levels[2].SequenceNumber != 2 {
		t.Errorf("third item SequenceNumber = %d, want 2", s.Levels[2].SequenceNumber)
	}
	if got, want := s.TotalSeconds(), int64(50*60); got != want {
		t.Errorf("TotalSeconds() = %d, want %d", got, want)
	}
}

func TestStartTime(t *testing.T) {
	loc := time.FixedZone("PST", -8*60*60)
	got, err := StartTime("2025-03-14", "19:00", loc)
	if err != nil {
		t.Fatal(err)
	}
	if want := time.Date(2025, 3, 15, 3, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("StartTime = %v, want %v", got, want)
	}
	if _, err := StartTime("2025-03-14", "7pm", loc); err == nil {
		t.Errorf("StartTime(7pm): got nil error")
	}
}
