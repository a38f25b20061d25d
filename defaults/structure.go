package defaults

import (
	"github.com/ts4z/chipclock/model"
)

// DefaultStructureID is the ID the built-in structure is served under.
const DefaultStructureID int64 = -1

func makeLevel(sb, bb, ante int64) *model.Level {
	return &model.Level{
		DurationMinutes: 20,
		SmallBlind:      sb,
		BigBlind:        bb,
		Ante:            ante,
	}
}

func makeBreak(desc string, durationMins int) *model.Level {
	return &model.Level{
		Description:     desc,
		DurationMinutes: durationMins,
		IsBreak:         true,
	}
}

// Structure is a plain 20 minute no-limit structure used when a tournament
// doesn't name one.
func Structure() *model.Structure {
	s := &model.Structure{
		StructureID: DefaultStructureID,
		Name:        "Default 20 Minute",
		Levels: []*model.Level{
			makeLevel(25, 50, 0),
			makeLevel(50, 100, 0),
			makeLevel(75, 150, 0),
			makeLevel(100, 200, 25),
			makeBreak("COLOR UP 25s", 10),
			makeLevel(150, 300, 25),
			makeLevel(200, 400, 50),
			makeLevel(300, 600, 75),
			makeLevel(400, 800, 100),
			makeBreak("COLOR UP 100s", 10),
			makeLevel(500, 1000, 100),
			makeLevel(700, 1400, 200),
			makeLevel(1000, 2000, 300),
			makeLevel(1500, 3000, 500),
		},
	}
	seq := 0
	for _, l := range s.Levels {
		if !l.IsBreak {
			seq++
			l.SequenceNumber = seq
		}
	}
	return s
}
