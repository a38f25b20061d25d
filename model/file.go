package model

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadStructureFile reads a structure from a YAML file and validates it.
func LoadStructureFile(path string) (*Structure, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseStructureYAML(b)
}

func ParseStructureYAML(b []byte) (*Structure, error) {
	s := &Structure{}
	if err := yaml.Unmarshal(b, s); err != nil {
		return nil, fmt.Errorf("can't parse structure: %w", err)
	}
	seq := 0
	for _, l := range s.Levels {
		if l.IsBreak {
			continue
		}
		seq++
		if l.SequenceNumber == 0 {
			l.SequenceNumber = seq
		}
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid structure %q: %w", s.Name, err)
	}
	return s, nil
}
