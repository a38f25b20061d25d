package paytable

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFile reads a payout structure from a YAML file.
func LoadFile(path string) (*PayoutStructure, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(b)
}

// Parse decodes a YAML payout structure.  It does not validate percentages;
// see Validate.
func Parse(b []byte) (*PayoutStructure, error) {
	ps := &PayoutStructure{}
	if err := yaml.Unmarshal(b, ps); err != nil {
		return nil, fmt.Errorf("can't parse payout structure: %w", err)
	}
	if len(ps.Allocations) == 0 {
		return nil, fmt.Errorf("payout structure %q has no allocations", ps.Name)
	}
	return ps, nil
}
