package aggregate

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"saoke/internal/core"
)

// DefaultRanges returns the canonical amount ranges, from 1K up to 5B.
func DefaultRanges() []core.Range {
	bounds := [][2]int64{
		{1_000, 10_000},
		{10_000, 20_000},
		{20_000, 50_000},
		{50_000, 100_000},
		{100_000, 200_000},
		{200_000, 500_000},
		{500_000, 1_000_000},
		{1_000_000, 5_000_000},
		{5_000_000, 10_000_000},
		{10_000_000, 50_000_000},
		{50_000_000, 100_000_000},
		{100_000_000, 500_000_000},
		{500_000_000, 1_000_000_000},
		{1_000_000_000, 2_000_000_000},
		{2_000_000_000, 5_000_000_000},
	}
	out := make([]core.Range, len(bounds))
	for i, b := range bounds {
		out[i] = core.Range{Lower: b[0], Upper: b[1]}
	}
	return out
}

type rangesFile struct {
	Ranges []core.Range `yaml:"ranges"`
}

// LoadRanges reads a YAML file of the form
//
//	ranges:
//	  - {lower: 1000, upper: 10000}
//	  - {lower: 10000, upper: 20000, label: "10K-20K"}
func LoadRanges(path string) ([]core.Range, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read ranges file '%s': %w", path, err)
	}
	return ParseRanges(data)
}

// ParseRanges decodes and validates YAML range configuration.
func ParseRanges(data []byte) ([]core.Range, error) {
	var f rangesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse ranges from YAML: %w", err)
	}
	if len(f.Ranges) == 0 {
		return nil, fmt.Errorf("%w: at least one range must be configured", core.ErrInvalidRange)
	}
	for i, r := range f.Ranges {
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("range %d: %w", i, err)
		}
	}
	return f.Ranges, nil
}

// Overlapping returns index pairs of ranges that share values. Overlap is
// allowed (first match wins) but usually a configuration mistake.
func Overlapping(ranges []core.Range) [][2]int {
	var out [][2]int
	for i := range ranges {
		for j := i + 1; j < len(ranges); j++ {
			if ranges[i].Overlaps(ranges[j]) {
				out = append(out, [2]int{i, j})
			}
		}
	}
	return out
}
