// Package parser turns the comma-delimited transaction export into records.
//
// The format has no quoting or escaping. A detail field that itself holds a
// comma shifts the following fields and the overflow is dropped; callers
// that need the exact line can compare Stats.Malformed against the input.
package parser

import (
	"strings"

	"saoke/internal/core"
)

const (
	lineSep  = "\n"
	fieldSep = ","
)

// Stats counts what happened to the lines of one payload.
type Stats struct {
	Lines          int `json:"lines"`           // data lines after the header
	Records        int `json:"records"`         // records produced
	Skipped        int `json:"skipped"`         // empty lines
	Malformed      int `json:"malformed"`       // lines without exactly five fields
	InvalidAmounts int `json:"invalid_amounts"` // money field could not be coerced
}

// Parse returns the records of text in input order. The first line is
// always treated as a header and discarded.
func Parse(text string) []core.Record {
	records, _ := ParseWithStats(text)
	return records
}

// ParseWithStats is Parse plus line accounting.
func ParseWithStats(text string) ([]core.Record, Stats) {
	var stats Stats
	lines := strings.Split(text, lineSep)
	if len(lines) <= 1 {
		return []core.Record{}, stats
	}
	lines = lines[1:]
	stats.Lines = len(lines)

	records := make([]core.Record, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSuffix(line, "\r")
		if line == "" {
			stats.Skipped++
			continue
		}
		fields := strings.Split(line, fieldSep)
		if len(fields) != core.FieldCount {
			stats.Malformed++
		}
		r := core.NewRecord(fields)
		if !r.AmountOK {
			stats.InvalidAmounts++
		}
		records = append(records, r)
	}
	stats.Records = len(records)
	return records, stats
}
