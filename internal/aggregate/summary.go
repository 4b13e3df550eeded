// Package aggregate computes the summary statistics and the amount
// histogram of a record sequence. Nothing here fails on empty input.
package aggregate

import (
	"math"

	"saoke/internal/core"
)

// Summarize computes count, total, mean, max and min over the amounts of
// records in one pass. Records whose money field could not be coerced
// count as zero. An empty sequence yields the zero Summary.
//
// Total is exact while the sum fits in an int64 and saturates at the int64
// limits otherwise. Mean is accumulated in float64 so it stays between Min
// and Max either way.
func Summarize(records []core.Record) core.Summary {
	if len(records) == 0 {
		return core.Summary{}
	}
	s := core.Summary{
		Count: len(records),
		Max:   math.MinInt64,
		Min:   math.MaxInt64,
	}
	var (
		sum      float64
		overflow bool
	)
	for _, r := range records {
		v := r.Amount.Units
		sum += float64(v)
		if !overflow {
			if t, ok := addInt64(s.Total, v); ok {
				s.Total = t
			} else {
				overflow = true
			}
		}
		if v > s.Max {
			s.Max = v
		}
		if v < s.Min {
			s.Min = v
		}
	}
	if overflow {
		s.Total = saturate(sum)
	}
	// rounding in the float sum can land an ulp outside the observed range
	s.Mean = math.Min(math.Max(sum/float64(s.Count), float64(s.Min)), float64(s.Max))
	return s
}

func addInt64(a, b int64) (int64, bool) {
	c := a + b
	if (b > 0 && c < a) || (b < 0 && c > a) {
		return 0, false
	}
	return c, true
}

func saturate(f float64) int64 {
	switch {
	case f >= math.MaxInt64:
		return math.MaxInt64
	case f <= math.MinInt64:
		return math.MinInt64
	}
	return int64(f)
}
