package aggregate

import "saoke/internal/core"

// Histogram returns one bucket per range, in range order. Each record is
// counted in the first range that contains its amount; records outside
// every range are left out.
func Histogram(records []core.Record, ranges []core.Range) []core.Bucket {
	buckets := make([]core.Bucket, len(ranges))
	for i, rg := range ranges {
		buckets[i] = core.Bucket{Label: rg.Label(), Lower: rg.Lower, Upper: rg.Upper}
	}
	for _, r := range records {
		v := r.Amount.Units
		for i := range ranges {
			if ranges[i].Contains(v) {
				buckets[i].Count++
				break
			}
		}
	}
	return buckets
}

// Binned returns the number of records that landed in any bucket.
func Binned(buckets []core.Bucket) int {
	n := 0
	for _, b := range buckets {
		n += b.Count
	}
	return n
}
