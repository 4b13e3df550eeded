package aggregate

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"saoke/internal/core"
	"saoke/internal/parser"
)

const sample = "header\n2024-01-01,D1,1500,Gift,P1\n2024-01-02,D2,25000,Gift2,P2\n"

func records(amounts ...string) []core.Record {
	out := make([]core.Record, len(amounts))
	for i, a := range amounts {
		out[i] = core.NewRecord([]string{"d", "n", a, "x", "p"})
	}
	return out
}

func TestSummarizeSample(t *testing.T) {
	s := Summarize(parser.Parse(sample))
	want := core.Summary{Count: 2, Total: 26500, Mean: 13250, Max: 25000, Min: 1500}
	if s != want {
		t.Fatalf("summary = %+v, want %+v", s, want)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(parser.Parse("header\n"))
	if !s.Empty() || s != (core.Summary{}) {
		t.Fatalf("expected zero summary, got %+v", s)
	}
}

func TestSummarizeInvariants(t *testing.T) {
	tests := []struct {
		name    string
		amounts []string
	}{
		{"single", []string{"42"}},
		{"equal", []string{"5", "5", "5"}},
		{"spread", []string{"1", "1000000", "30", "7"}},
		{"invalid counts as zero", []string{"abc", "100", "200"}},
		{"sum past int64", []string{"9000000000000000000", "9000000000000000000"}},
		{"sum below int64", []string{"-9000000000000000000", "-9000000000000000000", "5"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recs := records(tt.amounts...)
			s := Summarize(recs)
			if s.Count != len(recs) {
				t.Fatalf("count = %d, want %d", s.Count, len(recs))
			}
			if float64(s.Min) > s.Mean || s.Mean > float64(s.Max) {
				t.Fatalf("min <= mean <= max violated: %+v", s)
			}
		})
	}
}

func TestSummarizeTotalSaturates(t *testing.T) {
	s := Summarize(parser.Parse("h\nd,n,9000000000000000000,x,p\nd,n,9000000000000000000,x,p\n"))
	if s.Total != math.MaxInt64 {
		t.Fatalf("total = %d, want saturated at MaxInt64", s.Total)
	}
	if s.Mean != 9e18 || s.Max != 9000000000000000000 || s.Min != 9000000000000000000 {
		t.Fatalf("unexpected summary: %+v", s)
	}

	exact := Summarize(records("9000000000000000000", "-9000000000000000000", "7"))
	if exact.Total != 7 {
		t.Fatalf("total = %d, want exact 7", exact.Total)
	}
}

func TestSummarizeInvalidAmountIsZero(t *testing.T) {
	s := Summarize(records("abc", "100"))
	if s.Total != 100 || s.Min != 0 || s.Max != 100 || s.Mean != 50 {
		t.Fatalf("unexpected summary: %+v", s)
	}
}

func TestHistogramSample(t *testing.T) {
	buckets := Histogram(parser.Parse(sample), DefaultRanges())
	if len(buckets) != len(DefaultRanges()) {
		t.Fatalf("expected one bucket per range, got %d", len(buckets))
	}
	for i, b := range buckets {
		want := 0
		if i == 0 || i == 2 {
			want = 1
		}
		if b.Count != want {
			t.Errorf("bucket %d (%s) count = %d, want %d", i, b.Label, b.Count, want)
		}
	}
	if buckets[0].Label != "1K - 10K" || buckets[len(buckets)-1].Label != "2B - 5B" {
		t.Fatalf("unexpected labels: %q, %q", buckets[0].Label, buckets[len(buckets)-1].Label)
	}
}

func TestHistogramBoundaries(t *testing.T) {
	ranges := []core.Range{{Lower: 1000, Upper: 10000}, {Lower: 10000, Upper: 20000}}
	buckets := Histogram(records("1000", "9999", "10000", "20000", "999"), ranges)
	if buckets[0].Count != 2 {
		t.Fatalf("first bucket = %d, want 2", buckets[0].Count)
	}
	if buckets[1].Count != 1 {
		t.Fatalf("second bucket = %d, want 1", buckets[1].Count)
	}
	if Binned(buckets) > 5 {
		t.Fatalf("binned records exceed count")
	}
}

func TestHistogramOverlapCountsFirstMatchOnly(t *testing.T) {
	ranges := []core.Range{{Lower: 0, Upper: 100}, {Lower: 50, Upper: 150}}
	buckets := Histogram(records("75"), ranges)
	if buckets[0].Count != 1 || buckets[1].Count != 0 {
		t.Fatalf("expected first match only, got %+v", buckets)
	}
	if pairs := Overlapping(ranges); len(pairs) != 1 || pairs[0] != [2]int{0, 1} {
		t.Fatalf("expected overlap pair, got %v", pairs)
	}
	if pairs := Overlapping(DefaultRanges()); len(pairs) != 0 {
		t.Fatalf("default ranges must be disjoint, got %v", pairs)
	}
}

func TestHistogramEmpty(t *testing.T) {
	buckets := Histogram(nil, DefaultRanges())
	if Binned(buckets) != 0 {
		t.Fatalf("expected all-zero buckets")
	}
}

func TestParseRanges(t *testing.T) {
	data := []byte("ranges:\n  - {lower: 1000, upper: 10000}\n  - {lower: 10000, upper: 20000, label: small}\n")
	ranges, err := ParseRanges(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(ranges) != 2 || ranges[1].Label() != "small" || ranges[0].Label() != "1K - 10K" {
		t.Fatalf("unexpected ranges: %+v", ranges)
	}

	if _, err := ParseRanges([]byte("ranges: []\n")); !errors.Is(err, core.ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange for empty list, got %v", err)
	}
	if _, err := ParseRanges([]byte("ranges:\n  - {lower: 10, upper: 1}\n")); !errors.Is(err, core.ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange for inverted range, got %v", err)
	}
	if _, err := ParseRanges([]byte("ranges: [")); err == nil {
		t.Fatalf("expected YAML error")
	}
}

func TestLoadRanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ranges.yaml")
	if err := os.WriteFile(path, []byte("ranges:\n  - {lower: 1, upper: 2}\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	ranges, err := LoadRanges(path)
	if err != nil || len(ranges) != 1 {
		t.Fatalf("load: %v %+v", err, ranges)
	}
	if _, err := LoadRanges(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
