package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"saoke/internal/aggregate"
	"saoke/internal/fetch"
	"saoke/internal/parser"
	"saoke/internal/services"
)

func TestWrite(t *testing.T) {
	records, stats := parser.ParseWithStats("h\n2024-01-01,D1,1500,Gift,P1\n2024-01-02,D2,25000,Gift,P1\nbad line\n")
	res := &services.Result{
		RunID:      "run-1",
		Source:     "https://example.test/data.csv",
		Bytes:      2048,
		Records:    records,
		Summary:    aggregate.Summarize(records),
		Buckets:    aggregate.Histogram(records, aggregate.DefaultRanges()[:3]),
		ParseStats: stats,
		Duration:   1500 * time.Millisecond,
	}

	var buf bytes.Buffer
	if err := Write(&buf, res); err != nil {
		t.Fatalf("Write: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"2KB in 1.5s", "Records:", "26.500 ₫", "8.833 ₫", "1 malformed, 1 invalid amounts", "Histogram:", "1K - 10K", "20K - 50K"} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}

func TestWriteEmptyRun(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, &services.Result{Source: "s"}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !strings.Contains(buf.String(), "Mean:") || strings.Contains(buf.String(), "Histogram:") {
		t.Fatalf("unexpected empty report:\n%s", buf.String())
	}
}

func TestProgressPrinterThrottles(t *testing.T) {
	var buf bytes.Buffer
	now := time.Unix(0, 0)
	p := NewProgressPrinter(&buf, time.Second)
	p.now = func() time.Time { return now }

	p.ObserveProgress("r", fetch.Progress{Loaded: 100, Total: 1000, Speed: 100})
	now = now.Add(100 * time.Millisecond)
	p.ObserveProgress("r", fetch.Progress{Loaded: 200, Total: 1000, Speed: 100})
	now = now.Add(100 * time.Millisecond)
	p.ObserveProgress("r", fetch.Progress{Loaded: 1000, Total: 1000, Speed: 100})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected first and final lines, got %q", lines)
	}
	if !strings.HasSuffix(lines[1], "100%") {
		t.Fatalf("final line = %q", lines[1])
	}
}

func TestProgressPrinterFlushUnknownTotal(t *testing.T) {
	var buf bytes.Buffer
	now := time.Unix(0, 0)
	p := NewProgressPrinter(&buf, time.Second)
	p.now = func() time.Time { return now }

	p.ObserveProgress("r", fetch.Progress{Loaded: 1024, Total: -1, Speed: 100})
	now = now.Add(100 * time.Millisecond)
	p.ObserveProgress("r", fetch.Progress{Loaded: 2048, Total: -1, Speed: 100})

	if got := strings.Count(buf.String(), "\n"); got != 1 {
		t.Fatalf("expected the second sample to be throttled, got %q", buf.String())
	}
	p.Flush()
	p.Flush()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected the held sample once after Flush, got %q", buf.String())
	}
	if !strings.HasPrefix(lines[1], "2KB") {
		t.Fatalf("last line should report the full payload, got %q", lines[1])
	}
}
