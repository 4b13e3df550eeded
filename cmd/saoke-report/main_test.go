package main

import "testing"

func TestRunReturnsUsageCodeWithoutSource(t *testing.T) {
	t.Setenv("SOURCE_URL", "")
	t.Setenv("HISTOGRAM_RANGES_FILE", "")
	t.Setenv("LOG_LEVEL", "error")

	if code := run(); code != 2 {
		t.Fatalf("run() = %d, want 2 for a missing source", code)
	}
}
