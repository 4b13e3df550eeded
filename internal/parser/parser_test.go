package parser

import (
	"reflect"
	"testing"
)

const sample = "header\n2024-01-01,D1,1500,Gift,P1\n2024-01-02,D2,25000,Gift2,P2\n"

func TestParseSample(t *testing.T) {
	records := Parse(sample)
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	first := records[0]
	if first.Date != "2024-01-01" || first.DocNumber != "D1" || first.Amount.Units != 1500 ||
		first.Detail != "Gift" || first.Page != "P1" {
		t.Fatalf("unexpected first record: %+v", first)
	}
	if records[1].DocNumber != "D2" || records[1].Amount.Units != 25000 {
		t.Fatalf("unexpected second record: %+v", records[1])
	}
}

func TestParseHeaderOnlyAndEmpty(t *testing.T) {
	for _, in := range []string{"", "header", "header\n", "header\n\n\n"} {
		if got := Parse(in); len(got) != 0 {
			t.Fatalf("%q: expected no records, got %d", in, len(got))
		}
	}
}

func TestParseHeaderIsAlwaysDiscarded(t *testing.T) {
	records := Parse("2024-01-01,D0,1,x,P0\n2024-01-01,D1,2,y,P1")
	if len(records) != 1 || records[0].DocNumber != "D1" {
		t.Fatalf("first line must be dropped even when it looks like data: %+v", records)
	}
}

func TestParseIsIdempotent(t *testing.T) {
	a := Parse(sample)
	b := Parse(sample)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("parsing the same text twice gave different records")
	}
}

func TestParseEmbeddedCommaShiftsFields(t *testing.T) {
	records, stats := ParseWithStats("h\n2024-01-01,D1,1000,Gift, with comma,P1\n")
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	r := records[0]
	if r.Detail != "Gift" || r.Page != " with comma" {
		t.Fatalf("embedded comma should shift page: %+v", r)
	}
	if stats.Malformed != 1 {
		t.Fatalf("expected 1 malformed line, got %d", stats.Malformed)
	}
}

func TestParseWithStats(t *testing.T) {
	in := "h\r\n2024-01-01,D1,abc,x,P1\r\n\r\n2024-01-02,D2\n2024-01-03,D3,300,z,P3\r\n"
	records, stats := ParseWithStats(in)
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	if records[2].Page != "P3" {
		t.Fatalf("carriage return should be stripped: %q", records[2].Page)
	}
	want := Stats{Lines: 5, Records: 3, Skipped: 2, Malformed: 1, InvalidAmounts: 2}
	if stats != want {
		t.Fatalf("stats = %+v, want %+v", stats, want)
	}
}
