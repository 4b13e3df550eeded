package table

import (
	"math"
	"testing"

	"saoke/internal/core"
)

func TestParseColumn(t *testing.T) {
	if c, ok := ParseColumn("MONEY"); !ok || c != ColMoney {
		t.Fatalf("got %q %v", c, ok)
	}
	if c, ok := ParseColumn("docnumber"); !ok || c != ColDocNumber {
		t.Fatalf("got %q %v", c, ok)
	}
	if _, ok := ParseColumn("amount; DROP TABLE"); ok {
		t.Fatalf("unknown column accepted")
	}
}

func TestQueryNormalize(t *testing.T) {
	q := Query{SortBy: "bogus", Page: -3, Search: "  gift "}.Normalize(25)
	if q.SortBy != ColMoney || !q.Desc || q.Page != 1 || q.Size != 25 || q.Search != "gift" {
		t.Fatalf("unexpected normalized query: %+v", q)
	}
	q = Query{SortBy: ColDate, Page: 3, Size: 10}.Normalize(25)
	if q.SortBy != ColDate || q.Desc || q.Offset() != 20 {
		t.Fatalf("unexpected query: %+v offset=%d", q, q.Offset())
	}
	if DefaultQuery(0).Size != DefaultPageSize {
		t.Fatalf("default size not applied")
	}
}

func TestQueryNormalizeClampsHugePage(t *testing.T) {
	q := Query{Page: math.MaxInt, Size: 1000}.Normalize(25)
	if q.Page != MaxPage(1000) {
		t.Fatalf("page = %d, want %d", q.Page, MaxPage(1000))
	}
	if q.Offset() < 0 {
		t.Fatalf("offset overflowed: %d", q.Offset())
	}
}

func TestQueryKeyIgnoresSearchCase(t *testing.T) {
	a := Query{Search: "Gift", SortBy: ColMoney, Page: 1, Size: 25}
	b := Query{Search: "gift", SortBy: ColMoney, Page: 1, Size: 25}
	if a.Key() != b.Key() {
		t.Fatalf("keys differ: %q %q", a.Key(), b.Key())
	}
	b.Desc = true
	if a.Key() == b.Key() {
		t.Fatalf("direction must be part of the key")
	}
}

func TestMatches(t *testing.T) {
	r := core.NewRecord([]string{"2024-01-01", "D1", "1500", "Ủng hộ MTTQ", "P1"})
	for _, s := range []string{"", "d1", "ủng", "ỦNG", "1500", "p1", "2024"} {
		if !Matches(r, s) {
			t.Errorf("expected %q to match", s)
		}
	}
	if Matches(r, "p1x") {
		t.Errorf("unexpected match")
	}
	if Matches(r, "1500"+fieldSep+"ủng") {
		t.Errorf("search must not span fields")
	}
}

func TestQueryNormalizeCanonicalColumn(t *testing.T) {
	q := Query{SortBy: "DOCNUMBER", Desc: true}.Normalize(10)
	if q.SortBy != ColDocNumber || !q.Desc || q.Size != 10 {
		t.Fatalf("unexpected query: %+v", q)
	}
}
