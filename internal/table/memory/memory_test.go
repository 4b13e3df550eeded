package memory

import (
	"context"
	"testing"

	"saoke/internal/parser"
	"saoke/internal/table"
)

const data = "h\n" +
	"2024-01-03,D3,500,Bread,P2\n" +
	"2024-01-01,D1,1500,Gift,P1\n" +
	"2024-01-02,D2,25000,Gift two,P1\n" +
	"2024-01-04,D4,1500,Tea,P3\n"

func loaded(t *testing.T) *Index {
	t.Helper()
	x := New()
	if err := x.Load(context.Background(), parser.Parse(data)); err != nil {
		t.Fatalf("load: %v", err)
	}
	return x
}

func docs(p table.Page) []string {
	out := make([]string, len(p.Records))
	for i, r := range p.Records {
		out[i] = r.DocNumber
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestDefaultQuerySortsByMoneyDesc(t *testing.T) {
	x := loaded(t)
	p, err := x.Query(context.Background(), table.DefaultQuery(25))
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	// ties keep input order
	if got, want := docs(p), []string{"D2", "D1", "D4", "D3"}; !equal(got, want) {
		t.Fatalf("order = %v, want %v", got, want)
	}
	if p.Total != 4 || p.Filtered != 4 {
		t.Fatalf("counts = %d/%d", p.Total, p.Filtered)
	}
}

func TestQuerySearchAndSort(t *testing.T) {
	x := loaded(t)
	p, _ := x.Query(context.Background(), table.Query{Search: "GIFT", SortBy: table.ColDate, Page: 1, Size: 10})
	if got, want := docs(p), []string{"D1", "D2"}; !equal(got, want) {
		t.Fatalf("order = %v, want %v", got, want)
	}
	if p.Filtered != 2 || p.Total != 4 {
		t.Fatalf("counts = %d/%d", p.Total, p.Filtered)
	}
}

func TestQueryPaging(t *testing.T) {
	x := loaded(t)
	q := table.Query{SortBy: table.ColDocNumber, Page: 2, Size: 3}
	p, _ := x.Query(context.Background(), q)
	if got, want := docs(p), []string{"D4"}; !equal(got, want) {
		t.Fatalf("page 2 = %v, want %v", got, want)
	}
	q.Page = 5
	p, _ = x.Query(context.Background(), q)
	if len(p.Records) != 0 || p.Filtered != 4 {
		t.Fatalf("page past the end should be empty: %+v", p)
	}
}

func TestLoadReplacesRecords(t *testing.T) {
	x := loaded(t)
	if err := x.Load(context.Background(), parser.Parse("h\n")); err != nil {
		t.Fatalf("load: %v", err)
	}
	p, _ := x.Query(context.Background(), table.DefaultQuery(25))
	if p.Total != 0 || len(p.Records) != 0 {
		t.Fatalf("expected empty index, got %+v", p)
	}
}
