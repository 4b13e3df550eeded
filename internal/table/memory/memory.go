package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"saoke/internal/core"
	"saoke/internal/table"
)

// Index keeps the records in a slice and filters and sorts per query.
type Index struct {
	mu    sync.RWMutex
	items []core.Record
	hay   []string
}

func New() *Index {
	return &Index{}
}

// Load replaces the indexed records. The slice is copied.
func (x *Index) Load(_ context.Context, records []core.Record) error {
	items := append([]core.Record(nil), records...)
	hay := make([]string, len(items))
	for i, r := range items {
		hay[i] = table.Haystack(r)
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	x.items = items
	x.hay = hay
	return nil
}

func (x *Index) Query(_ context.Context, q table.Query) (table.Page, error) {
	q = q.Normalize(table.DefaultPageSize)

	x.mu.RLock()
	defer x.mu.RUnlock()

	idx := make([]int, 0, len(x.items))
	for i := range x.items {
		if q.Search == "" || strings.Contains(x.hay[i], q.Search) {
			idx = append(idx, i)
		}
	}

	less := lessFunc(q.SortBy)
	sort.SliceStable(idx, func(a, b int) bool {
		ra, rb := x.items[idx[a]], x.items[idx[b]]
		if q.Desc {
			return less(rb, ra)
		}
		return less(ra, rb)
	})

	page := table.Page{Total: len(x.items), Filtered: len(idx), Page: q.Page, Size: q.Size}
	start := q.Offset()
	if start < 0 || start >= len(idx) {
		page.Records = []core.Record{}
		return page, nil
	}
	end := start + min(q.Size, len(idx)-start)
	page.Records = make([]core.Record, 0, end-start)
	for _, i := range idx[start:end] {
		page.Records = append(page.Records, x.items[i])
	}
	return page, nil
}

func (x *Index) Close() error {
	return nil
}

func lessFunc(col table.Column) func(a, b core.Record) bool {
	switch col {
	case table.ColDate:
		return func(a, b core.Record) bool { return a.Date < b.Date }
	case table.ColDocNumber:
		return func(a, b core.Record) bool { return a.DocNumber < b.DocNumber }
	case table.ColDetail:
		return func(a, b core.Record) bool { return a.Detail < b.Detail }
	case table.ColPage:
		return func(a, b core.Record) bool { return a.Page < b.Page }
	default:
		return func(a, b core.Record) bool { return a.Amount.Units < b.Amount.Units }
	}
}
