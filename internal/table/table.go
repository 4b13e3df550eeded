// Package table defines the searchable, sortable, paged view over the
// records of a run that the presentation side consumes.
package table

import (
	"context"
	"fmt"
	"math"
	"strings"

	"saoke/internal/core"
)

// Column names a sortable record field.
type Column string

const (
	ColDate      Column = "date"
	ColDocNumber Column = "docNumber"
	ColMoney     Column = "money"
	ColDetail    Column = "detail"
	ColPage      Column = "page"
)

const DefaultPageSize = 25

// ParseColumn accepts a column name case-insensitively.
func ParseColumn(s string) (Column, bool) {
	for _, c := range []Column{ColDate, ColDocNumber, ColMoney, ColDetail, ColPage} {
		if strings.EqualFold(s, string(c)) {
			return c, true
		}
	}
	return "", false
}

// Query selects one page of records. Page is 1-based.
type Query struct {
	Search string
	SortBy Column
	Desc   bool
	Page   int
	Size   int
}

// DefaultQuery sorts by amount, largest first.
func DefaultQuery(size int) Query {
	if size < 1 {
		size = DefaultPageSize
	}
	return Query{SortBy: ColMoney, Desc: true, Page: 1, Size: size}
}

// Normalize fills in defaults for unset or out-of-range values.
func (q Query) Normalize(defaultSize int) Query {
	if defaultSize < 1 {
		defaultSize = DefaultPageSize
	}
	if c, ok := ParseColumn(string(q.SortBy)); ok {
		q.SortBy = c
	} else {
		q.SortBy = ColMoney
		q.Desc = true
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Size < 1 {
		q.Size = defaultSize
	}
	if q.Page > MaxPage(q.Size) {
		q.Page = MaxPage(q.Size)
	}
	q.Search = Needle(q.Search)
	return q
}

// MaxPage is the largest page whose offset fits in an int.
func MaxPage(size int) int {
	if size < 1 {
		size = 1
	}
	return math.MaxInt/size + 1
}

// Offset is the index of the first record on the page.
func (q Query) Offset() int {
	return (q.Page - 1) * q.Size
}

// Key identifies the query for caching.
func (q Query) Key() string {
	dir := "asc"
	if q.Desc {
		dir = "desc"
	}
	return fmt.Sprintf("%s|%s|%d|%d|%s", q.SortBy, dir, q.Page, q.Size, strings.ToLower(q.Search))
}

// Page is one slice of the filtered, sorted records.
type Page struct {
	Total    int // records in the index
	Filtered int // records matching the search
	Page     int
	Size     int
	Records  []core.Record
}

// Index holds the records of the latest run.
type Index interface {
	// Load replaces the indexed records.
	Load(ctx context.Context, records []core.Record) error
	Query(ctx context.Context, q Query) (Page, error)
	Close() error
}

const fieldSep = "\x1f"

// Haystack is the lowercased text searched for a record. Fields are joined
// with a unit separator so a needle cannot match across two fields.
func Haystack(r core.Record) string {
	return strings.ToLower(strings.Join([]string{r.Date, r.DocNumber, r.RawMoney, r.Detail, r.Page}, fieldSep))
}

// Needle prepares search text for matching against a Haystack.
func Needle(search string) string {
	return strings.ToLower(strings.TrimSpace(strings.ReplaceAll(search, fieldSep, "")))
}

// Matches reports whether r contains the search text in any field.
func Matches(r core.Record, search string) bool {
	needle := Needle(search)
	if needle == "" {
		return true
	}
	return strings.Contains(Haystack(r), needle)
}
