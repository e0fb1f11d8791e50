// Package order implements the Sorter: a total, stable order over matched
// entries for each sort key. Ties always break on entry id ascending, so two
// distinct entries never compare equal.
package order

import (
	"cmp"
	"math"
	"slices"
	"strings"

	"github.com/kailas-cloud/facetdex/internal/domain/catalog"
	"github.com/kailas-cloud/facetdex/internal/domain/query"
	"github.com/kailas-cloud/facetdex/internal/engine/searchindex"
)

// NoDate is the sort value of an entry without a publish date: the oldest
// possible date.
const NoDate = math.MinInt64

// Position is the sort key of one entry under one sort key. It is what a
// cursor remembers about the last item of a page.
type Position struct {
	Featured bool   `json:"f,omitempty"`
	Int      int64  `json:"i,omitempty"`
	Text     string `json:"t,omitempty"`
	ID       string `json:"id"`
}

// PositionOf extracts the sort position of e under key.
func PositionOf(e *catalog.Entry, key query.SortKey) Position {
	p := Position{ID: e.ID()}
	switch key {
	case query.SortDateAsc, query.SortDateDesc:
		p.Int = NoDate
		if t, ok := e.PublishDate(); ok {
			p.Int = t.Unix()
		}
	case query.SortTitle:
		p.Text = searchindex.Fold(e.Title())
	case query.SortPriority:
		p.Int = int64(e.Priority())
	case query.SortDuration:
		p.Int = int64(e.Duration())
	case query.SortFeaturedFirst:
		p.Featured = e.Featured()
		p.Int = int64(e.Priority())
	default:
		return PositionOf(e, query.DefaultSort)
	}
	return p
}

// Compare orders a before b (negative), after (positive), or 0 only when the
// ids are equal.
func Compare(key query.SortKey, a, b Position) int {
	var c int
	switch key {
	case query.SortDateAsc, query.SortDuration:
		c = cmp.Compare(a.Int, b.Int)
	case query.SortTitle:
		c = strings.Compare(a.Text, b.Text)
	case query.SortPriority:
		c = cmp.Compare(b.Int, a.Int)
	case query.SortFeaturedFirst:
		c = compareBool(b.Featured, a.Featured)
		if c == 0 {
			c = cmp.Compare(b.Int, a.Int)
		}
	default: // date-desc
		c = cmp.Compare(b.Int, a.Int)
	}
	if c != 0 {
		return c
	}
	return strings.Compare(a.ID, b.ID)
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case a:
		return 1
	default:
		return -1
	}
}

// Item pairs a snapshot position with its sort position.
type Item struct {
	Index    int
	Position Position
}

// Sort orders the given entries and returns them as Items. The input is not
// modified. get resolves an index to its entry.
func Sort(indices []int, key query.SortKey, get func(int) *catalog.Entry) []Item {
	if !key.IsValid() {
		key = query.DefaultSort
	}
	items := make([]Item, len(indices))
	for i, idx := range indices {
		items[i] = Item{Index: idx, Position: PositionOf(get(idx), key)}
	}
	slices.SortStableFunc(items, func(a, b Item) int {
		return Compare(key, a.Position, b.Position)
	})
	return items
}

// Entries sorts entries by key and returns a new slice.
func Entries(entries []catalog.Entry, key query.SortKey) []catalog.Entry {
	idx := make([]int, len(entries))
	for i := range idx {
		idx[i] = i
	}
	items := Sort(idx, key, func(i int) *catalog.Entry { return &entries[i] })
	out := make([]catalog.Entry, len(items))
	for i, it := range items {
		out[i] = entries[it.Index]
	}
	return out
}
