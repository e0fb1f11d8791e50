// Package page implements the Paginator over sorted items.
//
// Cursor mode is the default: the token carries the sort position of the last
// served item and the next page starts at the first item strictly after it,
// so entries inserted or removed between requests never cause a surviving
// entry to be served twice or skipped. Offset mode exists for deep links and
// is not stable under inserts.
package page

import (
	"sort"

	"github.com/kailas-cloud/facetdex/internal/domain"
	"github.com/kailas-cloud/facetdex/internal/domain/query"
	"github.com/kailas-cloud/facetdex/internal/engine/order"
)

// DefaultSize is used when a request carries no page size.
const DefaultSize = 20

// Request selects one page.
type Request struct {
	Sort        query.SortKey
	Fingerprint string
	Size        int
	Cursor      string
	Offset      int
}

// Page is one slice of the ordered result.
type Page struct {
	Items      []order.Item
	NextCursor string
	NextOffset int
	HasMore    bool
}

// Paginate returns the page of items selected by req. items must be sorted
// by req.Sort. A cursor issued for another sort key or filter state is
// rejected with a CursorMismatchError.
func Paginate(items []order.Item, req Request) (Page, error) {
	size := req.Size
	if size <= 0 {
		size = DefaultSize
	}
	key := req.Sort
	if !key.IsValid() {
		key = query.DefaultSort
	}

	start := req.Offset
	if req.Cursor != "" {
		c, err := DecodeCursor(req.Cursor)
		if err != nil {
			return Page{}, err
		}
		if c.Sort != key {
			return Page{}, domain.NewCursorMismatch(string(c.Sort), string(key), false)
		}
		if c.Fingerprint != req.Fingerprint {
			return Page{}, domain.NewCursorMismatch(string(c.Sort), string(key), true)
		}
		start = sort.Search(len(items), func(i int) bool {
			return order.Compare(key, items[i].Position, c.Position) > 0
		})
	}
	if start < 0 {
		start = 0
	}
	if start > len(items) {
		start = len(items)
	}

	end := start + min(size, len(items)-start)
	p := Page{
		Items:      items[start:end:end],
		NextOffset: end,
		HasMore:    end < len(items),
	}
	if p.HasMore {
		p.NextCursor = Cursor{
			Sort:        key,
			Fingerprint: req.Fingerprint,
			Position:    items[end-1].Position,
		}.Encode()
	}
	return p, nil
}
