// Package query holds FilterQuery, the immutable description of one catalog
// interaction: the selected facet terms, single-value filters, date range,
// free-text search, sort and page position.
//
// Every With* method returns a new Query; the receiver is never modified.
// An absent or empty selection for a dimension means "no constraint".
package query

import (
	"slices"
	"strings"
	"time"

	"github.com/kailas-cloud/facetdex/internal/domain/catalog"
	"github.com/kailas-cloud/facetdex/internal/domain/taxonomy"
)

// StatusFilter restricts entries by publication status.
type StatusFilter string

const (
	// StatusDefault admits only published entries.
	StatusDefault StatusFilter = ""
	// StatusAll disables the status constraint.
	StatusAll StatusFilter = "all"
)

// Accepts reports whether an entry with status s passes the filter.
func (f StatusFilter) Accepts(s catalog.Status) bool {
	switch f {
	case StatusDefault:
		return s == catalog.Published
	case StatusAll:
		return true
	default:
		return catalog.Status(f) == s
	}
}

// IsValid reports whether f is default, all, or a known status.
func (f StatusFilter) IsValid() bool {
	return f == StatusDefault || f == StatusAll || catalog.Status(f).IsValid()
}

// Query is the FilterQuery value.
type Query struct {
	terms    map[taxonomy.Dimension]taxonomy.Set
	values   map[taxonomy.Dimension]string
	status   StatusFilter
	dates    DateRange
	search   string
	sort     SortKey
	pageSize int
	cursor   string
	offset   int
}

// New returns an unconstrained query with the default sort.
func New() Query {
	return Query{sort: DefaultSort}
}

func (q Query) clone() Query {
	out := q
	out.terms = make(map[taxonomy.Dimension]taxonomy.Set, len(q.terms))
	for k, v := range q.terms {
		out.terms[k] = v
	}
	out.values = make(map[taxonomy.Dimension]string, len(q.values))
	for k, v := range q.values {
		out.values[k] = v
	}
	return out
}

// WithTerms selects ids in a multi-value category (OR within the category).
// taxonomy.AllID is dropped, and an empty id list clears the category.
// Single-value dimensions take the first id; use WithValue for them.
func (q Query) WithTerms(d taxonomy.Dimension, ids ...string) Query {
	ids = slices.DeleteFunc(slices.Clone(ids), func(id string) bool { return id == taxonomy.AllID })
	if !d.IsMulti() {
		v := ""
		if s := taxonomy.NewSet(ids...); !s.IsEmpty() {
			v = s.IDs()[0]
		}
		return q.WithValue(d, v)
	}
	out := q.clone()
	s := taxonomy.NewSet(ids...)
	if s.IsEmpty() {
		delete(out.terms, d)
	} else {
		out.terms[d] = s
	}
	return out
}

// WithValue sets a single-value filter. "" and taxonomy.AllID clear it.
func (q Query) WithValue(d taxonomy.Dimension, v string) Query {
	if d.IsMulti() {
		return q.WithTerms(d, v)
	}
	out := q.clone()
	if v == "" || v == taxonomy.AllID {
		delete(out.values, d)
	} else {
		out.values[d] = v
	}
	return out
}

// WithoutDimension removes every constraint on d.
func (q Query) WithoutDimension(d taxonomy.Dimension) Query {
	out := q.clone()
	delete(out.terms, d)
	delete(out.values, d)
	return out
}

// WithStatus sets the status filter.
func (q Query) WithStatus(f StatusFilter) Query {
	out := q.clone()
	out.status = f
	return out
}

// WithDateRange sets the publish date bounds; nil bounds are open.
func (q Query) WithDateRange(from, to *time.Time) Query {
	out := q.clone()
	out.dates = NewDateRange(from, to)
	return out
}

// WithSearch sets the free-text search. Surrounding whitespace is dropped.
func (q Query) WithSearch(text string) Query {
	out := q.clone()
	out.search = strings.TrimSpace(text)
	return out
}

// WithSort sets the sort key; invalid keys fall back to DefaultSort.
func (q Query) WithSort(k SortKey) Query {
	out := q.clone()
	if !k.IsValid() {
		k = DefaultSort
	}
	out.sort = k
	return out
}

// WithPageSize sets the page size; 0 means the service default.
func (q Query) WithPageSize(n int) Query {
	out := q.clone()
	if n < 0 {
		n = 0
	}
	out.pageSize = n
	return out
}

// WithCursor resumes after the position encoded in token and clears the offset.
func (q Query) WithCursor(token string) Query {
	out := q.clone()
	out.cursor = token
	out.offset = 0
	return out
}

// WithOffset positions by offset and clears the cursor.
func (q Query) WithOffset(n int) Query {
	out := q.clone()
	if n < 0 {
		n = 0
	}
	out.offset = n
	out.cursor = ""
	return out
}

// FirstPage clears the cursor and offset.
func (q Query) FirstPage() Query {
	out := q.clone()
	out.cursor = ""
	out.offset = 0
	return out
}

// Terms returns the selected ids of a multi-value category.
func (q Query) Terms(d taxonomy.Dimension) taxonomy.Set { return q.terms[d] }

// Value returns the selected value of a single-value field ("" = none).
func (q Query) Value(d taxonomy.Dimension) string { return q.values[d] }

// Selection returns the selected ids of any dimension as a Set.
func (q Query) Selection(d taxonomy.Dimension) taxonomy.Set {
	if d.IsMulti() {
		return q.terms[d]
	}
	if v, ok := q.values[d]; ok {
		return taxonomy.NewSet(v)
	}
	return taxonomy.Set{}
}

// Constrained reports whether d carries a selection.
func (q Query) Constrained(d taxonomy.Dimension) bool {
	if d.IsMulti() {
		return !q.terms[d].IsEmpty()
	}
	return q.values[d] != ""
}

// ConstrainedDimensions lists constrained dimensions in canonical order.
func (q Query) ConstrainedDimensions() []taxonomy.Dimension {
	var out []taxonomy.Dimension
	for _, d := range taxonomy.All() {
		if q.Constrained(d) {
			out = append(out, d)
		}
	}
	return out
}

// Status returns the status filter.
func (q Query) Status() StatusFilter { return q.status }

// DateRange returns the publish date bounds.
func (q Query) DateRange() DateRange { return q.dates }

// Search returns the trimmed search text ("" = no constraint).
func (q Query) Search() string { return q.search }

// Sort returns the sort key, DefaultSort when unset.
func (q Query) Sort() SortKey {
	if q.sort == "" {
		return DefaultSort
	}
	return q.sort
}

// PageSize returns the requested page size (0 = service default).
func (q Query) PageSize() int { return q.pageSize }

// Cursor returns the opaque pagination token.
func (q Query) Cursor() string { return q.cursor }

// Offset returns the offset for offset-based paging.
func (q Query) Offset() int { return q.offset }

// Equal reports whether both queries describe the same state.
func (q Query) Equal(o Query) bool {
	if q.status != o.status || q.search != o.search || q.Sort() != o.Sort() ||
		q.pageSize != o.pageSize || q.cursor != o.cursor || q.offset != o.offset {
		return false
	}
	if !q.dates.Equal(o.dates) {
		return false
	}
	return q.FiltersEqual(o)
}

// FiltersEqual compares only the term and value selections.
func (q Query) FiltersEqual(o Query) bool {
	for _, d := range taxonomy.All() {
		if !q.Selection(d).Equal(o.Selection(d)) {
			return false
		}
	}
	return true
}
