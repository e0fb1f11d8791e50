// Package match implements FilterMatcher: the predicate deciding whether a
// catalog entry satisfies a FilterQuery.
//
// An entry matches when every constraint holds (AND across dimensions). A
// multi-value category holds when the entry carries at least one selected
// term (OR within the category); an entry with no terms in a constrained
// category never matches. Unknown term ids simply never intersect.
package match

import (
	"github.com/kailas-cloud/facetdex/internal/domain/catalog"
	"github.com/kailas-cloud/facetdex/internal/domain/query"
	"github.com/kailas-cloud/facetdex/internal/domain/taxonomy"
	"github.com/kailas-cloud/facetdex/internal/engine/searchindex"
)

// Predicate is a compiled query, split into the base constraints (status,
// date range, search) and one constraint per dimension so callers can relax
// a single dimension.
type Predicate struct {
	status      query.StatusFilter
	dates       query.DateRange
	needle      string
	selections  map[taxonomy.Dimension]taxonomy.Set
	constrained []taxonomy.Dimension
}

// Compile prepares q for repeated evaluation.
func Compile(q query.Query) Predicate {
	p := Predicate{
		status:      q.Status(),
		dates:       q.DateRange(),
		needle:      searchindex.Needle(q.Search()),
		constrained: q.ConstrainedDimensions(),
	}
	p.selections = make(map[taxonomy.Dimension]taxonomy.Set, len(p.constrained))
	for _, d := range p.constrained {
		p.selections[d] = q.Selection(d)
	}
	return p
}

// Constrained returns the constrained dimensions in canonical order.
func (p Predicate) Constrained() []taxonomy.Dimension {
	return append([]taxonomy.Dimension(nil), p.constrained...)
}

// Selection returns the selected ids of dimension d.
func (p Predicate) Selection(d taxonomy.Dimension) taxonomy.Set { return p.selections[d] }

// Needle returns the folded search text, "" when there is no search.
func (p Predicate) Needle() string { return p.needle }

// Base reports whether e satisfies status, date range and search.
func (p Predicate) Base(e *catalog.Entry, ix *searchindex.Entry) bool {
	if !p.status.Accepts(e.Status()) {
		return false
	}
	if !p.dates.IsZero() {
		pd, ok := e.PublishDate()
		if !ok || !p.dates.Contains(pd) {
			return false
		}
	}
	return ix.Contains(p.needle)
}

// Dimension reports whether e satisfies the constraint on d.
// An unconstrained dimension always holds.
func (p Predicate) Dimension(d taxonomy.Dimension, e *catalog.Entry) bool {
	sel, ok := p.selections[d]
	if !ok {
		return true
	}
	if d.IsMulti() {
		return e.Terms(d).Intersects(sel)
	}
	v := e.Value(d)
	return v != "" && sel.Contains(v)
}

// Matches reports whether e satisfies every constraint.
func (p Predicate) Matches(e *catalog.Entry, ix *searchindex.Entry) bool {
	if !p.Base(e, ix) {
		return false
	}
	for _, d := range p.constrained {
		if !p.Dimension(d, e) {
			return false
		}
	}
	return true
}

// MatchesExcept is Matches with the constraint on d relaxed.
func (p Predicate) MatchesExcept(e *catalog.Entry, ix *searchindex.Entry, d taxonomy.Dimension) bool {
	if !p.Base(e, ix) {
		return false
	}
	for _, c := range p.constrained {
		if c != d && !p.Dimension(c, e) {
			return false
		}
	}
	return true
}

// Matches compiles q and evaluates it against a single entry.
func Matches(e *catalog.Entry, ix *searchindex.Entry, q query.Query) bool {
	return Compile(q).Matches(e, ix)
}
