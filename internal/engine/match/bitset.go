package match

import (
	"github.com/bits-and-blooms/bitset"

	"github.com/kailas-cloud/facetdex/internal/domain/taxonomy"
	"github.com/kailas-cloud/facetdex/internal/engine/searchindex"
)

// BaseSet evaluates the base constraints over every entry of s.
func (p Predicate) BaseSet(s *searchindex.Snapshot) *bitset.BitSet {
	out := bitset.New(uint(s.Len()))
	for i := range s.Len() {
		if p.Base(s.Entry(i), s.Index(i)) {
			out.Set(uint(i))
		}
	}
	return out
}

// DimensionSet is the union of the postings of the selected terms of d.
// Nil means d is unconstrained. Unknown ids contribute nothing.
func (p Predicate) DimensionSet(s *searchindex.Snapshot, d taxonomy.Dimension) *bitset.BitSet {
	sel, ok := p.selections[d]
	if !ok {
		return nil
	}
	out := bitset.New(uint(s.Len()))
	for _, id := range sel.IDs() {
		if posting := s.Posting(d, id); posting != nil {
			out.InPlaceUnion(posting)
		}
	}
	return out
}

// Filter returns the set of entries of s matching p.
func (p Predicate) Filter(s *searchindex.Snapshot) *bitset.BitSet {
	out := p.BaseSet(s)
	for _, d := range p.constrained {
		out.InPlaceIntersection(p.DimensionSet(s, d))
	}
	return out
}

// Positions lists the set bits of b in ascending order.
func Positions(b *bitset.BitSet) []int {
	out := make([]int, 0, b.Count())
	for i, ok := b.NextSet(0); ok; i, ok = b.NextSet(i + 1) {
		out = append(out, int(i))
	}
	return out
}
