package facetdex

import (
	"context"
	"slices"
)

// staticSource serves a fixed catalog to the query service.
type staticSource struct {
	entries []Entry
	terms   map[Dimension][]Term
}

func newStaticSource(entries []Entry, terms map[Dimension][]Term) *staticSource {
	t := make(map[Dimension][]Term, len(terms))
	for d, list := range terms {
		t[d] = slices.Clone(list)
	}
	return &staticSource{entries: slices.Clone(entries), terms: t}
}

func (s *staticSource) FetchEntries(_ context.Context, statuses []Status) ([]Entry, error) {
	out := make([]Entry, 0, len(s.entries))
	for i := range s.entries {
		if slices.Contains(statuses, s.entries[i].Status()) {
			out = append(out, s.entries[i])
		}
	}
	return out, nil
}

func (s *staticSource) FetchTaxonomy(_ context.Context, d Dimension) ([]Term, error) {
	return slices.Clone(s.terms[d]), nil
}
