// Package facet implements FacetAggregator: per-dimension term counts where
// each dimension is counted against the query with its own constraint
// removed. Selecting a term in dimension C never changes the counts shown for
// C, while every other constrained dimension narrows them.
package facet

import (
	"context"
	"fmt"

	"github.com/bits-and-blooms/bitset"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/facetdex/internal/domain/query"
	"github.com/kailas-cloud/facetdex/internal/domain/taxonomy"
	"github.com/kailas-cloud/facetdex/internal/engine/match"
	"github.com/kailas-cloud/facetdex/internal/engine/searchindex"
)

// Count is one facet row.
type Count struct {
	Term     taxonomy.Term
	Count    int
	Selected bool
}

// Result maps every dimension to one row per known term, in display order.
type Result map[taxonomy.Dimension][]Count

// Outcome is the result of one aggregation.
type Outcome struct {
	// Matched is the exact matched set over snapshot positions.
	Matched *bitset.BitSet
	Facets  Result
}

// Options tunes Aggregate.
type Options struct {
	// Parallelism bounds concurrent dimensions; <= 0 means one per dimension.
	Parallelism int
}

// Aggregate computes the matched set of q and the facet counts of every
// dimension over snapshot s. The base constraints and each dimension's
// predicate are evaluated once; relaxed sets are intersections of those.
func Aggregate(ctx context.Context, s *searchindex.Snapshot, q query.Query, opts Options) (Outcome, error) {
	p := match.Compile(q)
	base := p.BaseSet(s)

	dims := taxonomy.All()
	preds := make(map[taxonomy.Dimension]*bitset.BitSet, len(dims))
	for _, d := range p.Constrained() {
		preds[d] = p.DimensionSet(s, d)
	}

	matched := base.Clone()
	for _, d := range p.Constrained() {
		matched.InPlaceIntersection(preds[d])
	}

	rows := make([][]Count, len(dims))
	g, gctx := errgroup.WithContext(ctx)
	if opts.Parallelism > 0 {
		g.SetLimit(opts.Parallelism)
	}
	for i, d := range dims {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			relaxed := relax(base, preds, d)
			rows[i] = count(s, d, relaxed, p.Selection(d))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Outcome{}, fmt.Errorf("aggregate facets: %w", err)
	}

	res := make(Result, len(dims))
	for i, d := range dims {
		res[d] = rows[i]
	}
	return Outcome{Matched: matched, Facets: res}, nil
}

// relax intersects base with every dimension predicate except d's own.
// base and preds are shared across goroutines and only read.
func relax(base *bitset.BitSet, preds map[taxonomy.Dimension]*bitset.BitSet, d taxonomy.Dimension) *bitset.BitSet {
	out := base.Clone()
	for other, set := range preds {
		if other != d {
			out.InPlaceIntersection(set)
		}
	}
	return out
}

func count(s *searchindex.Snapshot, d taxonomy.Dimension, relaxed *bitset.BitSet, sel taxonomy.Set) []Count {
	terms := s.Terms(d)
	out := make([]Count, len(terms))
	for i, t := range terms {
		n := 0
		if posting := s.Posting(d, t.ID()); posting != nil {
			n = int(relaxed.IntersectionCardinality(posting))
		}
		out[i] = Count{Term: t, Count: n, Selected: sel.Contains(t.ID())}
	}
	return out
}
