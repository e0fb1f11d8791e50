// Package catalog runs the query pipeline (match, facet, sort, page) over the
// current catalog snapshot and keeps that snapshot in sync with the content
// store.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/facetdex/internal/domain"
	domcat "github.com/kailas-cloud/facetdex/internal/domain/catalog"
	"github.com/kailas-cloud/facetdex/internal/domain/query"
	"github.com/kailas-cloud/facetdex/internal/domain/taxonomy"
	"github.com/kailas-cloud/facetdex/internal/engine/facet"
	"github.com/kailas-cloud/facetdex/internal/engine/match"
	"github.com/kailas-cloud/facetdex/internal/engine/order"
	"github.com/kailas-cloud/facetdex/internal/engine/page"
	"github.com/kailas-cloud/facetdex/internal/engine/querystate"
	"github.com/kailas-cloud/facetdex/internal/engine/searchindex"
	logpkg "github.com/kailas-cloud/facetdex/internal/logger"
	"github.com/kailas-cloud/facetdex/internal/metrics"
)

// Default paging limits.
const (
	DefaultPageSize = page.DefaultSize
	MaxPageSize     = 100
)

// Response is one evaluated query.
type Response struct {
	Items      []domcat.Entry
	Facets     facet.Result
	Total      int
	NextCursor string
	NextOffset int
	HasMore    bool
	Warnings   []query.Warning
	Version    uint64
}

// Info describes the installed snapshot.
type Info struct {
	Loaded  bool
	Version uint64
	Entries int
	BuiltAt time.Time
}

// Service evaluates catalog queries against an immutable snapshot.
type Service struct {
	entries EntrySource
	terms   TaxonomySource
	cache   *searchindex.Cache
	logger  *zap.Logger
	now     func() time.Time

	version     atomic.Uint64
	defaultSize int
	maxSize     int
	parallelism int

	mu      sync.Mutex
	lastErr error
}

// Option configures a Service.
type Option func(*Service)

// WithPagination sets the default and maximum page size.
func WithPagination(defaultSize, maxSize int) Option {
	return func(s *Service) {
		if defaultSize > 0 {
			s.defaultSize = defaultSize
		}
		if maxSize > 0 {
			s.maxSize = maxSize
		}
	}
}

// WithFacetParallelism bounds the dimensions aggregated concurrently.
func WithFacetParallelism(n int) Option {
	return func(s *Service) { s.parallelism = n }
}

// WithClock overrides the clock used to stamp snapshots.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates a catalog service. logger may be nil.
func New(entries EntrySource, terms TaxonomySource, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		entries:     entries,
		terms:       terms,
		logger:      logger,
		now:         time.Now,
		defaultSize: DefaultPageSize,
		maxSize:     MaxPageSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.defaultSize > s.maxSize {
		s.defaultSize = s.maxSize
	}
	s.cache = searchindex.NewCache(s.load)
	return s
}

// Refresh rebuilds the snapshot from the content store. On failure the
// previous snapshot stays installed and the error wraps ErrSourceUnavailable.
func (s *Service) Refresh(ctx context.Context) (Info, error) {
	snap, err := s.cache.Rebuild(ctx)
	if err != nil {
		return s.Info(), err
	}
	return infoOf(snap), nil
}

// Info describes the installed snapshot.
func (s *Service) Info() Info {
	snap := s.cache.Load()
	if snap == nil {
		return Info{}
	}
	return infoOf(snap)
}

// LastRefreshError returns the error of the most recent failed refresh, nil
// once a later refresh succeeds.
func (s *Service) LastRefreshError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func infoOf(snap *searchindex.Snapshot) Info {
	return Info{Loaded: true, Version: snap.Version(), Entries: snap.Len(), BuiltAt: snap.BuiltAt()}
}

// load fetches entries and every taxonomy and builds a snapshot.
func (s *Service) load(ctx context.Context) (*searchindex.Snapshot, error) {
	start := time.Now()
	snap, err := s.fetchAndBuild(ctx)

	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()

	if err != nil {
		metrics.SnapshotRefreshTotal.WithLabelValues("error").Inc()
		s.logger.Error("Catalog refresh failed",
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return nil, err
	}

	metrics.SnapshotRefreshTotal.WithLabelValues("ok").Inc()
	metrics.SnapshotEntries.Set(float64(snap.Len()))
	s.logger.Info("Catalog snapshot installed",
		zap.Uint64("version", snap.Version()),
		zap.Int("entries", snap.Len()),
		zap.Duration("duration", time.Since(start)),
	)
	return snap, nil
}

func (s *Service) fetchAndBuild(ctx context.Context) (*searchindex.Snapshot, error) {
	dims := taxonomy.All()
	termLists := make([][]taxonomy.Term, len(dims))
	var entries []domcat.Entry

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		entries, err = s.entries.FetchEntries(gctx, domcat.Statuses())
		if err != nil {
			return fmt.Errorf("fetch entries: %w", err)
		}
		return nil
	})
	for i, d := range dims {
		g.Go(func() error {
			terms, err := s.terms.FetchTaxonomy(gctx, d)
			if err != nil {
				return fmt.Errorf("fetch taxonomy %s: %w", d, err)
			}
			termLists[i] = terms
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if errors.Is(err, domain.ErrSourceUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrSourceUnavailable, err)
	}

	terms := make(map[taxonomy.Dimension][]taxonomy.Term, len(dims))
	for i, d := range dims {
		terms[d] = termLists[i]
	}

	snap, rejected := searchindex.NewSnapshot(entries, terms, s.version.Add(1), s.now().UTC())
	if len(rejected) > 0 {
		metrics.SnapshotRejectedTotal.Add(float64(len(rejected)))
		for _, r := range rejected {
			s.logger.Warn("Catalog entry adjusted at ingestion",
				zap.String("entry_id", r.EntryID),
				zap.String("reason", r.Reason),
			)
		}
	}
	return snap, nil
}

// snapshot returns the installed snapshot, loading it on first use.
func (s *Service) snapshot(ctx context.Context) (*searchindex.Snapshot, error) {
	snap, err := s.cache.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return snap, nil
}

// SearchValues decodes a flat query state and runs it. Codec warnings are
// merged into the response.
func (s *Service) SearchValues(ctx context.Context, v url.Values) (Response, error) {
	q, warns := querystate.Decode(v)
	resp, err := s.Search(ctx, q)
	if err != nil {
		return Response{}, err
	}
	for _, w := range warns {
		metrics.QueryWarningsTotal.WithLabelValues(w.Field).Inc()
	}
	resp.Warnings = append(warns, resp.Warnings...)
	return resp, nil
}

// Search runs the pipeline for q: match and facet, sort, page.
func (s *Service) Search(ctx context.Context, q query.Query) (Response, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		metrics.QueryErrorsTotal.WithLabelValues("source").Inc()
		return Response{}, err
	}

	warns := s.unknownTerms(snap, q)
	size, w := s.pageSize(q.PageSize())
	if w != nil {
		warns = append(warns, *w)
	}

	start := time.Now()
	out, err := facet.Aggregate(ctx, snap, q, facet.Options{Parallelism: s.parallelism})
	if err != nil {
		metrics.QueryErrorsTotal.WithLabelValues("canceled").Inc()
		return Response{}, fmt.Errorf("match: %w", err)
	}
	metrics.QueryStageDuration.WithLabelValues("match_facet").Observe(time.Since(start).Seconds())

	if err := ctx.Err(); err != nil {
		metrics.QueryErrorsTotal.WithLabelValues("canceled").Inc()
		return Response{}, fmt.Errorf("sort: %w", err)
	}
	start = time.Now()
	matched := match.Positions(out.Matched)
	items := order.Sort(matched, q.Sort(), snap.Entry)
	metrics.QueryStageDuration.WithLabelValues("sort").Observe(time.Since(start).Seconds())

	if err := ctx.Err(); err != nil {
		metrics.QueryErrorsTotal.WithLabelValues("canceled").Inc()
		return Response{}, fmt.Errorf("page: %w", err)
	}
	start = time.Now()
	pg, err := page.Paginate(items, page.Request{
		Sort:        q.Sort(),
		Fingerprint: querystate.Fingerprint(q),
		Size:        size,
		Cursor:      q.Cursor(),
		Offset:      q.Offset(),
	})
	if err != nil {
		metrics.QueryErrorsTotal.WithLabelValues(cursorErrorType(err)).Inc()
		return Response{}, fmt.Errorf("paginate: %w", err)
	}
	metrics.QueryStageDuration.WithLabelValues("page").Observe(time.Since(start).Seconds())
	metrics.QueryMatchedEntries.Observe(float64(len(matched)))

	entries := make([]domcat.Entry, len(pg.Items))
	for i, it := range pg.Items {
		entries[i] = *snap.Entry(it.Index)
	}

	log := logpkg.FromContext(ctx, s.logger)
	for _, w := range warns {
		metrics.QueryWarningsTotal.WithLabelValues(w.Field).Inc()
		log.Debug("Query input replaced by default",
			zap.String("field", w.Field),
			zap.String("value", w.Value),
			zap.String("reason", w.Reason),
		)
	}

	return Response{
		Items:      entries,
		Facets:     out.Facets,
		Total:      len(matched),
		NextCursor: pg.NextCursor,
		NextOffset: pg.NextOffset,
		HasMore:    pg.HasMore,
		Warnings:   warns,
		Version:    snap.Version(),
	}, nil
}

// Entry returns one entry of the installed snapshot, whatever its status.
func (s *Service) Entry(ctx context.Context, id string) (domcat.Entry, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return domcat.Entry{}, err
	}
	i, ok := snap.Lookup(id)
	if !ok {
		return domcat.Entry{}, fmt.Errorf("entry %q: %w", id, domain.ErrEntryNotFound)
	}
	return *snap.Entry(i), nil
}

// Taxonomy returns the display-ordered terms of d.
func (s *Service) Taxonomy(ctx context.Context, d taxonomy.Dimension) ([]taxonomy.Term, error) {
	if !d.IsValid() {
		return nil, fmt.Errorf("%q: %w", d, domain.ErrUnknownDimension)
	}
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return append([]taxonomy.Term(nil), snap.Terms(d)...), nil
}

// unknownTerms warns about selected ids absent from the taxonomy. They stay
// in the query and match nothing. Malformed ids are reported by the codec.
func (s *Service) unknownTerms(snap *searchindex.Snapshot, q query.Query) []query.Warning {
	var warns []query.Warning
	for _, d := range q.ConstrainedDimensions() {
		for _, id := range q.Selection(d).IDs() {
			if taxonomy.ValidID(id) && !snap.Known(d, id) {
				warns = append(warns, query.Warning{Field: string(d), Value: id, Reason: query.ReasonUnknownTerm})
			}
		}
	}
	return warns
}

func (s *Service) pageSize(requested int) (int, *query.Warning) {
	switch {
	case requested <= 0:
		return s.defaultSize, nil
	case requested > s.maxSize:
		return s.maxSize, &query.Warning{
			Field:  querystate.KeyPageSize,
			Value:  fmt.Sprint(requested),
			Reason: query.ReasonPageSizeClamped,
		}
	default:
		return requested, nil
	}
}

func cursorErrorType(err error) string {
	switch {
	case errors.Is(err, domain.ErrCursorMismatch):
		return "cursor_mismatch"
	case errors.Is(err, domain.ErrInvalidCursor):
		return "invalid_cursor"
	default:
		return "internal"
	}
}
