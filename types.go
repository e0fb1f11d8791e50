package facetdex

import (
	"net/url"

	"github.com/kailas-cloud/facetdex/internal/domain"
	domcat "github.com/kailas-cloud/facetdex/internal/domain/catalog"
	"github.com/kailas-cloud/facetdex/internal/domain/query"
	"github.com/kailas-cloud/facetdex/internal/domain/taxonomy"
	"github.com/kailas-cloud/facetdex/internal/engine/facet"
	"github.com/kailas-cloud/facetdex/internal/engine/querystate"
	cataloguc "github.com/kailas-cloud/facetdex/internal/usecase/catalog"
)

// Catalog types.
type (
	Entry       = domcat.Entry
	EntryParams = domcat.Params
	Status      = domcat.Status
	Term        = taxonomy.Term
	Dimension   = taxonomy.Dimension
)

// Query types.
type (
	Query        = query.Query
	SortKey      = query.SortKey
	StatusFilter = query.StatusFilter
	Warning      = query.Warning
)

// Result types.
type (
	Response   = cataloguc.Response
	FacetCount = facet.Count
	FacetSet   = facet.Result
	Info       = cataloguc.Info
)

// Statuses.
const (
	Published = domcat.Published
	Draft     = domcat.Draft
	Archived  = domcat.Archived
)

// Dimensions.
const (
	Product    = taxonomy.Product
	Team       = taxonomy.Team
	Topic      = taxonomy.Topic
	Stage      = taxonomy.Stage
	Industry   = taxonomy.Industry
	COE        = taxonomy.COE
	Competitor = taxonomy.Competitor
	Format     = taxonomy.Format
	Difficulty = taxonomy.Difficulty
	Presenter  = taxonomy.Presenter
)

// Sort keys.
const (
	SortDateDesc      = query.SortDateDesc
	SortDateAsc       = query.SortDateAsc
	SortTitle         = query.SortTitle
	SortPriority      = query.SortPriority
	SortDuration      = query.SortDuration
	SortFeaturedFirst = query.SortFeaturedFirst
)

// Errors returned by Client methods; compare with errors.Is.
var (
	ErrCursorMismatch    = domain.ErrCursorMismatch
	ErrInvalidCursor     = domain.ErrInvalidCursor
	ErrEntryNotFound     = domain.ErrEntryNotFound
	ErrUnknownDimension  = domain.ErrUnknownDimension
	ErrSourceUnavailable = domain.ErrSourceUnavailable
)

// NewEntry validates entry fields.
func NewEntry(p EntryParams) (Entry, error) { return domcat.New(p) }

// NewTerm validates a taxonomy term. order may be nil.
func NewTerm(id, name string, order *int) (Term, error) {
	return taxonomy.NewTerm(id, name, "", "", "", order)
}

// NewQuery returns an empty query: published entries, default sort.
func NewQuery() Query { return query.New() }

// EncodeQuery returns the canonical flat form of q, suitable for a URL.
func EncodeQuery(q Query) url.Values { return querystate.Encode(q) }

// DecodeQuery parses a flat query state. Malformed input yields warnings, never errors.
func DecodeQuery(v url.Values) (Query, []Warning) { return querystate.Decode(v) }
