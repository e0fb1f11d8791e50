package catalog

import (
	"context"

	domcat "github.com/kailas-cloud/facetdex/internal/domain/catalog"
	"github.com/kailas-cloud/facetdex/internal/domain/taxonomy"
)

// EntrySource fetches catalog entries from the content store.
// Returned entries must already carry dereferenced term ids.
type EntrySource interface {
	FetchEntries(ctx context.Context, statuses []domcat.Status) ([]domcat.Entry, error)
}

// TaxonomySource fetches the terms of one dimension from the content store.
type TaxonomySource interface {
	FetchTaxonomy(ctx context.Context, d taxonomy.Dimension) ([]taxonomy.Term, error)
}
