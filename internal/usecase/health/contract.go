package health

import (
	"context"

	"github.com/kailas-cloud/facetdex/internal/usecase/catalog"
)

// SourcePinger checks content store availability.
type SourcePinger interface {
	Ping(ctx context.Context) error
}

// CatalogInfo reports the state of the catalog snapshot.
type CatalogInfo interface {
	Info() catalog.Info
	LastRefreshError() error
}
