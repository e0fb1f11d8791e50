package content

import (
	"context"
	"os"
	"testing"

	"github.com/kailas-cloud/facetdex/internal/db/postgres"
	domcat "github.com/kailas-cloud/facetdex/internal/domain/catalog"
	"github.com/kailas-cloud/facetdex/internal/domain/taxonomy"
)

// Runs against a real database when FACETDEX_TEST_POSTGRES_DSN is set.
func TestPostgres_Integration(t *testing.T) {
	dsn := os.Getenv("FACETDEX_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("FACETDEX_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()

	client, err := postgres.New(ctx, postgres.Config{DSN: dsn, MaxOpenConns: 2, MaxIdleConns: 1})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	p := NewPostgres(client, nil)
	if err := p.Migrate(ctx); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	entries := []domcat.Entry{
		sampleEntry(t, "pg-a", domcat.Published),
		sampleEntry(t, "pg-b", domcat.Archived),
	}
	if err := p.PutEntries(ctx, entries); err != nil {
		t.Fatalf("PutEntries: %v", err)
	}
	if err := p.PutTaxonomy(ctx, taxonomy.Product, sampleTerms(t)); err != nil {
		t.Fatalf("PutTaxonomy: %v", err)
	}

	got, err := p.FetchEntries(ctx, []domcat.Status{domcat.Archived})
	if err != nil {
		t.Fatalf("FetchEntries: %v", err)
	}
	found := false
	for i := range got {
		if got[i].ID() == "pg-a" {
			t.Error("published entry returned for archived filter")
		}
		found = found || got[i].ID() == "pg-b"
	}
	if !found {
		t.Error("archived entry missing")
	}

	terms, err := p.FetchTaxonomy(ctx, taxonomy.Product)
	if err != nil || len(terms) != 2 {
		t.Errorf("terms: %d, %v", len(terms), err)
	}
}
