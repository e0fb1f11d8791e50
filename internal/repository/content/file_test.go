package content

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	domcat "github.com/kailas-cloud/facetdex/internal/domain/catalog"
	"github.com/kailas-cloud/facetdex/internal/domain/taxonomy"
)

const fixtureYAML = `
taxonomy:
  product:
    - {id: sidekick, name: Sidekick, order: 1}
    - {id: hero, name: Hero}
  colour:
    - {id: red, name: Red}
entries:
  - id: a
    title: Pricing deck
    status: published
    publish_date: 2024-01-10
    terms: {product: [sidekick]}
    values: {format: deck}
  - id: b
    title: Draft video
    status: draft
  - id: broken
    status: published
`

func writeFixture(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadFixture(t *testing.T) {
	fx, err := ReadFixture(writeFixture(t, fixtureYAML), nil)
	if err != nil {
		t.Fatalf("ReadFixture: %v", err)
	}

	var ids []string
	for i := range fx.Entries {
		ids = append(ids, fx.Entries[i].ID())
	}
	if diff := cmp.Diff([]string{"a", "b"}, ids); diff != "" {
		t.Errorf("entries (-want +got):\n%s", diff)
	}
	if _, ok := fx.Terms["colour"]; ok {
		t.Error("unknown dimension must be skipped")
	}
	if len(fx.Terms[taxonomy.Product]) != 2 {
		t.Errorf("product terms = %d", len(fx.Terms[taxonomy.Product]))
	}
	d, ok := fx.Entries[0].PublishDate()
	if !ok || !d.Equal(time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("publish date = %v", d)
	}
}

func TestReadFixture_Errors(t *testing.T) {
	if _, err := ReadFixture(filepath.Join(t.TempDir(), "missing.yaml"), nil); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := ReadFixture(writeFixture(t, "entries: [unterminated"), nil); err == nil {
		t.Error("expected error for malformed yaml")
	}
}

func TestFile_FetchAndReload(t *testing.T) {
	ctx := context.Background()
	path := writeFixture(t, fixtureYAML)
	f := NewFile(path, nil)

	if err := f.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	got, err := f.FetchEntries(ctx, []domcat.Status{domcat.Published})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID() != "a" {
		t.Fatalf("expected published entry a, got %d", len(got))
	}

	updated := fixtureYAML + `
  - id: c
    title: New entry
    status: published
`
	if err := os.WriteFile(path, []byte(updated), 0o600); err != nil {
		t.Fatal(err)
	}
	got, err = f.FetchEntries(ctx, []domcat.Status{domcat.Published})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Errorf("expected reload to pick up new entry, got %d", len(got))
	}

	terms, err := f.FetchTaxonomy(ctx, taxonomy.Team)
	if err != nil || len(terms) != 0 {
		t.Errorf("absent dimension: %v, %v", terms, err)
	}
}

func TestFile_MissingFile(t *testing.T) {
	f := NewFile(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	if err := f.Ping(context.Background()); err == nil {
		t.Error("expected ping error")
	}
	if _, err := f.FetchEntries(context.Background(), domcat.Statuses()); err == nil {
		t.Error("expected fetch error")
	}
}
