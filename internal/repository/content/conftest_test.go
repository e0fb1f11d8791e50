package content

import (
	"context"
	"testing"
	"time"

	"github.com/kailas-cloud/facetdex/internal/db"
	domcat "github.com/kailas-cloud/facetdex/internal/domain/catalog"
	"github.com/kailas-cloud/facetdex/internal/domain/taxonomy"
)

// mockKV implements kvStore over an in-memory map.
type mockKV struct {
	data    map[string][]byte
	getErr  error
	mgetErr error
	scanErr error
	setErr  error
}

func newMockKV() *mockKV { return &mockKV{data: make(map[string][]byte)} }

func (m *mockKV) Ping(_ context.Context) error { return nil }

func (m *mockKV) Get(_ context.Context, key string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *mockKV) MGet(_ context.Context, keys []string) ([][]byte, error) {
	if m.mgetErr != nil {
		return nil, m.mgetErr
	}
	out := make([][]byte, len(keys))
	for i, k := range keys {
		out[i] = m.data[k]
	}
	return out, nil
}

func (m *mockKV) Set(_ context.Context, key string, value []byte) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	return nil
}

func (m *mockKV) SetMulti(ctx context.Context, items []db.KVItem) error {
	for _, it := range items {
		if err := m.Set(ctx, it.Key, it.Value); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockKV) Del(_ context.Context, key string) error {
	delete(m.data, key)
	return nil
}

// Scan supports only trailing-* patterns.
func (m *mockKV) Scan(_ context.Context, pattern string) ([]string, error) {
	if m.scanErr != nil {
		return nil, m.scanErr
	}
	prefix := pattern[:len(pattern)-1]
	var keys []string
	for k := range m.data {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func intPtr(v int) *int { return &v }

func sampleEntry(t *testing.T, id string, status domcat.Status) domcat.Entry {
	t.Helper()
	published := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	e, err := domcat.New(domcat.Params{
		ID:           id,
		Title:        "Entry " + id,
		Description:  "desc",
		KeyTakeaways: []string{"one", "two"},
		Status:       status,
		PublishDate:  &published,
		Priority:     intPtr(70),
		Duration:     intPtr(15),
		Featured:     true,
		Terms: map[taxonomy.Dimension][]string{
			taxonomy.Product: {"sidekick", "hero"},
		},
		Values: map[taxonomy.Dimension]string{
			taxonomy.Format: "deck",
		},
	})
	if err != nil {
		t.Fatalf("sample entry: %v", err)
	}
	return e
}

func sampleTerms(t *testing.T) []taxonomy.Term {
	t.Helper()
	var out []taxonomy.Term
	for i, id := range []string{"sidekick", "hero"} {
		term, err := taxonomy.NewTerm(id, "Name "+id, "", "", "", intPtr(i))
		if err != nil {
			t.Fatal(err)
		}
		out = append(out, term)
	}
	return out
}
