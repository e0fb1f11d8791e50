package content

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	domcat "github.com/kailas-cloud/facetdex/internal/domain/catalog"
	"github.com/kailas-cloud/facetdex/internal/domain/taxonomy"
)

// fixtureDoc is the YAML layout of a catalog file.
type fixtureDoc struct {
	Taxonomy map[string][]termDoc `yaml:"taxonomy"`
	Entries  []entryDoc           `yaml:"entries"`
}

// Fixture is a decoded catalog file.
type Fixture struct {
	Entries []domcat.Entry
	Terms   map[taxonomy.Dimension][]taxonomy.Term
}

// ReadFixture parses a YAML catalog file. Entries of every status are kept;
// invalid records are logged and skipped.
func ReadFixture(path string, logger *zap.Logger) (Fixture, error) {
	logger = nopIfNil(logger)

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Fixture{}, fmt.Errorf("read catalog %s: %w", path, err)
	}
	var doc fixtureDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Fixture{}, fmt.Errorf("parse catalog %s: %w", path, err)
	}

	f := Fixture{
		Entries: decodeEntries(doc.Entries, domcat.Statuses(), logger),
		Terms:   make(map[taxonomy.Dimension][]taxonomy.Term, len(doc.Taxonomy)),
	}
	for name, terms := range doc.Taxonomy {
		d, err := taxonomy.ParseDimension(name)
		if err != nil {
			logger.Warn("skip unknown taxonomy dimension", zap.String("dimension", name))
			continue
		}
		f.Terms[d] = decodeTerms(d, terms, logger)
	}
	return f, nil
}

// File serves the catalog from a YAML fixture. The file is re-read when its
// modification time changes.
type File struct {
	path   string
	logger *zap.Logger

	mu      sync.Mutex
	modTime int64
	size    int64
	cached  *Fixture
}

// NewFile creates a file content adapter.
func NewFile(path string, logger *zap.Logger) *File {
	return &File{path: path, logger: nopIfNil(logger)}
}

// Path returns the fixture location.
func (f *File) Path() string { return f.path }

// Ping checks that the fixture is readable.
func (f *File) Ping(_ context.Context) error {
	if _, err := os.Stat(f.path); err != nil {
		return fmt.Errorf("stat catalog: %w", err)
	}
	return nil
}

// FetchEntries returns fixture entries whose status is in statuses.
func (f *File) FetchEntries(ctx context.Context, statuses []domcat.Status) ([]domcat.Entry, error) {
	fx, err := f.load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domcat.Entry, 0, len(fx.Entries))
	for i := range fx.Entries {
		if wanted(fx.Entries[i].Status(), statuses) {
			out = append(out, fx.Entries[i])
		}
	}
	return out, nil
}

// FetchTaxonomy returns the fixture's terms for d.
func (f *File) FetchTaxonomy(ctx context.Context, d taxonomy.Dimension) ([]taxonomy.Term, error) {
	fx, err := f.load(ctx)
	if err != nil {
		return nil, err
	}
	return append([]taxonomy.Term{}, fx.Terms[d]...), nil
}

func (f *File) load(ctx context.Context) (*Fixture, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	info, err := os.Stat(f.path)
	if err != nil {
		return nil, fmt.Errorf("stat catalog: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cached != nil && info.ModTime().UnixNano() == f.modTime && info.Size() == f.size {
		return f.cached, nil
	}
	fx, err := ReadFixture(f.path, f.logger)
	if err != nil {
		return nil, err
	}
	f.cached, f.modTime, f.size = &fx, info.ModTime().UnixNano(), info.Size()
	return f.cached, nil
}
