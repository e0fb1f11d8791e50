// Package facetdex is an embeddable faceted catalog query engine: filter by
// taxonomy, dates, status and text, count facets, sort and page with stable
// cursors.
package facetdex

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/facetdex/internal/db/postgres"
	dbRedis "github.com/kailas-cloud/facetdex/internal/db/redis"
	"github.com/kailas-cloud/facetdex/internal/repository/content"
	cataloguc "github.com/kailas-cloud/facetdex/internal/usecase/catalog"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultKeyPrefix        = "facetdex:"
)

// Client is the facetdex SDK entry point.
type Client struct {
	svc   *cataloguc.Service
	close func()
}

// New creates a Client over a fixed in-memory catalog. The snapshot is
// built eagerly so invalid input surfaces here.
func New(entries []Entry, terms map[Dimension][]Term, opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o(cfg)
	}

	src := newStaticSource(entries, terms)
	c := &Client{svc: newService(src, src, cfg), close: func() {}}
	if _, err := c.svc.Refresh(context.Background()); err != nil {
		return nil, fmt.Errorf("facetdex: build snapshot: %w", err)
	}
	return c, nil
}

// Open creates a Client backed by a content store selected with WithRedis,
// WithPostgres or WithFile. The first snapshot is built lazily.
func Open(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{keyPrefix: defaultKeyPrefix}
	for _, o := range opts {
		o(cfg)
	}

	switch cfg.driver {
	case "redis":
		store, err := dbRedis.NewStore(dbRedis.Config{Addrs: cfg.addrs, Password: cfg.password})
		if err != nil {
			return nil, fmt.Errorf("facetdex: create redis store: %w", err)
		}
		if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
			store.Close()
			return nil, fmt.Errorf("facetdex: database not ready: %w", err)
		}
		src := content.NewRedis(store, cfg.keyPrefix, cfg.logger)
		return &Client{svc: newService(src, src, cfg), close: store.Close}, nil
	case "postgres":
		client, err := postgres.New(ctx, postgres.Config{DSN: cfg.dsn, MaxOpenConns: 4, MaxIdleConns: 2})
		if err != nil {
			return nil, fmt.Errorf("facetdex: connect postgres: %w", err)
		}
		src := content.NewPostgres(client, cfg.logger)
		return &Client{svc: newService(src, src, cfg), close: func() { _ = client.Close() }}, nil
	case "file":
		if cfg.filePath == "" {
			return nil, errors.New("facetdex: file path required")
		}
		src := content.NewFile(cfg.filePath, cfg.logger)
		return &Client{svc: newService(src, src, cfg), close: func() {}}, nil
	case "":
		return nil, errors.New("facetdex: content store required (use WithRedis, WithPostgres or WithFile)")
	default:
		return nil, fmt.Errorf("facetdex: unknown driver %q", cfg.driver)
	}
}

func newService(entries cataloguc.EntrySource, terms cataloguc.TaxonomySource, cfg *clientConfig) *cataloguc.Service {
	var opts []cataloguc.Option
	if cfg.defaultSize > 0 || cfg.maxSize > 0 {
		opts = append(opts, cataloguc.WithPagination(cfg.defaultSize, cfg.maxSize))
	}
	if cfg.parallelism > 0 {
		opts = append(opts, cataloguc.WithFacetParallelism(cfg.parallelism))
	}
	logger := cfg.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return cataloguc.New(entries, terms, logger, opts...)
}

// Close releases store connections.
func (c *Client) Close() {
	c.close()
}

// Search evaluates a flat query state, as found in a page URL.
func (c *Client) Search(ctx context.Context, v url.Values) (Response, error) {
	resp, err := c.svc.SearchValues(ctx, v)
	if err != nil {
		return Response{}, fmt.Errorf("search: %w", err)
	}
	return resp, nil
}

// Query evaluates a typed query.
func (c *Client) Query(ctx context.Context, q Query) (Response, error) {
	resp, err := c.svc.Search(ctx, q)
	if err != nil {
		return Response{}, fmt.Errorf("query: %w", err)
	}
	return resp, nil
}

// Entry returns one entry by id, whatever its status.
func (c *Client) Entry(ctx context.Context, id string) (Entry, error) {
	e, err := c.svc.Entry(ctx, id)
	if err != nil {
		return Entry{}, fmt.Errorf("get entry: %w", err)
	}
	return e, nil
}

// Taxonomy returns the display-ordered terms of d.
func (c *Client) Taxonomy(ctx context.Context, d Dimension) ([]Term, error) {
	terms, err := c.svc.Taxonomy(ctx, d)
	if err != nil {
		return nil, fmt.Errorf("get taxonomy: %w", err)
	}
	return terms, nil
}

// Refresh rebuilds the snapshot from the content store. On failure the
// previous snapshot keeps serving.
func (c *Client) Refresh(ctx context.Context) (Info, error) {
	info, err := c.svc.Refresh(ctx)
	if err != nil {
		return Info{}, fmt.Errorf("refresh: %w", err)
	}
	return info, nil
}

// Info describes the installed snapshot.
func (c *Client) Info() Info {
	return c.svc.Info()
}
