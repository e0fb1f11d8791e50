package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/facetdex/internal/db"
	domcat "github.com/kailas-cloud/facetdex/internal/domain/catalog"
	"github.com/kailas-cloud/facetdex/internal/domain/taxonomy"
)

// kvStore is the consumer interface for the Redis adapter (ISP).
type kvStore interface {
	Ping(ctx context.Context) error
	Get(ctx context.Context, key string) ([]byte, error)
	MGet(ctx context.Context, keys []string) ([][]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetMulti(ctx context.Context, items []db.KVItem) error
	Del(ctx context.Context, key string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Redis reads the catalog from Redis/Valkey. Entries live as JSON strings
// under <prefix>entry:<id>, each dimension's terms as a JSON array under
// <prefix>taxonomy:<dimension>.
type Redis struct {
	store  kvStore
	prefix string
	logger *zap.Logger
}

// NewRedis creates a Redis content adapter.
func NewRedis(s kvStore, prefix string, logger *zap.Logger) *Redis {
	return &Redis{store: s, prefix: prefix, logger: nopIfNil(logger)}
}

func (r *Redis) entryKey(id string) string { return r.prefix + "entry:" + id }

func (r *Redis) taxonomyKey(d taxonomy.Dimension) string { return r.prefix + "taxonomy:" + string(d) }

// Ping checks store connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	return r.store.Ping(ctx)
}

// FetchEntries scans entry keys and loads them with pipelined MGET.
func (r *Redis) FetchEntries(ctx context.Context, statuses []domcat.Status) ([]domcat.Entry, error) {
	keys, err := r.store.Scan(ctx, r.entryKey("*"))
	if err != nil {
		return nil, fmt.Errorf("scan entries: %w", err)
	}
	if len(keys) == 0 {
		return []domcat.Entry{}, nil
	}

	values, err := r.store.MGet(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("load entries: %w", err)
	}

	docs := make([]entryDoc, 0, len(values))
	for i, raw := range values {
		if raw == nil {
			continue // deleted between SCAN and MGET
		}
		var d entryDoc
		if err := json.Unmarshal(raw, &d); err != nil {
			r.logger.Warn("skip undecodable entry", zap.String("key", keys[i]), zap.Error(err))
			continue
		}
		if d.ID == "" {
			d.ID = strings.TrimPrefix(keys[i], r.entryKey(""))
		}
		docs = append(docs, d)
	}
	return decodeEntries(docs, statuses, r.logger), nil
}

// FetchTaxonomy loads one dimension's terms. A missing key yields no terms.
func (r *Redis) FetchTaxonomy(ctx context.Context, d taxonomy.Dimension) ([]taxonomy.Term, error) {
	raw, err := r.store.Get(ctx, r.taxonomyKey(d))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return []taxonomy.Term{}, nil
		}
		return nil, fmt.Errorf("get taxonomy %s: %w", d, err)
	}
	var docs []termDoc
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, fmt.Errorf("decode taxonomy %s: %w", d, err)
	}
	return decodeTerms(d, docs, r.logger), nil
}

// PutEntries writes entries in one pipeline.
func (r *Redis) PutEntries(ctx context.Context, entries []domcat.Entry) error {
	items := make([]db.KVItem, len(entries))
	for i := range entries {
		data, err := json.Marshal(entryToDoc(&entries[i]))
		if err != nil {
			return fmt.Errorf("marshal entry %s: %w", entries[i].ID(), err)
		}
		items[i] = db.KVItem{Key: r.entryKey(entries[i].ID()), Value: data}
	}
	if err := r.store.SetMulti(ctx, items); err != nil {
		return fmt.Errorf("put entries: %w", err)
	}
	return nil
}

// PutTaxonomy replaces the terms of one dimension.
func (r *Redis) PutTaxonomy(ctx context.Context, d taxonomy.Dimension, terms []taxonomy.Term) error {
	docs := make([]termDoc, len(terms))
	for i, t := range terms {
		docs[i] = termToDoc(t)
	}
	data, err := json.Marshal(docs)
	if err != nil {
		return fmt.Errorf("marshal taxonomy %s: %w", d, err)
	}
	if err := r.store.Set(ctx, r.taxonomyKey(d), data); err != nil {
		return fmt.Errorf("put taxonomy %s: %w", d, err)
	}
	return nil
}

// DeleteEntry removes a single entry.
func (r *Redis) DeleteEntry(ctx context.Context, id string) error {
	if err := r.store.Del(ctx, r.entryKey(id)); err != nil {
		return fmt.Errorf("delete entry %s: %w", id, err)
	}
	return nil
}
