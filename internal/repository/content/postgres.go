package content

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/kailas-cloud/facetdex/internal/db"
	domcat "github.com/kailas-cloud/facetdex/internal/domain/catalog"
	"github.com/kailas-cloud/facetdex/internal/domain/taxonomy"
)

// Schema creates the content tables when missing.
const Schema = `
CREATE TABLE IF NOT EXISTS catalog_entries (
	id     TEXT PRIMARY KEY,
	status TEXT NOT NULL,
	doc    JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS catalog_entries_status_idx ON catalog_entries (status);
CREATE TABLE IF NOT EXISTS taxonomy_terms (
	dimension TEXT NOT NULL,
	id        TEXT NOT NULL,
	doc       JSONB NOT NULL,
	PRIMARY KEY (dimension, id)
);`

const (
	selectEntries = `SELECT doc FROM catalog_entries WHERE status = ANY($1) ORDER BY id`
	selectTerms   = `SELECT doc FROM taxonomy_terms WHERE dimension = $1 ORDER BY id`
	upsertEntry   = `INSERT INTO catalog_entries (id, status, doc) VALUES ($1, $2, $3)
ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status, doc = EXCLUDED.doc`
	deleteTerms = `DELETE FROM taxonomy_terms WHERE dimension = $1`
	insertTerm  = `INSERT INTO taxonomy_terms (dimension, id, doc) VALUES ($1, $2, $3)`
)

// sqlClient is the consumer interface for the Postgres adapter (ISP).
type sqlClient interface {
	Ping(ctx context.Context) error
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	InTx(ctx context.Context, fn func(tx *sql.Tx) error) error
}

// Postgres reads the catalog from PostgreSQL JSONB documents.
type Postgres struct {
	client sqlClient
	logger *zap.Logger
}

// NewPostgres creates a Postgres content adapter.
func NewPostgres(c sqlClient, logger *zap.Logger) *Postgres {
	return &Postgres{client: c, logger: nopIfNil(logger)}
}

// Ping checks database connectivity.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.client.Ping(ctx)
}

// Migrate applies Schema.
func (p *Postgres) Migrate(ctx context.Context) error {
	return p.client.InTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, Schema); err != nil {
			return &db.Error{Op: db.OpQuery, Err: err}
		}
		return nil
	})
}

// FetchEntries loads entries whose status is in statuses.
func (p *Postgres) FetchEntries(ctx context.Context, statuses []domcat.Status) ([]domcat.Entry, error) {
	names := make([]string, len(statuses))
	for i, s := range statuses {
		names[i] = string(s)
	}

	docs, err := queryDocs[entryDoc](ctx, p.client, selectEntries, pq.Array(names))
	if err != nil {
		return nil, fmt.Errorf("fetch entries: %w", err)
	}
	return decodeEntries(docs, statuses, p.logger), nil
}

// FetchTaxonomy loads one dimension's terms.
func (p *Postgres) FetchTaxonomy(ctx context.Context, d taxonomy.Dimension) ([]taxonomy.Term, error) {
	docs, err := queryDocs[termDoc](ctx, p.client, selectTerms, string(d))
	if err != nil {
		return nil, fmt.Errorf("fetch taxonomy %s: %w", d, err)
	}
	return decodeTerms(d, docs, p.logger), nil
}

// PutEntries upserts entries in one transaction.
func (p *Postgres) PutEntries(ctx context.Context, entries []domcat.Entry) error {
	return p.client.InTx(ctx, func(tx *sql.Tx) error {
		for i := range entries {
			data, err := json.Marshal(entryToDoc(&entries[i]))
			if err != nil {
				return fmt.Errorf("marshal entry %s: %w", entries[i].ID(), err)
			}
			if _, err := tx.ExecContext(ctx, upsertEntry, entries[i].ID(), string(entries[i].Status()), data); err != nil {
				return &db.Error{Op: db.OpSet, Err: err}
			}
		}
		return nil
	})
}

// PutTaxonomy replaces the terms of one dimension in one transaction.
func (p *Postgres) PutTaxonomy(ctx context.Context, d taxonomy.Dimension, terms []taxonomy.Term) error {
	return p.client.InTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, deleteTerms, string(d)); err != nil {
			return &db.Error{Op: db.OpDel, Err: err}
		}
		for _, t := range terms {
			data, err := json.Marshal(termToDoc(t))
			if err != nil {
				return fmt.Errorf("marshal term %s: %w", t.ID(), err)
			}
			if _, err := tx.ExecContext(ctx, insertTerm, string(d), t.ID(), data); err != nil {
				return &db.Error{Op: db.OpSet, Err: err}
			}
		}
		return nil
	})
}

// queryDocs runs a single-column JSONB query and decodes every row into T.
func queryDocs[T any](ctx context.Context, c sqlClient, query string, args ...any) ([]T, error) {
	rows, err := c.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &db.Error{Op: db.OpQuery, Err: err}
	}
	defer func() { _ = rows.Close() }()

	var out []T
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, &db.Error{Op: db.OpQuery, Err: err}
		}
		var doc T
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("decode row: %w", err)
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, &db.Error{Op: db.OpQuery, Err: err}
	}
	return out, nil
}
