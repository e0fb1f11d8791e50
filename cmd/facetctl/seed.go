package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/facetdex/internal/db/postgres"
	dbRedis "github.com/kailas-cloud/facetdex/internal/db/redis"
	domcat "github.com/kailas-cloud/facetdex/internal/domain/catalog"
	"github.com/kailas-cloud/facetdex/internal/domain/taxonomy"
	"github.com/kailas-cloud/facetdex/internal/repository/content"
)

var fixturePath string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load a YAML fixture into Redis or PostgreSQL",
	Long: `Write the taxonomy and entries of a YAML fixture into the store
selected with --redis or --postgres. Existing records with the same ids
are overwritten; each dimension's term list is replaced.`,
	Args: cobra.NoArgs,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().StringVar(&fixturePath, "fixture", "", "YAML fixture to load (required)")
	_ = seedCmd.MarkFlagRequired("fixture")
}

type catalogWriter interface {
	PutEntries(ctx context.Context, entries []domcat.Entry) error
	PutTaxonomy(ctx context.Context, d taxonomy.Dimension, terms []taxonomy.Term) error
}

func runSeed(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	logger, err := newLogger()
	if err != nil {
		return err
	}

	fx, err := content.ReadFixture(fixturePath, logger)
	if err != nil {
		return err
	}

	w, closeFn, err := openWriter(ctx, logger)
	if err != nil {
		return err
	}
	defer closeFn()

	if err := seed(ctx, w, fx); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "seeded %d entries, %d dimensions\n", len(fx.Entries), len(fx.Terms))
	return nil
}

func seed(ctx context.Context, w catalogWriter, fx content.Fixture) error {
	for _, d := range taxonomy.All() {
		terms, ok := fx.Terms[d]
		if !ok {
			continue
		}
		if err := w.PutTaxonomy(ctx, d, terms); err != nil {
			return fmt.Errorf("seed taxonomy %s: %w", d, err)
		}
	}
	if err := w.PutEntries(ctx, fx.Entries); err != nil {
		return fmt.Errorf("seed entries: %w", err)
	}
	return nil
}

func openWriter(ctx context.Context, logger *zap.Logger) (catalogWriter, func(), error) {
	switch {
	case redisAddrs != "" && postgresDSN != "":
		return nil, nil, errors.New("--redis and --postgres are mutually exclusive")
	case redisAddrs != "":
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:      splitAddrs(redisAddrs),
			Password:   redisPass,
			ClientName: "facetctl",
		})
		if err != nil {
			return nil, nil, fmt.Errorf("create redis store: %w", err)
		}
		if err := store.WaitForReady(ctx, 10*time.Second); err != nil {
			store.Close()
			return nil, nil, fmt.Errorf("redis not ready: %w", err)
		}
		return content.NewRedis(store, keyPrefix, logger), store.Close, nil
	case postgresDSN != "":
		client, err := postgres.New(ctx, postgres.Config{DSN: postgresDSN, MaxOpenConns: 2, MaxIdleConns: 1})
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		repo := content.NewPostgres(client, logger)
		if err := repo.Migrate(ctx); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("migrate postgres: %w", err)
		}
		return repo, func() { _ = client.Close() }, nil
	default:
		return nil, nil, errors.New("seed needs --redis or --postgres")
	}
}
