// Command facetctl queries and seeds facetdex catalogs from the shell.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/facetdex"
	logpkg "github.com/kailas-cloud/facetdex/internal/logger"
	"github.com/kailas-cloud/facetdex/internal/version"
)

var (
	catalogFile string
	redisAddrs  string
	redisPass   string
	keyPrefix   string
	postgresDSN string
	logLevel    string
)

var rootCmd = &cobra.Command{
	Use:   "facetctl",
	Short: "Query and seed facetdex catalogs",
	Long: `facetctl runs catalog queries against a content store and loads
YAML fixtures into Redis or PostgreSQL.

Pick exactly one store with --file, --redis or --postgres.`,
	Version:      version.String(),
	SilenceUsage: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&catalogFile, "file", "", "YAML catalog fixture")
	pf.StringVar(&redisAddrs, "redis", "", "comma-separated Redis addresses")
	pf.StringVar(&redisPass, "redis-password", "", "Redis password")
	pf.StringVar(&keyPrefix, "prefix", "facetdex:", "Redis key prefix")
	pf.StringVar(&postgresDSN, "postgres", "", "PostgreSQL DSN")
	pf.StringVar(&logLevel, "log-level", "warn", "log level: debug, info, warn, error")

	rootCmd.AddCommand(queryCmd, seedCmd, encodeCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger() (*zap.Logger, error) {
	return logpkg.NewLogger("local", logLevel)
}

// storeOptions turns the store flags into client options.
func storeOptions(logger *zap.Logger) ([]facetdex.Option, error) {
	var opts []facetdex.Option
	set := 0
	if catalogFile != "" {
		opts = append(opts, facetdex.WithFile(catalogFile))
		set++
	}
	if redisAddrs != "" {
		opts = append(opts,
			facetdex.WithRedis(splitAddrs(redisAddrs)...),
			facetdex.WithPassword(redisPass),
			facetdex.WithKeyPrefix(keyPrefix),
		)
		set++
	}
	if postgresDSN != "" {
		opts = append(opts, facetdex.WithPostgres(postgresDSN))
		set++
	}
	switch set {
	case 0:
		return nil, errors.New("one of --file, --redis or --postgres is required")
	case 1:
	default:
		return nil, errors.New("--file, --redis and --postgres are mutually exclusive")
	}
	return append(opts, facetdex.WithLogger(logger)), nil
}

func splitAddrs(s string) []string {
	var out []string
	for _, a := range strings.Split(s, ",") {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}

func openClient(ctx context.Context) (*facetdex.Client, error) {
	logger, err := newLogger()
	if err != nil {
		return nil, err
	}
	opts, err := storeOptions(logger)
	if err != nil {
		return nil, err
	}
	c, err := facetdex.Open(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	return c, nil
}
