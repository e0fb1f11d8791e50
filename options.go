package facetdex

import (
	"go.uber.org/zap"
)

// Option configures a Client.
type Option func(*clientConfig)

type clientConfig struct {
	driver      string
	addrs       []string
	password    string
	keyPrefix   string
	filePath    string
	dsn         string
	defaultSize int
	maxSize     int
	parallelism int
	logger      *zap.Logger
}

// WithRedis reads the catalog from Redis at the given addresses.
func WithRedis(addrs ...string) Option {
	return func(c *clientConfig) {
		c.driver = "redis"
		c.addrs = addrs
	}
}

// WithPassword sets the Redis password.
func WithPassword(password string) Option {
	return func(c *clientConfig) {
		c.password = password
	}
}

// WithKeyPrefix sets the Redis key prefix (default "facetdex:").
func WithKeyPrefix(prefix string) Option {
	return func(c *clientConfig) {
		c.keyPrefix = prefix
	}
}

// WithPostgres reads the catalog from PostgreSQL.
func WithPostgres(dsn string) Option {
	return func(c *clientConfig) {
		c.driver = "postgres"
		c.dsn = dsn
	}
}

// WithFile reads the catalog from a YAML fixture.
func WithFile(path string) Option {
	return func(c *clientConfig) {
		c.driver = "file"
		c.filePath = path
	}
}

// WithPagination sets the default and maximum page sizes.
func WithPagination(defaultSize, maxSize int) Option {
	return func(c *clientConfig) {
		c.defaultSize = defaultSize
		c.maxSize = maxSize
	}
}

// WithFacetParallelism bounds concurrent facet dimension counting.
func WithFacetParallelism(n int) Option {
	return func(c *clientConfig) {
		c.parallelism = n
	}
}

// WithLogger sets the logger used for refresh and ingestion events.
func WithLogger(l *zap.Logger) Option {
	return func(c *clientConfig) {
		c.logger = l
	}
}
