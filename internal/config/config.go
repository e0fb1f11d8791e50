package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Content drivers.
const (
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
	DriverFile     = "file"
)

// Config holds the facetdex service configuration.
type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	Content ContentConfig `yaml:"content"`
	Query   QueryConfig   `yaml:"query"`
	Events  EventsConfig  `yaml:"events"`
	Auth    AuthConfig    `yaml:"auth"`
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API keys guarding the admin routes.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
	QueryTimeoutSec int `yaml:"query_timeout_sec"`
}

// ContentConfig selects and configures the content store.
type ContentConfig struct {
	Driver     string         `yaml:"driver"` // redis, postgres, file (default: file)
	Redis      RedisConfig    `yaml:"redis"`
	Postgres   PostgresConfig `yaml:"postgres"`
	File       FileConfig     `yaml:"file"`
	RefreshSec int            `yaml:"refresh_interval_sec"` // 0 = no periodic refresh
}

// RedisConfig holds Redis/Valkey connection settings.
type RedisConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	ClientName       string   `yaml:"client_name"`
	KeyPrefix        string   `yaml:"key_prefix"`
	DialTimeoutSec   int      `yaml:"dial_timeout_sec"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// PostgresConfig holds PostgreSQL connection settings.
type PostgresConfig struct {
	DSN          string `yaml:"dsn"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

// FileConfig points at a YAML catalog fixture.
type FileConfig struct {
	Path  string `yaml:"path"`
	Watch bool   `yaml:"watch"`
}

// QueryConfig holds paging and facet settings.
type QueryConfig struct {
	DefaultPageSize  int `yaml:"default_page_size"`
	MaxPageSize      int `yaml:"max_page_size"`
	FacetParallelism int `yaml:"facet_parallelism"`
}

// EventsConfig holds the catalog change notification consumer settings.
type EventsConfig struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
	GroupID string   `yaml:"group_id"`
}

// configEnvVar overrides the per-environment lookup with an explicit path.
const configEnvVar = "FACETDEX_CONFIG"

// Load reads the configuration for env (local, dev, prod). FACETDEX_CONFIG,
// when set, names the file directly.
func Load(env string) (Config, error) {
	if path := os.Getenv(configEnvVar); path != "" {
		return LoadFile(path)
	}
	return LoadFile(findConfigPath(env))
}

// LoadFile reads, expands, defaults and validates one YAML config file.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(expandEnvVars(data), &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config %s: %w", configPath, err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", configPath, err)
	}
	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.HTTP.QueryTimeoutSec <= 0 {
		c.HTTP.QueryTimeoutSec = 5
	}
	if c.Content.Driver == "" {
		c.Content.Driver = DriverFile
	}
	if c.Content.Redis.KeyPrefix == "" {
		c.Content.Redis.KeyPrefix = "facetdex:"
	}
	if c.Content.Redis.DialTimeoutSec <= 0 {
		c.Content.Redis.DialTimeoutSec = 5
	}
	if c.Content.Redis.ReadinessTimeout <= 0 {
		c.Content.Redis.ReadinessTimeout = 10
	}
	if c.Content.Postgres.MaxOpenConns <= 0 {
		c.Content.Postgres.MaxOpenConns = 10
	}
	if c.Content.Postgres.MaxIdleConns <= 0 {
		c.Content.Postgres.MaxIdleConns = 5
	}
	if c.Query.DefaultPageSize <= 0 {
		c.Query.DefaultPageSize = 20
	}
	if c.Query.MaxPageSize <= 0 {
		c.Query.MaxPageSize = 100
	}
	if c.Query.FacetParallelism <= 0 {
		c.Query.FacetParallelism = runtime.GOMAXPROCS(0)
	}
	if c.Events.Topic == "" {
		c.Events.Topic = "catalog-changed"
	}
	if c.Events.GroupID == "" {
		c.Events.GroupID = "facetdex"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Content.Driver {
	case DriverRedis:
		if len(c.Content.Redis.Addrs) == 0 {
			return fmt.Errorf("content.redis.addrs is required")
		}
	case DriverPostgres:
		if c.Content.Postgres.DSN == "" {
			return fmt.Errorf("content.postgres.dsn is required")
		}
	case DriverFile:
		if c.Content.File.Path == "" {
			return fmt.Errorf("content.file.path is required")
		}
	default:
		return fmt.Errorf("content.driver must be redis, postgres or file, got %q", c.Content.Driver)
	}
	if c.Query.DefaultPageSize > c.Query.MaxPageSize {
		return fmt.Errorf(
			"query.default_page_size (%d) must not exceed query.max_page_size (%d)",
			c.Query.DefaultPageSize, c.Query.MaxPageSize,
		)
	}
	if c.Events.Enabled && len(c.Events.Brokers) == 0 {
		return fmt.Errorf("events.brokers is required when events are enabled")
	}
	return nil
}

// findConfigPath looks for config/<env>.yaml under the working directory,
// then under the module root. The first candidate is returned when neither
// exists so the read error names a sensible path.
func findConfigPath(env string) string {
	name := filepath.Join("config", env+".yaml")

	_, src, _, _ := runtime.Caller(0)
	root := filepath.Dir(filepath.Dir(filepath.Dir(src)))

	for _, path := range []string{name, filepath.Join(root, name)} {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return name
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
