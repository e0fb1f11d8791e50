package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func validConfig() Config {
	cfg := Config{
		HTTP:    HTTPConfig{Port: 8080},
		Content: ContentConfig{Driver: DriverFile, File: FileConfig{Path: "catalog.yaml"}},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_Valid(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_ContentDrivers(t *testing.T) {
	tests := []struct {
		name    string
		content ContentConfig
		wantErr string
	}{
		{"redis without addrs", ContentConfig{Driver: DriverRedis}, "content.redis.addrs is required"},
		{"redis ok", ContentConfig{Driver: DriverRedis, Redis: RedisConfig{Addrs: []string{"localhost:6379"}}}, ""},
		{"postgres without dsn", ContentConfig{Driver: DriverPostgres}, "content.postgres.dsn is required"},
		{"postgres ok", ContentConfig{Driver: DriverPostgres, Postgres: PostgresConfig{DSN: "postgres://x"}}, ""},
		{"file without path", ContentConfig{Driver: DriverFile}, "content.file.path is required"},
		{"unknown driver", ContentConfig{Driver: "mongo"}, `content.driver must be redis, postgres or file, got "mongo"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Content = tt.content

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || err.Error() != tt.wantErr {
				t.Errorf("unexpected error:\ngot:  %v\nwant: %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_PageSizes(t *testing.T) {
	cfg := validConfig()
	cfg.Query.DefaultPageSize = 200
	cfg.Query.MaxPageSize = 100

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when default page size exceeds max")
	}
}

func TestValidate_EventsNeedBrokers(t *testing.T) {
	cfg := validConfig()
	cfg.Events.Enabled = true

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for enabled events without brokers")
	}
	cfg.Events.Brokers = []string{"localhost:9092"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.QueryTimeoutSec != 5 {
		t.Errorf("expected QueryTimeoutSec=5, got %d", cfg.HTTP.QueryTimeoutSec)
	}
	if cfg.Content.Driver != DriverFile {
		t.Errorf("expected Driver=file, got %q", cfg.Content.Driver)
	}
	if cfg.Content.Redis.KeyPrefix != "facetdex:" {
		t.Errorf("expected KeyPrefix='facetdex:', got %q", cfg.Content.Redis.KeyPrefix)
	}
	if cfg.Query.DefaultPageSize != 20 {
		t.Errorf("expected DefaultPageSize=20, got %d", cfg.Query.DefaultPageSize)
	}
	if cfg.Query.MaxPageSize != 100 {
		t.Errorf("expected MaxPageSize=100, got %d", cfg.Query.MaxPageSize)
	}
	if cfg.Query.FacetParallelism != runtime.GOMAXPROCS(0) {
		t.Errorf("expected FacetParallelism=GOMAXPROCS, got %d", cfg.Query.FacetParallelism)
	}
	if cfg.Events.Topic != "catalog-changed" {
		t.Errorf("expected Topic='catalog-changed', got %q", cfg.Events.Topic)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:    HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 5},
		Content: ContentConfig{Driver: DriverRedis, Redis: RedisConfig{KeyPrefix: "custom:"}},
		Query:   QueryConfig{DefaultPageSize: 50, MaxPageSize: 500, FacetParallelism: 2},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 30 {
		t.Errorf("expected ReadTimeoutSec=30, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.Content.Driver != DriverRedis {
		t.Errorf("expected Driver=redis, got %q", cfg.Content.Driver)
	}
	if cfg.Content.Redis.KeyPrefix != "custom:" {
		t.Errorf("expected KeyPrefix='custom:', got %q", cfg.Content.Redis.KeyPrefix)
	}
	if cfg.Query.FacetParallelism != 2 {
		t.Errorf("expected FacetParallelism=2, got %d", cfg.Query.FacetParallelism)
	}
}

func TestLoadFile_ExpandsEnv(t *testing.T) {
	t.Setenv("FACETDEX_TEST_PORT", "9191")
	path := filepath.Join(t.TempDir(), "test.yaml")
	data := []byte(`
http:
  port: ${FACETDEX_TEST_PORT}
content:
  driver: file
  file:
    path: ${FACETDEX_TEST_MISSING:-catalog.yaml}
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.HTTP.Port != 9191 {
		t.Errorf("expected Port=9191, got %d", cfg.HTTP.Port)
	}
	if cfg.Content.File.Path != "catalog.yaml" {
		t.Errorf("expected default path, got %q", cfg.Content.File.Path)
	}
}

func TestLoad_ExplicitPathOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "override.yaml")
	data := []byte("http:\n  port: 7070\ncontent:\n  driver: file\n  file:\n    path: x.yaml\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FACETDEX_CONFIG", path)

	cfg, err := Load("no-such-env")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTP.Port != 7070 {
		t.Errorf("expected Port=7070, got %d", cfg.HTTP.Port)
	}
}

func TestLoad_MissingEnvFile(t *testing.T) {
	t.Setenv("FACETDEX_CONFIG", "")
	_, err := Load("no-such-env")
	if err == nil || !strings.Contains(err.Error(), filepath.Join("config", "no-such-env.yaml")) {
		t.Fatalf("expected read error naming the config path, got %v", err)
	}
}
