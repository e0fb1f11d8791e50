package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/facetdex/internal/config"
	"github.com/kailas-cloud/facetdex/internal/db/postgres"
	dbRedis "github.com/kailas-cloud/facetdex/internal/db/redis"
	logpkg "github.com/kailas-cloud/facetdex/internal/logger"
	"github.com/kailas-cloud/facetdex/internal/metrics"
	"github.com/kailas-cloud/facetdex/internal/repository/content"
	chiTransport "github.com/kailas-cloud/facetdex/internal/transport/chi"
	kafkaTransport "github.com/kailas-cloud/facetdex/internal/transport/kafka"
	cataloguc "github.com/kailas-cloud/facetdex/internal/usecase/catalog"
	healthuc "github.com/kailas-cloud/facetdex/internal/usecase/health"
	"github.com/kailas-cloud/facetdex/internal/version"
)

// contentSource is what every content driver provides.
type contentSource interface {
	Ping(ctx context.Context) error
	cataloguc.EntrySource
	cataloguc.TaxonomySource
}

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting facetdex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("build_date", version.Date),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("content_driver", cfg.Content.Driver),
	)

	metrics.RegisterQueryMetrics()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	source, closeSource, err := openSource(ctx, cfg.Content, logger)
	if err != nil {
		logger.Fatal("Failed to open content store", zap.Error(err))
	}
	defer closeSource()

	svc := cataloguc.New(source, source, logger,
		cataloguc.WithPagination(cfg.Query.DefaultPageSize, cfg.Query.MaxPageSize),
		cataloguc.WithFacetParallelism(cfg.Query.FacetParallelism),
	)

	// Initial build; the server starts anyway and reports unhealthy until a
	// refresh succeeds.
	if info, err := svc.Refresh(ctx); err != nil {
		logger.Error("Initial catalog build failed", zap.Error(err))
	} else {
		logger.Info("Catalog loaded",
			zap.Uint64("version", info.Version),
			zap.Int("entries", info.Entries),
		)
	}

	var wg sync.WaitGroup
	runBackground(ctx, &wg, cfg, svc, logger)

	healthSvc := healthuc.New(source, svc)
	server := chiTransport.NewServer(svc, healthSvc, logger,
		chiTransport.WithQueryTimeout(time.Duration(cfg.HTTP.QueryTimeoutSec)*time.Second),
	)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.Handler(cfg.Auth.APIKeys),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	cancel()
	wg.Wait()

	logger.Info("Server stopped gracefully")
}

// openSource connects the configured content driver.
func openSource(ctx context.Context, cfg config.ContentConfig, logger *zap.Logger) (contentSource, func(), error) {
	switch cfg.Driver {
	case config.DriverRedis:
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:       cfg.Redis.Addrs,
			Username:    cfg.Redis.Username,
			Password:    cfg.Redis.Password,
			ClientName:  cfg.Redis.ClientName,
			DialTimeout: time.Duration(cfg.Redis.DialTimeoutSec) * time.Second,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("create redis store: %w", err)
		}
		if err := store.WaitForReady(ctx, time.Duration(cfg.Redis.ReadinessTimeout)*time.Second); err != nil {
			store.Close()
			return nil, nil, fmt.Errorf("redis not ready: %w", err)
		}
		logger.Info("Connected to redis", zap.Strings("addrs", cfg.Redis.Addrs))
		return content.NewRedis(store, cfg.Redis.KeyPrefix, logger), store.Close, nil

	case config.DriverPostgres:
		client, err := postgres.New(ctx, postgres.Config{
			DSN:          cfg.Postgres.DSN,
			MaxOpenConns: cfg.Postgres.MaxOpenConns,
			MaxIdleConns: cfg.Postgres.MaxIdleConns,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		repo := content.NewPostgres(client, logger)
		if err := repo.Migrate(ctx); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("migrate postgres: %w", err)
		}
		logger.Info("Connected to postgres")
		return repo, func() { _ = client.Close() }, nil

	case config.DriverFile:
		logger.Info("Reading catalog fixture", zap.String("path", cfg.File.Path))
		return content.NewFile(cfg.File.Path, logger), func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown content driver %q", cfg.Driver)
	}
}

// runBackground starts the refresh triggers enabled in cfg. Each stops when
// ctx is cancelled.
func runBackground(ctx context.Context, wg *sync.WaitGroup, cfg config.Config, svc *cataloguc.Service, logger *zap.Logger) {
	refresh := func(ctx context.Context) {
		if _, err := svc.Refresh(ctx); err != nil && ctx.Err() == nil {
			logger.Warn("Catalog refresh failed", zap.Error(err))
		}
	}

	if cfg.Content.RefreshSec > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ticker := time.NewTicker(time.Duration(cfg.Content.RefreshSec) * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					refresh(ctx)
				}
			}
		}()
	}

	if cfg.Content.Driver == config.DriverFile && cfg.Content.File.Watch {
		w := content.NewWatcher(cfg.Content.File.Path, content.DefaultDebounce, refresh, logger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := w.Run(ctx); err != nil {
				logger.Error("Fixture watcher stopped", zap.Error(err))
			}
		}()
	}

	if cfg.Events.Enabled {
		consumer := kafkaTransport.NewConsumer(kafkaTransport.Config{
			Brokers: cfg.Events.Brokers,
			Topic:   cfg.Events.Topic,
			GroupID: cfg.Events.GroupID,
		}, svc, logger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := consumer.Run(ctx); err != nil {
				logger.Error("Change event consumer stopped", zap.Error(err))
			}
		}()
	}
}
