package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"rental/cache"
	"rental/config"
	"rental/db"
	"rental/house"
	"rental/migrations"
	"rental/platform/logger"
	"rental/platform/metrics"
	"rental/thirdparty"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	zl, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, zl.With(zap.String("service", cfg.ServiceName))); err != nil {
		zl.Fatal("service stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, zl *zap.Logger) error {
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, db.PoolOptions{
		MaxConns:        cfg.DBMaxConns,
		MaxConnLifetime: cfg.DBMaxConnLife,
		MaxConnIdleTime: cfg.DBMaxConnIdle,
	})
	if err != nil {
		return fmt.Errorf("bootstrap database pool: %w", err)
	}
	defer pool.Close()

	if cfg.DBAutoMigrate {
		applied, err := migrations.Apply(ctx, pool)
		if err != nil {
			return err
		}
		zl.Info("schema migrated", zap.Strings("applied", applied))
	}

	mapper := house.NewMapper(loc)
	var store house.Store = house.NewRepository(pool, mapper)

	if cfg.RedisAddr != "" {
		rdb, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return err
		}
		defer rdb.Close()
		store = cache.NewStore(store, rdb, cfg.CacheTTL, zl)
		zl.Info("house cache enabled", zap.String("addr", cfg.RedisAddr), zap.Duration("ttl", cfg.CacheTTL))
	}

	publisher, closePublisher, err := newPublisher(cfg, zl)
	if err != nil {
		return err
	}
	defer closePublisher()

	m := metrics.NewManager(cfg.ServiceName)
	svc := house.NewService(store, publisher, house.Options{
		Mapper:      mapper,
		Logger:      zl.Named("house"),
		Recorder:    m,
		SyncTimeout: cfg.SyncTimeout,
	})

	srv := newServer(svc, serverOptions{
		Health:            pool.Ping,
		Metrics:           m,
		Logger:            zl.Named("http"),
		Location:          loc,
		LegacyFoundStatus: cfg.LegacyFoundStatus,
	})

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zl.Info("http server listening", zap.String("addr", cfg.HTTPAddr), zap.String("sync_mode", cfg.SyncMode))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	zl.Info("shutting down", zap.Duration("timeout", cfg.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

func newPublisher(cfg *config.Config, zl *zap.Logger) (house.Publisher, func(), error) {
	switch cfg.SyncMode {
	case config.SyncModeNATS:
		client, err := thirdparty.ConnectNATS(cfg.NATSURL, cfg.SyncSubject, cfg.ServiceName, zl)
		if err != nil {
			return nil, nil, err
		}
		return client, client.Close, nil
	case config.SyncModeNone:
		zl.Warn("remote sync disabled, every listing is accepted locally")
		return thirdparty.Noop{}, func() {}, nil
	default:
		client := thirdparty.NewHTTPClient(cfg.SyncBaseURL, &http.Client{Timeout: cfg.SyncTimeout}, zl)
		return client, func() {}, nil
	}
}
