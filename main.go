package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	domorder "example.com/ddd-order/internal/domain/order"
	"example.com/ddd-order/internal/infra/config"
	"example.com/ddd-order/internal/infra/logger"
	"example.com/ddd-order/internal/infra/persistence/memory"
	"example.com/ddd-order/internal/infra/persistence/redisstore"
	"example.com/ddd-order/internal/infra/persistence/sqldb"
	httpapi "example.com/ddd-order/internal/interface/http"
	orderuc "example.com/ddd-order/internal/usecase/order"
)

const (
	storeConnectTimeout = 10 * time.Second
	readHeaderTimeout   = 3 * time.Second
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logg, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = logg.Sync() }()
	logg = logg.With(zap.String("app", cfg.App.Name), zap.String("env", cfg.App.Env))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	defer func() {
		if err := closeStore.Close(); err != nil {
			logg.Warn("close store", zap.Error(err))
		}
	}()
	logg.Info("store ready", zap.String("driver", cfg.Store.Driver))

	deps := httpapi.Dependencies{
		OrderService: orderuc.NewService(repo, orderuc.NewClockIDGenerator(), logg),
		Logger:       logg,
	}
	if p, ok := repo.(httpapi.Pinger); ok {
		deps.Store = p
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           httpapi.NewAPI(deps).Router(),
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logg.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logg.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// openStore builds the repository selected by STORE_DRIVER. The returned
// closer releases its connections.
func openStore(ctx context.Context, cfg *config.Config) (domorder.Repository, io.Closer, error) {
	ctx, cancel := context.WithTimeout(ctx, storeConnectTimeout)
	defer cancel()

	switch cfg.Store.Driver {
	case config.DriverMySQL, config.DriverPostgres:
		dialect, err := sqldb.DialectFor(cfg.Store.Driver)
		if err != nil {
			return nil, nil, err
		}
		dsn := cfg.Store.MySQLDSN
		if dialect.Name == sqldb.Postgres.Name {
			dsn = cfg.Store.PostgresDSN
		}
		db, err := sqldb.Open(ctx, dialect, dsn)
		if err != nil {
			return nil, nil, err
		}
		if err := sqldb.Migrate(ctx, db, dialect); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return sqldb.NewOrderRepository(db, dialect), db, nil
	case config.DriverRedis:
		repo, err := redisstore.New(ctx, redisstore.Config{
			Addr:      cfg.Redis.Addr,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			KeyPrefix: cfg.Redis.Prefix,
		})
		if err != nil {
			return nil, nil, err
		}
		return repo, repo, nil
	default:
		return memory.NewOrderRepository(), closerFunc(func() error { return nil }), nil
	}
}
