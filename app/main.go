package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"example.com/gomarketplace/app/internal/config"
	domcart "example.com/gomarketplace/app/internal/domain/cart"
	"example.com/gomarketplace/app/internal/infra/persistence/memory"
	"example.com/gomarketplace/app/internal/infra/persistence/mysql"
	"example.com/gomarketplace/app/internal/infra/persistence/postgres"
	"example.com/gomarketplace/app/internal/infra/security"
	apihttp "example.com/gomarketplace/app/internal/interface/http"
	"example.com/gomarketplace/app/internal/logger"
	cartuc "example.com/gomarketplace/app/internal/usecase/cart"
)

func main() {
	cfg := config.Load()
	log := logger.New(logger.Options{Service: "cart", Env: cfg.AppEnv, Level: cfg.LogLevel, AddSource: true})
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("exit", slog.Any("err", err))
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	durable, closeDurable, err := openDurableStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeDurable()

	scope, err := cartuc.ParseClearScope(cfg.CartClearScope)
	if err != nil {
		return err
	}

	store := cartuc.NewStore(durable, cartuc.Options{
		Key:        cfg.CartKey,
		ClearScope: scope,
		Logger:     log,
	})
	store.Start(ctx)

	deps := apihttp.Dependencies{CartStore: store, Logger: log}
	if cfg.TokenSecret != "" {
		deps.TokenService = security.NewJWTService(cfg.TokenSecret, cfg.TokenTTL)
	} else {
		log.Warn("TOKEN_SECRET not set, cart API is unauthenticated")
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           apihttp.NewAPI(deps).Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("http server starting", slog.String("addr", server.Addr), slog.String("driver", cfg.StoreDriver))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown requested")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("http shutdown error", slog.Any("err", err))
		}
		if err := store.Close(shutdownCtx); err != nil {
			log.Error("cart writes not drained", slog.Any("err", err))
		}
		return nil
	})

	err = g.Wait()
	log.Info("bye")
	return err
}

func openDurableStore(ctx context.Context, cfg config.Config) (domcart.DurableStore, func(), error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		return memory.NewKVStore(), func() {}, nil
	case config.DriverMySQL:
		db, err := mysql.Open(ctx, cfg.MySQLDSN)
		if err != nil {
			return nil, nil, err
		}
		kv := mysql.NewKVStore(db, cfg.StoreNamespace)
		if err := kv.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("mysql schema: %w", err)
		}
		return kv, func() { db.Close() }, nil
	case config.DriverPostgres:
		pool, err := postgres.Open(ctx, cfg.PGDSN)
		if err != nil {
			return nil, nil, err
		}
		kv := postgres.NewKVStore(pool, cfg.StoreNamespace)
		if err := kv.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("postgres schema: %w", err)
		}
		return kv, pool.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
}
