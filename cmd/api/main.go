package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"todoapp/internal/app"
	"todoapp/internal/config"
	"todoapp/internal/logging"
	"todoapp/internal/store"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger, closeLog, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger setup failed: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()
	log.Logger = logger

	ctx := context.Background()

	dataStore, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("store", cfg.Store).Msg("store setup failed")
	}
	defer closeStore()
	log.Info().Str("store", cfg.Store).Msg("using item store")

	service := app.New(cfg, dataStore)

	seed, err := config.LoadSeed(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("seed load failed")
	}
	if err := service.Bootstrap(ctx, seed); err != nil {
		log.Warn().Err(err).Msg("bootstrap error")
	}

	httpServer := app.NewHTTPServer(service, cfg.CORSOrigin)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("todo API listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	}
}

// openStore builds the configured backend. SQL backends are migrated before
// use.
func openStore(ctx context.Context, cfg config.Config) (store.Store, func(), error) {
	noop := func() {}

	switch cfg.Store {
	case config.StoreMemory:
		return store.NewMemory(), noop, nil

	case config.StoreRedis:
		redisStore, err := store.NewRedisStore(cfg.RedisURL)
		if err != nil {
			return nil, noop, err
		}
		return redisStore, func() { _ = redisStore.Close() }, nil

	case config.StorePostgres, config.StoreSQLite:
		dialect, dsn := store.DialectPostgres, cfg.DatabaseURL
		if cfg.Store == config.StoreSQLite {
			dialect, dsn = store.DialectSQLite, cfg.SQLitePath
		}

		db, err := store.Open(ctx, dialect, dsn)
		if err != nil {
			return nil, noop, err
		}
		closeDB := func() { _ = db.Close() }

		migrations, err := migrationsFor(dialect, cfg.MigrationsDir)
		if err != nil {
			closeDB()
			return nil, noop, err
		}
		if err := store.ApplyMigrations(ctx, db, migrations); err != nil {
			closeDB()
			return nil, noop, fmt.Errorf("migrations failed: %w", err)
		}
		return store.NewSQLStore(db), closeDB, nil
	}

	return nil, noop, fmt.Errorf("unknown store %q", cfg.Store)
}

func migrationsFor(dialect store.Dialect, dir string) (fs.FS, error) {
	if dir != "" {
		return os.DirFS(dir), nil
	}
	return store.Migrations(dialect)
}
