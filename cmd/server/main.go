package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dom/worknest/internal/api"
	"github.com/dom/worknest/internal/config"
	"github.com/dom/worknest/internal/logger"
	"github.com/dom/worknest/internal/metrics"
	"github.com/dom/worknest/internal/repository/gormdb"
	"github.com/dom/worknest/internal/service"
	"github.com/dom/worknest/internal/storage"
	"github.com/spf13/pflag"
)

func main() {
	configPath := pflag.StringP("config", "c", "config.yaml", "path to the YAML config file")
	skipMigrate := pflag.Bool("skip-migrate", false, "do not apply pending migrations on startup")
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	logger.Init(cfg.Log.Level, cfg.Log.Format)

	m := metrics.New()

	// Initialize database
	pool, err := gormdb.Open(gormdb.Options{
		Driver:         cfg.Database.Driver,
		DSN:            cfg.Database.DSN,
		PoolSize:       cfg.Database.PoolSize,
		AcquireTimeout: cfg.Database.AcquireTimeout,
		Logger:         logger.NewGormLogger(cfg.Database.SlowQuery),
		Observer:       m,
	})
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.Database.Driver).Msg("failed to connect to database")
	}
	defer pool.Close()
	m.SetPoolSize(pool.Size())

	if !*skipMigrate {
		if err := pool.Migrate(context.Background()); err != nil {
			logger.Fatal().Err(err).Msg("failed to run migrations")
		}
	}

	files, err := storage.NewLocalStore(cfg.Upload.Dir)
	if err != nil {
		logger.Fatal().Err(err).Str("dir", cfg.Upload.Dir).Msg("failed to open upload directory")
	}

	repos := gormdb.NewRepositories(pool)
	services, err := service.NewServices(repos, cfg, files)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build services")
	}

	router := api.NewRouter(services, cfg, pool, m)

	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info().
			Str("port", cfg.Server.Port).
			Str("environment", cfg.Server.Environment).
			Str("driver", cfg.Database.Driver).
			Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("server stopped")
}
