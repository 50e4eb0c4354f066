package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dom/worknest/internal/config"
	"github.com/dom/worknest/internal/logger"
	"github.com/dom/worknest/internal/repository/gormdb"
	"github.com/spf13/pflag"
)

const usage = `worknest-migrate applies and inspects schema migrations.

USAGE:
  migrate [--config path] <command>

COMMANDS:
  up      apply every pending migration
  status  list applied and pending migrations

ENVIRONMENT:
  DB_DRIVER, DB_DSN override the config file.
`

func main() {
	configPath := pflag.StringP("config", "c", "config.yaml", "path to the YAML config file")
	timeout := pflag.Duration("timeout", 5*time.Minute, "give up after this long")
	pflag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		pflag.PrintDefaults()
	}
	pflag.Parse()

	if pflag.NArg() != 1 {
		pflag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Read(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Database.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid database config")
	}
	logger.Init(cfg.Log.Level, "console")

	pool, err := gormdb.Open(gormdb.Options{
		Driver:         cfg.Database.Driver,
		DSN:            cfg.Database.DSN,
		PoolSize:       1,
		AcquireTimeout: *timeout,
		Logger:         logger.NewGormLogger(cfg.Database.SlowQuery),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	switch cmd := pflag.Arg(0); cmd {
	case "up":
		err = up(ctx, pool)
	case "status":
		err = status(ctx, pool)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", cmd)
		pflag.Usage()
		os.Exit(2)
	}
	if err != nil {
		logger.Error().Err(err).Msg("migration command failed")
		os.Exit(1)
	}
}

func up(ctx context.Context, pool *gormdb.Pool) error {
	pending, err := pool.Pending(ctx)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		logger.Info().Msg("schema is up to date")
		return nil
	}
	return pool.Migrate(ctx)
}

func status(ctx context.Context, pool *gormdb.Pool) error {
	applied, err := pool.Status(ctx)
	if err != nil {
		return err
	}
	pending, err := pool.Pending(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "VERSION\tNAME\tAPPLIED")
	for _, a := range applied {
		fmt.Fprintf(w, "%d\t%s\t%s\n", a.Version, a.Name, a.AppliedAt.Format(time.RFC3339))
	}
	for _, p := range pending {
		fmt.Fprintf(w, "%d\t%s\tpending\n", p.Version, p.Name)
	}
	return w.Flush()
}
