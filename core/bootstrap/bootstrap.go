// Package bootstrap prepares the process infrastructure: logger, storage and schema.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/m3rciful/directorbot/core/config"
	coredatabase "github.com/m3rciful/directorbot/core/database"
	"github.com/m3rciful/directorbot/core/logger"
)

// Options control the bootstrap pipeline. Nil funcs use the core implementations.
type Options struct {
	Config *coreconfig.Config

	LoggerInit func(*coreconfig.Config) error
	Connect    func(coredatabase.Config) (*sqlx.DB, error)
	Migrate    func(coredatabase.Config) error

	// SkipMigrations connects without touching the schema.
	SkipMigrations bool
}

// Result exposes infrastructure initialized by the bootstrap pipeline.
type Result struct {
	DB *sqlx.DB
}

// Close releases the database handle.
func (r *Result) Close() error {
	if r == nil || r.DB == nil {
		return nil
	}
	return r.DB.Close()
}

// Run initializes the logger, connects to the database, and applies migrations.
func Run(opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("bootstrap: nil config provided")
	}
	storage := opts.Config.Storage

	loggerInit := opts.LoggerInit
	if loggerInit == nil {
		loggerInit = logger.InitLogger
	}
	if err := loggerInit(opts.Config); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	start := time.Now()
	connect := opts.Connect
	if connect == nil {
		connect = coredatabase.Connect
	}
	db, err := connect(storage)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: database initialization failed: %w", err)
	}

	if !opts.SkipMigrations {
		migrate := opts.Migrate
		if migrate == nil {
			migrate = coredatabase.RunMigrations
		}
		if err := migrate(storage); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("bootstrap: migrations failed: %w", err)
		}
	}

	logger.Info(context.Background(), logger.ComponentApp, "bootstrap.done",
		slog.String("driver", storage.Driver),
		slog.Bool("migrated", !opts.SkipMigrations),
		slog.Duration("took", logger.Took(start)),
	)
	return &Result{DB: db}, nil
}
