package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/m3rciful/bookbot/core/config"
	coredatabase "github.com/m3rciful/bookbot/core/database"
	"github.com/m3rciful/bookbot/core/logger"
)

// Options control the bootstrap pipeline. Nil hooks fall back to the core implementations.
type Options struct {
	Config   *coreconfig.Config
	Database coredatabase.Config
	Seeders  []Seeder

	LoggerInit func(*coreconfig.Config) error
	Connect    func(context.Context, coredatabase.Config) (*sqlx.DB, error)
	Migrate    func(context.Context, coredatabase.Config) error
}

// Result exposes infrastructure initialized by the bootstrap pipeline.
type Result struct {
	DB *sqlx.DB
}

// Run initializes the logger, connects to the database, applies migrations and runs seeders.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, errors.New("bootstrap: nil config provided")
	}

	loggerInit := opts.LoggerInit
	if loggerInit == nil {
		loggerInit = logger.InitLogger
	}
	if err := loggerInit(opts.Config); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	connect := opts.Connect
	if connect == nil {
		connect = coredatabase.Connect
	}
	db, err := connect(ctx, opts.Database)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: database initialization failed: %w", err)
	}

	migrate := opts.Migrate
	if migrate == nil {
		migrate = coredatabase.RunMigrations
	}
	if err := migrate(ctx, opts.Database); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: migrations failed: %w", err)
	}

	if err := runSeeders(ctx, db, opts.Seeders); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Result{DB: db}, nil
}

func runSeeders(ctx context.Context, db *sqlx.DB, seeders []Seeder) error {
	for _, s := range seeders {
		if s == nil {
			continue
		}
		start := time.Now()
		if err := s.Seed(ctx, db); err != nil {
			logger.LogEvent(ctx, logger.SEED, slog.LevelError, "db.seed",
				slog.String("status", "fail"),
				slog.String("op", s.Name()),
				logger.Err(err),
			)
			return fmt.Errorf("bootstrap: seeder %s failed: %w", s.Name(), err)
		}
		logger.LogEvent(ctx, logger.SEED, slog.LevelInfo, "db.seed",
			slog.String("status", "ok"),
			slog.String("op", s.Name()),
			slog.Duration("duration", logger.Took(start)),
		)
	}
	return nil
}
