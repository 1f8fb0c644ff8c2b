package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/m3rciful/bookbot/core/logger"
)

// Connect opens the PostgreSQL pool and verifies connectivity.
func Connect(ctx context.Context, cfg Config) (*sqlx.DB, error) {
	cfg = cfg.WithDefaults()
	target := []slog.Attr{
		slog.String("driver", "postgres"),
		slog.String("host", cfg.Host),
		slog.String("port", cfg.Port),
		slog.String("db", cfg.Name),
	}

	if err := WaitForPostgres(ctx, cfg.DSN(), 30*time.Second); err != nil {
		logger.LogEvent(ctx, logger.DB, slog.LevelError, "db.wait", append(target, logger.Err(err))...)
		return nil, fmt.Errorf("database not ready: %w", err)
	}

	connCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	start := time.Now()
	db, err := sqlx.ConnectContext(connCtx, "postgres", cfg.DSN())
	took := logger.Took(start)
	if err != nil {
		logger.LogEvent(ctx, logger.DB, slog.LevelError, "db.connect",
			append(target, slog.Duration("duration", took), logger.Err(err))...)
		return nil, fmt.Errorf("db connect: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxConnections)

	logger.LogEvent(ctx, logger.DB, slog.LevelInfo, "db.connect",
		append(target,
			slog.String("status", "ok"),
			slog.Int("pool_open", cfg.MaxConnections),
			slog.Duration("duration", took),
		)...)
	return db, nil
}

// WaitForPostgres pings dsn every two seconds until it answers or timeout elapses.
func WaitForPostgres(ctx context.Context, dsn string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
	for {
		db, err := sqlx.Open("postgres", dsn)
		if err == nil {
			err = db.PingContext(ctx)
			_ = db.Close()
			if err == nil {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for database: %w", err)
		case <-ticker.C:
		}
	}
}
