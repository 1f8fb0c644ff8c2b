package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/m3rciful/bookbot/core/logger"
)

// RunMigrations applies every pending up migration from cfg.MigrationsDir.
func RunMigrations(ctx context.Context, cfg Config) error {
	cfg = cfg.WithDefaults()

	dir, err := filepath.Abs(cfg.MigrationsDir)
	if err != nil {
		return fmt.Errorf("resolve migrations dir: %w", err)
	}
	files := listMigrationFiles(dir)
	preview, truncated := logger.SummarizeStrings(files, 6)
	logger.LogEvent(ctx, logger.MIG, slog.LevelDebug, "db.migrate.resolve",
		slog.String("path", dir),
		slog.Int("count", len(files)),
		slog.String("files_preview", preview),
		slog.Bool("files_truncated", truncated),
	)

	m, err := migrate.New("file://"+dir, cfg.URL())
	if err != nil {
		logger.LogEvent(ctx, logger.MIG, slog.LevelError, "db.migrate.init", logger.Err(err))
		return fmt.Errorf("initialize migrations: %w", err)
	}
	defer m.Close()

	fromVer, _, _ := m.Version()
	start := time.Now()
	upErr := m.Up()
	took := logger.Took(start)

	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		logger.LogEvent(ctx, logger.MIG, slog.LevelError, "db.migrate.apply",
			slog.String("status", "fail"),
			slog.Duration("duration", took),
			logger.Err(upErr),
		)
		return fmt.Errorf("apply migrations: %w", upErr)
	}

	toVer, _, _ := m.Version()
	applied := selectApplied(files, uint64(fromVer), uint64(toVer))
	logger.LogEvent(ctx, logger.MIG, slog.LevelInfo, "db.migrate.summary",
		slog.String("status", "ok"),
		slog.Uint64("from_ver", uint64(fromVer)),
		slog.Uint64("to_ver", uint64(toVer)),
		slog.Int("count", len(applied)),
		slog.Duration("duration", took),
	)
	return nil
}

func listMigrationFiles(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".up.sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names
}

func parseVersion(name string) uint64 {
	head, _, _ := strings.Cut(name, "_")
	v, _ := strconv.ParseUint(head, 10, 64)
	return v
}

func selectApplied(files []string, from, to uint64) []string {
	var out []string
	for _, f := range files {
		if v := parseVersion(f); v > from && v <= to {
			out = append(out, f)
		}
	}
	return out
}
