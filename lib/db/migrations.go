package db

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/pressly/goose/v3"
	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const migrationLockKey = "catalog-migrations"

// Locker serializes schema changes across processes.
type Locker interface {
	TryLock(ctx context.Context, key string, timeout time.Duration) (bool, error)
	Unlock(ctx context.Context, key string) error
}

// ErrMigrationLocked is returned when another process holds the migration
// lock for longer than the wait allows.
var ErrMigrationLocked = errors.New("migration lock is held by another process")

// RunMigrations brings an SQLite catalog up to date: tables, the
// vista_peliculas view and the seeded lookup rows. MySQL catalogs carry
// stored procedures that are provisioned outside this service, so they are
// left untouched.
func RunMigrations(ctx context.Context, gormDB *gorm.DB, locker Locker, logger *slog.Logger) error {
	if name := gormDB.Dialector.Name(); name != "sqlite" {
		logger.Info("Skipping migrations; schema is managed externally", slog.String("dialect", name))
		return nil
	}

	enableSQLiteOptimizations(ctx, gormDB, logger)

	acquired, err := locker.TryLock(ctx, migrationLockKey, 30*time.Second)
	if err != nil {
		return fmt.Errorf("failed to acquire migration lock: %w", err)
	}
	if !acquired {
		return ErrMigrationLocked
	}
	defer func() {
		if err := locker.Unlock(ctx, migrationLockKey); err != nil {
			logger.Error("Failed to release migration lock", slog.Any("error", err))
		}
	}()

	sqlDB, err := gormDB.DB()
	if err != nil {
		return fmt.Errorf("failed to get database handle: %w", err)
	}

	fsys, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectSQLite3, sqlDB, fsys)
	if err != nil {
		return fmt.Errorf("failed to create migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	for _, r := range results {
		logger.Info("Applied migration",
			slog.String("source", r.Source.Path),
			slog.Int64("version", r.Source.Version),
			slog.Duration("elapsed", r.Duration))
	}

	return nil
}

// enableSQLiteOptimizations sets database-wide pragmas. Per-connection
// settings such as foreign_keys travel in the DSN instead.
func enableSQLiteOptimizations(ctx context.Context, gormDB *gorm.DB, logger *slog.Logger) {
	optimizations := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
	}

	for _, pragma := range optimizations {
		if err := gormDB.WithContext(ctx).Exec(pragma).Error; err != nil {
			logger.Warn("Failed to execute pragma", slog.String("pragma", pragma), slog.Any("error", err))
		} else {
			logger.Debug("Executed pragma", slog.String("pragma", pragma))
		}
	}
}
