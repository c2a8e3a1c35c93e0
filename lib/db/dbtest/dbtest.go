// Package dbtest opens throwaway catalog databases for tests.
package dbtest

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/icco/catalogo/lib/config"
	"github.com/icco/catalogo/lib/db"
	"github.com/icco/catalogo/lib/lock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// Logger discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Open returns a migrated and seeded SQLite catalog in a temp directory. It
// is closed when the test ends.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	dir := t.TempDir()
	logger := Logger()

	gormDB, err := db.Open(config.Database{
		Driver: config.DriverSQLite,
		Path:   filepath.Join(dir, "catalogo.db"),
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(gormDB) })

	err = db.RunMigrations(context.Background(), gormDB, lock.NewFileLock(filepath.Join(dir, "locks"), logger), logger)
	require.NoError(t, err)

	return gormDB
}
