package db_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/icco/catalogo/lib/config"
	"github.com/icco/catalogo/lib/db"
	"github.com/icco/catalogo/lib/db/dbtest"
	"github.com/icco/catalogo/lib/lock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteDSN(t *testing.T) {
	dsn := db.SQLiteDSN("/tmp/catalogo.db")
	assert.Contains(t, dsn, "file:/tmp/catalogo.db?")
	assert.Contains(t, dsn, "_foreign_keys=on")
	assert.Contains(t, dsn, "_busy_timeout=5000")
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := db.Open(config.Database{Driver: "postgres"}, dbtest.Logger())
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestRunMigrationsSeedsLookups(t *testing.T) {
	gormDB := dbtest.Open(t)

	var genres, directors, movies int64
	require.NoError(t, gormDB.Table("generos").Count(&genres).Error)
	require.NoError(t, gormDB.Table("directores").Count(&directors).Error)
	require.NoError(t, gormDB.Table("peliculas").Count(&movies).Error)
	assert.EqualValues(t, 6, genres)
	assert.EqualValues(t, 6, directors)
	assert.Zero(t, movies)

	var fk int
	require.NoError(t, gormDB.Raw("PRAGMA foreign_keys").Scan(&fk).Error)
	assert.Equal(t, 1, fk)
}

func TestRunMigrationsIsIdempotent(t *testing.T) {
	gormDB := dbtest.Open(t)
	dir := t.TempDir()

	err := db.RunMigrations(context.Background(), gormDB, lock.NewFileLock(dir, dbtest.Logger()), dbtest.Logger())
	require.NoError(t, err)

	var genres int64
	require.NoError(t, gormDB.Table("generos").Count(&genres).Error)
	assert.EqualValues(t, 6, genres)
}

func TestRunMigrationsWaitsForLock(t *testing.T) {
	gormDB := dbtest.Open(t)
	dir := filepath.Join(t.TempDir(), "locks")
	locker := lock.NewFileLock(dir, dbtest.Logger())

	ok, err := locker.TryLock(context.Background(), "catalog-migrations", time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	err = db.RunMigrations(ctx, gormDB, locker, dbtest.Logger())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSQLiteTextFuncs(t *testing.T) {
	gormDB := dbtest.Open(t)

	var lowered string
	require.NoError(t, gormDB.Raw("SELECT "+db.LowerFunc+"(?)", "ÁRTICO Ñandú").Scan(&lowered).Error)
	assert.Equal(t, "ártico ñandú", lowered)

	var ordered []string
	err := gormDB.Raw(`SELECT v FROM (SELECT 'Zorro' AS v UNION ALL SELECT 'El Ártico' UNION ALL SELECT 'amélie')
		ORDER BY v COLLATE ` + db.TitleCollation).Scan(&ordered).Error
	require.NoError(t, err)
	assert.Equal(t, []string{"amélie", "El Ártico", "Zorro"}, ordered)
}
