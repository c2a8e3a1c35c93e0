// Package gateway is the persistence boundary of the catalog. It exposes the
// vista_peliculas view, the genre and director lookups, and the four catalog
// procedures (BuscarPeliculas, InsertarPelicula, ActualizarPelicula,
// EliminarPelicula).
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-sql-driver/mysql"
	"github.com/icco/catalogo/lib/types"
	"github.com/icco/catalogo/models"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

var (
	// ErrReferential means a genre or director reference does not exist.
	ErrReferential = errors.New("referenced genre or director does not exist")
	// ErrUnavailable covers every other storage failure.
	ErrUnavailable = errors.New("catalog storage unavailable")
)

// mysqlNoReferencedRow is ER_NO_REFERENCED_ROW_2.
const mysqlNoReferencedRow = 1452

// Gateway is the set of persistence operations the API depends on.
type Gateway interface {
	ListMovies(ctx context.Context) ([]models.MovieRow, error)
	SearchMovies(ctx context.Context, params models.SearchParams) ([]models.MovieRow, error)
	InsertMovie(ctx context.Context, in models.MovieInput) (int64, error)
	UpdateMovie(ctx context.Context, id int64, in models.MovieInput) (int64, error)
	DeleteMovie(ctx context.Context, id int64) (int64, error)
	ListGenres(ctx context.Context) ([]models.Genre, error)
	ListDirectors(ctx context.Context) ([]models.Director, error)
	Stats(ctx context.Context) (types.StatsData, error)
}

// procedures runs the catalog's four named operations. Engines with stored
// procedure support call them; SQLite gets an equivalent built from queries.
type procedures interface {
	search(ctx context.Context, db *gorm.DB, params models.SearchParams) ([]models.MovieRow, error)
	insert(ctx context.Context, db *gorm.DB, in models.MovieInput) (int64, error)
	update(ctx context.Context, db *gorm.DB, id int64, in models.MovieInput) (int64, error)
	remove(ctx context.Context, db *gorm.DB, id int64) (int64, error)
	titleOrder() string
}

// Store implements Gateway on top of a pooled gorm connection.
type Store struct {
	db     *gorm.DB
	procs  procedures
	logger *slog.Logger
}

// New returns a Store for db. Databases opened with the MySQL dialector use
// the server's stored procedures; anything else uses query emulation.
func New(db *gorm.DB, logger *slog.Logger) *Store {
	var procs procedures = emulatedProcedures{}
	if db.Dialector.Name() == "mysql" {
		procs = storedProcedures{}
	}
	logger.Debug("Catalog gateway ready",
		slog.String("dialect", db.Dialector.Name()),
		slog.String("procedures", fmt.Sprintf("%T", procs)))
	return &Store{db: db, procs: procs, logger: logger}
}

func (s *Store) ListMovies(ctx context.Context) ([]models.MovieRow, error) {
	rows := []models.MovieRow{}
	if err := s.db.WithContext(ctx).Order(s.procs.titleOrder()).Find(&rows).Error; err != nil {
		return nil, classify("list movies", err)
	}
	return rows, nil
}

func (s *Store) SearchMovies(ctx context.Context, params models.SearchParams) ([]models.MovieRow, error) {
	rows, err := s.procs.search(ctx, s.db.WithContext(ctx), params)
	if err != nil {
		return nil, classify("BuscarPeliculas", err)
	}
	if rows == nil {
		rows = []models.MovieRow{}
	}
	return rows, nil
}

func (s *Store) InsertMovie(ctx context.Context, in models.MovieInput) (int64, error) {
	id, err := s.procs.insert(ctx, s.db.WithContext(ctx), in)
	if err != nil {
		return 0, classify("InsertarPelicula", err)
	}
	s.logger.DebugContext(ctx, "Inserted movie", slog.Int64("id", id), slog.String("title", in.Title))
	return id, nil
}

func (s *Store) UpdateMovie(ctx context.Context, id int64, in models.MovieInput) (int64, error) {
	n, err := s.procs.update(ctx, s.db.WithContext(ctx), id, in)
	if err != nil {
		return 0, classify("ActualizarPelicula", err)
	}
	s.logger.DebugContext(ctx, "Updated movie", slog.Int64("id", id), slog.Int64("rows", n))
	return n, nil
}

func (s *Store) DeleteMovie(ctx context.Context, id int64) (int64, error) {
	n, err := s.procs.remove(ctx, s.db.WithContext(ctx), id)
	if err != nil {
		return 0, classify("EliminarPelicula", err)
	}
	s.logger.DebugContext(ctx, "Deleted movie", slog.Int64("id", id), slog.Int64("rows", n))
	return n, nil
}

func (s *Store) ListGenres(ctx context.Context) ([]models.Genre, error) {
	genres := []models.Genre{}
	if err := s.db.WithContext(ctx).Order("nombre").Find(&genres).Error; err != nil {
		return nil, classify("list genres", err)
	}
	return genres, nil
}

func (s *Store) ListDirectors(ctx context.Context) ([]models.Director, error) {
	directors := []models.Director{}
	if err := s.db.WithContext(ctx).Order("nombre").Order("apellido").Find(&directors).Error; err != nil {
		return nil, classify("list directors", err)
	}
	return directors, nil
}

// classify tags a driver error as referential or unavailable.
func classify(op string, err error) error {
	if isForeignKeyViolation(err) {
		return fmt.Errorf("%s: %w: %w", op, ErrReferential, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}

func isForeignKeyViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == mysqlNoReferencedRow
	}
	return false
}
