// Command catalog-inspect logs an overview of the catalog database and flags
// rows that the API would refuse to write.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/icco/catalogo/lib/config"
	"github.com/icco/catalogo/lib/db"
	"github.com/icco/catalogo/lib/gateway"
	"github.com/icco/catalogo/lib/validation"
	"github.com/icco/catalogo/models"
	"gorm.io/gorm"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})))
	logger := slog.Default()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("Invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	gormDB, err := db.Open(cfg.Database, logger)
	if err != nil {
		logger.Error("Failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = db.Close(gormDB) }()

	ctx := context.Background()

	logger.Info("=== CATALOG OVERVIEW ===")
	stats, err := gateway.New(gormDB, logger).Stats(ctx)
	if err != nil {
		logger.Error("Failed to compute stats", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("Catalog totals",
		slog.Int64("movies", stats.TotalMovies),
		slog.Int64("genres", stats.TotalGenres),
		slog.Int64("directors", stats.TotalDirectors),
		slog.Int("first_year", stats.FirstYear),
		slog.Int("last_year", stats.LastYear),
		slog.Float64("average_rating", stats.AverageRating))
	for _, g := range stats.GenreDistribution {
		logger.Info("Genre", slog.String("genre", g.Genre), slog.Int64("movies", g.Count))
	}

	logger.Info("=== DATA VALIDATION ===")
	checks := []struct {
		name  string
		where string
		args  []any
	}{
		{"blank titles", "TRIM(titulo) = ''", nil},
		{"years out of range", "año_lanzamiento < ? OR año_lanzamiento > ?", []any{validation.MinYear, validation.MaxYear()}},
		{"durations out of range", "duracion_minutos < ? OR duracion_minutos > ?", []any{validation.MinDuration, validation.MaxDuration}},
		{"ratings out of range", "calificacion < ? OR calificacion > ?", []any{validation.MinRating, validation.MaxRating}},
		{"unknown genres", "id_genero NOT IN (SELECT id_genero FROM generos)", nil},
		{"unknown directors", "id_director NOT IN (SELECT id_director FROM directores)", nil},
	}

	problems := int64(0)
	for _, c := range checks {
		n, err := count(ctx, gormDB, c.where, c.args...)
		if err != nil {
			logger.Error("Check failed", slog.String("check", c.name), slog.Any("error", err))
			continue
		}
		problems += n
		logger.Info("Movies with "+c.name, slog.Int64("count", n))
	}

	logger.Info("=== DIAGNOSIS ===")
	switch {
	case stats.TotalGenres == 0 || stats.TotalDirectors == 0:
		logger.Info("ISSUE: lookup tables are empty; new movies cannot be created")
	case problems > 0:
		logger.Info("ISSUE: some stored movies fail validation", slog.Int64("rows", problems))
	default:
		logger.Info("SUCCESS: catalog data is consistent")
	}
}

func count(ctx context.Context, gormDB *gorm.DB, where string, args ...any) (int64, error) {
	var n int64
	err := gormDB.WithContext(ctx).Model(&models.Movie{}).Where(where, args...).Count(&n).Error
	return n, err
}
