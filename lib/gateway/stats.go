package gateway

import (
	"context"

	"github.com/icco/catalogo/lib/types"
	"github.com/icco/catalogo/models"
)

// Stats summarizes the catalog. Genres without movies are listed with a
// zero count; the distribution is ordered by count, then genre name.
func (s *Store) Stats(ctx context.Context) (types.StatsData, error) {
	db := s.db.WithContext(ctx)
	stats := types.StatsData{GenreDistribution: []types.GenreCount{}}

	if err := db.Model(&models.Movie{}).Count(&stats.TotalMovies).Error; err != nil {
		return stats, classify("count movies", err)
	}
	if err := db.Model(&models.Genre{}).Count(&stats.TotalGenres).Error; err != nil {
		return stats, classify("count genres", err)
	}
	if err := db.Model(&models.Director{}).Count(&stats.TotalDirectors).Error; err != nil {
		return stats, classify("count directors", err)
	}

	if stats.TotalMovies > 0 {
		var agg struct {
			FirstYear     int
			LastYear      int
			AverageRating float64
		}
		err := db.Model(&models.Movie{}).
			Select("MIN(año_lanzamiento) AS first_year, MAX(año_lanzamiento) AS last_year, AVG(calificacion) AS average_rating").
			Scan(&agg).Error
		if err != nil {
			return stats, classify("aggregate movies", err)
		}
		stats.FirstYear = agg.FirstYear
		stats.LastYear = agg.LastYear
		stats.AverageRating = agg.AverageRating
	}

	err := db.Model(&models.Genre{}).
		Select("generos.nombre AS genre, COUNT(peliculas.id_pelicula) AS count").
		Joins("LEFT JOIN peliculas ON peliculas.id_genero = generos.id_genero").
		Group("generos.id_genero, generos.nombre").
		Order("count DESC, generos.nombre").
		Scan(&stats.GenreDistribution).Error
	if err != nil {
		return stats, classify("genre distribution", err)
	}

	return stats, nil
}
