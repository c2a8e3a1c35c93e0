package types

// GenreCount is the number of movies filed under one genre.
type GenreCount struct {
	Genre string `json:"genero"`
	Count int64  `json:"total"`
}

// StatsData summarizes the catalog contents.
type StatsData struct {
	TotalMovies       int64        `json:"total_peliculas"`
	TotalGenres       int64        `json:"total_generos"`
	TotalDirectors    int64        `json:"total_directores"`
	FirstYear         int          `json:"primer_año"`
	LastYear          int          `json:"ultimo_año"`
	AverageRating     float64      `json:"calificacion_promedio"`
	GenreDistribution []GenreCount `json:"por_genero"`
}
