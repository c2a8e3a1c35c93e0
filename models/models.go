package models

import "github.com/icco/catalogo/lib/tech"

// Genre is a read-only lookup row. Genres are maintained outside this service.
type Genre struct {
	ID   int64  `gorm:"column:id_genero;primaryKey" json:"id"`
	Name string `gorm:"column:nombre" json:"nombre"`
}

func (Genre) TableName() string {
	return "generos"
}

// Director is a read-only lookup row.
type Director struct {
	ID      int64  `gorm:"column:id_director;primaryKey" json:"id"`
	Name    string `gorm:"column:nombre" json:"nombre"`
	Surname string `gorm:"column:apellido" json:"apellido"`
}

func (Director) TableName() string {
	return "directores"
}

// Movie is a stored catalog entry. ID is assigned by the database on insert
// and never changes afterwards.
type Movie struct {
	ID         int64   `gorm:"column:id_pelicula;primaryKey" json:"id_pelicula"`
	Title      string  `gorm:"column:titulo" json:"titulo"`
	Year       int     `gorm:"column:año_lanzamiento" json:"año_lanzamiento"`
	Duration   int     `gorm:"column:duracion_minutos" json:"duracion_minutos"`
	Synopsis   *string `gorm:"column:sinopsis" json:"sinopsis"`
	Rating     float64 `gorm:"column:calificacion" json:"calificacion"`
	GenreID    int64   `gorm:"column:id_genero" json:"id_genero"`
	DirectorID int64   `gorm:"column:id_director" json:"id_director"`
	PosterURL  *string `gorm:"column:poster_url" json:"poster_url"`
}

func (Movie) TableName() string {
	return "peliculas"
}

// MovieRow is a row of the vista_peliculas view: a movie joined with the
// display names of its genre and director.
type MovieRow struct {
	Movie
	Genre    string `gorm:"column:genero" json:"genero"`
	Director string `gorm:"column:director" json:"director"`
}

func (MovieRow) TableName() string {
	return "vista_peliculas"
}

// MoviePayload is the body of a create or update request. Numeric fields are
// left untyped because browser forms post them as strings.
type MoviePayload struct {
	Title      any `json:"titulo"`
	Year       any `json:"año"`
	Duration   any `json:"duracion"`
	Synopsis   any `json:"sinopsis"`
	Rating     any `json:"calificacion"`
	GenreID    any `json:"id_genero"`
	DirectorID any `json:"id_director"`
	PosterURL  any `json:"poster_url"`
}

// MovieInput is a validated and trimmed movie, ready to be handed to the
// insert or update operation.
type MovieInput struct {
	Title      string
	Year       int
	Duration   int
	Synopsis   *string
	Rating     float64
	GenreID    int64
	DirectorID int64
	PosterURL  *string
}

// Payload converts the input back into its wire representation.
func (in MovieInput) Payload() MoviePayload {
	p := MoviePayload{
		Title:      in.Title,
		Year:       in.Year,
		Duration:   in.Duration,
		Rating:     in.Rating,
		GenreID:    in.GenreID,
		DirectorID: in.DirectorID,
	}
	if in.Synopsis != nil {
		p.Synopsis = *in.Synopsis
	}
	if in.PosterURL != nil {
		p.PosterURL = *in.PosterURL
	}
	return p
}

// SearchParams narrows a movie search. Nil fields are not applied.
type SearchParams struct {
	Title   *string
	GenreID *int64
	Year    *int
}

// CreatedResponse is returned by a successful insert.
type CreatedResponse struct {
	NewID int64 `json:"new_id"`
}

// AffectedResponse is returned by update and delete.
type AffectedResponse struct {
	AffectedRows int64 `json:"affected_rows"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// TechnologyResult is the movie list as "fetched" through a given
// connectivity technology. The rows are the same regardless of technology.
type TechnologyResult struct {
	Technology tech.Technology `json:"tecnologia"`
	Movies     []MovieRow      `json:"peliculas"`
}
