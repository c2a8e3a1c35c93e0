package gateway

import (
	"context"
	"errors"
	"strings"

	"github.com/icco/catalogo/lib/db"
	"github.com/icco/catalogo/models"
	"gorm.io/gorm"
)

// storedProcedures calls the procedures defined on the MySQL server. Each one
// answers with a single-row result set.
type storedProcedures struct{}

// titleOrder relies on the server's case-insensitive column collation.
func (storedProcedures) titleOrder() string { return "titulo" }

func (storedProcedures) search(ctx context.Context, db *gorm.DB, params models.SearchParams) ([]models.MovieRow, error) {
	var rows []models.MovieRow
	err := db.Raw("CALL BuscarPeliculas(?, ?, ?)", params.Title, params.GenreID, params.Year).Scan(&rows).Error
	return rows, err
}

func (storedProcedures) insert(ctx context.Context, db *gorm.DB, in models.MovieInput) (int64, error) {
	var out struct {
		NewID int64 `gorm:"column:nuevo_id"`
	}
	err := db.Raw("CALL InsertarPelicula(?, ?, ?, ?, ?, ?, ?, ?)",
		in.Title, in.Year, in.Duration, in.Synopsis, in.Rating, in.GenreID, in.DirectorID, in.PosterURL,
	).Scan(&out).Error
	if err != nil {
		return 0, err
	}
	if out.NewID == 0 {
		return 0, errors.New("InsertarPelicula returned no id")
	}
	return out.NewID, nil
}

func (storedProcedures) update(ctx context.Context, db *gorm.DB, id int64, in models.MovieInput) (int64, error) {
	var out struct {
		Affected int64 `gorm:"column:filas_afectadas"`
	}
	err := db.Raw("CALL ActualizarPelicula(?, ?, ?, ?, ?, ?, ?, ?, ?)",
		id, in.Title, in.Year, in.Duration, in.Synopsis, in.Rating, in.GenreID, in.DirectorID, in.PosterURL,
	).Scan(&out).Error
	return out.Affected, err
}

func (storedProcedures) remove(ctx context.Context, db *gorm.DB, id int64) (int64, error) {
	var out struct {
		Affected int64 `gorm:"column:filas_afectadas"`
	}
	err := db.Raw("CALL EliminarPelicula(?)", id).Scan(&out).Error
	return out.Affected, err
}

// emulatedProcedures gives engines without stored procedures (SQLite) the
// same contract using plain queries.
type emulatedProcedures struct{}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (emulatedProcedures) titleOrder() string { return "titulo COLLATE " + db.TitleCollation }

func (p emulatedProcedures) search(ctx context.Context, gormDB *gorm.DB, params models.SearchParams) ([]models.MovieRow, error) {
	q := gormDB.Model(&models.MovieRow{})
	if params.Title != nil && *params.Title != "" {
		pattern := "%" + likeEscaper.Replace(strings.ToLower(*params.Title)) + "%"
		q = q.Where(db.LowerFunc+`(titulo) LIKE ? ESCAPE '\'`, pattern)
	}
	if params.GenreID != nil {
		q = q.Where("id_genero = ?", *params.GenreID)
	}
	if params.Year != nil {
		q = q.Where("año_lanzamiento = ?", *params.Year)
	}

	var rows []models.MovieRow
	err := q.Order(p.titleOrder()).Find(&rows).Error
	return rows, err
}

func (emulatedProcedures) insert(ctx context.Context, gormDB *gorm.DB, in models.MovieInput) (int64, error) {
	movie := models.Movie{
		Title:      in.Title,
		Year:       in.Year,
		Duration:   in.Duration,
		Synopsis:   in.Synopsis,
		Rating:     in.Rating,
		GenreID:    in.GenreID,
		DirectorID: in.DirectorID,
		PosterURL:  in.PosterURL,
	}
	if err := gormDB.Create(&movie).Error; err != nil {
		return 0, err
	}
	return movie.ID, nil
}

func (emulatedProcedures) update(ctx context.Context, gormDB *gorm.DB, id int64, in models.MovieInput) (int64, error) {
	result := gormDB.Model(&models.Movie{}).Where("id_pelicula = ?", id).Updates(map[string]any{
		"titulo":           in.Title,
		"año_lanzamiento":  in.Year,
		"duracion_minutos": in.Duration,
		"sinopsis":         in.Synopsis,
		"calificacion":     in.Rating,
		"id_genero":        in.GenreID,
		"id_director":      in.DirectorID,
		"poster_url":       in.PosterURL,
	})
	return result.RowsAffected, result.Error
}

func (emulatedProcedures) remove(ctx context.Context, gormDB *gorm.DB, id int64) (int64, error) {
	result := gormDB.Where("id_pelicula = ?", id).Delete(&models.Movie{})
	return result.RowsAffected, result.Error
}
