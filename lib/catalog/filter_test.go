package catalog

import (
	"testing"

	"github.com/icco/catalogo/models"
	"github.com/stretchr/testify/assert"
)

func row(id int64, title string, year int, genreID int64) models.MovieRow {
	return models.MovieRow{Movie: models.Movie{ID: id, Title: title, Year: year, GenreID: genreID, DirectorID: 1}}
}

func titles(movies []models.MovieRow) []string {
	out := []string{}
	for _, m := range movies {
		out = append(out, m.Title)
	}
	return out
}

func TestApply(t *testing.T) {
	movies := []models.MovieRow{
		row(1, "Inception", 2010, 2),
		row(2, "Interstellar", 2014, 2),
		row(3, "Roma", 2018, 4),
		row(4, "El laberinto del fauno", 2006, 4),
	}

	tests := []struct {
		name    string
		filters Filters
		want    []string
	}{
		{"no filters", Filters{}, []string{"Inception", "Interstellar", "Roma", "El laberinto del fauno"}},
		{"title ignores case", Filters{Title: "INTER"}, []string{"Interstellar"}},
		{"title substring", Filters{Title: "la"}, []string{"Interstellar", "El laberinto del fauno"}},
		{"genre", Filters{GenreID: "4"}, []string{"Roma", "El laberinto del fauno"}},
		{"genre with spaces", Filters{GenreID: " 2 "}, []string{"Inception", "Interstellar"}},
		{"year", Filters{Year: "2014"}, []string{"Interstellar"}},
		{"all fields", Filters{Title: "o", GenreID: "4", Year: "2018"}, []string{"Roma"}},
		{"non-numeric year", Filters{Year: "dos mil"}, []string{}},
		{"no match", Filters{Title: "zzz"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, titles(Apply(movies, tt.filters)))
		})
	}
}

func TestApplyDoesNotModifyInput(t *testing.T) {
	movies := []models.MovieRow{row(1, "A", 2000, 1), row(2, "B", 2001, 2)}
	_ = Apply(movies, Filters{GenreID: "2"})
	assert.Equal(t, []string{"A", "B"}, titles(movies))
}

func TestFiltersIsZero(t *testing.T) {
	assert.True(t, Filters{}.IsZero())
	assert.False(t, Filters{Year: "2010"}.IsZero())
}
