package catalog

import (
	"strconv"
	"strings"

	"github.com/icco/catalogo/models"
)

// Filters narrows the visible movie list. Values are kept as typed by the
// user; an empty field always matches.
type Filters struct {
	Title   string
	GenreID string
	Year    string
}

// IsZero reports whether no filter field is set.
func (f Filters) IsZero() bool {
	return f.Title == "" && f.GenreID == "" && f.Year == ""
}

// Apply returns the movies that match every set field of f, keeping their
// order. With no field set, movies is returned unchanged.
func Apply(movies []models.MovieRow, f Filters) []models.MovieRow {
	if f.IsZero() {
		return movies
	}

	title := strings.ToLower(f.Title)
	out := make([]models.MovieRow, 0, len(movies))
	for _, m := range movies {
		if f.Title != "" && !strings.Contains(strings.ToLower(m.Title), title) {
			continue
		}
		if f.GenreID != "" && !equalsNumber(m.GenreID, f.GenreID) {
			continue
		}
		if f.Year != "" && !equalsNumber(int64(m.Year), f.Year) {
			continue
		}
		out = append(out, m)
	}
	return out
}

// equalsNumber compares a stored number with user input such as "2010" or
// " 3 ". Input that is not a number never matches.
func equalsNumber(n int64, s string) bool {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return false
	}
	return f == float64(n)
}
