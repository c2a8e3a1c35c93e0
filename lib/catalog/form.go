package catalog

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/icco/catalogo/lib/validation"
	"github.com/icco/catalogo/models"
)

// Form is the create/edit draft. Fields hold raw input text.
type Form struct {
	Title      string
	Year       string
	Duration   string
	Synopsis   string
	Rating     string
	GenreID    string
	DirectorID string
	PosterURL  string
}

// FormFromMovie fills a draft with an existing movie.
func FormFromMovie(m models.MovieRow) Form {
	f := Form{
		Title:      m.Title,
		Year:       strconv.Itoa(m.Year),
		Duration:   strconv.Itoa(m.Duration),
		Rating:     strconv.FormatFloat(m.Rating, 'f', -1, 64),
		GenreID:    strconv.FormatInt(m.GenreID, 10),
		DirectorID: strconv.FormatInt(m.DirectorID, 10),
	}
	if m.Synopsis != nil {
		f.Synopsis = *m.Synopsis
	}
	if m.PosterURL != nil {
		f.PosterURL = *m.PosterURL
	}
	return f
}

// Payload converts the draft to a request body. The server coerces and
// trims the text values itself.
func (f Form) Payload() models.MoviePayload {
	return models.MoviePayload{
		Title:      f.Title,
		Year:       f.Year,
		Duration:   f.Duration,
		Synopsis:   f.Synopsis,
		Rating:     f.Rating,
		GenreID:    f.GenreID,
		DirectorID: f.DirectorID,
		PosterURL:  f.PosterURL,
	}
}

// Messages shown for a draft that fails the local checks.
const (
	MsgTitleRequired  = "El título es obligatorio"
	MsgSelectGenre    = "Seleccione un género"
	MsgSelectDirector = "Seleccione un director"
)

// ValidateForm gives immediate feedback on a draft before any request is
// made. It mirrors the server's range checks.
func ValidateForm(f Form, now time.Time) error {
	if strings.TrimSpace(f.Title) == "" {
		return &validation.Error{Field: "titulo", Message: MsgTitleRequired}
	}
	if year, ok := parseNumber(f.Year); !ok || year < validation.MinYear || year > float64(now.Year()+validation.YearsAhead) {
		return &validation.Error{Field: "año", Message: validation.MsgYear}
	}
	if d, ok := parseNumber(f.Duration); !ok || d < validation.MinDuration || d > validation.MaxDuration {
		return &validation.Error{Field: "duracion", Message: validation.MsgDuration}
	}
	if r, ok := parseNumber(f.Rating); !ok || r < validation.MinRating || r > validation.MaxRating {
		return &validation.Error{Field: "calificacion", Message: validation.MsgRating}
	}
	if strings.TrimSpace(f.GenreID) == "" {
		return &validation.Error{Field: "id_genero", Message: MsgSelectGenre}
	}
	if strings.TrimSpace(f.DirectorID) == "" {
		return &validation.Error{Field: "id_director", Message: MsgSelectDirector}
	}
	return nil
}

func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
