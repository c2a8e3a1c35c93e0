package validation

import (
	"encoding/json"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/icco/catalogo/models"
	"github.com/spf13/cast"
)

const (
	// MinYear is the year of the first known motion picture.
	MinYear = 1888
	// YearsAhead is how far past the current year a release may be announced.
	YearsAhead = 5

	MinDuration = 1
	MaxDuration = 500

	MinRating = 0.0
	MaxRating = 10.0
)

// Messages returned to API callers. They are part of the wire contract.
const (
	MsgTitle        = "Título inválido"
	MsgYear         = "Año inválido"
	MsgDuration     = "Duración inválida"
	MsgRating       = "Calificación inválida"
	MsgGenre        = "Género inválido"
	MsgDirector     = "Director inválido"
	MsgPosterURL    = "URL de poster inválida"
	MsgSynopsis     = "Sinopsis inválida"
	MsgSearchYear   = "Año de búsqueda inválido"
	MsgSearchGenre  = "ID de género inválido"
	MsgID           = "ID inválido"
	MsgRequestBody  = "Cuerpo de la solicitud inválido"
	MsgReference    = "Género o director no válido"
	MsgInternal     = "Error interno del servidor"
	MsgRouteMissing = "Ruta no encontrada"
	MsgTechnology   = "Tecnología no encontrada"
	MsgRateLimited  = "Demasiadas solicitudes"
)

// now is swapped out in tests.
var now = time.Now

// Error is a rejected input field.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func invalid(field, message string) *Error {
	return &Error{Field: field, Message: message}
}

// MaxYear returns the latest acceptable release year. It depends on the
// clock, so it is derived on every call.
func MaxYear() int {
	return now().Year() + YearsAhead
}

// ValidateMovie checks a movie payload and returns the trimmed, typed
// result. Constraints are checked in a fixed order and only the first
// violation is reported.
func ValidateMovie(p models.MoviePayload) (models.MovieInput, error) {
	var in models.MovieInput

	title, ok := p.Title.(string)
	if !ok || strings.TrimSpace(title) == "" {
		return in, invalid("titulo", MsgTitle)
	}
	in.Title = strings.TrimSpace(title)

	year, ok := integer(p.Year)
	if !ok || year < MinYear || year > int64(MaxYear()) {
		return in, invalid("año", MsgYear)
	}
	in.Year = int(year)

	duration, ok := integer(p.Duration)
	if !ok || duration < MinDuration || duration > MaxDuration {
		return in, invalid("duracion", MsgDuration)
	}
	in.Duration = int(duration)

	rating, ok := number(p.Rating)
	if !ok || rating < MinRating || rating > MaxRating {
		return in, invalid("calificacion", MsgRating)
	}
	in.Rating = rating

	genreID, ok := integer(p.GenreID)
	if !ok || genreID <= 0 {
		return in, invalid("id_genero", MsgGenre)
	}
	in.GenreID = genreID

	directorID, ok := integer(p.DirectorID)
	if !ok || directorID <= 0 {
		return in, invalid("id_director", MsgDirector)
	}
	in.DirectorID = directorID

	poster, ok := optionalText(p.PosterURL)
	if !ok {
		return in, invalid("poster_url", MsgPosterURL)
	}
	in.PosterURL = poster

	synopsis, ok := optionalText(p.Synopsis)
	if !ok {
		return in, invalid("sinopsis", MsgSynopsis)
	}
	in.Synopsis = synopsis

	return in, nil
}

// ValidateSearch checks the optional query parameters of a movie search.
// Empty values mean "no filter".
func ValidateSearch(title, genreID, year string) (models.SearchParams, error) {
	var params models.SearchParams

	if year = strings.TrimSpace(year); year != "" {
		y, ok := integer(year)
		if !ok || y < MinYear || y > int64(MaxYear()) {
			return params, invalid("año", MsgSearchYear)
		}
		v := int(y)
		params.Year = &v
	}

	if genreID = strings.TrimSpace(genreID); genreID != "" {
		g, ok := integer(genreID)
		if !ok {
			return params, invalid("id_genero", MsgSearchGenre)
		}
		params.GenreID = &g
	}

	if title != "" {
		params.Title = &title
	}

	return params, nil
}

// ParseID parses a path identifier, which must be a positive integer.
func ParseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, invalid("id", MsgID)
	}
	return id, nil
}

// number reports whether v holds a finite number. Numeric strings count;
// booleans and blank strings do not.
func number(v any) (float64, bool) {
	switch t := v.(type) {
	case nil, bool:
		return 0, false
	case string:
		t = strings.TrimSpace(t)
		if t == "" {
			return 0, false
		}
		v = t
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func integer(v any) (int64, bool) {
	f, ok := number(v)
	if !ok || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, false
	}
	return int64(f), true
}

// optionalText accepts a missing value or a string. Blank strings become nil.
func optionalText(v any) (*string, bool) {
	if v == nil {
		return nil, true
	}
	s, ok := v.(string)
	if !ok {
		return nil, false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, true
	}
	return &s, true
}

// WriteError writes an error response to the HTTP response writer using the
// {"error": "..."} envelope.
func WriteError(w http.ResponseWriter, err error, status int) {
	WriteJSON(w, models.ErrorResponse{Error: err.Error()}, status)
}

// WriteJSON writes v as a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, v any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", slog.Any("error", err))
	}
}
