package catalog

import (
	"errors"
	"testing"
	"time"

	"github.com/icco/catalogo/lib/validation"
	"github.com/icco/catalogo/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var formClock = time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)

func validForm() Form {
	return Form{
		Title:      "Inception",
		Year:       "2010",
		Duration:   "148",
		Rating:     "8.8",
		GenreID:    "2",
		DirectorID: "1",
	}
}

func TestValidateForm(t *testing.T) {
	require.NoError(t, ValidateForm(validForm(), formClock))

	tests := []struct {
		name   string
		mutate func(f *Form)
		want   string
	}{
		{"blank title", func(f *Form) { f.Title = "  " }, MsgTitleRequired},
		{"year too early", func(f *Form) { f.Year = "1887" }, validation.MsgYear},
		{"year too late", func(f *Form) { f.Year = "2032" }, validation.MsgYear},
		{"year not a number", func(f *Form) { f.Year = "NaN" }, validation.MsgYear},
		{"duration empty", func(f *Form) { f.Duration = "" }, validation.MsgDuration},
		{"duration too long", func(f *Form) { f.Duration = "600" }, validation.MsgDuration},
		{"rating too high", func(f *Form) { f.Rating = "10.5" }, validation.MsgRating},
		{"rating infinite", func(f *Form) { f.Rating = "Inf" }, validation.MsgRating},
		{"no genre", func(f *Form) { f.GenreID = "" }, MsgSelectGenre},
		{"no director", func(f *Form) { f.DirectorID = "" }, MsgSelectDirector},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validForm()
			tt.mutate(&f)

			err := ValidateForm(f, formClock)
			var verr *validation.Error
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Equal(t, tt.want, verr.Message)
		})
	}
}

func TestValidateFormAcceptsBounds(t *testing.T) {
	f := validForm()
	f.Year = "2031"
	f.Rating = "0"
	f.Duration = "500"
	assert.NoError(t, ValidateForm(f, formClock))
}

func TestFormFromMovie(t *testing.T) {
	synopsis := "Sueños"
	m := models.MovieRow{Movie: models.Movie{
		ID:         7,
		Title:      "Inception",
		Year:       2010,
		Duration:   148,
		Synopsis:   &synopsis,
		Rating:     8.8,
		GenreID:    2,
		DirectorID: 1,
	}}

	f := FormFromMovie(m)
	assert.Equal(t, Form{
		Title:      "Inception",
		Year:       "2010",
		Duration:   "148",
		Synopsis:   "Sueños",
		Rating:     "8.8",
		GenreID:    "2",
		DirectorID: "1",
	}, f)

	p := f.Payload()
	assert.Equal(t, "2010", p.Year)
	assert.Equal(t, "", p.PosterURL)
}
