package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/icco/catalogo/lib/gateway"
	"github.com/icco/catalogo/lib/tech"
	"github.com/icco/catalogo/lib/validation"
	"github.com/icco/catalogo/models"
)

func HandleListGenres(gw gateway.Gateway) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		genres, err := gw.ListGenres(r.Context())
		if err != nil {
			internalError(w, r, "Failed to list genres", err)
			return
		}
		validation.WriteJSON(w, genres, http.StatusOK)
	}
}

func HandleListDirectors(gw gateway.Gateway) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		directors, err := gw.ListDirectors(r.Context())
		if err != nil {
			internalError(w, r, "Failed to list directors", err)
			return
		}
		validation.WriteJSON(w, directors, http.StatusOK)
	}
}

// HandleStats reports catalog totals and the per-genre distribution.
func HandleStats(gw gateway.Gateway) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := gw.Stats(r.Context())
		if err != nil {
			internalError(w, r, "Failed to compute stats", err)
			return
		}
		validation.WriteJSON(w, stats, http.StatusOK)
	}
}

func HandleTechnologies(techs *tech.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		validation.WriteJSON(w, techs.All(), http.StatusOK)
	}
}

func HandleMoviesByTechnology(gw gateway.Gateway, techs *tech.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, ok := techs.Lookup(chi.URLParam(r, "tecnologia"))
		if !ok {
			validation.WriteError(w, errors.New(validation.MsgTechnology), http.StatusNotFound)
			return
		}

		movies, err := gw.ListMovies(r.Context())
		if err != nil {
			internalError(w, r, "Failed to list movies for technology", err)
			return
		}
		validation.WriteJSON(w, models.TechnologyResult{Technology: t, Movies: movies}, http.StatusOK)
	}
}
