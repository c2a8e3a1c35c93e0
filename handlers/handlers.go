package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/icco/catalogo/lib/gateway"
	"github.com/icco/catalogo/lib/tech"
	"github.com/icco/catalogo/lib/validation"
	"github.com/icco/catalogo/models"
)

const maxBodyBytes = 1 << 20

// Mount registers the catalog API on r. Unknown paths and methods answer 404.
func Mount(r chi.Router, gw gateway.Gateway, techs *tech.Catalog) {
	r.NotFound(HandleNotFound)
	r.MethodNotAllowed(HandleNotFound)

	r.Get("/api/peliculas", HandleListMovies(gw))
	r.Post("/api/peliculas", HandleCreateMovie(gw))
	r.Put("/api/peliculas/{id}", HandleUpdateMovie(gw))
	r.Delete("/api/peliculas/{id}", HandleDeleteMovie(gw))
	r.Get("/api/buscar", HandleSearchMovies(gw))
	r.Get("/api/generos", HandleListGenres(gw))
	r.Get("/api/directores", HandleListDirectors(gw))
	r.Get("/api/estadisticas", HandleStats(gw))
	r.Get("/api/tecnologias", HandleTechnologies(techs))
	r.Get("/api/peliculas/tecnologia/{tecnologia}", HandleMoviesByTechnology(gw, techs))
}

func HandleNotFound(w http.ResponseWriter, r *http.Request) {
	validation.WriteError(w, errors.New(validation.MsgRouteMissing), http.StatusNotFound)
}

func HandleListMovies(gw gateway.Gateway) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		movies, err := gw.ListMovies(r.Context())
		if err != nil {
			internalError(w, r, "Failed to list movies", err)
			return
		}
		validation.WriteJSON(w, movies, http.StatusOK)
	}
}

func HandleSearchMovies(gw gateway.Gateway) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		params, err := validation.ValidateSearch(q.Get("titulo"), q.Get("id_genero"), q.Get("año"))
		if err != nil {
			validation.WriteError(w, err, http.StatusBadRequest)
			return
		}

		movies, err := gw.SearchMovies(r.Context(), params)
		if err != nil {
			internalError(w, r, "Failed to search movies", err)
			return
		}
		validation.WriteJSON(w, movies, http.StatusOK)
	}
}

func HandleCreateMovie(gw gateway.Gateway) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in, ok := decodeMovie(w, r)
		if !ok {
			return
		}

		id, err := gw.InsertMovie(r.Context(), in)
		if err != nil {
			mutationError(w, r, "Failed to insert movie", err)
			return
		}
		validation.WriteJSON(w, models.CreatedResponse{NewID: id}, http.StatusOK)
	}
}

// HandleUpdateMovie replaces every field of a movie. A zero affected row
// count means the id matched nothing and is reported as is.
func HandleUpdateMovie(gw gateway.Gateway) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in, ok := decodeMovie(w, r)
		if !ok {
			return
		}

		id, err := validation.ParseID(chi.URLParam(r, "id"))
		if err != nil {
			validation.WriteError(w, err, http.StatusBadRequest)
			return
		}

		n, err := gw.UpdateMovie(r.Context(), id, in)
		if err != nil {
			mutationError(w, r, "Failed to update movie", err)
			return
		}
		validation.WriteJSON(w, models.AffectedResponse{AffectedRows: n}, http.StatusOK)
	}
}

func HandleDeleteMovie(gw gateway.Gateway) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validation.ParseID(chi.URLParam(r, "id"))
		if err != nil {
			validation.WriteError(w, err, http.StatusBadRequest)
			return
		}

		n, err := gw.DeleteMovie(r.Context(), id)
		if err != nil {
			internalError(w, r, "Failed to delete movie", err)
			return
		}
		validation.WriteJSON(w, models.AffectedResponse{AffectedRows: n}, http.StatusOK)
	}
}

// decodeMovie reads and validates a movie body. It writes the 400 response
// itself and reports false when the request must stop. An empty body is
// validated like an empty object.
func decodeMovie(w http.ResponseWriter, r *http.Request) (models.MovieInput, bool) {
	var payload models.MoviePayload
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&payload)
	if err != nil && !errors.Is(err, io.EOF) {
		slog.DebugContext(r.Context(), "Rejected request body", slog.Any("error", err))
		validation.WriteError(w, errors.New(validation.MsgRequestBody), http.StatusBadRequest)
		return models.MovieInput{}, false
	}

	in, err := validation.ValidateMovie(payload)
	if err != nil {
		validation.WriteError(w, err, http.StatusBadRequest)
		return models.MovieInput{}, false
	}
	return in, true
}

// mutationError answers a failed insert or update. Unknown genre or
// director ids are the caller's fault; anything else is ours.
func mutationError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	if errors.Is(err, gateway.ErrReferential) {
		slog.InfoContext(r.Context(), msg, slog.Any("error", err), slog.String("request_id", middleware.GetReqID(r.Context())))
		validation.WriteError(w, errors.New(validation.MsgReference), http.StatusBadRequest)
		return
	}
	internalError(w, r, msg, err)
}

// internalError logs err and answers with a generic 500 so no storage
// detail reaches the client.
func internalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	slog.ErrorContext(r.Context(), msg, slog.Any("error", err), slog.String("request_id", middleware.GetReqID(r.Context())))
	validation.WriteError(w, errors.New(validation.MsgInternal), http.StatusInternalServerError)
}
