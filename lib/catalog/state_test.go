package catalog

import (
	"context"
	"errors"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/icco/catalogo/handlers"
	"github.com/icco/catalogo/lib/client"
	"github.com/icco/catalogo/lib/db/dbtest"
	"github.com/icco/catalogo/lib/gateway"
	"github.com/icco/catalogo/lib/tech"
	"github.com/icco/catalogo/lib/validation"
	"github.com/icco/catalogo/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newAPI serves the real handlers over a fresh catalog.
func newAPI(t *testing.T) *client.Client {
	t.Helper()

	techs, err := tech.Load()
	require.NoError(t, err)

	r := chi.NewRouter()
	handlers.Mount(r, gateway.New(dbtest.Open(t), dbtest.Logger()), techs)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return client.New(srv.URL, srv.Client(), dbtest.Logger())
}

func newState(t *testing.T, api API, confirm ConfirmFunc) *State {
	t.Helper()
	s := New(api, confirm, dbtest.Logger())
	s.now = func() time.Time { return formClock }
	return s
}

func yes(string) bool { return true }

func TestLoad(t *testing.T) {
	s := newState(t, newAPI(t), yes)

	require.NoError(t, s.Load(context.Background()))

	v := s.Snapshot()
	assert.Empty(t, v.Movies)
	assert.Len(t, v.Genres, 6)
	assert.Len(t, v.Directors, 6)
	assert.False(t, v.Loading)
	assert.Empty(t, v.Error)
}

func TestCreateEditDelete(t *testing.T) {
	ctx := context.Background()
	s := newState(t, newAPI(t), yes)
	require.NoError(t, s.Load(ctx))

	s.NewMovie()
	assert.True(t, s.Snapshot().FormVisible)
	s.SetForm(validForm())
	require.NoError(t, s.Submit(ctx))

	v := s.Snapshot()
	require.Len(t, v.Movies, 1)
	created := v.Movies[0]
	assert.Equal(t, "Película \"Inception\" agregada con ID: "+strconv.FormatInt(created.ID, 10), v.Success)
	assert.Equal(t, Form{}, v.Form)
	assert.Zero(t, v.EditingID)
	assert.False(t, v.FormVisible)

	s.Edit(created)
	v = s.Snapshot()
	assert.Equal(t, created.ID, v.EditingID)
	assert.Equal(t, "Inception", v.Form.Title)

	f := v.Form
	f.Title = "El origen"
	s.SetForm(f)
	require.NoError(t, s.Submit(ctx))

	v = s.Snapshot()
	require.Len(t, v.Movies, 1)
	assert.Equal(t, "El origen", v.Movies[0].Title)
	assert.Equal(t, created.ID, v.Movies[0].ID)
	assert.Equal(t, "Película \"El origen\" actualizada correctamente", v.Success)
	assert.Zero(t, v.EditingID)

	deleted, err := s.Delete(ctx, v.Movies[0])
	require.NoError(t, err)
	assert.True(t, deleted)

	v = s.Snapshot()
	assert.Empty(t, v.Movies)
	assert.Equal(t, "Película \"El origen\" eliminada", v.Success)
}

func TestSubmitInvalidFormMakesNoRequest(t *testing.T) {
	api := &fakeAPI{}
	s := newState(t, api, yes)

	f := validForm()
	f.Year = "1700"
	s.SetForm(f)

	err := s.Submit(context.Background())
	require.Error(t, err)
	assert.Equal(t, validation.MsgYear, s.Snapshot().Error)
	assert.Zero(t, api.calls())
}

func TestSubmitShowsServerMessage(t *testing.T) {
	ctx := context.Background()
	s := newState(t, newAPI(t), yes)
	require.NoError(t, s.Load(ctx))

	f := validForm()
	f.GenreID = "999"
	s.NewMovie()
	s.SetForm(f)

	require.Error(t, s.Submit(ctx))
	v := s.Snapshot()
	assert.Equal(t, validation.MsgReference, v.Error)
	assert.True(t, v.FormVisible, "draft stays open after a failed submit")
	assert.Equal(t, f, v.Form)
	assert.Empty(t, v.Movies)
}

func TestDeleteDeclined(t *testing.T) {
	api := &fakeAPI{}
	var prompt string
	s := newState(t, api, func(p string) bool { prompt = p; return false })

	deleted, err := s.Delete(context.Background(), row(5, "Roma", 2018, 4))
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.Equal(t, "¿Desea eliminar \"Roma\"?", prompt)
	assert.Zero(t, api.calls())
}

func TestDeleteWithoutConfirmIsDeclined(t *testing.T) {
	api := &fakeAPI{}
	s := newState(t, api, nil)

	deleted, err := s.Delete(context.Background(), row(5, "Roma", 2018, 4))
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.Zero(t, api.calls())
}

func TestLoadFailureEmptiesLists(t *testing.T) {
	api := &fakeAPI{
		movies: []models.MovieRow{row(1, "Roma", 2018, 4)},
		genres: []models.Genre{{ID: 1, Name: "Drama"}},
	}
	s := newState(t, api, yes)
	require.NoError(t, s.Load(context.Background()))
	require.Len(t, s.Snapshot().Movies, 1)

	api.fail(errors.New("dial tcp: connection refused"))
	require.Error(t, s.Load(context.Background()))

	v := s.Snapshot()
	assert.Empty(t, v.Movies)
	assert.Empty(t, v.Genres)
	assert.Empty(t, v.Directors)
	assert.Equal(t, MsgConnection, v.Error)
}

func TestRefreshFailureKeepsList(t *testing.T) {
	api := &fakeAPI{movies: []models.MovieRow{row(1, "Roma", 2018, 4)}}
	s := newState(t, api, yes)
	require.NoError(t, s.Load(context.Background()))

	api.fail(&client.APIError{Status: 500, Message: validation.MsgInternal})
	require.Error(t, s.Refresh(context.Background()))

	v := s.Snapshot()
	assert.Len(t, v.Movies, 1)
	assert.Equal(t, validation.MsgInternal, v.Error)
}

func TestFiltersApplyToLoadedMovies(t *testing.T) {
	api := &fakeAPI{movies: []models.MovieRow{
		row(1, "Inception", 2010, 2),
		row(2, "Roma", 2018, 4),
	}}
	s := newState(t, api, yes)
	require.NoError(t, s.Load(context.Background()))

	assert.Len(t, s.Filtered(), 2)

	s.SetFilters(Filters{GenreID: "4"})
	assert.Equal(t, []string{"Roma"}, titles(s.Filtered()))

	api.setMovies([]models.MovieRow{row(1, "Inception", 2010, 2), row(2, "Roma", 2018, 4), row(3, "Macario", 1960, 4)})
	require.NoError(t, s.Refresh(context.Background()))
	assert.Equal(t, []string{"Roma", "Macario"}, titles(s.Filtered()), "filters survive a refresh")

	s.ClearFilters()
	assert.Len(t, s.Filtered(), 3)
}

func TestCancelEdit(t *testing.T) {
	s := newState(t, &fakeAPI{}, yes)

	s.Edit(row(3, "Roma", 2018, 4))
	s.CancelEdit()

	v := s.Snapshot()
	assert.Zero(t, v.EditingID)
	assert.Equal(t, Form{}, v.Form)
	assert.False(t, v.FormVisible)
}

func TestMessage(t *testing.T) {
	assert.Equal(t, validation.MsgYear, Message(&validation.Error{Field: "año", Message: validation.MsgYear}))
	assert.Equal(t, "Género o director no válido", Message(&client.APIError{Status: 400, Message: validation.MsgReference}))
	assert.Equal(t, MsgConnection, Message(&client.APIError{Status: 502}))
	assert.Equal(t, MsgConnection, Message(errors.New("timeout")))
}

// fakeAPI is an in-memory API that can be told to fail every call.
type fakeAPI struct {
	mu     sync.Mutex
	movies []models.MovieRow
	genres []models.Genre
	err    error
	n      int
}

func (f *fakeAPI) fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeAPI) setMovies(m []models.MovieRow) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.movies = m
}

func (f *fakeAPI) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.n
}

func (f *fakeAPI) track() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.n++
	return f.err
}

func (f *fakeAPI) ListMovies(context.Context) ([]models.MovieRow, error) {
	if err := f.track(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.MovieRow{}, f.movies...), nil
}

func (f *fakeAPI) ListGenres(context.Context) ([]models.Genre, error) {
	if err := f.track(); err != nil {
		return nil, err
	}
	return f.genres, nil
}

func (f *fakeAPI) ListDirectors(context.Context) ([]models.Director, error) {
	return nil, f.track()
}

func (f *fakeAPI) CreateMovie(context.Context, models.MoviePayload) (int64, error) {
	return 1, f.track()
}

func (f *fakeAPI) UpdateMovie(context.Context, int64, models.MoviePayload) (int64, error) {
	return 1, f.track()
}

func (f *fakeAPI) DeleteMovie(context.Context, int64) (int64, error) {
	return 1, f.track()
}
