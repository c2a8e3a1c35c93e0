// Package catalog keeps the client-side view of the movie catalog: the
// movie list, genre and director lookups, the active filters and the
// create/edit draft. Every mutation is followed by a full list refresh, so
// the view only ever shows server-confirmed data.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/icco/catalogo/lib/client"
	"github.com/icco/catalogo/lib/validation"
	"github.com/icco/catalogo/models"
	"golang.org/x/sync/errgroup"
)

// MsgConnection is shown when a failure carries no server message.
const MsgConnection = "No se pudo conectar con el servidor"

// API is the subset of the catalog API the state needs. *client.Client
// implements it.
type API interface {
	ListMovies(ctx context.Context) ([]models.MovieRow, error)
	ListGenres(ctx context.Context) ([]models.Genre, error)
	ListDirectors(ctx context.Context) ([]models.Director, error)
	CreateMovie(ctx context.Context, p models.MoviePayload) (int64, error)
	UpdateMovie(ctx context.Context, id int64, p models.MoviePayload) (int64, error)
	DeleteMovie(ctx context.Context, id int64) (int64, error)
}

// ConfirmFunc asks the user a yes/no question.
type ConfirmFunc func(prompt string) bool

// View is a point-in-time copy of the state for rendering.
type View struct {
	Movies      []models.MovieRow
	Filtered    []models.MovieRow
	Genres      []models.Genre
	Directors   []models.Director
	Filters     Filters
	Form        Form
	EditingID   int64
	FormVisible bool
	Loading     bool
	Error       string
	Success     string
}

type State struct {
	api     API
	confirm ConfirmFunc
	logger  *slog.Logger
	now     func() time.Time

	mu          sync.Mutex
	movies      []models.MovieRow
	filtered    []models.MovieRow
	genres      []models.Genre
	directors   []models.Director
	filters     Filters
	form        Form
	editingID   int64
	formVisible bool
	loading     bool
	errMsg      string
	success     string
}

// New returns an empty state. confirm gates deletions; a nil confirm
// declines every deletion.
func New(api API, confirm ConfirmFunc, logger *slog.Logger) *State {
	return &State{
		api:     api,
		confirm: confirm,
		logger:  logger,
		now:     time.Now,
	}
}

// Load fetches movies, genres and directors together. The state is only
// populated when all three succeed; otherwise the lists are emptied and the
// first error is reported.
func (s *State) Load(ctx context.Context) error {
	s.start()
	defer s.finish()

	var (
		movies    []models.MovieRow
		genres    []models.Genre
		directors []models.Director
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		movies, err = s.api.ListMovies(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		genres, err = s.api.ListGenres(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		directors, err = s.api.ListDirectors(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		s.mu.Lock()
		s.movies, s.genres, s.directors = nil, nil, nil
		s.refilter()
		s.mu.Unlock()
		s.fail("Initial load failed", err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.movies, s.genres, s.directors = movies, genres, directors
	s.refilter()
	s.logger.Debug("Catalog loaded",
		slog.Int("movies", len(movies)),
		slog.Int("genres", len(genres)),
		slog.Int("directors", len(directors)))
	return nil
}

// SetFilters replaces the active filters and recomputes the filtered view.
func (s *State) SetFilters(f Filters) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters = f
	s.refilter()
}

func (s *State) ClearFilters() {
	s.SetFilters(Filters{})
}

// NewMovie opens an empty draft for a new movie.
func (s *State) NewMovie() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.editingID = 0
	s.form = Form{}
	s.formVisible = true
}

// Edit opens a draft filled with m and marks m as the edit target.
func (s *State) Edit(m models.MovieRow) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.form = FormFromMovie(m)
	s.editingID = m.ID
	s.formVisible = true
}

// CancelEdit drops the draft and the edit target.
func (s *State) CancelEdit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.editingID = 0
	s.form = Form{}
	s.formVisible = false
}

// SetForm replaces the draft with user input.
func (s *State) SetForm(f Form) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.form = f
}

// Submit validates the draft locally, then updates the edit target or
// creates a new movie. On success the draft is closed and the list is
// fetched again.
func (s *State) Submit(ctx context.Context) error {
	s.mu.Lock()
	form, editingID := s.form, s.editingID
	if err := ValidateForm(form, s.now()); err != nil {
		s.errMsg = err.Error()
		s.success = ""
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	s.start()
	defer s.finish()

	var success string
	if editingID != 0 {
		if _, err := s.api.UpdateMovie(ctx, editingID, form.Payload()); err != nil {
			s.fail("Update failed", err)
			return err
		}
		success = fmt.Sprintf("Película \"%s\" actualizada correctamente", form.Title)
	} else {
		id, err := s.api.CreateMovie(ctx, form.Payload())
		if err != nil {
			s.fail("Create failed", err)
			return err
		}
		success = fmt.Sprintf("Película \"%s\" agregada con ID: %d", form.Title, id)
	}

	s.mu.Lock()
	s.form = Form{}
	s.editingID = 0
	s.formVisible = false
	s.success = success
	s.mu.Unlock()

	return s.refresh(ctx)
}

// Delete removes m after the user confirms. It reports whether the
// deletion went ahead.
func (s *State) Delete(ctx context.Context, m models.MovieRow) (bool, error) {
	if s.confirm == nil || !s.confirm(fmt.Sprintf("¿Desea eliminar \"%s\"?", m.Title)) {
		return false, nil
	}

	s.start()
	defer s.finish()

	if _, err := s.api.DeleteMovie(ctx, m.ID); err != nil {
		s.fail("Delete failed", err)
		return false, err
	}

	s.mu.Lock()
	s.success = fmt.Sprintf("Película \"%s\" eliminada", m.Title)
	s.mu.Unlock()

	return true, s.refresh(ctx)
}

// Refresh fetches the movie list again.
func (s *State) Refresh(ctx context.Context) error {
	s.start()
	defer s.finish()
	return s.refresh(ctx)
}

// Filtered returns the movies that pass the active filters.
func (s *State) Filtered() []models.MovieRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clone(s.filtered)
}

// Snapshot copies the whole state.
func (s *State) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return View{
		Movies:      clone(s.movies),
		Filtered:    clone(s.filtered),
		Genres:      clone(s.genres),
		Directors:   clone(s.directors),
		Filters:     s.filters,
		Form:        s.form,
		EditingID:   s.editingID,
		FormVisible: s.formVisible,
		Loading:     s.loading,
		Error:       s.errMsg,
		Success:     s.success,
	}
}

// Message picks the text to show for err: the server's own message when
// there is one, else a generic connectivity message.
func Message(err error) string {
	var verr *validation.Error
	if errors.As(err, &verr) {
		return verr.Message
	}
	if apiErr, ok := client.IsAPIError(err); ok && apiErr.Message != "" {
		return apiErr.Message
	}
	return MsgConnection
}

func (s *State) refresh(ctx context.Context) error {
	movies, err := s.api.ListMovies(ctx)
	if err != nil {
		s.fail("Refresh failed", err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.movies = movies
	s.refilter()
	return nil
}

// refilter must be called with mu held.
func (s *State) refilter() {
	s.filtered = Apply(s.movies, s.filters)
}

func (s *State) start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = true
	s.errMsg = ""
}

func (s *State) finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
}

func (s *State) fail(msg string, err error) {
	s.logger.Warn(msg, slog.Any("error", err))
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errMsg = Message(err)
	s.success = ""
}

func clone[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}
