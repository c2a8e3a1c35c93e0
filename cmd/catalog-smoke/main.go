// Command catalog-smoke drives a running catalog API through a full
// create, search, update and delete cycle and logs every step. It leaves
// the catalog as it found it.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/icco/catalogo/lib/catalog"
	"github.com/icco/catalogo/lib/client"
	"github.com/icco/catalogo/lib/validation"
)

const smokeTitle = "Prueba de humo"

func main() {
	baseURL := flag.String("url", "http://localhost:5000", "base URL of the catalog API")
	timeout := flag.Duration("timeout", 30*time.Second, "overall timeout")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})))
	logger := slog.Default()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	c := client.New(*baseURL, &http.Client{Timeout: 10 * time.Second}, logger)
	if err := run(ctx, c, logger); err != nil {
		logger.Error("Smoke test failed", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("=== SMOKE TEST PASSED ===")
}

func run(ctx context.Context, c *client.Client, logger *slog.Logger) error {
	logger.Info("=== TESTING ENDPOINTS ===", slog.String("title", smokeTitle))

	state := catalog.New(c, func(string) bool { return true }, logger)

	logger.Info("Step 1: initial load")
	if err := state.Load(ctx); err != nil {
		return fmt.Errorf("initial load: %w", err)
	}
	view := state.Snapshot()
	if len(view.Genres) == 0 || len(view.Directors) == 0 {
		return errors.New("catalog has no genres or directors to reference")
	}
	logger.Info("Loaded catalog",
		slog.Int("movies", len(view.Movies)),
		slog.Int("genres", len(view.Genres)),
		slog.Int("directors", len(view.Directors)))

	logger.Info("Step 2: create")
	state.NewMovie()
	state.SetForm(catalog.Form{
		Title:      smokeTitle,
		Year:       "2010",
		Duration:   "90",
		Rating:     "7.5",
		GenreID:    fmt.Sprint(view.Genres[0].ID),
		DirectorID: fmt.Sprint(view.Directors[0].ID),
	})
	if err := state.Submit(ctx); err != nil {
		return fmt.Errorf("create: %w", err)
	}
	logger.Info("Create answered", slog.String("message", state.Snapshot().Success))

	logger.Info("Step 3: search")
	found, err := c.SearchMovies(ctx, client.Search{Title: smokeTitle, Year: "2010"})
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}
	if len(found) == 0 {
		return errors.New("search did not return the created movie")
	}
	movie := found[0]

	logger.Info("Step 4: update")
	state.Edit(movie)
	form := state.Snapshot().Form
	form.Rating = "8"
	state.SetForm(form)
	if err := state.Submit(ctx); err != nil {
		return fmt.Errorf("update: %w", err)
	}
	logger.Info("Update answered", slog.String("message", state.Snapshot().Success))

	logger.Info("Step 5: invalid year is rejected")
	bad := catalog.FormFromMovie(movie).Payload()
	bad.Year = 1800
	_, err = c.CreateMovie(ctx, bad)
	if apiErr, ok := client.IsAPIError(err); !ok || apiErr.Status != http.StatusBadRequest || apiErr.Message != validation.MsgYear {
		return fmt.Errorf("expected a 400 %q, got %v", validation.MsgYear, err)
	}

	logger.Info("Step 6: delete")
	deleted, err := state.Delete(ctx, movie)
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	if !deleted {
		return errors.New("delete was not carried out")
	}

	logger.Info("Step 7: update of a deleted movie affects nothing")
	n, err := c.UpdateMovie(ctx, movie.ID, catalog.FormFromMovie(movie).Payload())
	if err != nil {
		return fmt.Errorf("update deleted: %w", err)
	}
	if n != 0 {
		return fmt.Errorf("expected 0 affected rows, got %d", n)
	}

	logger.Info("Step 8: stats")
	stats, err := c.Stats(ctx)
	if err != nil {
		return fmt.Errorf("stats: %w", err)
	}
	logger.Info("Stats", slog.Int64("movies", stats.TotalMovies), slog.Float64("average_rating", stats.AverageRating))

	return nil
}
