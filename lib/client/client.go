// Package client is a typed HTTP client for the catalog API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/icco/catalogo/lib/tech"
	"github.com/icco/catalogo/lib/types"
	"github.com/icco/catalogo/lib/validation"
	"github.com/icco/catalogo/models"
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.Status)
	}
	return e.Message
}

// Search holds the raw query values of GET /api/buscar. Empty fields are
// left out of the request.
type Search struct {
	Title   string
	GenreID string
	Year    string
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// New returns a client for the API rooted at baseURL, for example
// "http://localhost:5000". A nil httpClient means http.DefaultClient.
func New(baseURL string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

func (c *Client) ListMovies(ctx context.Context) ([]models.MovieRow, error) {
	var movies []models.MovieRow
	if err := c.getList(ctx, "/api/peliculas", validation.MovieListSchema, &movies); err != nil {
		return nil, err
	}
	return movies, nil
}

func (c *Client) SearchMovies(ctx context.Context, s Search) ([]models.MovieRow, error) {
	q := url.Values{}
	if s.Title != "" {
		q.Set("titulo", s.Title)
	}
	if s.GenreID != "" {
		q.Set("id_genero", s.GenreID)
	}
	if s.Year != "" {
		q.Set("año", s.Year)
	}
	path := "/api/buscar"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var movies []models.MovieRow
	if err := c.getList(ctx, path, validation.MovieListSchema, &movies); err != nil {
		return nil, err
	}
	return movies, nil
}

func (c *Client) ListGenres(ctx context.Context) ([]models.Genre, error) {
	var genres []models.Genre
	if err := c.getList(ctx, "/api/generos", validation.GenreListSchema, &genres); err != nil {
		return nil, err
	}
	return genres, nil
}

func (c *Client) ListDirectors(ctx context.Context) ([]models.Director, error) {
	var directors []models.Director
	if err := c.getList(ctx, "/api/directores", validation.DirectorListSchema, &directors); err != nil {
		return nil, err
	}
	return directors, nil
}

// CreateMovie posts a new movie and returns the id the server assigned.
func (c *Client) CreateMovie(ctx context.Context, p models.MoviePayload) (int64, error) {
	var out models.CreatedResponse
	if err := c.do(ctx, http.MethodPost, "/api/peliculas", p, &out); err != nil {
		return 0, err
	}
	return out.NewID, nil
}

// UpdateMovie replaces a movie and returns the affected row count.
func (c *Client) UpdateMovie(ctx context.Context, id int64, p models.MoviePayload) (int64, error) {
	var out models.AffectedResponse
	if err := c.do(ctx, http.MethodPut, "/api/peliculas/"+strconv.FormatInt(id, 10), p, &out); err != nil {
		return 0, err
	}
	return out.AffectedRows, nil
}

// DeleteMovie removes a movie and returns the affected row count.
func (c *Client) DeleteMovie(ctx context.Context, id int64) (int64, error) {
	var out models.AffectedResponse
	if err := c.do(ctx, http.MethodDelete, "/api/peliculas/"+strconv.FormatInt(id, 10), nil, &out); err != nil {
		return 0, err
	}
	return out.AffectedRows, nil
}

// Stats fetches catalog totals.
func (c *Client) Stats(ctx context.Context) (types.StatsData, error) {
	var out types.StatsData
	if err := c.do(ctx, http.MethodGet, "/api/estadisticas", nil, &out); err != nil {
		return types.StatsData{}, err
	}
	return out, nil
}

func (c *Client) Technologies(ctx context.Context) ([]tech.Technology, error) {
	var out []tech.Technology
	if err := c.do(ctx, http.MethodGet, "/api/tecnologias", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MoviesByTechnology fetches the movie list through the named technology.
func (c *Client) MoviesByTechnology(ctx context.Context, id string) (tech.Technology, []models.MovieRow, error) {
	var out models.TechnologyResult
	if err := c.do(ctx, http.MethodGet, "/api/peliculas/tecnologia/"+url.PathEscape(id), nil, &out); err != nil {
		return tech.Technology{}, nil, err
	}
	return out.Technology, out.Movies, nil
}

// getList fetches a JSON array and checks it against schema before decoding.
func (c *Client) getList(ctx context.Context, path, schema string, v any) error {
	body, err := c.send(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if err := validation.ValidateAndParse(schema, body, v); err != nil {
		return fmt.Errorf("unexpected response from %s: %w", path, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var reqBody io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}

	body, err := c.send(ctx, method, path, reqBody)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// send performs a request and returns the body of a 2xx response. Other
// statuses become *APIError carrying the server's message.
func (c *Client) send(ctx context.Context, method, path string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Error("failed to close response body", "error", err)
		}
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var envelope models.ErrorResponse
		if err := json.Unmarshal(data, &envelope); err == nil {
			apiErr.Message = envelope.Error
		}
		c.logger.DebugContext(ctx, "API request failed",
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("status", resp.StatusCode),
			slog.String("message", apiErr.Message))
		return nil, apiErr
	}

	return data, nil
}

// IsAPIError reports whether err came from a server response rather than
// from the transport.
func IsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
