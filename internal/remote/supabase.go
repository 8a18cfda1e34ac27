// Package remote implements the backend adapter the sync manager drains
// the queue into: a Supabase-style REST API keyed by user id and movie id.
//
// When URL or key are unset the adapter reports unconfigured and the sync
// manager skips remote calls entirely, which keeps fully offline/demo
// builds working.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/reelsync/reelsync/internal/entities"
)

const (
	favoritesTable = "favorites"
	watchlistTable = "watchlist"
)

// SupabaseClient talks to the PostgREST endpoints of a Supabase project.
type SupabaseClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewSupabaseClient creates an adapter for the given project URL and key.
// Empty values yield an unconfigured client whose calls are skipped by
// the sync manager.
func NewSupabaseClient(baseURL, apiKey string) *SupabaseClient {
	return &SupabaseClient{
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		baseURL: baseURL,
		apiKey:  apiKey,
	}
}

// IsConfigured reports whether remote calls can be attempted at all.
func (c *SupabaseClient) IsConfigured() bool {
	return c.baseURL != "" && c.apiKey != ""
}

// remoteRow is the denormalized shape stored remotely: the relation plus a
// copy of the movie metadata, so the backend can serve lists without a
// join against a movie table.
type remoteRow struct {
	UserID       string  `json:"user_id"`
	MovieID      int64   `json:"movie_id"`
	Title        string  `json:"title"`
	Overview     string  `json:"overview,omitempty"`
	PosterPath   string  `json:"poster_path,omitempty"`
	BackdropPath string  `json:"backdrop_path,omitempty"`
	ReleaseDate  string  `json:"release_date,omitempty"`
	VoteAverage  float64 `json:"vote_average,omitempty"`
	GenreIDs     []int   `json:"genre_ids"`
	UpdatedAt    int64   `json:"updated_at"`
}

func rowFromMovie(userID string, movie entities.Movie) remoteRow {
	return remoteRow{
		UserID:       userID,
		MovieID:      movie.ID,
		Title:        movie.Title,
		Overview:     movie.Overview,
		PosterPath:   movie.PosterPath,
		BackdropPath: movie.BackdropPath,
		ReleaseDate:  movie.ReleaseDate,
		VoteAverage:  movie.VoteAverage,
		GenreIDs:     movie.Genres(),
		UpdatedAt:    time.Now().Unix(),
	}
}

func (r remoteRow) toMovie() entities.Movie {
	movie := entities.Movie{
		ID:           r.MovieID,
		Title:        r.Title,
		Overview:     r.Overview,
		PosterPath:   r.PosterPath,
		BackdropPath: r.BackdropPath,
		ReleaseDate:  r.ReleaseDate,
		VoteAverage:  r.VoteAverage,
		UpdatedAt:    r.UpdatedAt,
	}
	movie.SetGenres(r.GenreIDs)
	return movie
}

// AddFavorite upserts the favorite relation, movie metadata included.
func (c *SupabaseClient) AddFavorite(ctx context.Context, userID string, movie entities.Movie) error {
	return c.upsert(ctx, favoritesTable, rowFromMovie(userID, movie))
}

// RemoveFavorite deletes the favorite relation. A missing row is success.
func (c *SupabaseClient) RemoveFavorite(ctx context.Context, userID string, movieID int64) error {
	return c.delete(ctx, favoritesTable, userID, movieID)
}

// GetFavorites lists the user's remote favorites.
func (c *SupabaseClient) GetFavorites(ctx context.Context, userID string) ([]entities.Movie, error) {
	return c.list(ctx, favoritesTable, userID)
}

// AddToWatchlist upserts the watchlist relation, movie metadata included.
func (c *SupabaseClient) AddToWatchlist(ctx context.Context, userID string, movie entities.Movie) error {
	return c.upsert(ctx, watchlistTable, rowFromMovie(userID, movie))
}

// RemoveFromWatchlist deletes the watchlist relation.
func (c *SupabaseClient) RemoveFromWatchlist(ctx context.Context, userID string, movieID int64) error {
	return c.delete(ctx, watchlistTable, userID, movieID)
}

// GetWatchlist lists the user's remote watchlist.
func (c *SupabaseClient) GetWatchlist(ctx context.Context, userID string) ([]entities.Movie, error) {
	return c.list(ctx, watchlistTable, userID)
}

func (c *SupabaseClient) upsert(ctx context.Context, table string, row remoteRow) error {
	payload, err := json.Marshal([]remoteRow{row})
	if err != nil {
		return fmt.Errorf("encode %s row: %w", table, err)
	}

	endpoint := fmt.Sprintf("%s/rest/v1/%s?on_conflict=user_id,movie_id", c.baseURL, table)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "resolution=merge-duplicates")

	return c.do(req, nil)
}

func (c *SupabaseClient) delete(ctx context.Context, table, userID string, movieID int64) error {
	endpoint := fmt.Sprintf("%s/rest/v1/%s?user_id=eq.%s&movie_id=eq.%d",
		c.baseURL, table, url.QueryEscape(userID), movieID)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req)

	return c.do(req, nil)
}

func (c *SupabaseClient) list(ctx context.Context, table, userID string) ([]entities.Movie, error) {
	endpoint := fmt.Sprintf("%s/rest/v1/%s?user_id=eq.%s&select=*",
		c.baseURL, table, url.QueryEscape(userID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req)

	var rows []remoteRow
	if err := c.do(req, &rows); err != nil {
		return nil, err
	}

	movies := make([]entities.Movie, 0, len(rows))
	for _, row := range rows {
		movies = append(movies, row.toMovie())
	}
	return movies, nil
}

func (c *SupabaseClient) setHeaders(req *http.Request) {
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
}

func (c *SupabaseClient) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: unexpected status %d: %s",
			req.Method, req.URL.Path, resp.StatusCode, bytes.TrimSpace(body))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
