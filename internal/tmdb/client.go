// Package tmdb fetches movie metadata from a TMDB-compatible API. It is
// the source of truth for movie fields other than relation membership.
//
// Every read falls back to a fixed local dataset when the client is
// unconfigured or the request fails, so callers never surface a
// loading-forever state.
package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/reelsync/reelsync/internal/entities"
)

// Video is a trailer/teaser entry attached to a movie.
type Video struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Name string `json:"name"`
	Site string `json:"site"`
	Type string `json:"type"`
}

// Client is a read-only TMDB API client.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewClient creates a TMDB client. An empty apiKey yields a client that
// serves only the mock dataset.
func NewClient(apiKey string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: "https://api.themoviedb.org/3",
		apiKey:  apiKey,
	}
}

// NewClientWithBaseURL creates a client against a custom endpoint.
func NewClientWithBaseURL(apiKey, baseURL string) *Client {
	c := NewClient(apiKey)
	c.baseURL = strings.TrimSuffix(baseURL, "/")
	return c
}

// IsConfigured reports whether live API calls can be attempted.
func (c *Client) IsConfigured() bool {
	return c.apiKey != ""
}

// GetPopularMovies returns a page of popular movies, or the mock dataset
// on any failure.
func (c *Client) GetPopularMovies(ctx context.Context, page int) ([]entities.Movie, error) {
	if page < 1 {
		page = 1
	}
	if !c.IsConfigured() {
		return MockMovies(), nil
	}

	endpoint := fmt.Sprintf("%s/movie/popular?api_key=%s&page=%d", c.baseURL, url.QueryEscape(c.apiKey), page)
	var result movieListResponse
	if err := c.get(ctx, endpoint, &result); err != nil {
		log.Printf("[TMDB] popular movies: %v (serving mock dataset)", err)
		return MockMovies(), nil
	}
	return convertMovies(result.Results), nil
}

// SearchMovies searches by title, falling back to a substring match over
// the mock dataset.
func (c *Client) SearchMovies(ctx context.Context, query string) ([]entities.Movie, error) {
	if strings.TrimSpace(query) == "" {
		return []entities.Movie{}, nil
	}
	if !c.IsConfigured() {
		return searchMock(query), nil
	}

	endpoint := fmt.Sprintf("%s/search/movie?api_key=%s&query=%s",
		c.baseURL, url.QueryEscape(c.apiKey), url.QueryEscape(query))
	var result movieListResponse
	if err := c.get(ctx, endpoint, &result); err != nil {
		log.Printf("[TMDB] search %q: %v (serving mock dataset)", query, err)
		return searchMock(query), nil
	}
	return convertMovies(result.Results), nil
}

// GetMovieDetails fetches a single movie, or its mock counterpart.
func (c *Client) GetMovieDetails(ctx context.Context, id int64) (*entities.Movie, error) {
	if !c.IsConfigured() {
		return mockByID(id), nil
	}

	endpoint := fmt.Sprintf("%s/movie/%d?api_key=%s", c.baseURL, id, url.QueryEscape(c.apiKey))
	var result movieDetails
	if err := c.get(ctx, endpoint, &result); err != nil {
		log.Printf("[TMDB] movie %d details: %v (serving mock dataset)", id, err)
		return mockByID(id), nil
	}

	genreIDs := make([]int, 0, len(result.Genres))
	for _, g := range result.Genres {
		genreIDs = append(genreIDs, g.ID)
	}
	movie := convertMovie(result.movieResult)
	movie.SetGenres(genreIDs)
	return &movie, nil
}

// GetMovieVideos fetches trailers/teasers for a movie; empty on failure.
func (c *Client) GetMovieVideos(ctx context.Context, id int64) ([]Video, error) {
	if !c.IsConfigured() {
		return []Video{}, nil
	}

	endpoint := fmt.Sprintf("%s/movie/%d/videos?api_key=%s", c.baseURL, id, url.QueryEscape(c.apiKey))
	var result struct {
		Results []Video `json:"results"`
	}
	if err := c.get(ctx, endpoint, &result); err != nil {
		log.Printf("[TMDB] movie %d videos: %v", id, err)
		return []Video{}, nil
	}
	return result.Results, nil
}

func (c *Client) get(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// TMDB API response types (internal)

type movieResult struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title"`
	Overview     string  `json:"overview"`
	PosterPath   string  `json:"poster_path"`
	BackdropPath string  `json:"backdrop_path"`
	ReleaseDate  string  `json:"release_date"`
	VoteAverage  float64 `json:"vote_average"`
	GenreIDs     []int   `json:"genre_ids"`
}

type movieListResponse struct {
	Page    int           `json:"page"`
	Results []movieResult `json:"results"`
}

type movieDetails struct {
	movieResult
	Genres []struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	} `json:"genres"`
}

func convertMovie(r movieResult) entities.Movie {
	movie := entities.Movie{
		ID:           r.ID,
		Title:        r.Title,
		Overview:     r.Overview,
		PosterPath:   r.PosterPath,
		BackdropPath: r.BackdropPath,
		ReleaseDate:  r.ReleaseDate,
		VoteAverage:  r.VoteAverage,
	}
	movie.SetGenres(r.GenreIDs)
	return movie
}

func convertMovies(results []movieResult) []entities.Movie {
	movies := make([]entities.Movie, 0, len(results))
	for _, r := range results {
		movies = append(movies, convertMovie(r))
	}
	return movies
}
