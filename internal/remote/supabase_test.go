package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelsync/reelsync/internal/entities"
)

func testMovie(id int64, title string) entities.Movie {
	movie := entities.Movie{ID: id, Title: title, VoteAverage: 8.0}
	movie.SetGenres([]int{18, 80})
	return movie
}

func TestSupabaseClient_IsConfigured(t *testing.T) {
	assert.False(t, NewSupabaseClient("", "").IsConfigured())
	assert.False(t, NewSupabaseClient("https://x.supabase.co", "").IsConfigured())
	assert.False(t, NewSupabaseClient("", "key").IsConfigured())
	assert.True(t, NewSupabaseClient("https://x.supabase.co", "key").IsConfigured())
}

func TestSupabaseClient_AddFavorite(t *testing.T) {
	var captured []remoteRow
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/rest/v1/favorites", r.URL.Path)
		assert.Equal(t, "user_id,movie_id", r.URL.Query().Get("on_conflict"))
		assert.Equal(t, "secret", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "resolution=merge-duplicates", r.Header.Get("Prefer"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	client := NewSupabaseClient(srv.URL, "secret")
	err := client.AddFavorite(context.Background(), "user-1", testMovie(42, "Movie"))
	require.NoError(t, err)

	require.Len(t, captured, 1)
	assert.Equal(t, "user-1", captured[0].UserID)
	assert.Equal(t, int64(42), captured[0].MovieID)
	assert.Equal(t, "Movie", captured[0].Title)
	assert.Equal(t, []int{18, 80}, captured[0].GenreIDs)
	assert.NotZero(t, captured[0].UpdatedAt)
}

func TestSupabaseClient_RemoveFavorite(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/rest/v1/favorites", r.URL.Path)
		assert.Equal(t, "eq.user-1", r.URL.Query().Get("user_id"))
		assert.Equal(t, "eq.42", r.URL.Query().Get("movie_id"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := NewSupabaseClient(srv.URL, "secret")
	err := client.RemoveFavorite(context.Background(), "user-1", 42)
	require.NoError(t, err)
}

func TestSupabaseClient_GetWatchlist(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/rest/v1/watchlist", r.URL.Path)
		assert.Equal(t, "eq.user-1", r.URL.Query().Get("user_id"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"user_id":"user-1","movie_id":603,"title":"The Matrix","genre_ids":[28,878],"updated_at":1700000000}]`))
	}))
	defer srv.Close()

	client := NewSupabaseClient(srv.URL, "secret")
	movies, err := client.GetWatchlist(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, movies, 1)
	assert.Equal(t, int64(603), movies[0].ID)
	assert.Equal(t, "The Matrix", movies[0].Title)
	assert.Equal(t, []int{28, 878}, movies[0].Genres())
}

func TestSupabaseClient_ErrorStatusSurfacesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"invalid api key"}`))
	}))
	defer srv.Close()

	client := NewSupabaseClient(srv.URL, "wrong")
	err := client.AddToWatchlist(context.Background(), "user-1", testMovie(42, "Movie"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Contains(t, err.Error(), "invalid api key")
}
