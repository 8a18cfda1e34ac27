package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/reelsync/reelsync/internal/tmdb"
)

type MoviesController struct {
	catalog *tmdb.Client
}

func NewMoviesController(catalog *tmdb.Client) *MoviesController {
	return &MoviesController{catalog: catalog}
}

// PopularMovies returns a page of popular movies.
// GET /api/movies/popular?page=1
func (mc *MoviesController) PopularMovies(c *gin.Context) {
	page := 1
	if pageStr := c.Query("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			page = p
		}
	}

	movies, err := mc.catalog.GetPopularMovies(c.Request.Context(), page)
	if err != nil {
		respondInternalError(c, err, "popular movies")
		return
	}

	c.JSON(http.StatusOK, gin.H{"movies": movies, "page": page})
}

// SearchMovies searches movies by title.
// GET /api/movies/search?query=...
func (mc *MoviesController) SearchMovies(c *gin.Context) {
	query := strings.TrimSpace(c.Query("query"))
	if query == "" {
		respondBadRequest(c, "query is required")
		return
	}

	movies, err := mc.catalog.SearchMovies(c.Request.Context(), query)
	if err != nil {
		respondInternalError(c, err, "search movies")
		return
	}

	c.JSON(http.StatusOK, gin.H{"movies": movies, "query": query})
}

// MovieDetails returns metadata for a single movie.
// GET /api/movies/:id
func (mc *MoviesController) MovieDetails(c *gin.Context) {
	id, ok := parseMovieIDParam(c, "id")
	if !ok {
		return
	}

	movie, err := mc.catalog.GetMovieDetails(c.Request.Context(), id)
	if err != nil {
		respondInternalError(c, err, "movie details")
		return
	}
	if movie == nil {
		respondNotFound(c, "movie")
		return
	}

	c.JSON(http.StatusOK, movie)
}

// MovieVideos returns trailers and teasers for a movie.
// GET /api/movies/:id/videos
func (mc *MoviesController) MovieVideos(c *gin.Context) {
	id, ok := parseMovieIDParam(c, "id")
	if !ok {
		return
	}

	videos, err := mc.catalog.GetMovieVideos(c.Request.Context(), id)
	if err != nil {
		respondInternalError(c, err, "movie videos")
		return
	}

	c.JSON(http.StatusOK, gin.H{"videos": videos})
}
