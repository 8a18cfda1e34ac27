package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/reelsync/reelsync/internal/entities"
)

// FavoritesStore defines the relation operations the favorites endpoints use.
type FavoritesStore interface {
	Add(movie *entities.Movie, isOnline bool) (bool, error)
	Remove(movieID int64, isOnline bool) (bool, error)
	Toggle(movie *entities.Movie, isOnline bool) (bool, error)
	GetAll() ([]entities.Movie, error)
	IsFavorite(movieID int64) (bool, error)
	Count() (int64, error)
}

// ConnectivityProbe reports current connectivity, deciding whether relation
// writes go to the sync queue.
type ConnectivityProbe interface {
	Online() bool
}

type FavoritesController struct {
	store        FavoritesStore
	connectivity ConnectivityProbe
}

func NewFavoritesController(store FavoritesStore, connectivity ConnectivityProbe) *FavoritesController {
	return &FavoritesController{store: store, connectivity: connectivity}
}

// movieRequest is the payload for add/toggle endpoints: the movie metadata
// the client already holds, cached locally alongside the relation.
type movieRequest struct {
	ID           int64   `json:"id" binding:"required"`
	Title        string  `json:"title"`
	Overview     string  `json:"overview"`
	PosterPath   string  `json:"poster_path"`
	BackdropPath string  `json:"backdrop_path"`
	ReleaseDate  string  `json:"release_date"`
	VoteAverage  float64 `json:"vote_average"`
	GenreIDs     []int   `json:"genre_ids"`
}

func (r movieRequest) toMovie() *entities.Movie {
	movie := &entities.Movie{
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

// AddFavorite adds a movie to favorites.
// POST /api/favorites
func (fc *FavoritesController) AddFavorite(c *gin.Context) {
	var req movieRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid movie payload")
		return
	}

	added, err := fc.store.Add(req.toMovie(), fc.connectivity.Online())
	if err != nil {
		respondInternalError(c, err, "add favorite")
		return
	}

	if !added {
		respondSuccess(c, "already a favorite")
		return
	}
	c.JSON(http.StatusCreated, SuccessResponse{Message: "favorite added"})
}

// RemoveFavorite removes a movie from favorites.
// DELETE /api/favorites/:id
func (fc *FavoritesController) RemoveFavorite(c *gin.Context) {
	id, ok := parseMovieIDParam(c, "id")
	if !ok {
		return
	}

	removed, err := fc.store.Remove(id, fc.connectivity.Online())
	if err != nil {
		respondInternalError(c, err, "remove favorite")
		return
	}

	if !removed {
		respondSuccess(c, "not a favorite")
		return
	}
	respondSuccess(c, "favorite removed")
}

// ToggleFavorite flips the favorite state of a movie.
// POST /api/favorites/toggle
func (fc *FavoritesController) ToggleFavorite(c *gin.Context) {
	var req movieRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid movie payload")
		return
	}

	isFavorite, err := fc.store.Toggle(req.toMovie(), fc.connectivity.Online())
	if err != nil {
		respondInternalError(c, err, "toggle favorite")
		return
	}

	c.JSON(http.StatusOK, gin.H{"is_favorite": isFavorite})
}

// ListFavorites returns all favorite movies.
// GET /api/favorites
func (fc *FavoritesController) ListFavorites(c *gin.Context) {
	movies, err := fc.store.GetAll()
	if err != nil {
		respondInternalError(c, err, "list favorites")
		return
	}

	count, err := fc.store.Count()
	if err != nil {
		respondInternalError(c, err, "count favorites")
		return
	}

	c.JSON(http.StatusOK, gin.H{"movies": movies, "total": count})
}

// CheckFavorite reports whether a movie is a favorite.
// GET /api/favorites/:id
func (fc *FavoritesController) CheckFavorite(c *gin.Context) {
	id, ok := parseMovieIDParam(c, "id")
	if !ok {
		return
	}

	isFavorite, err := fc.store.IsFavorite(id)
	if err != nil {
		respondInternalError(c, err, "check favorite")
		return
	}

	c.JSON(http.StatusOK, gin.H{"is_favorite": isFavorite})
}
