package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/reelsync/reelsync/internal/entities"
)

// WatchlistStore defines the relation operations the watchlist endpoints use.
type WatchlistStore interface {
	Add(movie *entities.Movie, isOnline bool) (bool, error)
	Remove(movieID int64, isOnline bool) (bool, error)
	Toggle(movie *entities.Movie, isOnline bool) (bool, error)
	GetAll() ([]entities.Movie, error)
	IsInWatchlist(movieID int64) (bool, error)
	Count() (int64, error)
}

type WatchlistController struct {
	store        WatchlistStore
	connectivity ConnectivityProbe
}

func NewWatchlistController(store WatchlistStore, connectivity ConnectivityProbe) *WatchlistController {
	return &WatchlistController{store: store, connectivity: connectivity}
}

// AddToWatchlist adds a movie to the watchlist.
// POST /api/watchlist
func (wc *WatchlistController) AddToWatchlist(c *gin.Context) {
	var req movieRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid movie payload")
		return
	}

	added, err := wc.store.Add(req.toMovie(), wc.connectivity.Online())
	if err != nil {
		respondInternalError(c, err, "add to watchlist")
		return
	}

	if !added {
		respondSuccess(c, "already in watchlist")
		return
	}
	c.JSON(http.StatusCreated, SuccessResponse{Message: "added to watchlist"})
}

// RemoveFromWatchlist removes a movie from the watchlist.
// DELETE /api/watchlist/:id
func (wc *WatchlistController) RemoveFromWatchlist(c *gin.Context) {
	id, ok := parseMovieIDParam(c, "id")
	if !ok {
		return
	}

	removed, err := wc.store.Remove(id, wc.connectivity.Online())
	if err != nil {
		respondInternalError(c, err, "remove from watchlist")
		return
	}

	if !removed {
		respondSuccess(c, "not in watchlist")
		return
	}
	respondSuccess(c, "removed from watchlist")
}

// ToggleWatchlist flips the watchlist state of a movie.
// POST /api/watchlist/toggle
func (wc *WatchlistController) ToggleWatchlist(c *gin.Context) {
	var req movieRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid movie payload")
		return
	}

	inWatchlist, err := wc.store.Toggle(req.toMovie(), wc.connectivity.Online())
	if err != nil {
		respondInternalError(c, err, "toggle watchlist")
		return
	}

	c.JSON(http.StatusOK, gin.H{"in_watchlist": inWatchlist})
}

// ListWatchlist returns all watchlist movies.
// GET /api/watchlist
func (wc *WatchlistController) ListWatchlist(c *gin.Context) {
	movies, err := wc.store.GetAll()
	if err != nil {
		respondInternalError(c, err, "list watchlist")
		return
	}

	count, err := wc.store.Count()
	if err != nil {
		respondInternalError(c, err, "count watchlist")
		return
	}

	c.JSON(http.StatusOK, gin.H{"movies": movies, "total": count})
}

// CheckWatchlist reports whether a movie is in the watchlist.
// GET /api/watchlist/:id
func (wc *WatchlistController) CheckWatchlist(c *gin.Context) {
	id, ok := parseMovieIDParam(c, "id")
	if !ok {
		return
	}

	inWatchlist, err := wc.store.IsInWatchlist(id)
	if err != nil {
		respondInternalError(c, err, "check watchlist")
		return
	}

	c.JSON(http.StatusOK, gin.H{"in_watchlist": inWatchlist})
}
