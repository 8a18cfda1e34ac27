package http

import (
	"github.com/gin-gonic/gin"

	"github.com/reelsync/reelsync/internal/database"
	"github.com/reelsync/reelsync/internal/tmdb"
)

// RouterConfig carries all dependencies the router wires into controllers.
type RouterConfig struct {
	DB           *database.Database
	Favorites    FavoritesStore
	Watchlist    WatchlistStore
	Catalog      *tmdb.Client
	Sync         SyncService
	Connectivity ConnectivityProbe
	UserID       string
	Version      string
}

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	healthController := NewHealthController(cfg.DB, cfg.Version)
	router.GET("/health", healthController.Status)

	api := router.Group("/api")

	moviesController := NewMoviesController(cfg.Catalog)
	api.GET("/movies/popular", moviesController.PopularMovies)
	api.GET("/movies/search", moviesController.SearchMovies)
	api.GET("/movies/:id", moviesController.MovieDetails)
	api.GET("/movies/:id/videos", moviesController.MovieVideos)

	favoritesController := NewFavoritesController(cfg.Favorites, cfg.Connectivity)
	api.GET("/favorites", favoritesController.ListFavorites)
	api.POST("/favorites", favoritesController.AddFavorite)
	api.POST("/favorites/toggle", favoritesController.ToggleFavorite)
	api.GET("/favorites/:id", favoritesController.CheckFavorite)
	api.DELETE("/favorites/:id", favoritesController.RemoveFavorite)

	watchlistController := NewWatchlistController(cfg.Watchlist, cfg.Connectivity)
	api.GET("/watchlist", watchlistController.ListWatchlist)
	api.POST("/watchlist", watchlistController.AddToWatchlist)
	api.POST("/watchlist/toggle", watchlistController.ToggleWatchlist)
	api.GET("/watchlist/:id", watchlistController.CheckWatchlist)
	api.DELETE("/watchlist/:id", watchlistController.RemoveFromWatchlist)

	syncController := NewSyncController(cfg.Sync, cfg.UserID)
	api.GET("/sync/status", syncController.Status)
	api.POST("/sync/trigger", syncController.Trigger)
	api.POST("/sync/retry", syncController.RetryFailed)
	api.POST("/sync/pull", syncController.Pull)

	adminController := NewAdminController(cfg.DB)
	api.POST("/admin/reset", adminController.Reset)
	api.POST("/admin/reinitialize", adminController.Reinitialize)
	api.POST("/admin/cleanup-orphans", adminController.CleanupOrphans)
	api.GET("/admin/schema-version", adminController.SchemaVersion)

	return router
}
