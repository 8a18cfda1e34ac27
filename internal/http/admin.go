package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/reelsync/reelsync/internal/database"
)

// AdminController exposes maintenance endpoints for the local cache.
type AdminController struct {
	db *database.Database
}

func NewAdminController(db *database.Database) *AdminController {
	return &AdminController{db: db}
}

// Reset deletes the database file. Subsequent reads degrade to empty
// results until Reinitialize is called.
// POST /api/admin/reset
func (ac *AdminController) Reset(c *gin.Context) {
	if err := ac.db.Reset(); err != nil {
		respondInternalError(c, err, "reset database")
		return
	}
	respondSuccess(c, "database reset")
}

// Reinitialize recreates the database and reruns migrations.
// POST /api/admin/reinitialize
func (ac *AdminController) Reinitialize(c *gin.Context) {
	if err := ac.db.Reinitialize(); err != nil {
		respondInternalError(c, err, "reinitialize database")
		return
	}
	respondSuccess(c, "database reinitialized")
}

// CleanupOrphans deletes cached movies no relation points at.
// POST /api/admin/cleanup-orphans
func (ac *AdminController) CleanupOrphans(c *gin.Context) {
	deleted, err := ac.db.DeleteOrphanMovies()
	if err != nil {
		respondInternalError(c, err, "cleanup orphan movies")
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

// SchemaVersion reports the applied migration version.
// GET /api/admin/schema-version
func (ac *AdminController) SchemaVersion(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"schema_version": ac.db.SchemaVersion()})
}
