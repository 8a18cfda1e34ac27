package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/reelsync/reelsync/internal/sync"
)

// SyncService is the sync manager surface the sync endpoints expose.
type SyncService interface {
	SyncAll(ctx context.Context) error
	RetryFailed(ctx context.Context) error
	Pull(ctx context.Context, userID string) error
	State() sync.State
}

type SyncController struct {
	service SyncService
	userID  string
}

func NewSyncController(service SyncService, userID string) *SyncController {
	return &SyncController{service: service, userID: userID}
}

// Status returns the current sync state.
// GET /api/sync/status
func (sc *SyncController) Status(c *gin.Context) {
	c.JSON(http.StatusOK, sc.service.State())
}

// Trigger starts a sync pass in the background.
// POST /api/sync/trigger
func (sc *SyncController) Trigger(c *gin.Context) {
	go func() {
		_ = sc.service.SyncAll(context.Background())
	}()
	respondAccepted(c, "sync triggered", sc.service.State())
}

// RetryFailed requeues failed items and starts a sync pass.
// POST /api/sync/retry
func (sc *SyncController) RetryFailed(c *gin.Context) {
	if err := sc.service.RetryFailed(c.Request.Context()); err != nil {
		respondInternalError(c, err, "retry failed sync items")
		return
	}
	respondAccepted(c, "failed items requeued", sc.service.State())
}

// Pull fetches remote relations and merges them into the local cache.
// POST /api/sync/pull
func (sc *SyncController) Pull(c *gin.Context) {
	if err := sc.service.Pull(c.Request.Context(), sc.userID); err != nil {
		respondInternalError(c, err, "pull remote state")
		return
	}
	respondSuccess(c, "remote state pulled")
}
