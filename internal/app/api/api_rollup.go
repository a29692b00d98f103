package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	rollupports "github.com/northmart/go-order-processing/internal/domains/rollup/ports"
)

// RollupAPI serves the read-side sales rollups.
type RollupAPI struct {
	rollup rollupports.Service
}

// NewRollupAPI creates a RollupAPI backed by the provided service.
func NewRollupAPI(rollup rollupports.Service) RollupAPI {
	return RollupAPI{rollup: rollup}
}

// Get /rollups/current
// Fetch the active rollup generation
func (api *RollupAPI) GetCurrent(c *gin.Context) {
	snapshot, err := api.rollup.Current(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, fromSnapshot(snapshot))
}

// Post /rollups/rebuild
// Rebuild and publish the rollups immediately. Cron refreshes use the same
// path through the worker; this endpoint exists for operators.
func (api *RollupAPI) Rebuild(c *gin.Context) {
	snapshot, err := api.rollup.Rebuild(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, fromSnapshot(snapshot))
}
