package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pmes/internal/service"
)

// SweepHandler triggers an on-demand delay sweep, the same pass the sweeper
// process runs on its schedule.
type SweepHandler struct {
	sweeper *service.Sweeper
	logger  *zap.Logger
}

func NewSweepHandler(sweeper *service.Sweeper, logger *zap.Logger) *SweepHandler {
	return &SweepHandler{sweeper: sweeper, logger: logger}
}

// Run handles POST /sweep.
func (h *SweepHandler) Run(c *gin.Context) {
	if _, _, ok := actorFrom(c); !ok {
		return
	}

	summary, err := h.sweeper.RunDelaySweep(c.Request.Context())
	if err != nil {
		h.logger.Error("On-demand sweep failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "sweep failed", "summary": summary})
		return
	}

	c.JSON(http.StatusOK, gin.H{"summary": summary})
}
