package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pmes/internal/core/review"
	"pmes/internal/service"
)

type ReviewHandler struct {
	reviews *service.ReviewService
	logger  *zap.Logger
}

func NewReviewHandler(reviews *service.ReviewService, logger *zap.Logger) *ReviewHandler {
	return &ReviewHandler{reviews: reviews, logger: logger}
}

type reviewRequest struct {
	Decision         string   `json:"decision" binding:"required"`
	Notes            string   `json:"notes"`
	AdjustedProgress *float64 `json:"adjusted_progress"`
	FinalProgress    *float64 `json:"final_progress"`
}

// Review handles POST /submissions/:id/review. The decision determines the
// stage; the actor's role must match or the workflow refuses it.
func (h *ReviewHandler) Review(c *gin.Context) {
	actorID, role, ok := actorFrom(c)
	if !ok {
		return
	}
	submissionID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Review: malformed body", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	in := review.Input{
		ReviewerID:       actorID,
		Role:             role,
		Decision:         review.Decision(req.Decision),
		Notes:            req.Notes,
		AdjustedProgress: req.AdjustedProgress,
		FinalProgress:    req.FinalProgress,
	}

	sub, err := h.reviews.Review(c.Request.Context(), submissionID, in)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"submission": sub})
}
