package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pmes/internal/repository"
	"pmes/internal/service"
)

type ProjectHandler struct {
	projects      *service.ProjectService
	notifications *repository.NotificationRepository
	logger        *zap.Logger
}

func NewProjectHandler(projects *service.ProjectService, notifications *repository.NotificationRepository, logger *zap.Logger) *ProjectHandler {
	return &ProjectHandler{projects: projects, notifications: notifications, logger: logger}
}

// Get handles GET /projects/:id.
func (h *ProjectHandler) Get(c *gin.Context) {
	if _, _, ok := actorFrom(c); !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	p, err := h.projects.GetProject(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"project": p})
}

// GetProgress handles GET /projects/:id/progress: overall and per-division
// scores plus the milestone weight rollup.
func (h *ProjectHandler) GetProgress(c *gin.Context) {
	if _, _, ok := actorFrom(c); !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	report, err := h.projects.GetProgressReport(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

type updateProgressRequest struct {
	TimelineProgress float64 `json:"timeline_progress"`
	BudgetProgress   float64 `json:"budget_progress"`
	PhysicalProgress float64 `json:"physical_progress"`
}

// UpdateProgress handles PUT /projects/:id/progress, the direct progress
// update outside the review workflow.
func (h *ProjectHandler) UpdateProgress(c *gin.Context) {
	if _, _, ok := actorFrom(c); !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req updateProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("UpdateProgress: malformed body", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	p, err := h.projects.UpdateProgress(c.Request.Context(), id, req.TimelineProgress, req.BudgetProgress, req.PhysicalProgress)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"project": p})
}

// ListDelayNotifications handles GET /projects/:id/delays.
func (h *ProjectHandler) ListDelayNotifications(c *gin.Context) {
	if _, _, ok := actorFrom(c); !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	records, err := h.notifications.ListByProject(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"delay_notifications": records})
}
