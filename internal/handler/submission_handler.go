package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pmes/internal/model"
	"pmes/internal/service"
)

type SubmissionHandler struct {
	submissions *service.SubmissionService
	logger      *zap.Logger
}

func NewSubmissionHandler(submissions *service.SubmissionService, logger *zap.Logger) *SubmissionHandler {
	return &SubmissionHandler{submissions: submissions, logger: logger}
}

type createSubmissionRequest struct {
	MilestoneID string `json:"milestone_id" binding:"required"`

	TimelineStartDate  *time.Time `json:"timeline_start_date"`
	TimelineEndDate    *time.Time `json:"timeline_end_date"`
	TimelineActivities string     `json:"timeline_activities"`

	PlannedBudget   float64 `json:"planned_budget"`
	UsedBudget      float64 `json:"used_budget"`
	BudgetBreakdown string  `json:"budget_breakdown"`

	PhysicalDescription string          `json:"physical_description"`
	RequiredProofs      string          `json:"required_proofs"`
	Evidence            []model.FileRef `json:"evidence"`

	AdditionalNotes string  `json:"additional_notes"`
	ClaimedProgress float64 `json:"claimed_progress"`
}

// Create handles POST /projects/:id/submissions.
func (h *SubmissionHandler) Create(c *gin.Context) {
	actorID, role, ok := actorFrom(c)
	if !ok {
		return
	}
	projectID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req createSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Create submission: malformed body", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	milestoneID, err := parseUUIDField(req.MilestoneID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid milestone_id"})
		return
	}

	sub := &model.MilestoneSubmission{
		ProjectID:           projectID,
		MilestoneID:         milestoneID,
		TimelineStartDate:   req.TimelineStartDate,
		TimelineEndDate:     req.TimelineEndDate,
		TimelineActivities:  req.TimelineActivities,
		PlannedBudget:       req.PlannedBudget,
		UsedBudget:          req.UsedBudget,
		BudgetBreakdown:     req.BudgetBreakdown,
		PhysicalDescription: req.PhysicalDescription,
		RequiredProofs:      req.RequiredProofs,
		Evidence:            req.Evidence,
		AdditionalNotes:     req.AdditionalNotes,
		ClaimedProgress:     req.ClaimedProgress,
	}

	created, err := h.submissions.CreateSubmission(c.Request.Context(), actorID, role, sub)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"submission": created})
}

// Get handles GET /submissions/:id.
func (h *SubmissionHandler) Get(c *gin.Context) {
	if _, _, ok := actorFrom(c); !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	sub, err := h.submissions.GetSubmission(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"submission": sub})
}

// ListByProject handles GET /projects/:id/submissions.
func (h *SubmissionHandler) ListByProject(c *gin.Context) {
	if _, _, ok := actorFrom(c); !ok {
		return
	}
	projectID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	subs, err := h.submissions.ListProjectSubmissions(c.Request.Context(), projectID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"submissions": subs})
}
