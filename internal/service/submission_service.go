package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pmes/internal/core"
	"pmes/internal/core/review"
	"pmes/internal/model"
	"pmes/internal/repository"
	"pmes/pkg/metrics"
)

// SubmissionService handles milestone submission intake from EIU field
// personnel. Intake only records the claim; no project progress moves until
// the secretariat's terminal approval.
type SubmissionService struct {
	projects    *repository.ProjectRepository
	milestones  *repository.MilestoneRepository
	submissions *repository.SubmissionRepository
	logger      *zap.Logger
}

func NewSubmissionService(
	projects *repository.ProjectRepository,
	milestones *repository.MilestoneRepository,
	submissions *repository.SubmissionRepository,
	logger *zap.Logger,
) *SubmissionService {
	return &SubmissionService{
		projects:    projects,
		milestones:  milestones,
		submissions: submissions,
		logger:      logger,
	}
}

// CreateSubmission validates and stores a new submission in pending_review.
// The actor must be the EIU personnel assigned to the project; anyone else
// is refused even if their role allows submission in general.
func (s *SubmissionService) CreateSubmission(ctx context.Context, actorID uuid.UUID, role model.Role, sub *model.MilestoneSubmission) (*model.MilestoneSubmission, error) {
	p, err := s.projects.GetByID(ctx, sub.ProjectID)
	if err != nil {
		return nil, err
	}
	if p.EIUPersonnelID != actorID {
		metrics.RecordSubmission("rejected_guard")
		return nil, &core.GuardViolation{Role: role, From: sub.Status, Action: "submit"}
	}

	m, err := s.milestones.GetByID(ctx, sub.MilestoneID)
	if err != nil {
		return nil, err
	}

	verr := &core.ValidationError{}
	if m.ProjectID != sub.ProjectID {
		verr.Add("milestone_id", "milestone does not belong to the project")
	}
	if m.Status.Terminal() {
		verr.Add("milestone_id", "milestone is already completed")
	}
	if verr.HasErrors() {
		metrics.RecordSubmission("rejected_validation")
		return nil, verr
	}

	if err := review.ValidateNew(sub); err != nil {
		metrics.RecordSubmission("rejected_validation")
		return nil, err
	}

	sub.ID = uuid.New()
	sub.SubmittedBy = actorID
	sub.Status = model.SubmissionPendingReview
	sub.AdjustedProgress = nil
	sub.FinalProgress = nil
	sub.SubmittedAt = time.Now()
	sub.UpdatedAt = sub.SubmittedAt

	if err := s.submissions.Insert(ctx, sub); err != nil {
		return nil, err
	}

	metrics.RecordSubmission("accepted")
	s.logger.Info("Milestone submission received",
		zap.String("submission_id", sub.ID.String()),
		zap.String("project_id", sub.ProjectID.String()),
		zap.String("milestone_id", sub.MilestoneID.String()),
		zap.Float64("claimed_progress", sub.ClaimedProgress),
	)
	return sub, nil
}

func (s *SubmissionService) GetSubmission(ctx context.Context, id uuid.UUID) (*model.MilestoneSubmission, error) {
	return s.submissions.GetByID(ctx, id)
}

func (s *SubmissionService) ListProjectSubmissions(ctx context.Context, projectID uuid.UUID) ([]model.MilestoneSubmission, error) {
	return s.submissions.ListByProject(ctx, projectID)
}
