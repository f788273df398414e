package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"pmes/internal/core"
	"pmes/internal/core/progress"
	"pmes/internal/core/review"
	"pmes/internal/events"
	"pmes/internal/model"
	"pmes/internal/repository"
	"pmes/pkg/metrics"
	"pmes/pkg/outbox"
)

// ReviewService applies review decisions to submissions. Non-terminal
// decisions touch only the submission row; terminal approval rolls the
// final progress into the project's division scores, marks the milestone
// approved and emits submission.approved, all in one transaction.
type ReviewService struct {
	db          *pgxpool.Pool
	projects    *repository.ProjectRepository
	milestones  *repository.MilestoneRepository
	submissions *repository.SubmissionRepository
	outboxRepo  *outbox.Repository
	reconciler  ProjectReconciler
	weights     progress.Weights
	logger      *zap.Logger
}

func NewReviewService(
	db *pgxpool.Pool,
	projects *repository.ProjectRepository,
	milestones *repository.MilestoneRepository,
	submissions *repository.SubmissionRepository,
	outboxRepo *outbox.Repository,
	reconciler ProjectReconciler,
	weights progress.Weights,
	logger *zap.Logger,
) *ReviewService {
	return &ReviewService{
		db:          db,
		projects:    projects,
		milestones:  milestones,
		submissions: submissions,
		outboxRepo:  outboxRepo,
		reconciler:  reconciler,
		weights:     weights,
		logger:      logger,
	}
}

// Review runs one review decision. On terminal approval the project row is
// locked NOWAIT for the progress rollforward; a lock conflict returns
// core.ConcurrencyConflict with the submission untouched, safe to retry.
func (s *ReviewService) Review(ctx context.Context, submissionID uuid.UUID, in review.Input) (*model.MilestoneSubmission, error) {
	sub, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	m, err := s.milestones.GetByID(ctx, sub.MilestoneID)
	if err != nil {
		return nil, err
	}

	// The status the decision is applied against; the commit carries it as
	// an optimistic predicate so racing reviewers cannot overwrite each
	// other's transition.
	from := sub.Status

	now := time.Now()
	outcome, err := review.Apply(sub, m, in, now)
	if err != nil {
		return nil, err
	}

	metrics.RecordReviewDecision(reviewStage(in.Role), string(in.Decision))

	if !outcome.FinalApproved {
		if err := s.submissions.UpdateReview(ctx, sub, from); err != nil {
			return nil, err
		}
		s.logger.Info("Submission reviewed",
			zap.String("submission_id", sub.ID.String()),
			zap.String("decision", string(in.Decision)),
			zap.String("status", string(sub.Status)),
		)
		return sub, nil
	}

	if err := s.applyApproval(ctx, sub, m, outcome, from, now); err != nil {
		return nil, err
	}

	s.logger.Info("Submission approved, progress rolled forward",
		zap.String("submission_id", sub.ID.String()),
		zap.String("project_id", sub.ProjectID.String()),
		zap.Float64("final_progress", *sub.FinalProgress),
	)

	// Terminal approval can clear or cause a delay flip; resolve it right
	// away instead of waiting for the next sweep. Best effort only.
	if _, err := s.reconciler.ReconcileProject(ctx, sub.ProjectID); err != nil {
		cf := &core.CollaboratorFailure{Collaborator: "status reconciler", Err: err}
		s.logger.Warn("Post-approval reconcile failed, sweep will catch up",
			zap.String("project_id", sub.ProjectID.String()),
			zap.Error(cf),
		)
	}

	return sub, nil
}

func (s *ReviewService) applyApproval(ctx context.Context, sub *model.MilestoneSubmission, m *model.Milestone, outcome *review.Outcome, from model.SubmissionStatus, now time.Time) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	p, err := s.projects.LockForReconcile(ctx, tx, sub.ProjectID)
	if err != nil {
		return err
	}

	progress.Apply(p,
		p.TimelineProgress+outcome.Contributions.Timeline,
		p.BudgetProgress+outcome.Contributions.Budget,
		p.PhysicalProgress+outcome.Contributions.Physical,
		s.weights, now,
	)

	if err := s.projects.SaveTx(ctx, tx, p); err != nil {
		return err
	}
	if err := s.milestones.MarkApprovedTx(ctx, tx, m.ID, now); err != nil {
		return err
	}
	if err := s.submissions.UpdateReviewTx(ctx, tx, sub, from); err != nil {
		return err
	}

	id := sub.ProjectID.String()
	payload := events.SubmissionApprovedPayload{
		SubmissionID:  sub.ID.String(),
		ProjectID:     id,
		MilestoneID:   sub.MilestoneID.String(),
		FinalProgress: *sub.FinalProgress,
		ApprovedAt:    now,
	}
	if err := outbox.InsertEventInTx(ctx, tx, s.outboxRepo, "submission", &id, events.RoutingSubmissionApproved, payload); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func reviewStage(role model.Role) string {
	if role == model.RoleSecretariat {
		return "secretariat"
	}
	return "iu"
}
