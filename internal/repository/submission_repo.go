package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"pmes/internal/core"
	"pmes/internal/model"
)

type SubmissionRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewSubmissionRepository(db *pgxpool.Pool, logger *zap.Logger) *SubmissionRepository {
	return &SubmissionRepository{
		db:     db,
		logger: logger,
	}
}

func (r *SubmissionRepository) Insert(ctx context.Context, s *model.MilestoneSubmission) error {
	r.logger.Debug("Inserting milestone submission",
		zap.String("project_id", s.ProjectID.String()),
		zap.String("milestone_id", s.MilestoneID.String()),
	)

	evidence, err := json.Marshal(s.Evidence)
	if err != nil {
		return fmt.Errorf("failed to marshal evidence: %w", err)
	}

	query := `
		INSERT INTO milestone_submissions (
			id, project_id, milestone_id, submitted_by, status,
			timeline_start_date, timeline_end_date, timeline_activities,
			planned_budget, used_budget, remaining_budget, budget_utilization,
			budget_breakdown, physical_description, required_proofs, evidence,
			additional_notes, claimed_progress
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING submitted_at, updated_at
	`

	err = r.db.QueryRow(ctx, query,
		s.ID,
		s.ProjectID,
		s.MilestoneID,
		s.SubmittedBy,
		s.Status,
		s.TimelineStartDate,
		s.TimelineEndDate,
		s.TimelineActivities,
		s.PlannedBudget,
		s.UsedBudget,
		s.RemainingBudget,
		s.BudgetUtilization,
		s.BudgetBreakdown,
		s.PhysicalDescription,
		s.RequiredProofs,
		evidence,
		s.AdditionalNotes,
		s.ClaimedProgress,
	).Scan(&s.SubmittedAt, &s.UpdatedAt)

	if err != nil {
		r.logger.Error("Failed to insert submission", zap.Error(err))
		return err
	}

	r.logger.Info("Milestone submission inserted",
		zap.String("submission_id", s.ID.String()),
		zap.String("milestone_id", s.MilestoneID.String()),
	)
	return nil
}

func (r *SubmissionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.MilestoneSubmission, error) {
	query := submissionSelect + ` WHERE id = $1`

	s, err := scanSubmission(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &core.NotFoundError{Kind: "submission", ID: id.String()}
		}
		r.logger.Error("Failed to get submission", zap.String("submission_id", id.String()), zap.Error(err))
		return nil, err
	}
	return s, nil
}

func (r *SubmissionRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]model.MilestoneSubmission, error) {
	query := submissionSelect + ` WHERE project_id = $1 ORDER BY submitted_at DESC`

	rows, err := r.db.Query(ctx, query, projectID)
	if err != nil {
		r.logger.Error("Failed to list submissions", zap.String("project_id", projectID.String()), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var subs []model.MilestoneSubmission
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			r.logger.Error("Failed to scan submission", zap.Error(err))
			return nil, err
		}
		subs = append(subs, *s)
	}

	return subs, rows.Err()
}

// UpdateReview persists the review fields after a workflow transition. from
// is the status the reviewer acted on; see updateReview.
func (r *SubmissionRepository) UpdateReview(ctx context.Context, s *model.MilestoneSubmission, from model.SubmissionStatus) error {
	return r.updateReview(ctx, r.db, s, from)
}

// UpdateReviewTx is the transactional variant used on terminal approval,
// when the submission commits together with project and milestone rows.
func (r *SubmissionRepository) UpdateReviewTx(ctx context.Context, tx pgx.Tx, s *model.MilestoneSubmission, from model.SubmissionStatus) error {
	return r.updateReview(ctx, tx, s, from)
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// updateReview commits the transition only if the row still holds the status
// the reviewer's decision was applied against. Submissions are never deleted,
// so zero rows means another reviewer committed first; the loser gets a
// ConcurrencyConflict instead of silently overwriting the winner's state.
func (r *SubmissionRepository) updateReview(ctx context.Context, q execer, s *model.MilestoneSubmission, from model.SubmissionStatus) error {
	query := `
		UPDATE milestone_submissions
		SET status = $2,
		    adjusted_progress = $3,
		    final_progress = $4,
		    iu_reviewer_id = $5,
		    iu_reviewed_at = $6,
		    iu_notes = $7,
		    sec_reviewer_id = $8,
		    sec_reviewed_at = $9,
		    sec_notes = $10,
		    updated_at = NOW()
		WHERE id = $1 AND status = $11
	`

	tag, err := q.Exec(ctx, query,
		s.ID,
		s.Status,
		s.AdjustedProgress,
		s.FinalProgress,
		s.IUReviewerID,
		s.IUReviewedAt,
		s.IUNotes,
		s.SecReviewerID,
		s.SecReviewedAt,
		s.SecNotes,
		from,
	)
	if err != nil {
		r.logger.Error("Failed to update submission review", zap.String("submission_id", s.ID.String()), zap.Error(err))
		return fmt.Errorf("failed to update submission review: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &core.ConcurrencyConflict{Resource: "submission " + s.ID.String()}
	}
	return nil
}

const submissionSelect = `
	SELECT id, project_id, milestone_id, submitted_by, status,
	       timeline_start_date, timeline_end_date, timeline_activities,
	       planned_budget, used_budget, remaining_budget, budget_utilization,
	       budget_breakdown, physical_description, required_proofs, evidence,
	       additional_notes, claimed_progress, adjusted_progress, final_progress,
	       iu_reviewer_id, iu_reviewed_at, iu_notes,
	       sec_reviewer_id, sec_reviewed_at, sec_notes,
	       submitted_at, updated_at
	FROM milestone_submissions
`

func scanSubmission(row rowScanner) (*model.MilestoneSubmission, error) {
	var s model.MilestoneSubmission
	var evidence []byte
	err := row.Scan(
		&s.ID,
		&s.ProjectID,
		&s.MilestoneID,
		&s.SubmittedBy,
		&s.Status,
		&s.TimelineStartDate,
		&s.TimelineEndDate,
		&s.TimelineActivities,
		&s.PlannedBudget,
		&s.UsedBudget,
		&s.RemainingBudget,
		&s.BudgetUtilization,
		&s.BudgetBreakdown,
		&s.PhysicalDescription,
		&s.RequiredProofs,
		&evidence,
		&s.AdditionalNotes,
		&s.ClaimedProgress,
		&s.AdjustedProgress,
		&s.FinalProgress,
		&s.IUReviewerID,
		&s.IUReviewedAt,
		&s.IUNotes,
		&s.SecReviewerID,
		&s.SecReviewedAt,
		&s.SecNotes,
		&s.SubmittedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(evidence) > 0 {
		if err := json.Unmarshal(evidence, &s.Evidence); err != nil {
			return nil, fmt.Errorf("failed to unmarshal evidence: %w", err)
		}
	}
	return &s, nil
}
