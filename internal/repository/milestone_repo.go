package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"pmes/internal/core"
	"pmes/internal/model"
)

const milestoneColumns = `
	id, project_id, title, description, due_date, completed_date, status,
	weight, timeline_weight, budget_weight, physical_weight,
	timeline_start_date, timeline_end_date, planned_budget,
	physical_proof_type, created_at, updated_at
`

type MilestoneRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewMilestoneRepository(db *pgxpool.Pool, logger *zap.Logger) *MilestoneRepository {
	return &MilestoneRepository{
		db:     db,
		logger: logger,
	}
}

func (r *MilestoneRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Milestone, error) {
	query := `SELECT ` + milestoneColumns + ` FROM milestones WHERE id = $1`

	m, err := scanMilestone(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &core.NotFoundError{Kind: "milestone", ID: id.String()}
		}
		r.logger.Error("Failed to get milestone", zap.String("milestone_id", id.String()), zap.Error(err))
		return nil, err
	}
	return m, nil
}

func (r *MilestoneRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]model.Milestone, error) {
	return r.listByProject(ctx, r.db, projectID)
}

// ListByProjectTx reads the project's milestones inside the reconcile tx so
// the plan and its writes see one consistent snapshot.
func (r *MilestoneRepository) ListByProjectTx(ctx context.Context, tx pgx.Tx, projectID uuid.UUID) ([]model.Milestone, error) {
	return r.listByProject(ctx, tx, projectID)
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (r *MilestoneRepository) listByProject(ctx context.Context, q querier, projectID uuid.UUID) ([]model.Milestone, error) {
	query := `SELECT ` + milestoneColumns + `
		FROM milestones
		WHERE project_id = $1
		ORDER BY due_date ASC
	`

	rows, err := q.Query(ctx, query, projectID)
	if err != nil {
		r.logger.Error("Failed to list milestones", zap.String("project_id", projectID.String()), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var milestones []model.Milestone
	for rows.Next() {
		m, err := scanMilestone(rows)
		if err != nil {
			r.logger.Error("Failed to scan milestone", zap.Error(err))
			return nil, err
		}
		milestones = append(milestones, *m)
	}

	return milestones, rows.Err()
}

// MarkDelayedTx flips the given milestones to delayed inside tx.
func (r *MilestoneRepository) MarkDelayedTx(ctx context.Context, tx pgx.Tx, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}

	query := `
		UPDATE milestones
		SET status = 'delayed', updated_at = NOW()
		WHERE id = ANY($1)
	`

	if _, err := tx.Exec(ctx, query, ids); err != nil {
		r.logger.Error("Failed to mark milestones delayed", zap.Int("count", len(ids)), zap.Error(err))
		return fmt.Errorf("failed to mark milestones delayed: %w", err)
	}
	return nil
}

// MarkApprovedTx flips a milestone to approved and stamps its completion.
// The status predicate re-verifies terminality inside the tx: a milestone
// another approval already closed matches zero rows and the whole rollforward
// aborts instead of crediting its weight a second time.
func (r *MilestoneRepository) MarkApprovedTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, completedDate time.Time) error {
	query := `
		UPDATE milestones
		SET status = 'approved', completed_date = $2, updated_at = NOW()
		WHERE id = $1 AND status NOT IN ('approved', 'completed')
	`

	tag, err := tx.Exec(ctx, query, id, completedDate)
	if err != nil {
		r.logger.Error("Failed to mark milestone approved", zap.String("milestone_id", id.String()), zap.Error(err))
		return fmt.Errorf("failed to mark milestone approved: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &core.ConcurrencyConflict{Resource: "milestone " + id.String()}
	}
	return nil
}

func scanMilestone(row rowScanner) (*model.Milestone, error) {
	var m model.Milestone
	err := row.Scan(
		&m.ID,
		&m.ProjectID,
		&m.Title,
		&m.Description,
		&m.DueDate,
		&m.CompletedDate,
		&m.Status,
		&m.Weight,
		&m.TimelineWeight,
		&m.BudgetWeight,
		&m.PhysicalWeight,
		&m.TimelineStartDate,
		&m.TimelineEndDate,
		&m.PlannedBudget,
		&m.PhysicalProofType,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
