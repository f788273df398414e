package repository

import (
	"context"
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

const projectColumns = `
	id, code, name, description, start_date, end_date, completion_date,
	timeline_progress, budget_progress, physical_progress, overall_progress,
	status, total_budget, eiu_personnel_id, implementing_office_id,
	last_progress_update, created_at, updated_at
`

type ProjectRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewProjectRepository(db *pgxpool.Pool, logger *zap.Logger) *ProjectRepository {
	return &ProjectRepository{
		db:     db,
		logger: logger,
	}
}

func (r *ProjectRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1`

	p, err := scanProject(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &core.NotFoundError{Kind: "project", ID: id.String()}
		}
		r.logger.Error("Failed to get project", zap.String("project_id", id.String()), zap.Error(err))
		return nil, err
	}
	return p, nil
}

// LockForReconcile loads the project row under FOR UPDATE NOWAIT inside tx.
// A concurrent reconcile holding the lock surfaces as ConcurrencyConflict
// so the caller can retry the whole operation.
func (r *ProjectRepository) LockForReconcile(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1 FOR UPDATE NOWAIT`

	p, err := scanProject(tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &core.NotFoundError{Kind: "project", ID: id.String()}
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "55P03" { // lock_not_available
			return nil, &core.ConcurrencyConflict{Resource: "project " + id.String()}
		}
		r.logger.Error("Failed to lock project", zap.String("project_id", id.String()), zap.Error(err))
		return nil, err
	}
	return p, nil
}

// ListActive returns projects in scope for the delay sweep.
func (r *ProjectRepository) ListActive(ctx context.Context) ([]model.Project, error) {
	query := `SELECT ` + projectColumns + `
		FROM projects
		WHERE status IN ('ongoing', 'delayed')
		ORDER BY created_at ASC
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list active projects", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var projects []model.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			r.logger.Error("Failed to scan project", zap.Error(err))
			return nil, err
		}
		projects = append(projects, *p)
	}

	return projects, rows.Err()
}

// SaveTx persists the project's progress and status fields inside tx.
func (r *ProjectRepository) SaveTx(ctx context.Context, tx pgx.Tx, p *model.Project) error {
	query := `
		UPDATE projects
		SET timeline_progress = $2,
		    budget_progress = $3,
		    physical_progress = $4,
		    overall_progress = $5,
		    status = $6,
		    completion_date = $7,
		    last_progress_update = $8,
		    updated_at = NOW()
		WHERE id = $1
	`

	tag, err := tx.Exec(ctx, query,
		p.ID,
		p.TimelineProgress,
		p.BudgetProgress,
		p.PhysicalProgress,
		p.OverallProgress,
		p.Status,
		p.CompletionDate,
		p.LastProgressUpdate,
	)
	if err != nil {
		r.logger.Error("Failed to save project", zap.String("project_id", p.ID.String()), zap.Error(err))
		return fmt.Errorf("failed to save project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &core.NotFoundError{Kind: "project", ID: p.ID.String()}
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*model.Project, error) {
	var p model.Project
	err := row.Scan(
		&p.ID,
		&p.Code,
		&p.Name,
		&p.Description,
		&p.StartDate,
		&p.EndDate,
		&p.CompletionDate,
		&p.TimelineProgress,
		&p.BudgetProgress,
		&p.PhysicalProgress,
		&p.OverallProgress,
		&p.Status,
		&p.TotalBudget,
		&p.EIUPersonnelID,
		&p.ImplementingOfficeID,
		&p.LastProgressUpdate,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
