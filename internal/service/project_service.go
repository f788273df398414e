package service

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"pmes/internal/core/progress"
	"pmes/internal/model"
	"pmes/internal/repository"
)

// DivisionBreakdown reports one division's standing within a project.
type DivisionBreakdown struct {
	Progress float64 `json:"progress"`
	// InternalProgress is the share of the division's milestone weight
	// already approved, independent of the division's slice of overall.
	InternalProgress float64 `json:"internal_progress"`
	TotalWeight      float64 `json:"total_weight"`
	AppliedWeight    float64 `json:"applied_weight"`
	RemainingWeight  float64 `json:"remaining_weight"`
}

// ProgressReport is the project progress read model.
type ProgressReport struct {
	Project         *model.Project    `json:"project"`
	Timeline        DivisionBreakdown `json:"timeline"`
	Budget          DivisionBreakdown `json:"budget"`
	Physical        DivisionBreakdown `json:"physical"`
	TotalWeight     float64           `json:"total_weight"`
	AppliedWeight   float64           `json:"applied_weight"`
	RemainingWeight float64           `json:"remaining_weight"`
	Milestones      []model.Milestone `json:"milestones"`
}

// ProjectService covers the direct progress update and the progress read
// model. Direct updates bypass the review workflow and are reserved for the
// secretariat.
type ProjectService struct {
	db         *pgxpool.Pool
	projects   *repository.ProjectRepository
	milestones *repository.MilestoneRepository
	weights    progress.Weights
	logger     *zap.Logger
}

func NewProjectService(
	db *pgxpool.Pool,
	projects *repository.ProjectRepository,
	milestones *repository.MilestoneRepository,
	weights progress.Weights,
	logger *zap.Logger,
) *ProjectService {
	return &ProjectService{
		db:         db,
		projects:   projects,
		milestones: milestones,
		weights:    weights,
		logger:     logger,
	}
}

func (s *ProjectService) GetProject(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	return s.projects.GetByID(ctx, id)
}

// UpdateProgress sets the three division scores directly. Inputs are
// clamped, overall is recomputed, and the lifecycle status advances per the
// aggregator rules. The row lock serializes against concurrent approvals.
func (s *ProjectService) UpdateProgress(ctx context.Context, id uuid.UUID, timeline, budget, physical float64) (*model.Project, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	p, err := s.projects.LockForReconcile(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	progress.Apply(p, timeline, budget, physical, s.weights, time.Now())

	if err := s.projects.SaveTx(ctx, tx, p); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.logger.Info("Project progress updated",
		zap.String("project_id", p.ID.String()),
		zap.Float64("overall", p.OverallProgress),
		zap.String("status", string(p.Status)),
	)
	return p, nil
}

// GetProgressReport builds the progress read model: overall and division
// scores from the project row, plus the milestone weight rollup.
func (s *ProjectService) GetProgressReport(ctx context.Context, id uuid.UUID) (*ProgressReport, error) {
	p, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	milestones, err := s.milestones.ListByProject(ctx, id)
	if err != nil {
		return nil, err
	}

	report := &ProgressReport{
		Project:    p,
		Milestones: milestones,
		Timeline:   DivisionBreakdown{Progress: p.TimelineProgress},
		Budget:     DivisionBreakdown{Progress: p.BudgetProgress},
		Physical:   DivisionBreakdown{Progress: p.PhysicalProgress},
	}

	for i := range milestones {
		m := &milestones[i]
		approved := m.Status == model.MilestoneApproved

		report.TotalWeight += m.Weight
		report.Timeline.TotalWeight += m.TimelineWeight
		report.Budget.TotalWeight += m.BudgetWeight
		report.Physical.TotalWeight += m.PhysicalWeight

		if approved {
			report.AppliedWeight += m.Weight
			report.Timeline.AppliedWeight += m.TimelineWeight
			report.Budget.AppliedWeight += m.BudgetWeight
			report.Physical.AppliedWeight += m.PhysicalWeight
		}
	}

	report.RemainingWeight = round2(report.TotalWeight - report.AppliedWeight)
	finishDivision(&report.Timeline)
	finishDivision(&report.Budget)
	finishDivision(&report.Physical)

	return report, nil
}

func finishDivision(d *DivisionBreakdown) {
	d.RemainingWeight = round2(d.TotalWeight - d.AppliedWeight)
	if d.TotalWeight > 0 {
		d.InternalProgress = round2(d.AppliedWeight / d.TotalWeight * 100)
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
