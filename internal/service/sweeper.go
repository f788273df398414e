package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pmes/internal/core"
	"pmes/internal/core/status"
	"pmes/internal/model"
	"pmes/pkg/metrics"
)

// ProjectLister selects the projects in scope for a sweep.
type ProjectLister interface {
	ListActive(ctx context.Context) ([]model.Project, error)
}

// ProjectReconciler reconciles one project's status.
type ProjectReconciler interface {
	ReconcileProject(ctx context.Context, projectID uuid.UUID) (*status.Transition, error)
}

// SweepSummary reports one delay sweep run.
type SweepSummary struct {
	Checked      int `json:"checked"`
	Updated      int `json:"updated"`
	NewlyDelayed int `json:"newly_delayed"`
	Failed       int `json:"failed"`
}

// Sweeper runs the scheduled delay sweep over all active projects. One
// failing project never aborts the rest of the pass; failures are counted
// and logged per project.
type Sweeper struct {
	projects   ProjectLister
	reconciler ProjectReconciler
	logger     *zap.Logger
}

func NewSweeper(projects ProjectLister, reconciler ProjectReconciler, logger *zap.Logger) *Sweeper {
	return &Sweeper{
		projects:   projects,
		reconciler: reconciler,
		logger:     logger,
	}
}

// RunDelaySweep reconciles every active project once. It stops early only
// when ctx is cancelled, returning the partial summary alongside the
// context error.
func (s *Sweeper) RunDelaySweep(ctx context.Context) (SweepSummary, error) {
	var summary SweepSummary

	projects, err := s.projects.ListActive(ctx)
	if err != nil {
		s.logger.Error("Delay sweep aborted, cannot list projects", zap.Error(err))
		return summary, err
	}

	for i := range projects {
		if err := ctx.Err(); err != nil {
			s.logger.Warn("Delay sweep cancelled",
				zap.Int("checked", summary.Checked),
				zap.Int("remaining", len(projects)-i),
			)
			metrics.RecordSweepOutcome(summary.Checked, summary.Updated, summary.Failed)
			return summary, err
		}

		p := &projects[i]
		summary.Checked++

		t, err := s.reconciler.ReconcileProject(ctx, p.ID)
		if err != nil {
			summary.Failed++
			var conflict *core.ConcurrencyConflict
			if errors.As(err, &conflict) {
				// Another writer holds the row; the next pass picks it up.
				s.logger.Info("Skipped locked project", zap.String("project_id", p.ID.String()))
			} else {
				s.logger.Error("Project reconcile failed",
					zap.String("project_id", p.ID.String()),
					zap.Error(err),
				)
			}
			continue
		}

		if t.StatusChanged {
			summary.Updated++
		}
		if t.NotifyDelay {
			summary.NewlyDelayed++
		}
	}

	metrics.RecordSweepOutcome(summary.Checked, summary.Updated, summary.Failed)
	s.logger.Info("Delay sweep finished",
		zap.Int("checked", summary.Checked),
		zap.Int("updated", summary.Updated),
		zap.Int("newly_delayed", summary.NewlyDelayed),
		zap.Int("failed", summary.Failed),
	)
	return summary, nil
}
