// Package service orchestrates the rule engine: load state, run the pure
// core packages, persist the decision atomically. Side channels such as
// notification records run after commit and never roll back rule state.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"pmes/internal/core"
	"pmes/internal/core/status"
	"pmes/internal/events"
	"pmes/internal/model"
	"pmes/internal/repository"
	"pmes/pkg/metrics"
	"pmes/pkg/outbox"
)

// NotificationRecorder persists the delay episode record once a project
// flips to delayed. Implementations are best-effort collaborators.
type NotificationRecorder interface {
	RecordDelay(ctx context.Context, p *model.Project, t status.Transition) error
}

// ReconcileService runs the project status reconciliation: one row-locked
// transaction per project covering the status row and its milestones.
type ReconcileService struct {
	db         *pgxpool.Pool
	projects   *repository.ProjectRepository
	milestones *repository.MilestoneRepository
	outboxRepo *outbox.Repository
	recorder   NotificationRecorder
	logger     *zap.Logger
}

func NewReconcileService(
	db *pgxpool.Pool,
	projects *repository.ProjectRepository,
	milestones *repository.MilestoneRepository,
	outboxRepo *outbox.Repository,
	recorder NotificationRecorder,
	logger *zap.Logger,
) *ReconcileService {
	return &ReconcileService{
		db:         db,
		projects:   projects,
		milestones: milestones,
		outboxRepo: outboxRepo,
		recorder:   recorder,
		logger:     logger,
	}
}

// ReconcileProject re-evaluates one project's delay state and persists the
// resulting transition. The project row is locked with NOWAIT; a concurrent
// reconcile surfaces as core.ConcurrencyConflict and the caller may retry.
//
// The notification record is written after commit. A recorder failure is
// logged and swallowed: the status change has already happened and must not
// be unwound by a side channel.
func (s *ReconcileService) ReconcileProject(ctx context.Context, projectID uuid.UUID) (*status.Transition, error) {
	start := time.Now()
	defer func() { metrics.RecordReconcileDuration(time.Since(start)) }()

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	p, err := s.projects.LockForReconcile(ctx, tx, projectID)
	if err != nil {
		return nil, err
	}

	milestones, err := s.milestones.ListByProjectTx(ctx, tx, projectID)
	if err != nil {
		return nil, err
	}

	t := status.PlanReconcile(p, milestones, time.Now())
	if !t.StatusChanged {
		return &t, nil
	}

	status.ApplyTransition(p, t, time.Now())
	if err := s.projects.SaveTx(ctx, tx, p); err != nil {
		return nil, err
	}

	switch t.To {
	case model.ProjectDelayed:
		if err := s.milestones.MarkDelayedTx(ctx, tx, t.MarkDelayed); err != nil {
			return nil, err
		}
	default:
		if t.From == model.ProjectDelayed {
			if err := s.emitRecovered(ctx, tx, p, t); err != nil {
				return nil, err
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.logger.Info("Project status reconciled",
		zap.String("project_id", p.ID.String()),
		zap.String("from", string(t.From)),
		zap.String("to", string(t.To)),
	)

	if t.NotifyDelay {
		if err := s.recorder.RecordDelay(ctx, p, t); err != nil {
			cf := &core.CollaboratorFailure{Collaborator: "notification recorder", Err: err}
			s.logger.Error("Delay notification record failed, status change stands",
				zap.String("project_id", p.ID.String()),
				zap.Error(cf),
			)
		}
	}

	return &t, nil
}

// emitRecovered writes a project.recovered outbox event in the same tx as
// the status flip, so recovery is announced exactly when it commits.
func (s *ReconcileService) emitRecovered(ctx context.Context, tx pgx.Tx, p *model.Project, t status.Transition) error {
	id := p.ID.String()
	payload := events.ProjectRecoveredPayload{
		ProjectID:   id,
		ProjectCode: p.Code,
		NewStatus:   t.To,
		RecoveredAt: time.Now(),
	}
	return outbox.InsertEventInTx(ctx, tx, s.outboxRepo, "project", &id, events.RoutingProjectRecovered, payload)
}
