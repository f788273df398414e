package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"pmes/internal/core/status"
	"pmes/internal/events"
	"pmes/internal/model"
	"pmes/internal/repository"
	"pmes/pkg/metrics"
	"pmes/pkg/outbox"
	"pmes/pkg/util"
)

const delayEpisodeScope = "delay-episode"

// DelayRecorder creates the DelayNotification record and the MQ event for a
// delay episode. The record commits in its own small transaction, decoupled
// from the status change it documents. Redis dedup keeps one record per
// episode across repeated sweeps; when Redis is down, duplicates are
// preferred over silence.
type DelayRecorder struct {
	db            *pgxpool.Pool
	notifications *repository.NotificationRepository
	outboxRepo    *outbox.Repository
	deduper       *util.Deduper
	logger        *zap.Logger
}

func NewDelayRecorder(
	db *pgxpool.Pool,
	notifications *repository.NotificationRepository,
	outboxRepo *outbox.Repository,
	deduper *util.Deduper,
	logger *zap.Logger,
) *DelayRecorder {
	return &DelayRecorder{
		db:            db,
		notifications: notifications,
		outboxRepo:    outboxRepo,
		deduper:       deduper,
		logger:        logger,
	}
}

func (r *DelayRecorder) RecordDelay(ctx context.Context, p *model.Project, t status.Transition) error {
	now := time.Now()
	payload := events.ProjectDelayedPayload{
		ProjectID:         p.ID.String(),
		ProjectCode:       p.Code,
		ProjectName:       p.Name,
		Severity:          t.Delay.Info.Severity,
		OverdueMilestones: t.Delay.OverdueMilestones,
		FirstOverdueDate:  t.Delay.Info.FirstOverdueDate,
		DetectedAt:        now,
	}

	if !r.deduper.AcquireOnce(ctx, delayEpisodeScope, payload.EpisodeKey()) {
		r.logger.Debug("Delay episode already recorded",
			zap.String("project_id", p.ID.String()),
			zap.String("episode", payload.EpisodeKey()),
		)
		return nil
	}

	record := &model.DelayNotification{
		ID:                uuid.New(),
		ProjectID:         p.ID,
		Severity:          t.Delay.Info.Severity,
		OverdueMilestones: t.Delay.OverdueMilestones,
		Info:              t.Delay.Info,
		GeneratedAt:       now,
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := r.notifications.InsertTx(ctx, tx, record); err != nil {
		return err
	}

	id := p.ID.String()
	if err := outbox.InsertEventInTx(ctx, tx, r.outboxRepo, "project", &id, events.RoutingProjectDelayed, payload); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	metrics.RecordNewlyDelayed(string(t.Delay.Info.Severity))
	r.logger.Info("Delay notification recorded",
		zap.String("project_id", p.ID.String()),
		zap.String("severity", string(t.Delay.Info.Severity)),
		zap.Int("overdue_milestones", t.Delay.Info.OverdueMilestoneCount),
	)
	return nil
}
