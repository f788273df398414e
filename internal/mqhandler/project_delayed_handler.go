// Package mqhandler holds the notifier's consumers on the pmes.events
// exchange.
package mqhandler

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pmes/internal/events"
	"pmes/internal/model"
	"pmes/internal/repository"
	"pmes/pkg/logger"
	"pmes/pkg/metrics"
	"pmes/pkg/mq"
	"pmes/pkg/util"
)

const (
	notifierDedupScope = "notifier-delay"
	maxDeliveryRetries = 5
)

// ProjectDelayedHandler fans a project.delayed event out to the inbox of
// the project's assigned EIU personnel and implementing office. Redis dedup
// on the episode key keeps redelivered events from double-posting;
// retryable failures are requeued a bounded number of times, poison
// messages go to the DLQ.
type ProjectDelayedHandler struct {
	projects     *repository.ProjectRepository
	inbox        *repository.InboxRepository
	deduper      *util.Deduper
	retryCounter *util.RetryCounter
	dlq          *mq.Publisher
	logger       *zap.Logger
}

func NewProjectDelayedHandler(
	projects *repository.ProjectRepository,
	inbox *repository.InboxRepository,
	deduper *util.Deduper,
	retryCounter *util.RetryCounter,
	dlq *mq.Publisher,
	logger *zap.Logger,
) *ProjectDelayedHandler {
	return &ProjectDelayedHandler{
		projects:     projects,
		inbox:        inbox,
		deduper:      deduper,
		retryCounter: retryCounter,
		dlq:          dlq,
		logger:       logger,
	}
}

func (h *ProjectDelayedHandler) Handle(ctx context.Context, raw json.RawMessage) error {
	start := time.Now()
	defer func() {
		metrics.RecordMQConsumeLatency(events.RoutingProjectDelayed, "pmes.notifier.project_delayed.q", time.Since(start))
	}()

	log := logger.WithTrace(ctx, h.logger)

	var p events.ProjectDelayedPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		log.Error("Failed to unmarshal ProjectDelayedPayload, sending to DLQ",
			zap.Error(err),
			zap.String("raw_payload", string(raw)),
		)
		h.park(raw, err)
		return nil
	}

	projectID, err := uuid.Parse(p.ProjectID)
	if err != nil {
		log.Error("Invalid project id in event, sending to DLQ", zap.String("project_id", p.ProjectID))
		h.park(raw, err)
		return nil
	}

	project, err := h.projects.GetByID(ctx, projectID)
	if err != nil {
		return h.classify(ctx, log, raw, p.EpisodeKey(), err)
	}

	// The project may have recovered or completed between emission and
	// delivery; a stale delay notice helps nobody.
	if !project.Active() {
		log.Info("Project no longer active, dropping delay notice",
			zap.String("project_id", p.ProjectID),
			zap.String("status", string(project.Status)),
		)
		return nil
	}

	if !h.deduper.AcquireOnce(ctx, notifierDedupScope, p.EpisodeKey()) {
		return nil
	}

	log.Info("Handling project.delayed event",
		zap.String("project_id", p.ProjectID),
		zap.String("severity", string(p.Severity)),
		zap.Int("overdue_milestones", len(p.OverdueMilestones)),
	)

	content := delayMessage(&p)
	recipients := []uuid.UUID{project.EIUPersonnelID, project.ImplementingOfficeID}
	now := time.Now()

	var failed int
	for _, userID := range recipients {
		if userID == uuid.Nil {
			continue
		}
		n := &model.InboxNotification{
			ID:        uuid.New(),
			UserID:    userID,
			Type:      "project_delayed",
			Content:   content,
			CreatedAt: now,
		}
		if err := h.inbox.Insert(ctx, n); err != nil {
			failed++
			log.Error("Failed to insert inbox notification",
				zap.String("user_id", userID.String()),
				zap.Error(err),
			)
		}
	}

	// Inbox fan-out is best effort past this point. The episode key is
	// already consumed and the delay record itself is persisted server-side,
	// so a partial failure is logged rather than requeued.
	if failed > 0 {
		log.Warn("Inbox fan-out incomplete",
			zap.String("project_id", p.ProjectID),
			zap.Int("failed", failed),
		)
	}
	return nil
}

// classify decides between requeue and DLQ for a failed project load.
func (h *ProjectDelayedHandler) classify(ctx context.Context, log *zap.Logger, raw json.RawMessage, episodeKey string, cause error) error {
	retryable, errType := util.IsRetryableError(cause)
	if !retryable {
		log.Error("Non-retryable failure, sending to DLQ",
			zap.String("error_type", errType),
			zap.Error(cause),
		)
		h.park(raw, cause)
		return nil
	}

	retryKey := util.FormatRetryKey("project_delayed", episodeKey)
	count, err := h.retryCounter.IncrementAndGet(ctx, retryKey)
	if err != nil {
		// Can't track retries; requeue and hope the counter recovers.
		log.Warn("Retry counter unavailable", zap.Error(err))
		return cause
	}
	if !util.ShouldRetry(count, maxDeliveryRetries, retryable) {
		log.Error("Retry budget exhausted, sending to DLQ",
			zap.Int64("attempts", count),
			zap.String("error_type", errType),
			zap.Error(cause),
		)
		h.park(raw, cause)
		return nil
	}

	log.Warn("Retryable failure, requeueing",
		zap.Int64("attempt", count),
		zap.String("error_type", errType),
		zap.Error(cause),
	)
	return cause
}

func (h *ProjectDelayedHandler) park(raw json.RawMessage, cause error) {
	if err := h.dlq.PublishToDLQ(events.RoutingProjectDelayed, raw, cause.Error()); err != nil {
		h.logger.Error("Failed to publish to DLQ", zap.Error(err))
	}
}

func delayMessage(p *events.ProjectDelayedPayload) string {
	return fmt.Sprintf("Project %s (%s) is delayed with severity %s: %d milestone(s) overdue.",
		p.ProjectCode, p.ProjectName, p.Severity, len(p.OverdueMilestones))
}
