package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"pmes/internal/model"
)

type NotificationRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewNotificationRepository(db *pgxpool.Pool, logger *zap.Logger) *NotificationRepository {
	return &NotificationRepository{
		db:     db,
		logger: logger,
	}
}

// InsertTx persists a delay notification record together with its overdue
// milestone snapshot. The snapshot is stored as JSONB so the record stays
// readable after the milestones themselves move on.
func (r *NotificationRepository) InsertTx(ctx context.Context, tx pgx.Tx, n *model.DelayNotification) error {
	snapshot, err := json.Marshal(n.OverdueMilestones)
	if err != nil {
		return fmt.Errorf("failed to marshal overdue snapshot: %w", err)
	}

	query := `
		INSERT INTO delay_notifications (
			id, project_id, severity, overdue_milestones,
			overdue_count, max_days_overdue, total_overdue_weight, first_overdue_date,
			generated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err = tx.Exec(ctx, query,
		n.ID,
		n.ProjectID,
		n.Severity,
		snapshot,
		n.Info.OverdueMilestoneCount,
		n.Info.MaxDaysOverdue,
		n.Info.TotalOverdueWeight,
		n.Info.FirstOverdueDate,
		n.GeneratedAt,
	)
	if err != nil {
		r.logger.Error("Failed to insert delay notification",
			zap.String("project_id", n.ProjectID.String()),
			zap.Error(err),
		)
		return fmt.Errorf("failed to insert delay notification: %w", err)
	}
	return nil
}

func (r *NotificationRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]model.DelayNotification, error) {
	query := `
		SELECT id, project_id, severity, overdue_milestones,
		       overdue_count, max_days_overdue, total_overdue_weight, first_overdue_date,
		       generated_at
		FROM delay_notifications
		WHERE project_id = $1
		ORDER BY generated_at DESC
	`

	rows, err := r.db.Query(ctx, query, projectID)
	if err != nil {
		r.logger.Error("Failed to list delay notifications", zap.String("project_id", projectID.String()), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var list []model.DelayNotification
	for rows.Next() {
		var n model.DelayNotification
		var snapshot []byte
		err := rows.Scan(
			&n.ID,
			&n.ProjectID,
			&n.Severity,
			&snapshot,
			&n.Info.OverdueMilestoneCount,
			&n.Info.MaxDaysOverdue,
			&n.Info.TotalOverdueWeight,
			&n.Info.FirstOverdueDate,
			&n.GeneratedAt,
		)
		if err != nil {
			r.logger.Error("Failed to scan delay notification", zap.Error(err))
			return nil, err
		}
		if err := json.Unmarshal(snapshot, &n.OverdueMilestones); err != nil {
			return nil, fmt.Errorf("failed to unmarshal overdue snapshot: %w", err)
		}
		n.Info.Severity = n.Severity
		list = append(list, n)
	}

	return list, rows.Err()
}
