package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"pmes/internal/core"
	"pmes/internal/model"
)

// InboxRepository stores the per-user notifications fanned out by the
// notifier from delay events.
type InboxRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewInboxRepository(db *pgxpool.Pool, logger *zap.Logger) *InboxRepository {
	return &InboxRepository{
		db:     db,
		logger: logger,
	}
}

func (r *InboxRepository) Insert(ctx context.Context, n *model.InboxNotification) error {
	query := `
		INSERT INTO inbox_notifications (id, user_id, type, content, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.Exec(ctx, query, n.ID, n.UserID, n.Type, n.Content, n.IsRead, n.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to insert inbox notification",
			zap.String("user_id", n.UserID.String()),
			zap.Error(err),
		)
		return fmt.Errorf("failed to insert inbox notification: %w", err)
	}
	return nil
}

func (r *InboxRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]model.InboxNotification, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, user_id, type, content, is_read, created_at
		FROM inbox_notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		r.logger.Error("Failed to list inbox notifications", zap.String("user_id", userID.String()), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var list []model.InboxNotification
	for rows.Next() {
		var n model.InboxNotification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Content, &n.IsRead, &n.CreatedAt); err != nil {
			r.logger.Error("Failed to scan inbox notification", zap.Error(err))
			return nil, err
		}
		list = append(list, n)
	}

	return list, rows.Err()
}

// MarkRead flips one notification to read. The user predicate keeps a user
// from touching someone else's inbox; a miss on either column is a not-found.
func (r *InboxRepository) MarkRead(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	query := `UPDATE inbox_notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2`

	tag, err := r.db.Exec(ctx, query, id, userID)
	if err != nil {
		r.logger.Error("Failed to mark inbox notification read", zap.String("id", id.String()), zap.Error(err))
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &core.NotFoundError{Kind: "inbox notification", ID: id.String()}
	}
	return nil
}
