package model

import (
	"time"

	"github.com/google/uuid"
)

// OverdueMilestone is a point-in-time snapshot of one overdue milestone,
// embedded in a delay notification record.
type OverdueMilestone struct {
	MilestoneID uuid.UUID `json:"milestone_id"`
	Title       string    `json:"title"`
	DueDate     time.Time `json:"due_date"`
	DaysOverdue int       `json:"days_overdue"`
	Weight      float64   `json:"weight"`
}

// DelayInfo aggregates the overdue picture for one project at one detection
// run. TotalOverdueWeight sums milestone weights across divisions; it is a
// severity signal only and must never be fed back into progress aggregation.
type DelayInfo struct {
	OverdueMilestoneCount int        `json:"overdue_milestone_count"`
	MaxDaysOverdue        int        `json:"max_days_overdue"`
	TotalOverdueWeight    float64    `json:"total_overdue_weight"`
	FirstOverdueDate      *time.Time `json:"first_overdue_date,omitempty"`
	Severity              Severity   `json:"severity"`
}

// DelayNotification is an immutable system-generated record of a detected
// delay episode. At most one is created per episode per detection run.
type DelayNotification struct {
	ID                uuid.UUID          `json:"id"`
	ProjectID         uuid.UUID          `json:"project_id"`
	Severity          Severity           `json:"severity"`
	OverdueMilestones []OverdueMilestone `json:"overdue_milestones"`
	Info              DelayInfo          `json:"info"`
	GeneratedAt       time.Time          `json:"generated_at"`
}

// InboxNotification is a per-user notification fanned out by the notifier
// from delay events.
type InboxNotification struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Type      string    `json:"type"`
	Content   string    `json:"content"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}
