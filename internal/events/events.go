// Package events defines the MQ event contracts shared by the server,
// sweeper and notifier processes.
package events

import (
	"time"

	"pmes/internal/model"
)

// Routing keys on the pmes.events exchange.
const (
	RoutingProjectDelayed     = "project.delayed"
	RoutingProjectRecovered   = "project.recovered"
	RoutingSubmissionApproved = "submission.approved"
)

// ProjectDelayedPayload announces a newly detected delay episode.
type ProjectDelayedPayload struct {
	ProjectID         string                   `json:"project_id"`
	ProjectCode       string                   `json:"project_code"`
	ProjectName       string                   `json:"project_name"`
	Severity          model.Severity           `json:"severity"`
	OverdueMilestones []model.OverdueMilestone `json:"overdue_milestones"`
	FirstOverdueDate  *time.Time               `json:"first_overdue_date,omitempty"`
	DetectedAt        time.Time                `json:"detected_at"`
}

// EpisodeKey identifies a delay episode for dedup: the same project stays
// in the same episode until its earliest overdue due date changes.
func (p ProjectDelayedPayload) EpisodeKey() string {
	if p.FirstOverdueDate == nil {
		return p.ProjectID
	}
	return p.ProjectID + ":" + p.FirstOverdueDate.Format("2006-01-02")
}

// ProjectRecoveredPayload announces a project leaving the delayed state.
type ProjectRecoveredPayload struct {
	ProjectID   string              `json:"project_id"`
	ProjectCode string              `json:"project_code"`
	NewStatus   model.ProjectStatus `json:"new_status"`
	RecoveredAt time.Time           `json:"recovered_at"`
}

// SubmissionApprovedPayload announces a terminally approved submission.
type SubmissionApprovedPayload struct {
	SubmissionID  string    `json:"submission_id"`
	ProjectID     string    `json:"project_id"`
	MilestoneID   string    `json:"milestone_id"`
	FinalProgress float64   `json:"final_progress"`
	ApprovedAt    time.Time `json:"approved_at"`
}
