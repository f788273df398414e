package model

import (
	"time"

	"github.com/google/uuid"
)

// FileRef is an opaque reference to an evidence file. Storage is handled
// elsewhere; the core only carries the metadata.
type FileRef struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Size int64  `json:"size"`
	Kind string `json:"kind"` // photo / video / document
}

// MilestoneSubmission is a field-unit progress claim against a milestone,
// reviewed first by the implementing-unit reviewer and then by the
// secretariat. Rejected and needs_revision submissions are retained for
// audit; a fresh submission references the same milestone.
type MilestoneSubmission struct {
	ID          uuid.UUID `json:"id"`
	ProjectID   uuid.UUID `json:"project_id"`
	MilestoneID uuid.UUID `json:"milestone_id"`
	SubmittedBy uuid.UUID `json:"submitted_by"`

	Status SubmissionStatus `json:"status"`

	// Timeline division.
	TimelineStartDate  *time.Time `json:"timeline_start_date,omitempty"`
	TimelineEndDate    *time.Time `json:"timeline_end_date,omitempty"`
	TimelineActivities string     `json:"timeline_activities"`

	// Budget division. RemainingBudget and BudgetUtilization are recomputed
	// server-side from planned and used; caller-supplied values are ignored.
	PlannedBudget     float64 `json:"planned_budget"`
	UsedBudget        float64 `json:"used_budget"`
	RemainingBudget   float64 `json:"remaining_budget"`
	BudgetUtilization float64 `json:"budget_utilization"`
	BudgetBreakdown   string  `json:"budget_breakdown"`

	// Physical division.
	PhysicalDescription string    `json:"physical_description"`
	RequiredProofs      string    `json:"required_proofs"`
	Evidence            []FileRef `json:"evidence,omitempty"`

	AdditionalNotes string `json:"additional_notes"`

	// Progress figures. FinalProgress is set only once the submission
	// reaches terminal approval; until then the project's division progress
	// is untouched by this submission.
	ClaimedProgress  float64  `json:"claimed_progress"`
	AdjustedProgress *float64 `json:"adjusted_progress,omitempty"`
	FinalProgress    *float64 `json:"final_progress,omitempty"`

	// Stage 1: implementing-unit review.
	IUReviewerID *uuid.UUID `json:"iu_reviewer_id,omitempty"`
	IUReviewedAt *time.Time `json:"iu_reviewed_at,omitempty"`
	IUNotes      string     `json:"iu_notes,omitempty"`

	// Stage 2: secretariat review.
	SecReviewerID *uuid.UUID `json:"sec_reviewer_id,omitempty"`
	SecReviewedAt *time.Time `json:"sec_reviewed_at,omitempty"`
	SecNotes      string     `json:"sec_notes,omitempty"`

	SubmittedAt time.Time `json:"submitted_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
