package model

import (
	"time"

	"github.com/google/uuid"
)

// Milestone is a scheduled checkpoint within a project. Weight is the
// milestone's contribution to its division; the three division weights
// configure what a submission against it must supply.
type Milestone struct {
	ID          uuid.UUID `json:"id"`
	ProjectID   uuid.UUID `json:"project_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`

	DueDate       time.Time  `json:"due_date"`
	CompletedDate *time.Time `json:"completed_date,omitempty"`

	Status MilestoneStatus `json:"status"`
	Weight float64         `json:"weight"`

	// Per-division configuration for submissions against this milestone.
	TimelineWeight    float64    `json:"timeline_weight"`
	BudgetWeight      float64    `json:"budget_weight"`
	PhysicalWeight    float64    `json:"physical_weight"`
	TimelineStartDate *time.Time `json:"timeline_start_date,omitempty"`
	TimelineEndDate   *time.Time `json:"timeline_end_date,omitempty"`
	PlannedBudget     float64    `json:"planned_budget"`
	PhysicalProofType string     `json:"physical_proof_type"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Open reports whether the milestone can still become overdue.
func (m *Milestone) Open() bool {
	return !m.Status.Terminal()
}
