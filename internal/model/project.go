package model

import (
	"time"

	"github.com/google/uuid"
)

// Project is a monitored municipal project. Overall progress is always the
// weighted recombination of the three division scores.
type Project struct {
	ID          uuid.UUID `json:"id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Description string    `json:"description"`

	StartDate      time.Time  `json:"start_date"`
	EndDate        time.Time  `json:"end_date"`
	CompletionDate *time.Time `json:"completion_date,omitempty"`

	TimelineProgress float64 `json:"timeline_progress"`
	BudgetProgress   float64 `json:"budget_progress"`
	PhysicalProgress float64 `json:"physical_progress"`
	OverallProgress  float64 `json:"overall_progress"`

	Status ProjectStatus `json:"status"`

	TotalBudget float64 `json:"total_budget"`

	EIUPersonnelID       uuid.UUID `json:"eiu_personnel_id"`
	ImplementingOfficeID uuid.UUID `json:"implementing_office_id"`

	LastProgressUpdate *time.Time `json:"last_progress_update,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// Active reports whether the project is in scope for the delay sweep.
func (p *Project) Active() bool {
	return p.Status == ProjectOngoing || p.Status == ProjectDelayed
}
