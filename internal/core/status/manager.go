// Package status plans project status transitions from delay-check results.
// Planning is pure: the caller loads the project and its milestones, asks
// for a plan, and persists the decision atomically.
package status

import (
	"time"

	"github.com/google/uuid"

	"pmes/internal/core/delay"
	"pmes/internal/model"
)

// Transition is the decision record for one reconcile pass. It replaces the
// untyped update blob the submission stream uses for human reports: a delay
// flip is a distinct system event with a structured snapshot.
type Transition struct {
	ProjectID     uuid.UUID
	From          model.ProjectStatus
	To            model.ProjectStatus
	StatusChanged bool

	// MarkDelayed lists milestones whose status must flip to delayed
	// together with the project row.
	MarkDelayed []uuid.UUID

	// NotifyDelay requests a DelayNotification record for this episode.
	NotifyDelay bool

	Delay delay.Result
}

// PlanReconcile reconciles the project's status against its open milestones
// and today's date. Calling it twice with unchanged inputs yields
// StatusChanged=false the second time once the first plan is applied.
//
// Status machine: pending -> ongoing -> delayed -> ongoing -> complete.
// delayed is a detour, not a dead end; complete is never entered here
// unless overall progress already reached 100.
func PlanReconcile(p *model.Project, milestones []model.Milestone, today time.Time) Transition {
	check := delay.CheckProject(milestones, today)

	t := Transition{
		ProjectID: p.ID,
		From:      p.Status,
		To:        p.Status,
		Delay:     check,
	}

	switch {
	case check.IsDelayed && p.Status != model.ProjectDelayed && p.Status != model.ProjectComplete:
		t.To = model.ProjectDelayed
		t.StatusChanged = true
		t.NotifyDelay = true
		for _, om := range check.OverdueMilestones {
			t.MarkDelayed = append(t.MarkDelayed, om.MilestoneID)
		}

	case !check.IsDelayed && p.Status == model.ProjectDelayed:
		if hasOpenWork(milestones) {
			t.To = model.ProjectOngoing
			t.StatusChanged = true
		} else {
			// Nothing overdue and nothing in flight: re-derive the status
			// from overall progress so the project cannot stay parked in
			// delayed forever.
			if p.OverallProgress >= 100 {
				t.To = model.ProjectComplete
			} else {
				t.To = model.ProjectOngoing
			}
			t.StatusChanged = t.To != p.Status
		}
	}

	return t
}

// ApplyTransition writes a planned transition onto the project row. Entering
// complete stamps the completion date once; an already-stamped date is never
// overwritten or cleared.
func ApplyTransition(p *model.Project, t Transition, now time.Time) {
	p.Status = t.To
	if t.To == model.ProjectComplete && p.CompletionDate == nil {
		completed := now
		p.CompletionDate = &completed
	}
}

func hasOpenWork(milestones []model.Milestone) bool {
	for _, m := range milestones {
		if m.Status == model.MilestonePending || m.Status == model.MilestoneInProgress {
			return true
		}
	}
	return false
}
