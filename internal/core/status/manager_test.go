package status

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pmes/internal/model"
)

var today = time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

func project(st model.ProjectStatus) *model.Project {
	return &model.Project{ID: uuid.New(), Status: st}
}

func milestone(daysFromToday int, st model.MilestoneStatus, weight float64) model.Milestone {
	return model.Milestone{
		ID:      uuid.New(),
		DueDate: today.AddDate(0, 0, daysFromToday),
		Status:  st,
		Weight:  weight,
	}
}

func TestPlanReconcileFlipsOngoingToDelayed(t *testing.T) {
	p := project(model.ProjectOngoing)
	overdue := milestone(-10, model.MilestonePending, 25)
	ms := []model.Milestone{overdue, milestone(5, model.MilestonePending, 25)}

	tr := PlanReconcile(p, ms, today)

	assert.True(t, tr.StatusChanged)
	assert.Equal(t, model.ProjectOngoing, tr.From)
	assert.Equal(t, model.ProjectDelayed, tr.To)
	assert.True(t, tr.NotifyDelay)
	require.Len(t, tr.MarkDelayed, 1)
	assert.Equal(t, overdue.ID, tr.MarkDelayed[0])
	assert.Equal(t, model.SeverityMedium, tr.Delay.Info.Severity)
}

func TestPlanReconcileAlreadyDelayedIsIdempotent(t *testing.T) {
	p := project(model.ProjectDelayed)
	ms := []model.Milestone{milestone(-10, model.MilestoneDelayed, 25)}

	tr := PlanReconcile(p, ms, today)

	assert.False(t, tr.StatusChanged)
	assert.False(t, tr.NotifyDelay)
	assert.Equal(t, model.ProjectDelayed, tr.To)
}

func TestPlanReconcileCompleteNeverFlagged(t *testing.T) {
	p := project(model.ProjectComplete)
	ms := []model.Milestone{milestone(-30, model.MilestonePending, 60)}

	tr := PlanReconcile(p, ms, today)

	assert.False(t, tr.StatusChanged)
	assert.Equal(t, model.ProjectComplete, tr.To)
}

func TestPlanReconcileRecoversToOngoing(t *testing.T) {
	p := project(model.ProjectDelayed)
	ms := []model.Milestone{
		milestone(-10, model.MilestoneApproved, 25),
		milestone(10, model.MilestonePending, 25),
	}

	tr := PlanReconcile(p, ms, today)

	assert.True(t, tr.StatusChanged)
	assert.Equal(t, model.ProjectOngoing, tr.To)
	assert.False(t, tr.NotifyDelay)
	assert.Empty(t, tr.MarkDelayed)
}

func TestPlanReconcileRecoveryWithNothingOpenDerivesFromProgress(t *testing.T) {
	// All milestones terminal, nothing overdue: re-derive from overall.
	done := project(model.ProjectDelayed)
	done.OverallProgress = 100
	ms := []model.Milestone{milestone(-10, model.MilestoneApproved, 50)}

	tr := PlanReconcile(done, ms, today)
	assert.True(t, tr.StatusChanged)
	assert.Equal(t, model.ProjectComplete, tr.To)

	partway := project(model.ProjectDelayed)
	partway.OverallProgress = 70

	tr = PlanReconcile(partway, ms, today)
	assert.True(t, tr.StatusChanged)
	assert.Equal(t, model.ProjectOngoing, tr.To)
}

func TestPlanReconcileOngoingWithNothingOverdueNoChange(t *testing.T) {
	p := project(model.ProjectOngoing)
	ms := []model.Milestone{milestone(3, model.MilestonePending, 25)}

	tr := PlanReconcile(p, ms, today)

	assert.False(t, tr.StatusChanged)
	assert.False(t, tr.NotifyDelay)
}

func TestPlanReconcilePendingProjectCanBeDelayed(t *testing.T) {
	p := project(model.ProjectPending)
	ms := []model.Milestone{milestone(-7, model.MilestonePending, 10)}

	tr := PlanReconcile(p, ms, today)

	assert.True(t, tr.StatusChanged)
	assert.Equal(t, model.ProjectDelayed, tr.To)
}

func TestApplyTransitionStampsCompletionOnce(t *testing.T) {
	p := project(model.ProjectDelayed)
	p.OverallProgress = 100
	ms := []model.Milestone{milestone(-10, model.MilestoneApproved, 50)}

	tr := PlanReconcile(p, ms, today)
	require.Equal(t, model.ProjectComplete, tr.To)

	ApplyTransition(p, tr, today)

	assert.Equal(t, model.ProjectComplete, p.Status)
	require.NotNil(t, p.CompletionDate)
	assert.Equal(t, today, *p.CompletionDate)
}

func TestApplyTransitionKeepsExistingCompletionDate(t *testing.T) {
	earlier := today.AddDate(0, 0, -3)
	p := project(model.ProjectDelayed)
	p.CompletionDate = &earlier

	ApplyTransition(p, Transition{To: model.ProjectComplete, StatusChanged: true}, today)

	require.NotNil(t, p.CompletionDate)
	assert.Equal(t, earlier, *p.CompletionDate)
}

func TestApplyTransitionLeavesDateAloneOutsideComplete(t *testing.T) {
	p := project(model.ProjectOngoing)

	ApplyTransition(p, Transition{To: model.ProjectDelayed, StatusChanged: true}, today)

	assert.Equal(t, model.ProjectDelayed, p.Status)
	assert.Nil(t, p.CompletionDate)
}

func TestPlanReconcileIsIdempotentOncePersisted(t *testing.T) {
	p := project(model.ProjectOngoing)
	ms := []model.Milestone{milestone(-5, model.MilestonePending, 10)}

	first := PlanReconcile(p, ms, today)
	require.True(t, first.StatusChanged)

	// Persisting the plan: project delayed, milestone flagged.
	p.Status = first.To
	ms[0].Status = model.MilestoneDelayed

	second := PlanReconcile(p, ms, today)
	assert.False(t, second.StatusChanged)
	assert.False(t, second.NotifyDelay)
}
