package delay

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pmes/internal/model"
)

var today = time.Date(2026, 8, 30, 15, 4, 5, 0, time.UTC)

func milestone(due time.Time, status model.MilestoneStatus, weight float64) model.Milestone {
	return model.Milestone{
		ID:      uuid.New(),
		Title:   "m",
		DueDate: due,
		Status:  status,
		Weight:  weight,
	}
}

func TestCheckProjectNoMilestones(t *testing.T) {
	res := CheckProject(nil, today)

	assert.False(t, res.IsDelayed)
	assert.Empty(t, res.OverdueMilestones)
	assert.Equal(t, model.SeverityLow, res.Info.Severity)
	assert.Nil(t, res.Info.FirstOverdueDate)
}

func TestCheckProjectSameDayDueIsNotOverdue(t *testing.T) {
	// Due earlier the same calendar day: the comparison is day-truncated.
	due := time.Date(2026, 8, 30, 1, 0, 0, 0, time.UTC)
	res := CheckProject([]model.Milestone{milestone(due, model.MilestonePending, 10)}, today)

	assert.False(t, res.IsDelayed)
}

func TestCheckProjectStrictlyBeforeToday(t *testing.T) {
	due := time.Date(2026, 8, 29, 23, 59, 0, 0, time.UTC)
	res := CheckProject([]model.Milestone{milestone(due, model.MilestonePending, 10)}, today)

	require.True(t, res.IsDelayed)
	require.Len(t, res.OverdueMilestones, 1)
	assert.Equal(t, 1, res.OverdueMilestones[0].DaysOverdue)
}

func TestCheckProjectSkipsTerminalMilestones(t *testing.T) {
	due := today.AddDate(0, 0, -20)
	ms := []model.Milestone{
		milestone(due, model.MilestoneCompleted, 40),
		milestone(due, model.MilestoneApproved, 40),
	}

	res := CheckProject(ms, today)
	assert.False(t, res.IsDelayed)
}

func TestCheckProjectCountsDelayedStatusAgain(t *testing.T) {
	// A milestone already flagged delayed stays overdue until resolved.
	due := today.AddDate(0, 0, -3)
	res := CheckProject([]model.Milestone{milestone(due, model.MilestoneDelayed, 10)}, today)

	assert.True(t, res.IsDelayed)
}

func TestCheckProjectAggregates(t *testing.T) {
	ms := []model.Milestone{
		milestone(today.AddDate(0, 0, -2), model.MilestonePending, 10),
		milestone(today.AddDate(0, 0, -8), model.MilestoneInProgress, 12.5),
		milestone(today.AddDate(0, 0, 5), model.MilestonePending, 30),
	}

	res := CheckProject(ms, today)

	require.True(t, res.IsDelayed)
	require.Len(t, res.OverdueMilestones, 2)

	// Sorted by due date, earliest first.
	assert.Equal(t, 8, res.OverdueMilestones[0].DaysOverdue)
	assert.Equal(t, 2, res.OverdueMilestones[1].DaysOverdue)

	assert.Equal(t, 2, res.Info.OverdueMilestoneCount)
	assert.Equal(t, 8, res.Info.MaxDaysOverdue)
	assert.Equal(t, 22.5, res.Info.TotalOverdueWeight)
	require.NotNil(t, res.Info.FirstOverdueDate)
	assert.Equal(t, res.OverdueMilestones[0].DueDate, *res.Info.FirstOverdueDate)
}

func TestCheckProjectIsDeterministic(t *testing.T) {
	ms := []model.Milestone{
		milestone(today.AddDate(0, 0, -10), model.MilestonePending, 20),
		milestone(today.AddDate(0, 0, -1), model.MilestonePending, 5),
	}

	first := CheckProject(ms, today)
	second := CheckProject(ms, today)
	assert.Equal(t, first, second)
}

func TestSeverityTable(t *testing.T) {
	cases := []struct {
		name    string
		maxDays int
		weight  float64
		want    model.Severity
	}{
		{"zero", 0, 0, model.SeverityLow},
		{"just under medium", 6, 14.9, model.SeverityLow},
		{"medium by days", 7, 0, model.SeverityMedium},
		{"medium by weight", 1, 15, model.SeverityMedium},
		{"high by days", 14, 0, model.SeverityHigh},
		{"high by weight", 1, 30, model.SeverityHigh},
		{"critical by days", 30, 0, model.SeverityCritical},
		{"critical by weight", 1, 50, model.SeverityCritical},
		{"critical dominates high", 45, 35, model.SeverityCritical},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Severity(tc.maxDays, tc.weight))
		})
	}
}

func TestSeverityMonotonicInDays(t *testing.T) {
	prev := model.SeverityLow
	for days := 0; days <= 60; days++ {
		got := Severity(days, 0)
		assert.GreaterOrEqual(t, got.Rank(), prev.Rank(), "days=%d", days)
		prev = got
	}
}
