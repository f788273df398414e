package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pmes/internal/model"
)

func TestDefaultWeightsSumTo100(t *testing.T) {
	w := DefaultWeights()
	require.NoError(t, w.Validate())
	assert.Equal(t, 100.0, w.Timeline+w.Budget+w.Physical)
}

func TestWeightsValidate(t *testing.T) {
	assert.Error(t, Weights{Timeline: 50, Budget: 30, Physical: 10}.Validate())
	assert.Error(t, Weights{Timeline: 120, Budget: -10, Physical: -10}.Validate())
	assert.NoError(t, Weights{Timeline: 40, Budget: 40, Physical: 20}.Validate())
}

func TestComputeOverall(t *testing.T) {
	w := DefaultWeights()

	assert.Equal(t, 0.0, ComputeOverall(0, 0, 0, w))
	assert.Equal(t, 100.0, ComputeOverall(100, 100, 100, w))

	// Equal division scores recombine to the same value.
	assert.Equal(t, 50.0, ComputeOverall(50, 50, 50, w))

	// 33.33*0.3333 + 0 + 0 rounded to two decimals.
	got := ComputeOverall(100, 0, 0, w)
	assert.Equal(t, 33.33, got)

	// Mixed division scores: 80/60/40 recombines to 60 under default weights.
	assert.InDelta(t, 60.0, ComputeOverall(80, 60, 40, w), 0.01)
}

func TestComputeOverallClampsInputs(t *testing.T) {
	w := DefaultWeights()
	// Raw inputs above 100 would push overall past 100; the result clamps.
	assert.Equal(t, 100.0, ComputeOverall(150, 150, 150, w))
}

func TestApplyStoresClampedScores(t *testing.T) {
	p := &model.Project{Status: model.ProjectOngoing}
	now := time.Now()

	Apply(p, -10, 150, 42.5, DefaultWeights(), now)

	assert.Equal(t, 0.0, p.TimelineProgress)
	assert.Equal(t, 100.0, p.BudgetProgress)
	assert.Equal(t, 42.5, p.PhysicalProgress)
	require.NotNil(t, p.LastProgressUpdate)
	assert.Equal(t, now, *p.LastProgressUpdate)
}

func TestApplyCompletesAt100(t *testing.T) {
	p := &model.Project{Status: model.ProjectOngoing}
	now := time.Now()

	Apply(p, 100, 100, 100, DefaultWeights(), now)

	assert.Equal(t, model.ProjectComplete, p.Status)
	require.NotNil(t, p.CompletionDate)
	assert.Equal(t, now, *p.CompletionDate)
}

func TestApplyKeepsFirstCompletionDate(t *testing.T) {
	first := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	p := &model.Project{Status: model.ProjectComplete, CompletionDate: &first}

	Apply(p, 100, 100, 100, DefaultWeights(), time.Now())

	require.NotNil(t, p.CompletionDate)
	assert.Equal(t, first, *p.CompletionDate)
}

func TestApplyAdvancesPendingToOngoing(t *testing.T) {
	p := &model.Project{Status: model.ProjectPending}

	Apply(p, 10, 0, 0, DefaultWeights(), time.Now())

	assert.Equal(t, model.ProjectOngoing, p.Status)
}

func TestApplyLeavesPendingAtZero(t *testing.T) {
	p := &model.Project{Status: model.ProjectPending}

	Apply(p, 0, 0, 0, DefaultWeights(), time.Now())

	assert.Equal(t, model.ProjectPending, p.Status)
}

func TestApplyNeverDowngradesDelayed(t *testing.T) {
	p := &model.Project{Status: model.ProjectDelayed}

	Apply(p, 50, 50, 50, DefaultWeights(), time.Now())

	// Progress moves, status stays: only the status manager resolves delays.
	assert.Equal(t, model.ProjectDelayed, p.Status)
	assert.Equal(t, 50.0, p.OverallProgress)
}

func TestApplyCompletesEvenWhenDelayed(t *testing.T) {
	p := &model.Project{Status: model.ProjectDelayed}

	Apply(p, 100, 100, 100, DefaultWeights(), time.Now())

	assert.Equal(t, model.ProjectComplete, p.Status)
}
