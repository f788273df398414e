package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pmes/internal/core"
	"pmes/internal/core/status"
	"pmes/internal/model"
)

type fakeLister struct {
	projects []model.Project
	err      error
}

func (f *fakeLister) ListActive(ctx context.Context) ([]model.Project, error) {
	return f.projects, f.err
}

type fakeReconciler struct {
	results map[uuid.UUID]*status.Transition
	errs    map[uuid.UUID]error
	calls   []uuid.UUID
	delay   time.Duration
}

func (f *fakeReconciler) ReconcileProject(ctx context.Context, projectID uuid.UUID) (*status.Transition, error) {
	f.calls = append(f.calls, projectID)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if err, ok := f.errs[projectID]; ok {
		return nil, err
	}
	if t, ok := f.results[projectID]; ok {
		return t, nil
	}
	return &status.Transition{ProjectID: projectID}, nil
}

func activeProjects(n int) []model.Project {
	projects := make([]model.Project, n)
	for i := range projects {
		projects[i] = model.Project{ID: uuid.New(), Status: model.ProjectOngoing}
	}
	return projects
}

func TestRunDelaySweepCountsOutcomes(t *testing.T) {
	projects := activeProjects(3)
	rec := &fakeReconciler{
		results: map[uuid.UUID]*status.Transition{
			projects[0].ID: {ProjectID: projects[0].ID, StatusChanged: true, NotifyDelay: true},
			projects[1].ID: {ProjectID: projects[1].ID, StatusChanged: true},
		},
	}
	sweeper := NewSweeper(&fakeLister{projects: projects}, rec, zap.NewNop())

	summary, err := sweeper.RunDelaySweep(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3, summary.Checked)
	assert.Equal(t, 2, summary.Updated)
	assert.Equal(t, 1, summary.NewlyDelayed)
	assert.Equal(t, 0, summary.Failed)
}

func TestRunDelaySweepIsolatesFailures(t *testing.T) {
	projects := activeProjects(3)
	rec := &fakeReconciler{
		errs: map[uuid.UUID]error{
			projects[1].ID: errors.New("connection reset"),
		},
		results: map[uuid.UUID]*status.Transition{
			projects[2].ID: {ProjectID: projects[2].ID, StatusChanged: true, NotifyDelay: true},
		},
	}
	sweeper := NewSweeper(&fakeLister{projects: projects}, rec, zap.NewNop())

	summary, err := sweeper.RunDelaySweep(context.Background())

	// One failure does not abort the pass or surface as a sweep error.
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Checked)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 1, summary.NewlyDelayed)
	assert.Len(t, rec.calls, 3)
}

func TestRunDelaySweepSkipsLockedProjects(t *testing.T) {
	projects := activeProjects(2)
	rec := &fakeReconciler{
		errs: map[uuid.UUID]error{
			projects[0].ID: &core.ConcurrencyConflict{Resource: "project"},
		},
	}
	sweeper := NewSweeper(&fakeLister{projects: projects}, rec, zap.NewNop())

	summary, err := sweeper.RunDelaySweep(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, summary.Checked)
	assert.Equal(t, 1, summary.Failed)
}

func TestRunDelaySweepListFailureAborts(t *testing.T) {
	sweeper := NewSweeper(&fakeLister{err: errors.New("db down")}, &fakeReconciler{}, zap.NewNop())

	summary, err := sweeper.RunDelaySweep(context.Background())

	require.Error(t, err)
	assert.Equal(t, 0, summary.Checked)
}

func TestRunDelaySweepHonorsCancellation(t *testing.T) {
	projects := activeProjects(10)
	rec := &fakeReconciler{delay: 5 * time.Millisecond}
	sweeper := NewSweeper(&fakeLister{projects: projects}, rec, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 12*time.Millisecond)
	defer cancel()

	summary, err := sweeper.RunDelaySweep(ctx)

	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, summary.Checked, 10)
	assert.Greater(t, summary.Checked, 0)
}
