package repository

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pmes/internal/core"
	"pmes/internal/model"
)

type fakeExecer struct {
	tag  pgconn.CommandTag
	sql  string
	args []any
}

func (f *fakeExecer) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.sql = sql
	f.args = args
	return f.tag, nil
}

func TestUpdateReviewCarriesStatusPredicate(t *testing.T) {
	repo := NewSubmissionRepository(nil, zap.NewNop())
	sub := &model.MilestoneSubmission{ID: uuid.New(), Status: model.SubmissionUnderReview}
	exec := &fakeExecer{tag: pgconn.NewCommandTag("UPDATE 1")}

	err := repo.updateReview(context.Background(), exec, sub, model.SubmissionPendingReview)

	require.NoError(t, err)
	assert.Contains(t, exec.sql, "status = $11")
	require.Len(t, exec.args, 11)
	assert.Equal(t, sub.ID, exec.args[0])
	assert.Equal(t, model.SubmissionPendingReview, exec.args[10])
	assert.True(t, strings.Contains(exec.sql, "WHERE id = $1 AND"))
}

func TestUpdateReviewLosesRaceToFirstCommit(t *testing.T) {
	// The row no longer holds the status the decision was applied against:
	// another reviewer committed first and this transition must not land.
	repo := NewSubmissionRepository(nil, zap.NewNop())
	sub := &model.MilestoneSubmission{ID: uuid.New(), Status: model.SubmissionIUApproved}
	exec := &fakeExecer{tag: pgconn.NewCommandTag("UPDATE 0")}

	err := repo.updateReview(context.Background(), exec, sub, model.SubmissionUnderReview)

	var conflict *core.ConcurrencyConflict
	require.ErrorAs(t, err, &conflict)
	assert.Contains(t, conflict.Resource, sub.ID.String())
}
