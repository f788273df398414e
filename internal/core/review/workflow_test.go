package review

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pmes/internal/core"
	"pmes/internal/model"
)

func newSubmission(status model.SubmissionStatus) *model.MilestoneSubmission {
	return &model.MilestoneSubmission{
		ID:              uuid.New(),
		ProjectID:       uuid.New(),
		MilestoneID:     uuid.New(),
		Status:          status,
		ClaimedProgress: 80,
	}
}

func newMilestone() *model.Milestone {
	return &model.Milestone{
		ID:             uuid.New(),
		TimelineWeight: 20,
		BudgetWeight:   10,
		PhysicalWeight: 15,
	}
}

func input(role model.Role, d Decision) Input {
	return Input{ReviewerID: uuid.New(), Role: role, Decision: d}
}

func TestClaimMovesToUnderReview(t *testing.T) {
	sub := newSubmission(model.SubmissionPendingReview)
	in := input(model.RoleIU, DecisionClaim)

	out, err := Apply(sub, newMilestone(), in, time.Now())

	require.NoError(t, err)
	assert.Equal(t, model.SubmissionUnderReview, out.Status)
	assert.Equal(t, model.SubmissionUnderReview, sub.Status)
	require.NotNil(t, sub.IUReviewerID)
	assert.Equal(t, in.ReviewerID, *sub.IUReviewerID)
}

func TestClaimRejectedForWrongRole(t *testing.T) {
	sub := newSubmission(model.SubmissionPendingReview)

	_, err := Apply(sub, newMilestone(), input(model.RoleSecretariat, DecisionClaim), time.Now())

	var gv *core.GuardViolation
	require.ErrorAs(t, err, &gv)
	assert.Equal(t, model.SubmissionPendingReview, sub.Status)
}

func TestIUApproveFromPendingReview(t *testing.T) {
	sub := newSubmission(model.SubmissionPendingReview)

	out, err := Apply(sub, newMilestone(), input(model.RoleIU, DecisionIUApprove), time.Now())

	require.NoError(t, err)
	assert.Equal(t, model.SubmissionIUApproved, out.Status)
	require.NotNil(t, sub.AdjustedProgress)
	// No explicit adjustment: claimed progress carries through.
	assert.Equal(t, 80.0, *sub.AdjustedProgress)
	require.NotNil(t, sub.IUReviewedAt)
}

func TestIUApproveWithAdjustment(t *testing.T) {
	sub := newSubmission(model.SubmissionUnderReview)
	adjusted := 65.0
	in := input(model.RoleIU, DecisionIUApprove)
	in.AdjustedProgress = &adjusted

	_, err := Apply(sub, newMilestone(), in, time.Now())

	require.NoError(t, err)
	require.NotNil(t, sub.AdjustedProgress)
	assert.Equal(t, 65.0, *sub.AdjustedProgress)
}

func TestIUApproveRejectsOutOfRangeAdjustment(t *testing.T) {
	sub := newSubmission(model.SubmissionUnderReview)
	adjusted := 140.0
	in := input(model.RoleIU, DecisionIUApprove)
	in.AdjustedProgress = &adjusted

	_, err := Apply(sub, newMilestone(), in, time.Now())

	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, model.SubmissionUnderReview, sub.Status)
	assert.Nil(t, sub.AdjustedProgress)
}

func TestNeedsRevisionIsTerminal(t *testing.T) {
	sub := newSubmission(model.SubmissionPendingReview)
	in := input(model.RoleIU, DecisionNeedsRevision)
	in.Notes = "missing evidence"

	out, err := Apply(sub, newMilestone(), in, time.Now())

	require.NoError(t, err)
	assert.Equal(t, model.SubmissionNeedsRevision, out.Status)
	assert.Equal(t, "missing evidence", sub.IUNotes)

	// Nothing further may touch it.
	_, err = Apply(sub, newMilestone(), input(model.RoleSecretariat, DecisionApprove), time.Now())
	var gv *core.GuardViolation
	require.ErrorAs(t, err, &gv)
}

func TestFinalApproveRequiresSecretariat(t *testing.T) {
	sub := newSubmission(model.SubmissionIUApproved)

	_, err := Apply(sub, newMilestone(), input(model.RoleIU, DecisionApprove), time.Now())

	var gv *core.GuardViolation
	require.ErrorAs(t, err, &gv)
}

func TestFinalApproveSkippingStage1Fails(t *testing.T) {
	sub := newSubmission(model.SubmissionPendingReview)

	_, err := Apply(sub, newMilestone(), input(model.RoleSecretariat, DecisionApprove), time.Now())

	var gv *core.GuardViolation
	require.ErrorAs(t, err, &gv)
}

func TestFinalApproveEmitsContributions(t *testing.T) {
	sub := newSubmission(model.SubmissionIUApproved)
	adjusted := 50.0
	sub.AdjustedProgress = &adjusted

	out, err := Apply(sub, newMilestone(), input(model.RoleSecretariat, DecisionApprove), time.Now())

	require.NoError(t, err)
	assert.True(t, out.FinalApproved)
	assert.Equal(t, model.SubmissionApproved, sub.Status)
	require.NotNil(t, sub.FinalProgress)
	assert.Equal(t, 50.0, *sub.FinalProgress)

	// Division weights 20/10/15 scaled by 50%.
	assert.Equal(t, 10.0, out.Contributions.Timeline)
	assert.Equal(t, 5.0, out.Contributions.Budget)
	assert.Equal(t, 7.5, out.Contributions.Physical)
}

func TestFinalApproveOverrideWins(t *testing.T) {
	sub := newSubmission(model.SubmissionIUApproved)
	adjusted := 50.0
	sub.AdjustedProgress = &adjusted

	override := 100.0
	in := input(model.RoleSecretariat, DecisionApprove)
	in.FinalProgress = &override

	out, err := Apply(sub, newMilestone(), in, time.Now())

	require.NoError(t, err)
	assert.Equal(t, 100.0, *sub.FinalProgress)
	assert.Equal(t, 20.0, out.Contributions.Timeline)
}

func TestFinalApproveRefusesClosedMilestone(t *testing.T) {
	// Second submission against a milestone whose first approval already
	// went through: its weight must not be credited again.
	for _, st := range []model.MilestoneStatus{model.MilestoneApproved, model.MilestoneCompleted} {
		sub := newSubmission(model.SubmissionIUApproved)
		m := newMilestone()
		m.Status = st

		out, err := Apply(sub, m, input(model.RoleSecretariat, DecisionApprove), time.Now())

		var gv *core.GuardViolation
		require.ErrorAs(t, err, &gv, "milestone status=%s", st)
		assert.Nil(t, out)
		assert.Equal(t, model.SubmissionIUApproved, sub.Status)
		assert.Nil(t, sub.FinalProgress)
		assert.Nil(t, sub.SecReviewerID)
	}
}

func TestFinalRejectAllowedOnClosedMilestone(t *testing.T) {
	// Rejecting clears the dangling duplicate without moving any progress.
	sub := newSubmission(model.SubmissionIUApproved)
	m := newMilestone()
	m.Status = model.MilestoneApproved

	out, err := Apply(sub, m, input(model.RoleSecretariat, DecisionReject), time.Now())

	require.NoError(t, err)
	assert.False(t, out.FinalApproved)
	assert.Equal(t, model.SubmissionRejected, sub.Status)
}

func TestFinalRejectEndsSubmission(t *testing.T) {
	sub := newSubmission(model.SubmissionIUApproved)
	in := input(model.RoleSecretariat, DecisionReject)
	in.Notes = "figures do not match the field report"

	out, err := Apply(sub, newMilestone(), in, time.Now())

	require.NoError(t, err)
	assert.False(t, out.FinalApproved)
	assert.Equal(t, model.SubmissionRejected, sub.Status)
	assert.Nil(t, sub.FinalProgress)
	assert.Equal(t, "figures do not match the field report", sub.SecNotes)
}

func TestTerminalStatesRefuseEverything(t *testing.T) {
	for _, st := range []model.SubmissionStatus{
		model.SubmissionApproved,
		model.SubmissionNeedsRevision,
		model.SubmissionRejected,
	} {
		for _, d := range []Decision{DecisionClaim, DecisionNeedsRevision, DecisionIUApprove, DecisionApprove, DecisionReject} {
			sub := newSubmission(st)
			_, err := Apply(sub, newMilestone(), input(model.RoleSecretariat, d), time.Now())
			var gv *core.GuardViolation
			assert.ErrorAs(t, err, &gv, "status=%s decision=%s", st, d)
			assert.Equal(t, st, sub.Status)
		}
	}
}

func TestUnknownDecision(t *testing.T) {
	sub := newSubmission(model.SubmissionPendingReview)

	_, err := Apply(sub, newMilestone(), input(model.RoleIU, Decision("escalate")), time.Now())

	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestValidateNewRecomputesBudget(t *testing.T) {
	sub := &model.MilestoneSubmission{
		ClaimedProgress: 40,
		PlannedBudget:   200000,
		UsedBudget:      50000,
		// Caller-supplied ledger values are ignored.
		RemainingBudget:   999,
		BudgetUtilization: 999,
	}

	require.NoError(t, ValidateNew(sub))
	assert.Equal(t, 150000.0, sub.RemainingBudget)
	assert.Equal(t, 25.0, sub.BudgetUtilization)
}

func TestValidateNewZeroPlannedBudget(t *testing.T) {
	sub := &model.MilestoneSubmission{ClaimedProgress: 10, UsedBudget: 0}

	require.NoError(t, ValidateNew(sub))
	assert.Equal(t, 0.0, sub.BudgetUtilization)
}

func TestValidateNewRejectsBadNumbers(t *testing.T) {
	cases := []struct {
		name string
		sub  model.MilestoneSubmission
	}{
		{"claimed over 100", model.MilestoneSubmission{ClaimedProgress: 101}},
		{"claimed negative", model.MilestoneSubmission{ClaimedProgress: -1}},
		{"planned negative", model.MilestoneSubmission{PlannedBudget: -5}},
		{"used negative", model.MilestoneSubmission{UsedBudget: -5}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sub := tc.sub
			var verr *core.ValidationError
			require.ErrorAs(t, ValidateNew(&sub), &verr)
		})
	}
}
