// Package review implements the submission review state machine:
// pending_review -> under_review -> iu_approved -> approved, with
// needs_revision and rejected as dead ends. Transitions are guarded by
// actor role; an illegal attempt leaves the submission unchanged.
package review

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"pmes/internal/core"
	"pmes/internal/model"
)

// Decision is a reviewer's action on a submission.
type Decision string

const (
	// DecisionClaim moves a pending submission under active IU review.
	DecisionClaim Decision = "claim"
	// DecisionNeedsRevision ends this submission; the field unit must file
	// a new one against the same milestone.
	DecisionNeedsRevision Decision = "needs_revision"
	// DecisionIUApprove is the stage-1 approval with an optional adjustment.
	DecisionIUApprove Decision = "iu_approve"
	// DecisionApprove is the terminal secretariat approval.
	DecisionApprove Decision = "approve"
	// DecisionReject is the terminal secretariat rejection.
	DecisionReject Decision = "reject"
)

func (d Decision) Valid() bool {
	switch d {
	case DecisionClaim, DecisionNeedsRevision, DecisionIUApprove, DecisionApprove, DecisionReject:
		return true
	}
	return false
}

// Input carries one review action and the acting reviewer.
type Input struct {
	ReviewerID       uuid.UUID
	Role             model.Role
	Decision         Decision
	Notes            string
	AdjustedProgress *float64 // stage-1 correction, percent
	FinalProgress    *float64 // secretariat override, percent
}

// Contributions is the numeric triple emitted on terminal approval; the
// caller hands it to the progress aggregator.
type Contributions struct {
	Timeline float64
	Budget   float64
	Physical float64
}

// Outcome describes the applied transition.
type Outcome struct {
	Status        model.SubmissionStatus
	FinalApproved bool
	Contributions Contributions
}

// Apply runs one review decision against the submission, mutating it only
// when the transition is legal. On terminal approval the submission's final
// progress scales the milestone's division weights into the contribution
// triple.
func Apply(sub *model.MilestoneSubmission, m *model.Milestone, in Input, now time.Time) (*Outcome, error) {
	if !in.Decision.Valid() {
		verr := &core.ValidationError{}
		verr.Add("decision", "unknown decision")
		return nil, verr
	}

	if sub.Status.Terminal() {
		return nil, &core.GuardViolation{Role: in.Role, From: sub.Status, Action: string(in.Decision)}
	}

	switch in.Decision {
	case DecisionClaim:
		return applyClaim(sub, in, now)
	case DecisionNeedsRevision, DecisionIUApprove:
		return applyStage1(sub, in, now)
	case DecisionApprove, DecisionReject:
		return applyFinal(sub, m, in, now)
	}

	return nil, &core.GuardViolation{Role: in.Role, From: sub.Status, Action: string(in.Decision)}
}

func applyClaim(sub *model.MilestoneSubmission, in Input, now time.Time) (*Outcome, error) {
	if in.Role != model.RoleIU || sub.Status != model.SubmissionPendingReview {
		return nil, &core.GuardViolation{Role: in.Role, From: sub.Status, Action: string(in.Decision)}
	}

	sub.Status = model.SubmissionUnderReview
	sub.IUReviewerID = &in.ReviewerID
	sub.UpdatedAt = now
	return &Outcome{Status: sub.Status}, nil
}

func applyStage1(sub *model.MilestoneSubmission, in Input, now time.Time) (*Outcome, error) {
	if in.Role != model.RoleIU {
		return nil, &core.GuardViolation{Role: in.Role, From: sub.Status, Action: string(in.Decision)}
	}
	if sub.Status != model.SubmissionPendingReview && sub.Status != model.SubmissionUnderReview {
		return nil, &core.GuardViolation{Role: in.Role, From: sub.Status, Action: string(in.Decision)}
	}

	if in.Decision == DecisionIUApprove {
		adjusted := sub.ClaimedProgress
		if in.AdjustedProgress != nil {
			if *in.AdjustedProgress < 0 || *in.AdjustedProgress > 100 {
				verr := &core.ValidationError{}
				verr.Add("adjusted_progress", "must be between 0 and 100")
				return nil, verr
			}
			adjusted = *in.AdjustedProgress
		}
		sub.AdjustedProgress = &adjusted
		sub.Status = model.SubmissionIUApproved
	} else {
		sub.Status = model.SubmissionNeedsRevision
	}

	sub.IUReviewerID = &in.ReviewerID
	reviewedAt := now
	sub.IUReviewedAt = &reviewedAt
	sub.IUNotes = in.Notes
	sub.UpdatedAt = now
	return &Outcome{Status: sub.Status}, nil
}

func applyFinal(sub *model.MilestoneSubmission, m *model.Milestone, in Input, now time.Time) (*Outcome, error) {
	if in.Role != model.RoleSecretariat || sub.Status != model.SubmissionIUApproved {
		return nil, &core.GuardViolation{Role: in.Role, From: sub.Status, Action: string(in.Decision)}
	}

	// A milestone's weight is credited exactly once. When a second submission
	// against an already-approved milestone reaches this stage, approval is
	// refused; rejecting the dangling submission stays allowed so it does not
	// sit open forever.
	if in.Decision == DecisionApprove && m.Status.Terminal() {
		return nil, &core.GuardViolation{
			Role:   in.Role,
			From:   sub.Status,
			Action: string(in.Decision),
			Reason: fmt.Sprintf("milestone %s is already %s", m.ID, m.Status),
		}
	}

	sub.SecReviewerID = &in.ReviewerID
	reviewedAt := now
	sub.SecReviewedAt = &reviewedAt
	sub.SecNotes = in.Notes
	sub.UpdatedAt = now

	if in.Decision == DecisionReject {
		sub.Status = model.SubmissionRejected
		return &Outcome{Status: sub.Status}, nil
	}

	final := sub.ClaimedProgress
	if sub.AdjustedProgress != nil {
		final = *sub.AdjustedProgress
	}
	if in.FinalProgress != nil {
		if *in.FinalProgress < 0 || *in.FinalProgress > 100 {
			verr := &core.ValidationError{}
			verr.Add("final_progress", "must be between 0 and 100")
			return nil, verr
		}
		final = *in.FinalProgress
	}

	sub.FinalProgress = &final
	sub.Status = model.SubmissionApproved

	return &Outcome{
		Status:        sub.Status,
		FinalApproved: true,
		Contributions: Contributions{
			Timeline: round2(m.TimelineWeight * final / 100),
			Budget:   round2(m.BudgetWeight * final / 100),
			Physical: round2(m.PhysicalWeight * final / 100),
		},
	}, nil
}

// ValidateNew checks a fresh submission's numeric fields and recomputes the
// budget ledger server-side. Remaining budget is always planned minus used,
// never trusted from the caller.
func ValidateNew(sub *model.MilestoneSubmission) error {
	verr := &core.ValidationError{}

	if sub.ClaimedProgress < 0 || sub.ClaimedProgress > 100 {
		verr.Add("claimed_progress", "must be between 0 and 100")
	}
	if sub.PlannedBudget < 0 {
		verr.Add("planned_budget", "must be non-negative")
	}
	if sub.UsedBudget < 0 {
		verr.Add("used_budget", "must be non-negative")
	}

	if verr.HasErrors() {
		return verr
	}

	sub.RemainingBudget = round2(sub.PlannedBudget - sub.UsedBudget)
	if sub.PlannedBudget > 0 {
		sub.BudgetUtilization = round2(sub.UsedBudget / sub.PlannedBudget * 100)
	} else {
		sub.BudgetUtilization = 0
	}

	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
