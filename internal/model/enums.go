package model

// ProjectStatus is the lifecycle status of a project.
type ProjectStatus string

const (
	ProjectPending  ProjectStatus = "pending"
	ProjectOngoing  ProjectStatus = "ongoing"
	ProjectDelayed  ProjectStatus = "delayed"
	ProjectComplete ProjectStatus = "complete"
)

func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectPending, ProjectOngoing, ProjectDelayed, ProjectComplete:
		return true
	}
	return false
}

// MilestoneStatus is the lifecycle status of a milestone.
type MilestoneStatus string

const (
	MilestonePending    MilestoneStatus = "pending"
	MilestoneInProgress MilestoneStatus = "in_progress"
	MilestoneCompleted  MilestoneStatus = "completed"
	MilestoneDelayed    MilestoneStatus = "delayed"
	MilestoneApproved   MilestoneStatus = "approved"
)

func (s MilestoneStatus) Valid() bool {
	switch s {
	case MilestonePending, MilestoneInProgress, MilestoneCompleted, MilestoneDelayed, MilestoneApproved:
		return true
	}
	return false
}

// Terminal reports whether the milestone can no longer become overdue.
func (s MilestoneStatus) Terminal() bool {
	return s == MilestoneCompleted || s == MilestoneApproved
}

// SubmissionStatus is the review state of a milestone submission.
type SubmissionStatus string

const (
	SubmissionPendingReview SubmissionStatus = "pending_review"
	SubmissionUnderReview   SubmissionStatus = "under_review"
	SubmissionIUApproved    SubmissionStatus = "iu_approved"
	SubmissionApproved      SubmissionStatus = "approved"
	SubmissionNeedsRevision SubmissionStatus = "needs_revision"
	SubmissionRejected      SubmissionStatus = "rejected"
)

func (s SubmissionStatus) Valid() bool {
	switch s {
	case SubmissionPendingReview, SubmissionUnderReview, SubmissionIUApproved,
		SubmissionApproved, SubmissionNeedsRevision, SubmissionRejected:
		return true
	}
	return false
}

// Terminal reports whether no further review transition is allowed.
// needs_revision and rejected are dead ends: the field unit files a new
// submission against the same milestone while this one is kept for audit.
func (s SubmissionStatus) Terminal() bool {
	return s == SubmissionApproved || s == SubmissionNeedsRevision || s == SubmissionRejected
}

// Severity classifies how serious a detected delay is.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Rank orders severities from low (0) to critical (3).
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 0
	case SeverityMedium:
		return 1
	case SeverityHigh:
		return 2
	case SeverityCritical:
		return 3
	}
	return -1
}

// Role is the review-chain role of an actor.
type Role string

const (
	RoleEIU         Role = "eiu"
	RoleIU          Role = "iu"
	RoleSecretariat Role = "secretariat"
	RoleExecutive   Role = "executive"
)

func (r Role) Valid() bool {
	switch r {
	case RoleEIU, RoleIU, RoleSecretariat, RoleExecutive:
		return true
	}
	return false
}
