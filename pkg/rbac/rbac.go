package rbac

// Permissions for review-chain operations.
const (
	PermissionCreateSubmission = "submission:create"
	PermissionReviewStage1     = "submission:review_stage1"
	PermissionReviewFinal      = "submission:review_final"
	PermissionReadProject      = "project:read"
	PermissionTriggerSweep     = "sweep:trigger"
)

// Actor roles in the review chain.
const (
	RoleEIU         = "eiu"
	RoleIU          = "iu"
	RoleSecretariat = "secretariat"
	RoleExecutive   = "executive"
)

var rolePermissions = map[string][]string{
	RoleEIU: {
		PermissionCreateSubmission,
		PermissionReadProject,
	},
	RoleIU: {
		PermissionReviewStage1,
		PermissionReadProject,
	},
	RoleSecretariat: {
		PermissionReviewFinal,
		PermissionReadProject,
		PermissionTriggerSweep,
	},
	RoleExecutive: {
		PermissionReadProject,
		PermissionTriggerSweep,
	},
}

// HasPermission checks whether a role carries the given permission.
func HasPermission(role string, permission string) bool {
	permissions, ok := rolePermissions[role]
	if !ok {
		return false
	}

	for _, p := range permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// CheckPermission returns an error when the role lacks the permission.
func CheckPermission(role string, permission string) error {
	if !HasPermission(role, permission) {
		return &PermissionDeniedError{
			Role:       role,
			Permission: permission,
		}
	}
	return nil
}

// PermissionDeniedError indicates a role lacks a required permission.
type PermissionDeniedError struct {
	Role       string
	Permission string
}

func (e *PermissionDeniedError) Error() string {
	return "insufficient permissions"
}
