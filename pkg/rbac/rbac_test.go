package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRolePermissionMatrix(t *testing.T) {
	cases := []struct {
		role       string
		permission string
		allowed    bool
	}{
		{RoleEIU, PermissionCreateSubmission, true},
		{RoleEIU, PermissionReviewStage1, false},
		{RoleEIU, PermissionReviewFinal, false},
		{RoleIU, PermissionReviewStage1, true},
		{RoleIU, PermissionReviewFinal, false},
		{RoleIU, PermissionCreateSubmission, false},
		{RoleSecretariat, PermissionReviewFinal, true},
		{RoleSecretariat, PermissionTriggerSweep, true},
		{RoleExecutive, PermissionReadProject, true},
		{RoleExecutive, PermissionReviewFinal, false},
		{"unknown", PermissionReadProject, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.allowed, HasPermission(tc.role, tc.permission),
			"role=%s permission=%s", tc.role, tc.permission)
	}
}

func TestCheckPermission(t *testing.T) {
	require.NoError(t, CheckPermission(RoleSecretariat, PermissionTriggerSweep))

	err := CheckPermission(RoleEIU, PermissionTriggerSweep)
	var denied *PermissionDeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, RoleEIU, denied.Role)
	assert.Equal(t, PermissionTriggerSweep, denied.Permission)
}
