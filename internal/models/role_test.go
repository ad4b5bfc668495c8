package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	role, ok := ParseRole(" Faculty ")
	assert.True(t, ok)
	assert.Equal(t, RoleFaculty, role)

	_, ok = ParseRole("superadmin")
	assert.False(t, ok)

	for _, r := range AllRoles() {
		assert.True(t, r.Valid())
	}
}

func TestRoleIn(t *testing.T) {
	assert.True(t, RoleAdmin.In(RoleFaculty, RoleAdmin))
	assert.False(t, RoleHR.In(RoleFaculty, RoleAdmin))
	assert.False(t, RoleStudent.In())
}
