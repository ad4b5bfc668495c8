package models

import "strings"

// Role is the closed set of campus roles.
type Role string

const (
	RoleStudent Role = "student"
	RoleFaculty Role = "faculty"
	RoleAdmin   Role = "admin"
	RoleHR      Role = "hr"
)

// AllRoles lists every role in display order.
func AllRoles() []Role {
	return []Role{RoleStudent, RoleFaculty, RoleAdmin, RoleHR}
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleFaculty, RoleAdmin, RoleHR:
		return true
	default:
		return false
	}
}

// ParseRole normalises raw input into a Role.
func ParseRole(raw string) (Role, bool) {
	role := Role(strings.ToLower(strings.TrimSpace(raw)))
	if !role.Valid() {
		return "", false
	}
	return role, true
}

// In reports whether r is one of allowed.
func (r Role) In(allowed ...Role) bool {
	for _, a := range allowed {
		if r == a {
			return true
		}
	}
	return false
}
