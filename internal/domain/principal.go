package domain

import (
	"fmt"
	"slices"
	"strings"
)

// Role is the account kind a user id resolves to.
type Role int

const (
	RoleUnknown Role = iota
	RoleStudent
	RoleFaculty
	RoleAdmin
)

func (r Role) String() string {
	switch r {
	case RoleStudent:
		return "student"
	case RoleFaculty:
		return "faculty"
	case RoleAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

// ParseRole accepts the lower-case names produced by String, case-insensitively.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "student":
		return RoleStudent, nil
	case "faculty":
		return RoleFaculty, nil
	case "admin":
		return RoleAdmin, nil
	default:
		return RoleUnknown, fmt.Errorf("unknown role %q", s)
	}
}

// Principal is the identity resolved for a single request. It is built by the
// authentication middleware and never persisted.
type Principal struct {
	UserID int64
	Role   Role
	// Admin is set only when Role is RoleAdmin.
	Admin *AdminProfile
}

// HasRole reports whether the principal holds any of the given roles.
func (p Principal) HasRole(roles ...Role) bool {
	return slices.Contains(roles, p.Role)
}

// IsAdmin reports whether the principal is an admin with a loaded profile.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin && p.Admin != nil
}
