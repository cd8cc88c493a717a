package domain

import (
	"fmt"
	"slices"
	"strings"
)

// DepartmentScopeAll is the department access value granting every department.
const DepartmentScopeAll = "ALL"

// Well-known admin permission names.
const (
	PermManageUsers       = "MANAGE_USERS"
	PermManageCourses     = "MANAGE_COURSES"
	PermManageDepartments = "MANAGE_DEPARTMENTS"
	PermViewReports       = "VIEW_REPORTS"
	PermManageFees        = "MANAGE_FEES"
	PermManageAttendance  = "MANAGE_ATTENDANCE"
	PermManageGrades      = "MANAGE_GRADES"
)

// AdminType classifies an admin account.
type AdminType int

const (
	AdminTypeUnknown AdminType = iota
	AdminTypeSuperAdmin
	AdminTypeAcademic
	AdminTypeIT
	AdminTypeFinance
	AdminTypeGeneral
)

var adminTypeNames = map[AdminType]string{
	AdminTypeSuperAdmin: "SUPER_ADMIN",
	AdminTypeAcademic:   "ACADEMIC_ADMIN",
	AdminTypeIT:         "IT_ADMIN",
	AdminTypeFinance:    "FINANCE_ADMIN",
	AdminTypeGeneral:    "GENERAL",
}

// String returns the stored name, e.g. "SUPER_ADMIN".
func (t AdminType) String() string {
	if s, ok := adminTypeNames[t]; ok {
		return s
	}
	return "UNKNOWN"
}

// ParseAdminType parses a stored admin type name.
func ParseAdminType(s string) (AdminType, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for t, name := range adminTypeNames {
		if name == s {
			return t, nil
		}
	}
	return AdminTypeUnknown, fmt.Errorf("unknown admin type %q", s)
}

// AccessLevel is the breadth of an admin's scope. System and Institution
// cover every department; Department and Limited cover only the departments
// named in the profile's department access.
type AccessLevel int

const (
	AccessLevelUnknown AccessLevel = iota
	AccessLevelSystem
	AccessLevelInstitution
	AccessLevelDepartment
	AccessLevelLimited
)

var accessLevelNames = map[AccessLevel]string{
	AccessLevelSystem:      "SYSTEM",
	AccessLevelInstitution: "INSTITUTION",
	AccessLevelDepartment:  "DEPARTMENT",
	AccessLevelLimited:     "LIMITED",
}

func (l AccessLevel) String() string {
	if s, ok := accessLevelNames[l]; ok {
		return s
	}
	return "UNKNOWN"
}

// ParseAccessLevel parses a stored access level name.
func ParseAccessLevel(s string) (AccessLevel, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for l, name := range accessLevelNames {
		if name == s {
			return l, nil
		}
	}
	return AccessLevelUnknown, fmt.Errorf("unknown access level %q", s)
}

// coversAllDepartments reports whether the level ignores the department list.
func (l AccessLevel) coversAllDepartments() bool {
	return l == AccessLevelSystem || l == AccessLevelInstitution
}

// PermissionSet is a set of permission names. Membership is exact and case-sensitive.
type PermissionSet map[string]struct{}

// NewPermissionSet builds a set from names; duplicates collapse.
func NewPermissionSet(names ...string) PermissionSet {
	ps := make(PermissionSet, len(names))
	for _, n := range names {
		ps[n] = struct{}{}
	}
	return ps
}

// Has reports whether name is in the set. A nil set has no members.
func (ps PermissionSet) Has(name string) bool {
	_, ok := ps[name]
	return ok
}

// Names returns the members in sorted order.
func (ps PermissionSet) Names() []string {
	names := make([]string, 0, len(ps))
	for n := range ps {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// AdminProfile is the authorization-relevant subset of an admin account.
type AdminProfile struct {
	UserID      int64
	AdminID     string
	Type        AdminType
	AccessLevel AccessLevel
	// DepartmentAccess is DepartmentScopeAll, empty (unset), or a
	// comma-separated list of department codes.
	DepartmentAccess string
	Permissions      PermissionSet
}

// IsSuperAdmin is derived from the admin type; it is never stored.
func (a AdminProfile) IsSuperAdmin() bool {
	return a.Type == AdminTypeSuperAdmin
}

// HasPermission reports exact membership of name in the permission set.
func (a AdminProfile) HasPermission(name string) bool {
	return a.Permissions.Has(name)
}

// CanAccessDepartment reports whether the profile's scope covers code.
//
// For Department and Limited levels the check is substring containment on
// the raw access string, so "CS" matches a stored "CSE". Stored data may
// depend on this, so it is kept as is.
func (a AdminProfile) CanAccessDepartment(code string) bool {
	if a.AccessLevel.coversAllDepartments() {
		return true
	}
	if a.DepartmentAccess == "" || a.DepartmentAccess == DepartmentScopeAll {
		return true
	}
	return strings.Contains(a.DepartmentAccess, code)
}

// Authorize composes the predicates for an action needing permission on
// department. Super admins are always allowed. An empty department skips the
// scope check.
func (a AdminProfile) Authorize(permission, department string) bool {
	if a.IsSuperAdmin() {
		return true
	}
	if !a.HasPermission(permission) {
		return false
	}
	return department == "" || a.CanAccessDepartment(department)
}
