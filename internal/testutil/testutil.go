package testutil

import (
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"college/internal/domain"
	"college/internal/gateway"
	"college/internal/gateway/adapter/inmem"
	"college/internal/gateway/adapter/tokens"
)

// TestSecret is a base64 256-bit key, so tokens are HS256.
const TestSecret = "Y29sbGVnZS10ZXN0LXNpZ25pbmcta2V5LTAxMjM0NTY="

// TestPassword is the password of every seeded account.
const TestPassword = "correct horse battery"

// Seeded account ids.
const (
	StudentID      int64 = 1
	FacultyID      int64 = 2
	DeptAdminID    int64 = 3
	SuperAdminID   int64 = 4
	InactiveUserID int64 = 5
	OrphanUserID   int64 = 99 // valid token subject with no account
)

// NewCodec returns a codec keyed with TestSecret.
func NewCodec(t testing.TB) *tokens.Codec {
	t.Helper()
	key, err := tokens.DeriveKey(TestSecret)
	if err != nil {
		t.Fatalf("deriving test key: %v", err)
	}
	return tokens.NewCodec(key)
}

// IssueTestToken signs a token for userID with TestSecret.
// A non-positive ttl produces a token that has already expired.
func IssueTestToken(t testing.TB, userID int64, ttl time.Duration) string {
	t.Helper()

	now := time.Now()
	if ttl <= 0 {
		now = now.Add(ttl - time.Minute)
		ttl = time.Minute
	}
	token, err := NewCodec(t).Issue(userID, now, ttl)
	if err != nil {
		t.Fatalf("issuing token: %v", err)
	}
	return token
}

// HashPassword bcrypts password at the minimum cost to keep tests fast.
func HashPassword(t testing.TB, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}
	return string(hash)
}

// SeedDirectory returns an in-memory directory with one account per role:
// a student, a faculty member, a CSE/ECE department admin holding
// MANAGE_DEPARTMENTS and VIEW_REPORTS, a super admin, and an inactive student.
func SeedDirectory(t testing.TB) *inmem.Directory {
	t.Helper()
	hash := HashPassword(t, TestPassword)
	creds := func(id int64, name, email string, active bool) gateway.Credentials {
		return gateway.Credentials{UserID: id, Name: name, Email: email, PasswordHash: hash, Active: active}
	}

	d := inmem.NewDirectory()
	d.AddUser(creds(StudentID, "Asha Student", "student@college.edu", true), domain.RoleStudent)
	d.AddUser(creds(FacultyID, "Ravi Faculty", "faculty@college.edu", true), domain.RoleFaculty)
	d.AddAdmin(creds(DeptAdminID, "Dept Admin", "dept.admin@college.edu", true), domain.AdminProfile{
		AdminID:          "ADM-CSE",
		Type:             domain.AdminTypeAcademic,
		AccessLevel:      domain.AccessLevelDepartment,
		DepartmentAccess: "CSE,ECE",
		Permissions:      domain.NewPermissionSet(domain.PermManageDepartments, domain.PermViewReports),
	})
	d.AddAdmin(creds(SuperAdminID, "Super Admin", "root@college.edu", true), domain.AdminProfile{
		AdminID:          "ADM-ROOT",
		Type:             domain.AdminTypeSuperAdmin,
		AccessLevel:      domain.AccessLevelSystem,
		DepartmentAccess: domain.DepartmentScopeAll,
	})
	d.AddUser(creds(InactiveUserID, "Gone Student", "inactive@college.edu", false), domain.RoleStudent)
	return d
}
