package testutil_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"college/internal/domain"
	"college/internal/testutil"
)

func TestIssueTestToken(t *testing.T) {
	token := testutil.IssueTestToken(t, testutil.FacultyID, 15*time.Minute)
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	id, err := testutil.NewCodec(t).Verify(token, time.Now())
	if err != nil {
		t.Fatalf("verifying: %v", err)
	}
	if id != testutil.FacultyID {
		t.Errorf("expected subject %d, got %d", testutil.FacultyID, id)
	}
}

func TestIssueExpiredToken(t *testing.T) {
	token := testutil.IssueTestToken(t, testutil.StudentID, -time.Minute)

	_, err := testutil.NewCodec(t).Verify(token, time.Now())
	if !errors.Is(err, domain.ErrTokenExpired) {
		t.Errorf("expected expired token error, got %v", err)
	}
}

func TestSeedDirectory(t *testing.T) {
	d := testutil.SeedDirectory(t)
	ctx := context.Background()

	roles := map[int64]domain.Role{
		testutil.StudentID:    domain.RoleStudent,
		testutil.FacultyID:    domain.RoleFaculty,
		testutil.DeptAdminID:  domain.RoleAdmin,
		testutil.SuperAdminID: domain.RoleAdmin,
	}
	for id, want := range roles {
		got, err := d.LookupRole(ctx, id)
		if err != nil || got != want {
			t.Errorf("LookupRole(%d) = %v, %v; want %v", id, got, err, want)
		}
	}

	if _, err := d.LookupRole(ctx, testutil.OrphanUserID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("orphan id should not resolve, got %v", err)
	}

	root, err := d.LookupAdminProfile(ctx, testutil.SuperAdminID)
	if err != nil || !root.IsSuperAdmin() {
		t.Errorf("expected super admin profile, got %+v, %v", root, err)
	}

	creds, err := d.FindCredentials(ctx, "inactive@college.edu")
	if err != nil {
		t.Fatalf("FindCredentials: %v", err)
	}
	if creds.Active {
		t.Error("inactive account should be seeded inactive")
	}
	if bcrypt.CompareHashAndPassword([]byte(creds.PasswordHash), []byte(testutil.TestPassword)) != nil {
		t.Error("seeded hash should match TestPassword")
	}
}
