package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"college/internal/domain"
	"college/internal/gateway"
	"college/internal/gateway/middleware"
)

func withPrincipal(p domain.Principal, path string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	return req.WithContext(gateway.ContextWithPrincipal(req.Context(), p))
}

func assertForbidden(t *testing.T, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	var errResp domain.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&errResp); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if errResp.Error != "Forbidden" || errResp.Message != "access denied" {
		t.Errorf("unexpected 403 body %+v", errResp)
	}
}

func TestRolePolicyDefaultRules(t *testing.T) {
	student := domain.Principal{UserID: 1, Role: domain.RoleStudent}
	faculty := domain.Principal{UserID: 2, Role: domain.RoleFaculty}
	admin := domain.Principal{UserID: 3, Role: domain.RoleAdmin, Admin: &domain.AdminProfile{UserID: 3}}

	tests := []struct {
		path      string
		principal domain.Principal
		want      int
	}{
		{"/api/admin/profile", admin, http.StatusOK},
		{"/api/admin", admin, http.StatusOK},
		{"/api/admin/profile", faculty, http.StatusForbidden},
		{"/api/faculty/timetable", faculty, http.StatusOK},
		{"/api/faculty/timetable", student, http.StatusForbidden},
		{"/api/student/42", student, http.StatusOK},
		{"/api/departments/CSE", student, http.StatusForbidden},
		{"/api/courses/create", student, http.StatusForbidden},
		{"/api/courses/create", faculty, http.StatusOK},
		{"/api/courses/delete/7", faculty, http.StatusForbidden},
		{"/api/courses/delete/7", admin, http.StatusOK},
		{"/api/courses/7", student, http.StatusOK},
		{"/api/grades/update/3", student, http.StatusForbidden},
		{"/api/grades/student/3", student, http.StatusOK},
		{"/api/attendance/mark", student, http.StatusForbidden},
		{"/api/attendance/mark", faculty, http.StatusOK},
		{"/api/enrollments/enroll", student, http.StatusOK},
		{"/api/enrollments/enroll", faculty, http.StatusForbidden},
		{"/api/enrollments/approve/9", faculty, http.StatusOK},
		{"/api/enrollments/approve/9", student, http.StatusForbidden},
		{"/api/auth/me", student, http.StatusOK}, // no rule
	}

	handler := middleware.RolePolicy(middleware.DefaultRoleRules(), nil)(okHandler)
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, withPrincipal(tt.principal, tt.path))
		if rec.Code != tt.want {
			t.Errorf("%s as %s: expected %d, got %d", tt.path, tt.principal.Role, tt.want, rec.Code)
		}
	}
}

func TestRolePolicyForbiddenBody(t *testing.T) {
	handler := middleware.RolePolicy(middleware.DefaultRoleRules(), nil)(okHandler)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, withPrincipal(domain.Principal{UserID: 1, Role: domain.RoleStudent}, "/api/admin/profile"))
	assertForbidden(t, rec)
}

func TestRolePolicyWithoutPrincipal(t *testing.T) {
	handler := middleware.RolePolicy(middleware.DefaultRoleRules(), nil)(okHandler)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("unmatched anonymous path should pass, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/courses", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("guarded path without principal should be 401, got %d", rec.Code)
	}
}

func TestRequireAdminPermission(t *testing.T) {
	deptAdmin := domain.Principal{UserID: 3, Role: domain.RoleAdmin, Admin: &domain.AdminProfile{
		UserID:           3,
		Type:             domain.AdminTypeAcademic,
		AccessLevel:      domain.AccessLevelDepartment,
		DepartmentAccess: "CSE,ECE",
		Permissions:      domain.NewPermissionSet(domain.PermManageDepartments),
	}}
	superAdmin := domain.Principal{UserID: 4, Role: domain.RoleAdmin, Admin: &domain.AdminProfile{
		UserID: 4,
		Type:   domain.AdminTypeSuperAdmin,
	}}
	faculty := domain.Principal{UserID: 2, Role: domain.RoleFaculty}
	adminWithoutProfile := domain.Principal{UserID: 5, Role: domain.RoleAdmin}

	department := func(r *http.Request) string { return r.URL.Query().Get("dept") }
	handler := middleware.RequireAdminPermission(domain.PermManageDepartments, department, nil)(okHandler)

	tests := []struct {
		name      string
		principal domain.Principal
		dept      string
		want      int
	}{
		{"in scope", deptAdmin, "CSE", http.StatusOK},
		{"no department", deptAdmin, "", http.StatusOK},
		{"out of scope", deptAdmin, "MECH", http.StatusForbidden},
		{"super admin anywhere", superAdmin, "MECH", http.StatusOK},
		{"faculty", faculty, "CSE", http.StatusForbidden},
		{"admin role without profile", adminWithoutProfile, "CSE", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, withPrincipal(tt.principal, "/api/admin/x?dept="+tt.dept))
			if rec.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, rec.Code)
			}
		})
	}
}

func TestRequireAdminPermissionMissingPermission(t *testing.T) {
	p := domain.Principal{UserID: 3, Role: domain.RoleAdmin, Admin: &domain.AdminProfile{
		AccessLevel: domain.AccessLevelSystem,
		Permissions: domain.NewPermissionSet(domain.PermViewReports),
	}}
	handler := middleware.RequireAdminPermission(domain.PermManageFees, nil, nil)(okHandler)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, withPrincipal(p, "/api/admin/fees"))
	assertForbidden(t, rec)
}
