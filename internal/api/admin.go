package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"college/internal/domain"
	gw "college/internal/gateway"
	"college/internal/gateway/middleware"
)

type adminSummary struct {
	UserID           int64    `json:"user_id"`
	AdminID          string   `json:"admin_id"`
	AdminType        string   `json:"admin_type"`
	AccessLevel      string   `json:"access_level"`
	DepartmentAccess string   `json:"department_access"`
	Permissions      []string `json:"permissions"`
	SuperAdmin       bool     `json:"super_admin"`
}

func summarizeAdmin(a domain.AdminProfile) adminSummary {
	return adminSummary{
		UserID:           a.UserID,
		AdminID:          a.AdminID,
		AdminType:        a.Type.String(),
		AccessLevel:      a.AccessLevel.String(),
		DepartmentAccess: a.DepartmentAccess,
		Permissions:      a.Permissions.Names(),
		SuperAdmin:       a.IsSuperAdmin(),
	}
}

// requireAdmin keeps the admin routes safe even when mounted without the
// role policy in front.
func (h *handler) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := gw.PrincipalFromContext(r.Context())
		if !ok {
			middleware.WriteUnauthorized(w, "authentication required")
			return
		}
		if !p.IsAdmin() {
			middleware.WriteForbidden(w, "access denied")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func adminFrom(r *http.Request) domain.AdminProfile {
	p, _ := gw.PrincipalFromContext(r.Context())
	return *p.Admin
}

func (h *handler) adminProfile(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, h.Now(), "Admin profile", summarizeAdmin(adminFrom(r)))
}

func (h *handler) checkPermission(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	granted := adminFrom(r).HasPermission(name)
	h.Metrics.RecordAuthzDecision(r.Context(), "permission", decision(granted))

	writeSuccess(w, h.Now(), "Permission check", map[string]any{
		"permission": name,
		"granted":    granted,
	})
}

func (h *handler) checkDepartment(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	admin := adminFrom(r)
	canAccess := admin.CanAccessDepartment(code)
	h.Metrics.RecordAuthzDecision(r.Context(), "department", decision(canAccess))

	writeSuccess(w, h.Now(), "Department access check", map[string]any{
		"department":  code,
		"can_access":  canAccess,
		"super_admin": admin.IsSuperAdmin(),
	})
}

func (h *handler) departmentAdmins(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	admins, err := h.Admins.ListAdminsForDepartment(r.Context(), code)
	if err != nil {
		h.Logger.Error("listing department admins", "department", code, "error", err)
		writeInternal(w)
		return
	}

	out := make([]adminSummary, 0, len(admins))
	for _, a := range admins {
		out = append(out, summarizeAdmin(a))
	}
	writeSuccess(w, h.Now(), "Department admins", map[string]any{
		"department": code,
		"admins":     out,
	})
}

// adminGroups select admins by a held permission or by super-admin type.
var adminGroups = map[string]func(domain.AdminProfile) bool{
	"user-managers":       func(a domain.AdminProfile) bool { return a.HasPermission(domain.PermManageUsers) },
	"course-managers":     func(a domain.AdminProfile) bool { return a.HasPermission(domain.PermManageCourses) },
	"department-managers": func(a domain.AdminProfile) bool { return a.HasPermission(domain.PermManageDepartments) },
	"super-admins":        domain.AdminProfile.IsSuperAdmin,
}

func (h *handler) adminGroup(w http.ResponseWriter, r *http.Request) {
	group := chi.URLParam(r, "group")
	match, ok := adminGroups[group]
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "unknown admin group")
		return
	}

	admins, err := h.Admins.ListAdmins(r.Context())
	if err != nil {
		h.Logger.Error("listing admins", "group", group, "error", err)
		writeInternal(w)
		return
	}

	out := make([]adminSummary, 0, len(admins))
	for _, a := range admins {
		if match(a) {
			out = append(out, summarizeAdmin(a))
		}
	}
	writeSuccess(w, h.Now(), "Admins", map[string]any{
		"group":  group,
		"admins": out,
	})
}

func decision(allowed bool) string {
	if allowed {
		return "allowed"
	}
	return "denied"
}
