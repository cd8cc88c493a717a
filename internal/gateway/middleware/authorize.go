package middleware

import (
	"net/http"

	"college/internal/domain"
	gw "college/internal/gateway"
	"college/internal/platform/telemetry"
)

const msgAccessDenied = "access denied"

// RoleRule grants the listed roles access to paths matching Pattern.
type RoleRule struct {
	Pattern string
	Roles   []domain.Role
}

// DefaultRoleRules is the route policy of the college API. Order matters:
// the first matching rule decides.
func DefaultRoleRules() []RoleRule {
	var (
		admin     = []domain.Role{domain.RoleAdmin}
		staff     = []domain.Role{domain.RoleFaculty, domain.RoleAdmin}
		everyone  = []domain.Role{domain.RoleStudent, domain.RoleFaculty, domain.RoleAdmin}
		enrolling = []domain.Role{domain.RoleStudent, domain.RoleAdmin}
	)
	return []RoleRule{
		{"/api/admin/**", admin},
		{"/api/faculty/**", staff},
		{"/api/student/**", everyone},
		{"/api/departments/**", staff},
		{"/api/courses/create", staff},
		{"/api/courses/update/**", staff},
		{"/api/courses/delete/**", admin},
		{"/api/courses/**", everyone},
		{"/api/grades/create", staff},
		{"/api/grades/update/**", staff},
		{"/api/grades/**", everyone},
		{"/api/attendance/mark", staff},
		{"/api/attendance/**", everyone},
		{"/api/enrollments/enroll", enrolling},
		{"/api/enrollments/approve/**", staff},
		{"/api/enrollments/**", everyone},
	}
}

// RolePolicy enforces route-level role rules. It runs after Auth: requests
// without a principal pass through unless a rule covers the path, and paths
// no rule covers are open to any authenticated principal.
func RolePolicy(rules []RoleRule, m *telemetry.Metrics) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rule, ok := firstMatch(rules, r.URL.Path)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			principal, ok := gw.PrincipalFromContext(r.Context())
			if !ok {
				WriteUnauthorized(w, msgMissingToken)
				return
			}
			if !principal.HasRole(rule.Roles...) {
				m.RecordAuthzDecision(r.Context(), "role", "denied")
				WriteForbidden(w, msgAccessDenied)
				return
			}
			m.RecordAuthzDecision(r.Context(), "role", "allowed")
			next.ServeHTTP(w, r)
		})
	}
}

func firstMatch(rules []RoleRule, path string) (RoleRule, bool) {
	for _, rule := range rules {
		if matchPattern(rule.Pattern, path) {
			return rule, true
		}
	}
	return RoleRule{}, false
}

// RequireAdminPermission admits admins that hold permission and, when
// department returns a non-empty code, can access that department. Super
// admins always pass. department may be nil.
func RequireAdminPermission(permission string, department func(*http.Request) string, m *telemetry.Metrics) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := gw.PrincipalFromContext(r.Context())
			if !ok {
				WriteUnauthorized(w, msgMissingToken)
				return
			}

			var code string
			if department != nil {
				code = department(r)
			}
			if !principal.IsAdmin() || !principal.Admin.Authorize(permission, code) {
				m.RecordAuthzDecision(r.Context(), "admin_permission", "denied")
				WriteForbidden(w, msgAccessDenied)
				return
			}
			m.RecordAuthzDecision(r.Context(), "admin_permission", "allowed")
			next.ServeHTTP(w, r)
		})
	}
}
