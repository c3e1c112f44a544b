package auth_models

import "strings"

// Role is an account's access level
type Role string

// Roles
const (
	RoleAdmin    Role = "admin"
	RoleOperator Role = "operator"
	RoleUser     Role = "user"
)

// Pages a guard decision may redirect to
const (
	SignInPage    = "/auth/signin"
	AdminPage     = "/admin"
	DashboardPage = "/dashboard"
)

// ValidRoles lists every assignable role
var ValidRoles = []Role{RoleAdmin, RoleOperator, RoleUser}

// ParseRole normalises a role string. An empty string yields RoleUser.
func ParseRole(s string) (Role, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return RoleUser, true
	}
	r := Role(s)
	return r, r.IsValid()
}

// IsValid reports whether r is one of ValidRoles
func (r Role) IsValid() bool {
	for _, v := range ValidRoles {
		if r == v {
			return true
		}
	}
	return false
}

// IsStaff reports whether r may operate shared devices
func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleOperator
}

// LandingPage is where a signed-in account of role r belongs
func (r Role) LandingPage() string {
	if r.IsStaff() {
		return AdminPage
	}
	return DashboardPage
}

func (r Role) String() string {
	return string(r)
}
