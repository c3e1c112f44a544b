package rbac

import (
	auth_models "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Models/auth"
)

// RoleSet is the set of roles permitted through a boundary
type RoleSet map[auth_models.Role]bool

// NewRoleSet builds a RoleSet from roles
func NewRoleSet(roles ...auth_models.Role) RoleSet {
	set := make(RoleSet, len(roles))
	for _, r := range roles {
		set[r] = true
	}
	return set
}

// Has reports whether role is in the set
func (s RoleSet) Has(role auth_models.Role) bool {
	return s[role]
}

// Common role sets
var (
	AdminOnly = NewRoleSet(auth_models.RoleAdmin)
	Staff     = NewRoleSet(auth_models.RoleAdmin, auth_models.RoleOperator)
	UsersOnly = NewRoleSet(auth_models.RoleUser)
	AnyRole   = NewRoleSet(auth_models.ValidRoles...)
)

// Page names
const (
	PageAdmin         = "admin"
	PageAdminSettings = "admin-settings"
	PageDashboard     = "dashboard"
	PageStreetLights  = "street-lights"
	PageControls      = "controls"
)

// Service resolves page boundaries to role sets
type Service struct {
	pages map[string]RoleSet
}

// NewService creates a new RBAC service with the predefined pages
func NewService() *Service {
	return &Service{
		pages: map[string]RoleSet{
			PageAdmin:         Staff,
			PageAdminSettings: AdminOnly,
			PageDashboard:     UsersOnly,
			PageStreetLights:  UsersOnly,
			PageControls:      AnyRole,
		},
	}
}

// PageRoles returns the role set guarding page
func (s *Service) PageRoles(page string) (RoleSet, bool) {
	set, ok := s.pages[page]
	return set, ok
}

// EvaluatePage runs the guard for a named page. Unknown pages are denied.
func (s *Service) EvaluatePage(session *Session, page string) Decision {
	set, ok := s.PageRoles(page)
	if !ok {
		return Decision{Kind: Deny}
	}
	return Authorize(session, set)
}
