package rbac

import (
	"fmt"

	apperror "gitlab.com/maplesense1/slc.control_server/src/production/SLC.ApiService/implementation/apperror"
	auth_models "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Models/auth"
	hardware_models "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Models/hardware"
)

// Session is the identity resolved from a validated access token
type Session struct {
	UserID  string
	Role    auth_models.Role
	Name    string
	Email   string
	TokenID string
}

// DecisionKind is the outcome of a guard check
type DecisionKind string

const (
	Allow    DecisionKind = "allow"
	Redirect DecisionKind = "redirect"
	Deny     DecisionKind = "deny"
)

// Decision is returned by Authorize. Location is set for redirects.
type Decision struct {
	Kind     DecisionKind
	Location string
}

// Authorize decides whether session may enter a page guarded by required.
// No session sends the caller to sign in; a role outside the set sends the
// caller to the landing page of its own role.
func Authorize(session *Session, required RoleSet) Decision {
	if session == nil {
		return Decision{Kind: Redirect, Location: auth_models.SignInPage}
	}
	if !required.Has(session.Role) {
		return Decision{Kind: Redirect, Location: session.Role.LandingPage()}
	}
	return Decision{Kind: Allow}
}

// Check is the API-boundary form of Authorize: no redirects, just errors
func Check(session *Session, required RoleSet) error {
	if session == nil {
		return apperror.Unauthorized("authentication required")
	}
	if !required.Has(session.Role) {
		return apperror.Forbidden(fmt.Sprintf("role %q may not perform this operation", session.Role))
	}
	return nil
}

// CanControl reports whether session may toggle device. Staff control every
// device; users only their own personal ones.
func CanControl(session *Session, device *hardware_models.Device) bool {
	if session == nil || device == nil {
		return false
	}
	if session.Role.IsStaff() {
		return true
	}
	return session.Role == auth_models.RoleUser &&
		device.Scope == hardware_models.ScopePersonal &&
		device.OwnerID == session.UserID
}

// CanView reports whether session may read device
func CanView(session *Session, device *hardware_models.Device) bool {
	return CanControl(session, device)
}
