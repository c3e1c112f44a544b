package rbac

import (
	"errors"
	"testing"

	apperror "gitlab.com/maplesense1/slc.control_server/src/production/SLC.ApiService/implementation/apperror"
	auth_models "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Models/auth"
	hardware_models "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Models/hardware"
)

func session(role auth_models.Role) *Session {
	return &Session{UserID: "u-" + string(role), Role: role}
}

func TestAuthorize_NoSessionRedirectsToSignIn(t *testing.T) {
	d := Authorize(nil, AnyRole)
	if d.Kind != Redirect || d.Location != "/auth/signin" {
		t.Fatalf("Authorize(nil) = %+v", d)
	}
}

func TestAuthorize_StaffOnUserPagesGoToAdmin(t *testing.T) {
	s := NewService()
	for _, role := range []auth_models.Role{auth_models.RoleAdmin, auth_models.RoleOperator} {
		for _, page := range []string{PageDashboard, PageStreetLights} {
			d := s.EvaluatePage(session(role), page)
			if d.Kind != Redirect || d.Location != "/admin" {
				t.Errorf("%s on %s = %+v, want redirect /admin", role, page, d)
			}
		}
	}
}

func TestAuthorize_PageMatrix(t *testing.T) {
	s := NewService()
	cases := []struct {
		role     auth_models.Role
		page     string
		kind     DecisionKind
		location string
	}{
		{auth_models.RoleAdmin, PageAdmin, Allow, ""},
		{auth_models.RoleOperator, PageAdmin, Allow, ""},
		{auth_models.RoleUser, PageAdmin, Redirect, "/dashboard"},
		{auth_models.RoleAdmin, PageAdminSettings, Allow, ""},
		{auth_models.RoleOperator, PageAdminSettings, Redirect, "/admin"},
		{auth_models.RoleUser, PageDashboard, Allow, ""},
		{auth_models.RoleUser, PageControls, Allow, ""},
		{auth_models.RoleOperator, PageControls, Allow, ""},
		{auth_models.RoleUser, "nonexistent", Deny, ""},
	}

	for _, tc := range cases {
		d := s.EvaluatePage(session(tc.role), tc.page)
		if d.Kind != tc.kind || d.Location != tc.location {
			t.Errorf("%s on %s = %+v, want %s %q", tc.role, tc.page, d, tc.kind, tc.location)
		}
	}
}

func TestCheck(t *testing.T) {
	if err := Check(nil, AdminOnly); !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("Check(nil) = %v, want Unauthorized", err)
	}
	for _, role := range []auth_models.Role{auth_models.RoleOperator, auth_models.RoleUser} {
		if err := Check(session(role), AdminOnly); !errors.Is(err, apperror.ErrForbidden) {
			t.Errorf("Check(%s, AdminOnly) = %v, want Forbidden", role, err)
		}
	}
	if err := Check(session(auth_models.RoleAdmin), AdminOnly); err != nil {
		t.Errorf("Check(admin) = %v", err)
	}
}

func TestCanControl(t *testing.T) {
	shared := &hardware_models.Device{Scope: hardware_models.ScopeShared, OwnerID: "u-admin"}
	mine := &hardware_models.Device{Scope: hardware_models.ScopePersonal, OwnerID: "u-user"}
	theirs := &hardware_models.Device{Scope: hardware_models.ScopePersonal, OwnerID: "someone"}

	if !CanControl(session(auth_models.RoleOperator), shared) || !CanControl(session(auth_models.RoleAdmin), theirs) {
		t.Error("staff should control every device")
	}
	if CanControl(session(auth_models.RoleUser), shared) {
		t.Error("user must not control shared devices")
	}
	if !CanControl(session(auth_models.RoleUser), mine) {
		t.Error("user should control own personal device")
	}
	if CanControl(session(auth_models.RoleUser), theirs) {
		t.Error("user must not control another user's device")
	}
	if CanControl(nil, mine) {
		t.Error("nil session must not control anything")
	}
}
