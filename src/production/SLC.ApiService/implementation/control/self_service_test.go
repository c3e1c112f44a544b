package control

import (
	"errors"
	"testing"

	apperror "gitlab.com/maplesense1/slc.control_server/src/production/SLC.ApiService/implementation/apperror"
	rbac "gitlab.com/maplesense1/slc.control_server/src/production/SLC.ApiService/implementation/rbac"
	auth_models "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Models/auth"
)

func TestController_WriteOwnField(t *testing.T) {
	f := newFixture(t)
	f.addCredential(t, "SHARED")
	user := auth_models.NewAccount("u@x.com", "U", auth_models.RoleUser)
	user.APIToken = "MINE"
	_, _ = f.accounts.Create(f.ctx, user)
	session := &rbac.Session{UserID: user.AccountID, Role: auth_models.RoleUser}

	if err := f.controller.WriteOwnField(f.ctx, session, "field3", intp(1)); err != nil {
		t.Fatalf("WriteOwnField() error = %v", err)
	}
	calls := f.relay.Calls()
	if len(calls) != 1 || calls[0] != (relayCall{APIKey: "MINE", Field: "field3", Value: 1}) {
		t.Errorf("relay calls = %+v, want own key only", calls)
	}
}

func TestController_WriteOwnField_Rejects(t *testing.T) {
	f := newFixture(t)
	keyless := auth_models.NewAccount("k@x.com", "K", auth_models.RoleUser)
	_, _ = f.accounts.Create(f.ctx, keyless)
	session := &rbac.Session{UserID: keyless.AccountID, Role: auth_models.RoleUser}

	tests := []struct {
		name  string
		field string
		value *int
	}{
		{"no value", "field1", nil},
		{"bad field", "field9", intp(1)},
		{"bad value", "field1", intp(2)},
		{"no key configured", "field1", intp(0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := f.controller.WriteOwnField(f.ctx, session, tt.field, tt.value); !errors.Is(err, apperror.ErrValidationFailure) {
				t.Errorf("error = %v, want ValidationFailure", err)
			}
		})
	}
	if n := len(f.relay.Calls()); n != 0 {
		t.Errorf("relay calls = %d, want 0", n)
	}
}
