package auth

import (
	"context"
	"errors"
	"testing"

	apperror "gitlab.com/maplesense1/slc.control_server/src/production/SLC.ApiService/implementation/apperror"
	config "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Config"
	api_models "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Models/api"
	auth_models "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Models/auth"
)

func TestSetup_CreatesAdminAndDefaultCredentialOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	status, err := f.setup.Status(ctx)
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if status.IsSetup || !status.NeedsSetup {
		t.Fatalf("status = %+v, want needs setup", status)
	}

	admin, err := f.setup.Setup(ctx, api_models.SetupRequest{
		Email: "root@example.com", Name: "Root", Password: "secret123", APIKey: "WRITEKEY", Channel: "42",
	})
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	if admin.Role != auth_models.RoleAdmin {
		t.Errorf("role = %q, want admin", admin.Role)
	}

	active, err := f.credentials.Active(ctx)
	if err != nil {
		t.Fatalf("Active() error = %v", err)
	}
	if active.Name != DefaultCredentialName || active.APIKey != "WRITEKEY" || active.CreatedBy != admin.AccountID {
		t.Errorf("credential = %+v", active)
	}

	status, _ = f.setup.Status(ctx)
	if !status.IsSetup {
		t.Error("status should report setup done")
	}

	_, err = f.setup.Setup(ctx, api_models.SetupRequest{Email: "second@example.com", Name: "Second", Password: "secret123"})
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("second setup: error = %v, want Conflict", err)
	}
}

func TestSetup_WithoutKeyCreatesNoCredential(t *testing.T) {
	f := newFixture(t)
	if _, err := f.setup.Setup(context.Background(), api_models.SetupRequest{Email: "root@example.com", Name: "Root", Password: "secret123"}); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	if _, err := f.credentials.Active(context.Background()); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Active() error = %v, want NotFound", err)
	}
}

func TestInitializeAdminUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.setup.InitializeAdminUser(ctx, config.AdminConfig{}); err != nil {
		t.Fatalf("empty config: error = %v", err)
	}
	if n, _ := f.accounts.CountByRole(ctx, auth_models.RoleAdmin); n != 0 {
		t.Fatalf("admins = %d, want 0 without configured email", n)
	}

	cfg := config.AdminConfig{Name: "Boot", Email: "boot@example.com", Password: "secret123"}
	if err := f.setup.InitializeAdminUser(ctx, cfg); err != nil {
		t.Fatalf("InitializeAdminUser() error = %v", err)
	}
	if err := f.setup.InitializeAdminUser(ctx, config.AdminConfig{Name: "Other", Email: "other@example.com", Password: "secret123"}); err != nil {
		t.Fatalf("second InitializeAdminUser() error = %v", err)
	}
	if n, _ := f.accounts.CountByRole(ctx, auth_models.RoleAdmin); n != 1 {
		t.Errorf("admins = %d, want 1", n)
	}
}
