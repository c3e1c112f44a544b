package analytics

import (
	"context"
	"testing"

	auth_models "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Models/auth"
	hardware_models "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Models/hardware"
	telemetry_models "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Models/telemetry"
	implementation "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Repository/Implementation"
)

func TestService_Summary(t *testing.T) {
	ctx := context.Background()
	accounts := implementation.NewMemoryAccountRepository()
	devices := implementation.NewMemoryDeviceRepository()
	credentials := implementation.NewMemoryCredentialRepository()

	for i, role := range []auth_models.Role{auth_models.RoleAdmin, auth_models.RoleUser, auth_models.RoleUser} {
		a := auth_models.NewAccount(string(rune('a'+i))+"@x.com", "n", role)
		if i == 1 {
			a.APIToken = "KEY"
		}
		_, _ = accounts.Create(ctx, a)
	}
	for led, status := range map[int]hardware_models.Status{1: hardware_models.StatusOn, 2: hardware_models.StatusOff, 3: hardware_models.StatusOn} {
		_, _ = devices.Create(ctx, &hardware_models.Device{Name: "d", LedNumber: led, FieldID: "field1", Scope: hardware_models.ScopeShared, Status: status})
	}

	s := NewService(accounts, devices, credentials)
	got, err := s.Summary(ctx)
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if got.TotalUsers != 3 || got.UsersByRole["user"] != 2 || got.UsersByRole["admin"] != 1 || got.UsersByRole["operator"] != 0 {
		t.Errorf("users = %d %v", got.TotalUsers, got.UsersByRole)
	}
	if got.UsersWithAPIKey != 1 {
		t.Errorf("UsersWithAPIKey = %d, want 1", got.UsersWithAPIKey)
	}
	if got.TotalDevices != 3 || got.DevicesOn != 2 || got.DevicesOff != 1 {
		t.Errorf("devices = %d on=%d off=%d", got.TotalDevices, got.DevicesOn, got.DevicesOff)
	}
	if got.ActiveCredential != "" {
		t.Errorf("ActiveCredential = %q, want empty", got.ActiveCredential)
	}

	_, _ = credentials.Create(ctx, &telemetry_models.Credential{Name: "main", APIKey: "K", Active: true})
	got, _ = s.Summary(ctx)
	if got.TotalCredentials != 1 || got.ActiveCredential != "main" {
		t.Errorf("credentials = %d active=%q", got.TotalCredentials, got.ActiveCredential)
	}
}
