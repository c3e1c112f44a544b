package implementation

import (
	"context"
	"errors"
	"testing"

	auth_models "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Models/auth"
	hardware_models "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Models/hardware"
	telemetry_models "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Models/telemetry"
	interfaces "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Repository/Interfaces"
)

var (
	_ interfaces.AccountRepository    = (*MemoryAccountRepository)(nil)
	_ interfaces.AccountRepository    = (*MongoAccountRepository)(nil)
	_ interfaces.DeviceRepository     = (*MemoryDeviceRepository)(nil)
	_ interfaces.DeviceRepository     = (*MongoDeviceRepository)(nil)
	_ interfaces.CredentialRepository = (*MemoryCredentialRepository)(nil)
	_ interfaces.CredentialRepository = (*MongoCredentialRepository)(nil)
)

func TestMemoryAccountRepository_EmailUniqueCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryAccountRepository()

	if _, err := repo.Create(ctx, auth_models.NewAccount("Ops@Example.com", "Ops", auth_models.RoleOperator)); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	_, err := repo.Create(ctx, auth_models.NewAccount("  ops@example.COM ", "Dup", auth_models.RoleUser))
	if !errors.Is(err, interfaces.ErrDuplicate) {
		t.Fatalf("Create() duplicate error = %v, want ErrDuplicate", err)
	}

	got, err := repo.GetByEmail(ctx, "OPS@example.com")
	if err != nil {
		t.Fatalf("GetByEmail() error = %v", err)
	}
	if got.Role != auth_models.RoleOperator {
		t.Errorf("Role = %q, want operator", got.Role)
	}
}

func TestMemoryAccountRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryAccountRepository()
	created, _ := repo.Create(ctx, auth_models.NewAccount("a@x.com", "A", auth_models.RoleUser))

	got, _ := repo.GetByID(ctx, created.AccountID)
	got.Role = auth_models.RoleAdmin

	again, _ := repo.GetByID(ctx, created.AccountID)
	if again.Role != auth_models.RoleUser {
		t.Fatal("mutating a returned account changed the stored one")
	}
}

func TestMemoryDeviceRepository_ListOrderedAndFiltered(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryDeviceRepository()

	for _, d := range []*hardware_models.Device{
		{Name: "c", LedNumber: 3, Scope: hardware_models.ScopeShared},
		{Name: "a", LedNumber: 1, Scope: hardware_models.ScopeShared},
		{Name: "p", LedNumber: 2, Scope: hardware_models.ScopePersonal, OwnerID: "u1"},
	} {
		if _, err := repo.Create(ctx, d); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	if _, err := repo.Create(ctx, &hardware_models.Device{Name: "dup", LedNumber: 1}); !errors.Is(err, interfaces.ErrDuplicate) {
		t.Fatalf("duplicate LED number error = %v", err)
	}

	shared, _ := repo.List(ctx, interfaces.DeviceFilter{Scope: hardware_models.ScopeShared})
	if len(shared) != 2 || shared[0].LedNumber != 1 || shared[1].LedNumber != 3 {
		t.Fatalf("shared devices = %+v", shared)
	}

	personal, _ := repo.List(ctx, interfaces.DeviceFilter{OwnerID: "u1"})
	if len(personal) != 1 || personal[0].Name != "p" {
		t.Fatalf("personal devices = %+v", personal)
	}
}

func TestMemoryCredentialRepository_SetActive(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryCredentialRepository()

	first, _ := repo.Create(ctx, &telemetry_models.Credential{Name: "first", Active: true})
	second, _ := repo.Create(ctx, &telemetry_models.Credential{Name: "second"})

	if err := repo.SetActive(ctx, second.CredentialID); err != nil {
		t.Fatalf("SetActive() error = %v", err)
	}

	active, err := repo.GetActive(ctx)
	if err != nil || active.CredentialID != second.CredentialID {
		t.Fatalf("GetActive() = %v, %v", active, err)
	}
	old, _ := repo.GetByID(ctx, first.CredentialID)
	if old.Active {
		t.Error("previous credential still active")
	}

	list, _ := repo.List(ctx)
	if list[0].CredentialID != second.CredentialID {
		t.Error("List() should return newest first")
	}

	if err := repo.SetActive(ctx, "missing"); !errors.Is(err, interfaces.ErrNotFound) {
		t.Errorf("SetActive(missing) error = %v", err)
	}
}

func TestMemoryDeviceRepository_UpdateKeepsStoredStatus(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryDeviceRepository()

	d, _ := repo.Create(ctx, &hardware_models.Device{Name: "a", LedNumber: 1, Status: hardware_models.StatusOff})
	stale, _ := repo.GetByID(ctx, d.DeviceID)

	if err := repo.UpdateStatus(ctx, d.DeviceID, hardware_models.StatusOn); err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}
	stale.Name = "renamed"
	if err := repo.Update(ctx, stale); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, _ := repo.GetByID(ctx, d.DeviceID)
	if got.Status != hardware_models.StatusOn || got.Name != "renamed" {
		t.Errorf("stored = %+v, want renamed and on", got)
	}
}

func TestMemoryCredentialRepository_UpdateKeepsActiveFlag(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryCredentialRepository()

	a, _ := repo.Create(ctx, &telemetry_models.Credential{Name: "a", Active: true})
	b, _ := repo.Create(ctx, &telemetry_models.Credential{Name: "b"})
	stale, _ := repo.GetByID(ctx, a.CredentialID)

	if err := repo.SetActive(ctx, b.CredentialID); err != nil {
		t.Fatalf("SetActive() error = %v", err)
	}
	stale.Description = "edited"
	if err := repo.Update(ctx, stale); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, _ := repo.GetByID(ctx, a.CredentialID)
	if got.Active || got.Description != "edited" {
		t.Errorf("stored = %+v, want edited and inactive", got)
	}
	active, _ := repo.GetActive(ctx)
	if active.CredentialID != b.CredentialID {
		t.Errorf("GetActive() = %s, want %s", active.CredentialID, b.CredentialID)
	}
}
