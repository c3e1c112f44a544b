package telemetry

import (
	"context"
	"errors"
	"fmt"

	apperror "gitlab.com/maplesense1/slc.control_server/src/production/SLC.ApiService/implementation/apperror"
	hardware_models "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Models/hardware"
	telemetry_models "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Models/telemetry"
	interfaces "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Repository/Interfaces"
)

// Resolver picks the write key a device uses, by its credential strategy
type Resolver struct {
	credentials *CredentialService
	accounts    interfaces.AccountRepository
}

// NewResolver creates a new credential resolver
func NewResolver(credentials *CredentialService, accounts interfaces.AccountRepository) *Resolver {
	return &Resolver{credentials: credentials, accounts: accounts}
}

// ResolveShared returns the pinned credential, or the active one when pinnedID is empty
func (r *Resolver) ResolveShared(ctx context.Context, pinnedID string) (*telemetry_models.Credential, error) {
	if pinnedID != "" {
		return r.credentials.Get(ctx, pinnedID)
	}
	return r.credentials.Active(ctx)
}

// ResolveAccount returns the token stored on an account
func (r *Resolver) ResolveAccount(ctx context.Context, accountID string) (string, error) {
	account, err := r.accounts.GetByID(ctx, accountID)
	if errors.Is(err, interfaces.ErrNotFound) {
		return "", apperror.NotFound("account not found")
	}
	if err != nil {
		return "", apperror.Internal("failed to load account", err)
	}
	if !account.HasAPIToken() {
		return "", apperror.Validation("no API key configured")
	}
	return account.APIToken, nil
}

// ResolveForDevice returns the write key for device
func (r *Resolver) ResolveForDevice(ctx context.Context, device *hardware_models.Device) (string, error) {
	switch device.CredentialStrategy {
	case hardware_models.StrategyAccount:
		return r.ResolveAccount(ctx, device.OwnerID)
	case hardware_models.StrategyShared, "":
		credential, err := r.ResolveShared(ctx, device.CredentialID)
		if err != nil {
			return "", err
		}
		return credential.APIKey, nil
	}
	return "", apperror.Validation(fmt.Sprintf("unknown credential strategy %q", device.CredentialStrategy))
}

// ChannelKey names the channel device writes to, for field uniqueness checks.
// Devices whose credential cannot be resolved yet share a placeholder key.
func (r *Resolver) ChannelKey(ctx context.Context, device *hardware_models.Device) string {
	if device.CredentialStrategy == hardware_models.StrategyAccount {
		return "account:" + device.OwnerID
	}
	credential, err := r.ResolveShared(ctx, device.CredentialID)
	if err != nil {
		if device.CredentialID != "" {
			return "credential:" + device.CredentialID
		}
		return "shared:unresolved"
	}
	return credential.Key()
}
