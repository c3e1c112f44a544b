package interfaces

import (
	"context"

	telemetry_models "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Models/telemetry"
)

type CredentialRepository interface {
	Create(ctx context.Context, credential *telemetry_models.Credential) (*telemetry_models.Credential, error)

	GetByID(ctx context.Context, credentialID string) (*telemetry_models.Credential, error)
	// GetActive returns ErrNotFound when no credential is active
	GetActive(ctx context.Context) (*telemetry_models.Credential, error)
	// List returns credentials newest first
	List(ctx context.Context) ([]*telemetry_models.Credential, error)

	// Update leaves the stored active flag alone
	Update(ctx context.Context, credential *telemetry_models.Credential) error
	// SetActive marks one credential active and clears the flag on the rest
	SetActive(ctx context.Context, credentialID string) error

	Delete(ctx context.Context, credentialID string) error
}
