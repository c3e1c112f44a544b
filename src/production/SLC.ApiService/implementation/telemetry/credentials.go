package telemetry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	apperror "gitlab.com/maplesense1/slc.control_server/src/production/SLC.ApiService/implementation/apperror"
	logger "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Logger"
	api_models "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Models/api"
	telemetry_models "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Models/telemetry"
	interfaces "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Repository/Interfaces"
)

const msgNoCredential = "API configuration not found"

// CredentialService manages shared ThingSpeak credentials. Exactly one
// credential is active whenever any exist.
type CredentialService struct {
	repo   interfaces.CredentialRepository
	logger *logger.Logger
	mu     sync.Mutex
}

// NewCredentialService creates a new credential service
func NewCredentialService(repo interfaces.CredentialRepository, log *logger.Logger) *CredentialService {
	return &CredentialService{
		repo:   repo,
		logger: log.WithComponent("credentials"),
	}
}

// Create stores a credential. The first one becomes active.
func (s *CredentialService) Create(ctx context.Context, createdBy string, req api_models.CredentialRequest) (*telemetry_models.Credential, error) {
	credential := &telemetry_models.Credential{CreatedBy: createdBy}
	if err := applyCredentialRequest(credential, req); err != nil {
		return nil, err
	}
	if credential.Name == "" || credential.APIKey == "" {
		return nil, apperror.Validation("name and apiKey are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.repo.GetActive(ctx)
	switch {
	case errors.Is(err, interfaces.ErrNotFound):
		credential.Active = true
	case err != nil:
		return nil, apperror.Internal("failed to load active credential", err)
	}

	created, err := s.repo.Create(ctx, credential)
	if err != nil {
		return nil, apperror.Internal("failed to create credential", err)
	}

	s.logger.Logger.Info().Str("credential_id", created.CredentialID).Bool("active", created.Active).Msg("Telemetry credential created")
	return created, nil
}

func (s *CredentialService) List(ctx context.Context) ([]*telemetry_models.Credential, error) {
	credentials, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperror.Internal("failed to list credentials", err)
	}
	return credentials, nil
}

func (s *CredentialService) Get(ctx context.Context, credentialID string) (*telemetry_models.Credential, error) {
	credential, err := s.repo.GetByID(ctx, credentialID)
	if errors.Is(err, interfaces.ErrNotFound) {
		return nil, apperror.NotFound(msgNoCredential)
	}
	if err != nil {
		return nil, apperror.Internal("failed to load credential", err)
	}
	return credential, nil
}

// Active returns the credential the shared strategy writes with
func (s *CredentialService) Active(ctx context.Context) (*telemetry_models.Credential, error) {
	credential, err := s.repo.GetActive(ctx)
	if errors.Is(err, interfaces.ErrNotFound) {
		return nil, apperror.NotFound(msgNoCredential)
	}
	if err != nil {
		return nil, apperror.Internal("failed to load active credential", err)
	}
	return credential, nil
}

// Update edits name, key, channel and description. The active flag only
// changes through Activate and Delete.
func (s *CredentialService) Update(ctx context.Context, credentialID string, req api_models.CredentialRequest) (*telemetry_models.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	credential, err := s.Get(ctx, credentialID)
	if err != nil {
		return nil, err
	}
	if err := applyCredentialRequest(credential, req); err != nil {
		return nil, err
	}
	if credential.Name == "" || credential.APIKey == "" {
		return nil, apperror.Validation("name and apiKey must not be empty")
	}

	if err := s.repo.Update(ctx, credential); err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, apperror.NotFound(msgNoCredential)
		}
		return nil, apperror.Internal("failed to update credential", err)
	}
	return s.Get(ctx, credentialID)
}

// Activate makes credentialID the active credential
func (s *CredentialService) Activate(ctx context.Context, credentialID string) (*telemetry_models.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.SetActive(ctx, credentialID); err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, apperror.NotFound(msgNoCredential)
		}
		return nil, apperror.Internal("failed to activate credential", err)
	}

	s.logger.Logger.Info().Str("credential_id", credentialID).Msg("Telemetry credential activated")
	return s.Get(ctx, credentialID)
}

// Delete removes a credential. Deleting the active one promotes the newest remaining.
func (s *CredentialService) Delete(ctx context.Context, credentialID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	credential, err := s.repo.GetByID(ctx, credentialID)
	if errors.Is(err, interfaces.ErrNotFound) {
		return apperror.NotFound(msgNoCredential)
	}
	if err != nil {
		return apperror.Internal("failed to load credential", err)
	}

	if err := s.repo.Delete(ctx, credentialID); err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return apperror.NotFound(msgNoCredential)
		}
		return apperror.Internal("failed to delete credential", err)
	}

	if !credential.Active {
		return nil
	}

	remaining, err := s.repo.List(ctx)
	if err != nil {
		return apperror.Internal("failed to list credentials", err)
	}
	if len(remaining) == 0 {
		s.logger.Warn("Last telemetry credential deleted; shared devices cannot be toggled")
		return nil
	}
	if err := s.repo.SetActive(ctx, remaining[0].CredentialID); err != nil {
		return apperror.Internal("failed to promote credential", err)
	}
	s.logger.Logger.Info().Str("credential_id", remaining[0].CredentialID).Msg("Promoted newest telemetry credential to active")
	return nil
}

func applyCredentialRequest(c *telemetry_models.Credential, req api_models.CredentialRequest) error {
	if req.Name != nil {
		c.Name = strings.TrimSpace(*req.Name)
	}
	if req.APIKey != nil {
		c.APIKey = strings.TrimSpace(*req.APIKey)
	}
	if req.ChannelID != nil {
		c.ChannelID = strings.TrimSpace(*req.ChannelID)
	}
	if req.Description != nil {
		c.Description = strings.TrimSpace(*req.Description)
	}
	if len(c.Name) > 100 {
		return apperror.Validation(fmt.Sprintf("name must be at most %d characters", 100))
	}
	return nil
}
