package auth

import (
	"context"
	"sync"

	apperror "gitlab.com/maplesense1/slc.control_server/src/production/SLC.ApiService/implementation/apperror"
	telemetry "gitlab.com/maplesense1/slc.control_server/src/production/SLC.ApiService/implementation/telemetry"
	config "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Config"
	logger "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Logger"
	api_models "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Models/api"
	auth_models "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Models/auth"
	interfaces "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Repository/Interfaces"
)

// DefaultCredentialName is the name of the credential created by first-run setup
const DefaultCredentialName = "Default ThingSpeak Config"

// SetupService bootstraps the first admin, once
type SetupService struct {
	accounts    interfaces.AccountRepository
	users       *UserService
	credentials *telemetry.CredentialService
	logger      *logger.Logger
	mu          sync.Mutex
}

// NewSetupService creates a new setup service
func NewSetupService(
	accounts interfaces.AccountRepository,
	users *UserService,
	credentials *telemetry.CredentialService,
	log *logger.Logger,
) *SetupService {
	return &SetupService{
		accounts:    accounts,
		users:       users,
		credentials: credentials,
		logger:      log.WithComponent("setup"),
	}
}

// Status reports whether an admin exists
func (s *SetupService) Status(ctx context.Context) (*api_models.SetupStatus, error) {
	count, err := s.accounts.CountByRole(ctx, auth_models.RoleAdmin)
	if err != nil {
		return nil, apperror.Internal("failed to count admins", err)
	}
	return &api_models.SetupStatus{IsSetup: count > 0, NeedsSetup: count == 0}, nil
}

// Setup creates the first admin and, when a key is given, the default
// credential. Refused once any admin exists.
func (s *SetupService) Setup(ctx context.Context, req api_models.SetupRequest) (*auth_models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	status, err := s.Status(ctx)
	if err != nil {
		return nil, err
	}
	if status.IsSetup {
		return nil, apperror.Conflict("admin user already exists")
	}

	admin, err := s.users.CreateUser(ctx, api_models.CreateAccountRequest{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
		Role:     string(auth_models.RoleAdmin),
		APIKey:   req.APIKey,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Logger.Info().Str("user_id", admin.AccountID).Msg("First admin user created via setup")

	if req.APIKey != "" {
		name := DefaultCredentialName
		description := "Created during initial setup"
		if _, err := s.credentials.Create(ctx, admin.AccountID, api_models.CredentialRequest{
			Name:        &name,
			APIKey:      &req.APIKey,
			ChannelID:   &req.Channel,
			Description: &description,
		}); err != nil {
			return nil, err
		}
	}
	return admin, nil
}

// InitializeAdminUser creates the first admin from configuration if no admin exists
func (s *SetupService) InitializeAdminUser(ctx context.Context, adminConfig config.AdminConfig) error {
	if adminConfig.Email == "" {
		s.logger.Info("No bootstrap admin configured; waiting for first-run setup")
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	status, err := s.Status(ctx)
	if err != nil {
		return err
	}

	// If admin users exist, no need to create one
	if status.IsSetup {
		s.logger.Info("Admin users already exist, skipping admin user creation")
		return nil
	}

	s.logger.Info("No admin users found. Creating first admin user...")
	admin, err := s.users.CreateUser(ctx, api_models.CreateAccountRequest{
		Email:    adminConfig.Email,
		Name:     adminConfig.Name,
		Password: adminConfig.Password,
		Role:     string(auth_models.RoleAdmin),
	})
	if err != nil {
		return err
	}

	s.logger.Logger.Info().Str("email", admin.Email).Msg("Admin user created with configured credentials")
	s.logger.Warn("IMPORTANT: Change the admin password after first login for security!")
	return nil
}
