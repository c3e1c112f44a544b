package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	apperror "gitlab.com/maplesense1/slc.control_server/src/production/SLC.ApiService/implementation/apperror"
	rbac "gitlab.com/maplesense1/slc.control_server/src/production/SLC.ApiService/implementation/rbac"
	logger "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Logger"
	api_models "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Models/api"
	auth_models "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Models/auth"
	interfaces "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Repository/Interfaces"
	"golang.org/x/crypto/bcrypt"
)

const msgAccountNotFound = "user not found"

// UserService provides account management operations
type UserService struct {
	accounts          interfaces.AccountRepository
	bcryptCost        int
	passwordMinLength int
	logger            *logger.Logger
}

// NewUserService creates a new user service
func NewUserService(accounts interfaces.AccountRepository, bcryptCost, passwordMinLength int, log *logger.Logger) *UserService {
	return &UserService{
		accounts:          accounts,
		bcryptCost:        bcryptCost,
		passwordMinLength: passwordMinLength,
		logger:            log.WithComponent("users"),
	}
}

// GetAllUsers retrieves all accounts
func (s *UserService) GetAllUsers(ctx context.Context) ([]*auth_models.Account, error) {
	accounts, err := s.accounts.GetAll(ctx)
	if err != nil {
		return nil, apperror.Internal("failed to list users", err)
	}
	return accounts, nil
}

// GetUserByID retrieves an account by ID
func (s *UserService) GetUserByID(ctx context.Context, id string) (*auth_models.Account, error) {
	account, err := s.accounts.GetByID(ctx, id)
	if errors.Is(err, interfaces.ErrNotFound) {
		return nil, apperror.NotFound(msgAccountNotFound)
	}
	if err != nil {
		return nil, apperror.Internal("failed to load user", err)
	}
	return account, nil
}

// CreateUser creates an account. A password is required unless an image is supplied.
func (s *UserService) CreateUser(ctx context.Context, req api_models.CreateAccountRequest) (*auth_models.Account, error) {
	email, err := validateEmail(req.Email)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperror.Validation("name is required")
	}
	role, ok := auth_models.ParseRole(req.Role)
	if !ok {
		return nil, apperror.Validation(fmt.Sprintf("invalid role %q", req.Role))
	}
	if req.Password == "" && strings.TrimSpace(req.Image) == "" {
		return nil, apperror.Validation("password is required")
	}

	account := auth_models.NewAccount(email, name, role)
	account.Image = strings.TrimSpace(req.Image)
	account.APIToken = strings.TrimSpace(req.APIKey)
	if req.Password != "" {
		if account.PasswordHash, err = s.HashPassword(req.Password); err != nil {
			return nil, err
		}
	}

	created, err := s.accounts.Create(ctx, account)
	if errors.Is(err, interfaces.ErrDuplicate) {
		return nil, apperror.Conflict("user already exists")
	}
	if err != nil {
		return nil, apperror.Internal("failed to create user", err)
	}

	s.logger.Logger.Info().Str("user_id", created.AccountID).Str("role", created.Role.String()).Msg("User created")
	return created, nil
}

// UpdateUser changes name, email, role or password. An admin may not change their own role.
func (s *UserService) UpdateUser(ctx context.Context, session *rbac.Session, id string, req api_models.UpdateAccountRequest) (*auth_models.Account, error) {
	account, err := s.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Email != nil {
		if account.Email, err = validateEmail(*req.Email); err != nil {
			return nil, err
		}
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, apperror.Validation("name must not be empty")
		}
		account.Name = name
	}
	if req.Role != nil {
		role, ok := auth_models.ParseRole(*req.Role)
		if !ok {
			return nil, apperror.Validation(fmt.Sprintf("invalid role %q", *req.Role))
		}
		if role != account.Role && session != nil && session.UserID == account.AccountID {
			return nil, apperror.Forbidden("you cannot change your own role")
		}
		account.Role = role
	}
	if req.Password != nil {
		if account.PasswordHash, err = s.HashPassword(*req.Password); err != nil {
			return nil, err
		}
	}

	if err := s.save(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// DeleteUser deletes an account. The caller's own account is refused.
func (s *UserService) DeleteUser(ctx context.Context, session *rbac.Session, id string) error {
	if session != nil && session.UserID == id {
		return apperror.Forbidden("you cannot delete your own account")
	}

	err := s.accounts.Delete(ctx, id)
	if errors.Is(err, interfaces.ErrNotFound) {
		return apperror.NotFound(msgAccountNotFound)
	}
	if err != nil {
		return apperror.Internal("failed to delete user", err)
	}

	s.logger.Logger.Info().Str("user_id", id).Msg("User deleted")
	return nil
}

// SetAPIToken stores or clears an account's ThingSpeak write key
func (s *UserService) SetAPIToken(ctx context.Context, id, apiKey string) (*auth_models.Account, error) {
	account, err := s.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	account.APIToken = strings.TrimSpace(apiKey)
	if err := s.save(ctx, account); err != nil {
		return nil, err
	}
	s.logger.Logger.Info().Str("user_id", id).Bool("has_api_key", account.HasAPIToken()).Msg("API key updated")
	return account, nil
}

// GetAPIToken returns an account's own write key
func (s *UserService) GetAPIToken(ctx context.Context, id string) (*api_models.APIKeyResponse, error) {
	account, err := s.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &api_models.APIKeyResponse{APIKey: account.APIToken, HasAPIKey: account.HasAPIToken()}, nil
}

// HashPassword hashes a password using bcrypt
func (s *UserService) HashPassword(password string) (string, error) {
	if len(password) < s.passwordMinLength {
		return "", apperror.Validation(fmt.Sprintf("password must be at least %d characters", s.passwordMinLength))
	}
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", apperror.Validation("password cannot be hashed")
	}
	return string(hashedPassword), nil
}

func (s *UserService) save(ctx context.Context, account *auth_models.Account) error {
	err := s.accounts.Update(ctx, account)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, interfaces.ErrNotFound):
		return apperror.NotFound(msgAccountNotFound)
	case errors.Is(err, interfaces.ErrDuplicate):
		return apperror.Conflict("email already in use")
	}
	return apperror.Internal("failed to update user", err)
}

func validateEmail(raw string) (string, error) {
	email := auth_models.NormalizeEmail(raw)
	if email == "" {
		return "", apperror.Validation("email is required")
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return "", apperror.Validation("email is invalid")
	}
	return email, nil
}
