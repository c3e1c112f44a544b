package auth

import (
	"context"
	"errors"
	"fmt"

	apperror "gitlab.com/maplesense1/slc.control_server/src/production/SLC.ApiService/implementation/apperror"
	jwt "gitlab.com/maplesense1/slc.control_server/src/production/SLC.ApiService/implementation/jwt"
	rbac "gitlab.com/maplesense1/slc.control_server/src/production/SLC.ApiService/implementation/rbac"
	revocation "gitlab.com/maplesense1/slc.control_server/src/production/SLC.ApiService/implementation/revocation"
	logger "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Logger"
	api_models "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Models/api"
	auth_models "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Models/auth"
	interfaces "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Repository/Interfaces"

	"golang.org/x/crypto/bcrypt"
)

// OAuthIdentity is what an external identity provider vouches for
type OAuthIdentity struct {
	Email    string
	Name     string
	Image    string
	Provider string
}

// AuthService issues, refreshes and revokes sessions
type AuthService struct {
	accounts   interfaces.AccountRepository
	jwtService *jwt.Service
	revoked    revocation.Store
	logger     *logger.Logger
	dummyHash  []byte
}

// NewAuthService creates a new auth service
func NewAuthService(
	accounts interfaces.AccountRepository,
	jwtService *jwt.Service,
	revoked revocation.Store,
	bcryptCost int,
	log *logger.Logger,
) (*AuthService, error) {
	// compared against when the email is unknown so both paths cost one bcrypt round
	dummyHash, err := bcrypt.GenerateFromPassword([]byte("slc-timing-equaliser"), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare dummy hash: %w", err)
	}
	return &AuthService{
		accounts:   accounts,
		jwtService: jwtService,
		revoked:    revoked,
		logger:     log.WithComponent("auth"),
		dummyHash:  dummyHash,
	}, nil
}

// SignInWithPassword authenticates with email and password. Unknown email,
// missing password hash and wrong password all return InvalidCredentials.
func (s *AuthService) SignInWithPassword(ctx context.Context, email, password string) (*api_models.SessionResponse, error) {
	account, err := s.accounts.GetByEmail(ctx, auth_models.NormalizeEmail(email))
	if err != nil {
		if !errors.Is(err, interfaces.ErrNotFound) {
			return nil, apperror.Internal("failed to load account", err)
		}
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return nil, apperror.InvalidCredentials()
	}

	if !account.HasPassword() {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return nil, apperror.InvalidCredentials()
	}

	// Compare password
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, apperror.InvalidCredentials()
	}

	s.logger.Logger.Info().Str("user_id", account.AccountID).Str("role", account.Role.String()).Msg("Password sign-in")
	return s.issue(account)
}

// SignInWithOAuth signs in an existing account vouched for by a provider.
// Accounts are never created here; the provider image is stored on success.
func (s *AuthService) SignInWithOAuth(ctx context.Context, identity OAuthIdentity) (*api_models.SessionResponse, error) {
	email := auth_models.NormalizeEmail(identity.Email)
	if email == "" {
		return nil, apperror.SignInRejected("identity provider returned no email")
	}

	account, err := s.accounts.GetByEmail(ctx, email)
	if errors.Is(err, interfaces.ErrNotFound) {
		s.logger.Logger.Warn().Str("provider", identity.Provider).Msg("OAuth sign-in rejected: no account for email")
		return nil, apperror.SignInRejected("no account exists for this email; ask an administrator")
	}
	if err != nil {
		return nil, apperror.Internal("failed to load account", err)
	}

	if identity.Image != "" && identity.Image != account.Image {
		account.Image = identity.Image
		if err := s.accounts.Update(ctx, account); err != nil {
			return nil, apperror.Internal("failed to store profile image", err)
		}
	}

	s.logger.Logger.Info().Str("user_id", account.AccountID).Str("provider", identity.Provider).Msg("OAuth sign-in")
	return s.issue(account)
}

// Refresh rotates a session: the presented refresh token is revoked and a
// new pair is issued with the account's current role.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*api_models.SessionResponse, error) {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, apperror.Unauthorized("invalid refresh token")
	}

	revoked, err := s.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, apperror.Internal("failed to check session", err)
	}
	if revoked {
		return nil, apperror.Unauthorized("session has been revoked")
	}

	account, err := s.accounts.GetByID(ctx, claims.UserID)
	if errors.Is(err, interfaces.ErrNotFound) {
		return nil, apperror.Unauthorized("account no longer exists")
	}
	if err != nil {
		return nil, apperror.Internal("failed to load account", err)
	}

	if err := s.revoked.Revoke(ctx, claims.ID, s.jwtService.RefreshExpiry()); err != nil {
		return nil, apperror.Internal("failed to rotate session", err)
	}
	return s.issue(account)
}

// SignOut revokes the session's token id until its refresh token would expire
func (s *AuthService) SignOut(ctx context.Context, session *rbac.Session) error {
	if session == nil {
		return apperror.Unauthorized("authentication required")
	}
	if err := s.revoked.Revoke(ctx, session.TokenID, s.jwtService.RefreshExpiry()); err != nil {
		return apperror.Internal("failed to revoke session", err)
	}
	s.logger.Logger.Info().Str("user_id", session.UserID).Msg("Signed out")
	return nil
}

// Authenticate resolves an access token into a session
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*rbac.Session, error) {
	claims, err := s.jwtService.ValidateAccessToken(accessToken)
	if err != nil {
		return nil, apperror.Unauthorized("invalid access token")
	}

	revoked, err := s.revoked.IsRevoked(ctx, claims.TokenID())
	if err != nil {
		return nil, apperror.Internal("failed to check session", err)
	}
	if revoked {
		return nil, apperror.Unauthorized("session has been revoked")
	}

	return &rbac.Session{
		UserID:  claims.UserID,
		Role:    claims.Role,
		Name:    claims.Name,
		Email:   claims.Email,
		TokenID: claims.TokenID(),
	}, nil
}

func (s *AuthService) issue(account *auth_models.Account) (*api_models.SessionResponse, error) {
	tokenPair, err := s.jwtService.GenerateTokens(account)
	if err != nil {
		return nil, apperror.Internal("failed to issue tokens", err)
	}
	return &api_models.SessionResponse{
		TokenPair: *tokenPair,
		User:      api_models.NewSessionUser(account),
	}, nil
}
