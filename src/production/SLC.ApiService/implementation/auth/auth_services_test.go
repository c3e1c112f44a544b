package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	apperror "gitlab.com/maplesense1/slc.control_server/src/production/SLC.ApiService/implementation/apperror"
	jwt "gitlab.com/maplesense1/slc.control_server/src/production/SLC.ApiService/implementation/jwt"
	rbac "gitlab.com/maplesense1/slc.control_server/src/production/SLC.ApiService/implementation/rbac"
	revocation "gitlab.com/maplesense1/slc.control_server/src/production/SLC.ApiService/implementation/revocation"
	telemetry "gitlab.com/maplesense1/slc.control_server/src/production/SLC.ApiService/implementation/telemetry"
	logger "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Logger"
	api_models "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Models/api"
	auth_models "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Models/auth"
	implementation "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Repository/Implementation"
	"golang.org/x/crypto/bcrypt"
)

type fixture struct {
	accounts    *implementation.MemoryAccountRepository
	credentials *telemetry.CredentialService
	auth        *AuthService
	users       *UserService
	setup       *SetupService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := logger.NewNopLogger()
	accounts := implementation.NewMemoryAccountRepository()
	jwtService := jwt.NewService(api_models.Config{
		SecretKey:            "test-secret",
		AccessTokenDuration:  15 * time.Minute,
		RefreshTokenDuration: 24 * time.Hour,
		Issuer:               "slc-test",
	})
	authService, err := NewAuthService(accounts, jwtService, revocation.NewMemoryStore(), bcrypt.MinCost, log)
	if err != nil {
		t.Fatalf("NewAuthService() error = %v", err)
	}
	users := NewUserService(accounts, bcrypt.MinCost, 6, log)
	credentials := telemetry.NewCredentialService(implementation.NewMemoryCredentialRepository(), log)
	return &fixture{
		accounts:    accounts,
		credentials: credentials,
		auth:        authService,
		users:       users,
		setup:       NewSetupService(accounts, users, credentials, log),
	}
}

func (f *fixture) createUser(t *testing.T, email, password string, role auth_models.Role) *auth_models.Account {
	t.Helper()
	account, err := f.users.CreateUser(context.Background(), api_models.CreateAccountRequest{
		Email:    email,
		Name:     "Test " + string(role),
		Password: password,
		Role:     string(role),
	})
	if err != nil {
		t.Fatalf("CreateUser(%s) error = %v", email, err)
	}
	return account
}

func TestSignInWithPassword(t *testing.T) {
	f := newFixture(t)
	account := f.createUser(t, "admin@example.com", "secret123", auth_models.RoleAdmin)

	resp, err := f.auth.SignInWithPassword(context.Background(), "  Admin@Example.com ", "secret123")
	if err != nil {
		t.Fatalf("SignInWithPassword() error = %v", err)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Fatal("expected a token pair")
	}
	if resp.User.ID != account.AccountID || resp.User.Role != auth_models.RoleAdmin {
		t.Errorf("user = %+v", resp.User)
	}

	session, err := f.auth.Authenticate(context.Background(), resp.AccessToken)
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if session.UserID != account.AccountID || session.Role != auth_models.RoleAdmin {
		t.Errorf("session = %+v", session)
	}
}

func TestSignInWithPassword_UnknownEmailLooksLikeWrongPassword(t *testing.T) {
	f := newFixture(t)
	f.createUser(t, "user@example.com", "secret123", auth_models.RoleUser)

	_, wrongPassword := f.auth.SignInWithPassword(context.Background(), "user@example.com", "nope-nope")
	_, unknownEmail := f.auth.SignInWithPassword(context.Background(), "ghost@example.com", "secret123")

	for name, err := range map[string]error{"wrong password": wrongPassword, "unknown email": unknownEmail} {
		if !errors.Is(err, apperror.ErrInvalidCredentials) {
			t.Errorf("%s: error = %v, want InvalidCredentials", name, err)
		}
	}
	if wrongPassword.Error() != unknownEmail.Error() {
		t.Errorf("messages differ: %q vs %q", wrongPassword.Error(), unknownEmail.Error())
	}
}

func TestSignInWithPassword_OAuthOnlyAccount(t *testing.T) {
	f := newFixture(t)
	if _, err := f.users.CreateUser(context.Background(), api_models.CreateAccountRequest{
		Email: "oauth@example.com",
		Name:  "OAuth",
		Image: "https://img.example.com/a.png",
	}); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	_, err := f.auth.SignInWithPassword(context.Background(), "oauth@example.com", "")
	if !errors.Is(err, apperror.ErrInvalidCredentials) {
		t.Errorf("error = %v, want InvalidCredentials", err)
	}
}

func TestSignInWithOAuth(t *testing.T) {
	f := newFixture(t)
	account := f.createUser(t, "op@example.com", "secret123", auth_models.RoleOperator)

	resp, err := f.auth.SignInWithOAuth(context.Background(), OAuthIdentity{
		Email:    "OP@example.com",
		Name:     "Op",
		Image:    "https://img.example.com/op.png",
		Provider: "google",
	})
	if err != nil {
		t.Fatalf("SignInWithOAuth() error = %v", err)
	}
	if resp.User.Role != auth_models.RoleOperator {
		t.Errorf("role = %q, want operator", resp.User.Role)
	}

	stored, _ := f.accounts.GetByID(context.Background(), account.AccountID)
	if stored.Image != "https://img.example.com/op.png" {
		t.Errorf("image = %q, want provider image", stored.Image)
	}
}

func TestSignInWithOAuth_NoAccountRejected(t *testing.T) {
	f := newFixture(t)

	_, err := f.auth.SignInWithOAuth(context.Background(), OAuthIdentity{Email: "new@example.com", Provider: "google"})
	if !errors.Is(err, apperror.ErrSignInRejected) {
		t.Fatalf("error = %v, want SignInRejected", err)
	}
	if _, err := f.accounts.GetByEmail(context.Background(), "new@example.com"); err == nil {
		t.Error("OAuth sign-in must not create accounts")
	}
}

func TestRefresh_RotatesAndPicksUpRoleChange(t *testing.T) {
	f := newFixture(t)
	account := f.createUser(t, "u@example.com", "secret123", auth_models.RoleUser)
	first, err := f.auth.SignInWithPassword(context.Background(), "u@example.com", "secret123")
	if err != nil {
		t.Fatalf("SignInWithPassword() error = %v", err)
	}

	account.Role = auth_models.RoleOperator
	if err := f.accounts.Update(context.Background(), account); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	second, err := f.auth.Refresh(context.Background(), first.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if second.User.Role != auth_models.RoleOperator {
		t.Errorf("role = %q, want operator after refresh", second.User.Role)
	}
	if second.TokenID == first.TokenID {
		t.Error("refresh should issue a new token id")
	}

	if _, err := f.auth.Refresh(context.Background(), first.RefreshToken); !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("reusing a rotated refresh token: error = %v, want Unauthorized", err)
	}
	if _, err := f.auth.Authenticate(context.Background(), first.AccessToken); !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("old access token: error = %v, want Unauthorized", err)
	}
}

func TestRefresh_RejectsAccessTokenAndDeletedAccount(t *testing.T) {
	f := newFixture(t)
	account := f.createUser(t, "u@example.com", "secret123", auth_models.RoleUser)
	resp, _ := f.auth.SignInWithPassword(context.Background(), "u@example.com", "secret123")

	if _, err := f.auth.Refresh(context.Background(), resp.AccessToken); !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("access token as refresh: error = %v, want Unauthorized", err)
	}

	_ = f.accounts.Delete(context.Background(), account.AccountID)
	if _, err := f.auth.Refresh(context.Background(), resp.RefreshToken); !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("deleted account: error = %v, want Unauthorized", err)
	}
}

func TestSignOut_RevokesSession(t *testing.T) {
	f := newFixture(t)
	f.createUser(t, "u@example.com", "secret123", auth_models.RoleUser)
	resp, _ := f.auth.SignInWithPassword(context.Background(), "u@example.com", "secret123")

	session, err := f.auth.Authenticate(context.Background(), resp.AccessToken)
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if err := f.auth.SignOut(context.Background(), session); err != nil {
		t.Fatalf("SignOut() error = %v", err)
	}

	if _, err := f.auth.Authenticate(context.Background(), resp.AccessToken); !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("access after sign-out: error = %v, want Unauthorized", err)
	}
	if _, err := f.auth.Refresh(context.Background(), resp.RefreshToken); !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("refresh after sign-out: error = %v, want Unauthorized", err)
	}
	if err := f.auth.SignOut(context.Background(), (*rbac.Session)(nil)); !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("nil session: error = %v, want Unauthorized", err)
	}
}
