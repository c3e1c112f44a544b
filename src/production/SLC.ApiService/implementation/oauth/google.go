package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	uuid "github.com/google/uuid"
	apperror "gitlab.com/maplesense1/slc.control_server/src/production/SLC.ApiService/implementation/apperror"
	auth "gitlab.com/maplesense1/slc.control_server/src/production/SLC.ApiService/implementation/auth"
	config "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Config"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	ProviderGoogle = "google"

	googleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"
)

// GoogleProvider runs the authorization code flow against Google
type GoogleProvider struct {
	config      *oauth2.Config
	userInfoURL string
}

type googleUserInfo struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// NewGoogleProvider creates a provider from configuration
func NewGoogleProvider(cfg config.OAuthConfig) *GoogleProvider {
	return &GoogleProvider{
		config: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		userInfoURL: googleUserInfoURL,
	}
}

// NewState returns an unguessable value for the state parameter
func NewState() string {
	return uuid.NewString()
}

// AuthCodeURL returns the consent page URL for state
func (p *GoogleProvider) AuthCodeURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Identity exchanges an authorization code and fetches the verified profile
func (p *GoogleProvider) Identity(ctx context.Context, code string) (*auth.OAuthIdentity, error) {
	if code == "" {
		return nil, apperror.SignInRejected("missing authorization code")
	}

	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindSignInRejected, "authorization code exchange failed", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, apperror.Internal("failed to build userinfo request", err)
	}
	resp, err := p.config.Client(ctx, token).Do(req)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindSignInRejected, "failed to fetch profile", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperror.SignInRejected(fmt.Sprintf("profile request returned status %d", resp.StatusCode))
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, apperror.Wrap(apperror.KindSignInRejected, "failed to decode profile", err)
	}
	if info.Email == "" || !info.EmailVerified {
		return nil, apperror.SignInRejected("email address is not verified")
	}

	return &auth.OAuthIdentity{
		Email:    info.Email,
		Name:     info.Name,
		Image:    info.Picture,
		Provider: ProviderGoogle,
	}, nil
}
