package api_models

import (
	auth_models "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Models/auth"
)

// SessionUser is the account summary returned with a session
type SessionUser struct {
	ID    string           `json:"id"`
	Email string           `json:"email"`
	Name  string           `json:"name"`
	Role  auth_models.Role `json:"role"`
	Image string           `json:"image,omitempty"`
}

// SessionResponse is returned by sign-in and refresh
type SessionResponse struct {
	TokenPair
	User SessionUser `json:"user"`
}

// NewSessionUser builds a SessionUser from an account
func NewSessionUser(a *auth_models.Account) SessionUser {
	return SessionUser{
		ID:    a.AccountID,
		Email: a.Email,
		Name:  a.Name,
		Role:  a.Role,
		Image: a.Image,
	}
}

// AccountView is the admin view of an account
type AccountView struct {
	SessionUser
	HasAPIKey bool   `json:"hasApiKey"`
	APIKey    string `json:"thingspeakApiKey,omitempty"`
	CreatedAt int64  `json:"createdAt"`
	UpdatedAt int64  `json:"updatedAt"`
}

// NewAccountView builds the admin view of an account
func NewAccountView(a *auth_models.Account) AccountView {
	return AccountView{
		SessionUser: NewSessionUser(a),
		HasAPIKey:   a.HasAPIToken(),
		APIKey:      a.APIToken,
		CreatedAt:   a.CreatedAt.Unix(),
		UpdatedAt:   a.UpdatedAt.Unix(),
	}
}

// APIKeyResponse answers GET /users/me/api-key
type APIKeyResponse struct {
	APIKey    string `json:"apiKey"`
	HasAPIKey bool   `json:"hasApiKey"`
}

// RoleCheckResponse answers the page guard
type RoleCheckResponse struct {
	Decision string           `json:"decision"`
	Role     auth_models.Role `json:"role,omitempty"`
	Location string           `json:"location,omitempty"`
}

// SetupStatus answers GET /setup
type SetupStatus struct {
	IsSetup    bool `json:"isSetup"`
	NeedsSetup bool `json:"needsSetup"`
}
