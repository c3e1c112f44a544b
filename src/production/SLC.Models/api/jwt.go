package api_models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	auth_models "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Models/auth"
)

// Token types
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Config holds JWT configuration
type Config struct {
	SecretKey            string
	AccessTokenDuration  time.Duration
	RefreshTokenDuration time.Duration
	Issuer               string
}

// AccessClaims represents the JWT claims for account access
type AccessClaims struct {
	jwt.RegisteredClaims
	UserID    string           `json:"user_id"`
	Role      auth_models.Role `json:"role"`
	Name      string           `json:"name,omitempty"`
	Email     string           `json:"email,omitempty"`
	TokenType string           `json:"token_type"`
}

// TokenID returns the jti claim
func (c *AccessClaims) TokenID() string {
	return c.ID
}

// RefreshClaims represents the JWT claims for refresh tokens
type RefreshClaims struct {
	jwt.RegisteredClaims
	UserID    string `json:"user_id"`
	TokenType string `json:"token_type"`
}

// TokenPair contains access and refresh tokens
type TokenPair struct {
	AccessToken      string `json:"accessToken"`
	RefreshToken     string `json:"refreshToken"`
	TokenID          string `json:"tokenId"`
	ExpiresAt        int64  `json:"expiresAt"`
	RefreshExpiresAt int64  `json:"refreshExpiresAt"`
}
