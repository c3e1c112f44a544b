package middleware

import (
	"context"
	"net/http"
	"strings"

	apperror "gitlab.com/maplesense1/slc.control_server/src/production/SLC.ApiService/implementation/apperror"
	rbac "gitlab.com/maplesense1/slc.control_server/src/production/SLC.ApiService/implementation/rbac"

	"github.com/gin-gonic/gin"
)

// Key types for request context
type contextKey string

const (
	// Context keys
	SessionContextKey     contextKey = "session"
	AccessTokenContextKey contextKey = "access_token"
)

// Authenticator resolves an access token into a session
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*rbac.Session, error)
}

// AuthMiddleware provides middleware functions for authentication and authorization
type AuthMiddleware struct {
	authenticator Authenticator
	config        Config
}

// Config holds middleware configuration
type Config struct {
	// HTTP header names for tokens
	AccessTokenHeader string

	// Cookie names for tokens (optional alternative to headers)
	AccessTokenCookie string
}

// DefaultConfig returns a default middleware configuration
func DefaultConfig() Config {
	return Config{
		AccessTokenHeader: "Authorization",
		AccessTokenCookie: "access_token",
	}
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(authenticator Authenticator, config Config) *AuthMiddleware {
	return &AuthMiddleware{
		authenticator: authenticator,
		config:        config,
	}
}

// extractToken gets a token from either header or cookie
func extractToken(r *http.Request, headerName, cookieName string) string {
	// Try to get from header first
	token := r.Header.Get(headerName)
	if token != "" {
		// Handle Authorization: Bearer token format
		return strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
	}

	// Try to get from cookie if header is empty and cookie name is provided
	if cookieName != "" {
		cookie, err := r.Cookie(cookieName)
		if err == nil {
			return cookie.Value
		}
	}

	return ""
}

// Authenticate middleware verifies the access token and stores the session
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		accessToken := extractToken(c.Request, m.config.AccessTokenHeader, m.config.AccessTokenCookie)
		if accessToken == "" {
			AbortWithError(c, apperror.Unauthorized("authentication required"))
			return
		}

		session, err := m.authenticator.Authenticate(c.Request.Context(), accessToken)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		c.Set(string(SessionContextKey), session)
		c.Set(string(AccessTokenContextKey), accessToken)
		c.Next()
	}
}

// RequireRoles lets the request through only for sessions whose role is in roles.
// Must run after Authenticate.
func RequireRoles(roles rbac.RoleSet) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, _ := GetSessionFromGinContext(c)
		if err := rbac.Check(session, roles); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}

// RequireAdmin ensures the user has admin role
func RequireAdmin() gin.HandlerFunc {
	return RequireRoles(rbac.AdminOnly)
}

// RequireStaff ensures the user is an admin or operator
func RequireStaff() gin.HandlerFunc {
	return RequireRoles(rbac.Staff)
}

// GetSessionFromGinContext retrieves the session stored by Authenticate
func GetSessionFromGinContext(c *gin.Context) (*rbac.Session, bool) {
	val, exists := c.Get(string(SessionContextKey))
	if !exists {
		return nil, false
	}
	session, ok := val.(*rbac.Session)
	return session, ok && session != nil
}
