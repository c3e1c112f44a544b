package controllers

import (
	"context"
	"net/http"
	"net/url"
	"time"

	apperror "gitlab.com/maplesense1/slc.control_server/src/production/SLC.ApiService/implementation/apperror"
	service "gitlab.com/maplesense1/slc.control_server/src/production/SLC.ApiService/implementation/auth"
	oauth "gitlab.com/maplesense1/slc.control_server/src/production/SLC.ApiService/implementation/oauth"
	rbac "gitlab.com/maplesense1/slc.control_server/src/production/SLC.ApiService/implementation/rbac"
	"gitlab.com/maplesense1/slc.control_server/src/production/SLC.ApiService/middleware"
	api_models "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Models/api"
	auth_models "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Models/auth"

	"github.com/gin-gonic/gin"
)

const (
	accessTokenCookie  = "access_token"
	refreshTokenCookie = "refresh_token"
	oauthStateCookie   = "oauth_state"
	oauthStateMaxAge   = 10 * 60
)

// OAuthProvider runs an external authorization code flow
type OAuthProvider interface {
	AuthCodeURL(state string) string
	Identity(ctx context.Context, code string) (*service.OAuthIdentity, error)
}

// AuthController handles session requests
type AuthController struct {
	authService   *service.AuthService
	rbacService   *rbac.Service
	google        OAuthProvider
	secureCookies bool
}

// NewAuthController creates a new auth controller. google may be nil when
// Google sign-in is not configured.
func NewAuthController(authService *service.AuthService, rbacService *rbac.Service, google OAuthProvider, secureCookies bool) *AuthController {
	return &AuthController{
		authService:   authService,
		rbacService:   rbacService,
		google:        google,
		secureCookies: secureCookies,
	}
}

// RegisterRoutes registers the session routes with Gin
func (h *AuthController) RegisterRoutes(router gin.IRouter, authMiddleware *middleware.AuthMiddleware) {
	session := router.Group("/session")
	{
		// Public routes
		session.POST("", h.SignIn)
		session.POST("/refresh", h.Refresh)
		session.GET("/oauth/google", h.GoogleStart)
		session.GET("/oauth/google/callback", h.GoogleCallback)

		// Protected routes
		session.DELETE("", authMiddleware.Authenticate(), h.SignOut)
		session.GET("/role-check", authMiddleware.Authenticate(), h.RoleCheck)
	}
}

// SignIn handles password sign-in
func (h *AuthController) SignIn(c *gin.Context) {
	var req api_models.SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithError(c, apperror.Validation(err.Error()))
		return
	}

	response, err := h.authService.SignInWithPassword(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	h.setSessionCookies(c, &response.TokenPair)
	c.JSON(http.StatusOK, response)
}

// Refresh rotates the session. The token comes from the body or the refresh cookie.
func (h *AuthController) Refresh(c *gin.Context) {
	var req api_models.RefreshRequest
	_ = c.ShouldBindJSON(&req)
	if req.RefreshToken == "" {
		req.RefreshToken, _ = c.Cookie(refreshTokenCookie)
	}
	if req.RefreshToken == "" {
		middleware.AbortWithError(c, apperror.Unauthorized("refresh token not found"))
		return
	}

	response, err := h.authService.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	h.setSessionCookies(c, &response.TokenPair)
	c.JSON(http.StatusOK, response)
}

// SignOut revokes the current session
func (h *AuthController) SignOut(c *gin.Context) {
	session, _ := middleware.GetSessionFromGinContext(c)
	if err := h.authService.SignOut(c.Request.Context(), session); err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	h.clearSessionCookies(c)
	c.JSON(http.StatusOK, gin.H{"message": "Signed out successfully"})
}

// RoleCheck evaluates the guard of the page named in ?page=
func (h *AuthController) RoleCheck(c *gin.Context) {
	session, _ := middleware.GetSessionFromGinContext(c)
	page := c.Query("page")
	if page == "" {
		page = rbac.PageControls
	}

	decision := h.rbacService.EvaluatePage(session, page)
	switch decision.Kind {
	case rbac.Allow:
		c.JSON(http.StatusOK, api_models.RoleCheckResponse{Decision: string(decision.Kind), Role: session.Role})
	case rbac.Redirect:
		c.JSON(http.StatusOK, api_models.RoleCheckResponse{Decision: string(decision.Kind), Role: session.Role, Location: decision.Location})
	default:
		middleware.AbortWithError(c, apperror.NotFound("unknown page "+page))
	}
}

// GoogleStart redirects to the Google consent page
func (h *AuthController) GoogleStart(c *gin.Context) {
	if h.google == nil {
		middleware.AbortWithError(c, apperror.NotFound("Google sign-in is not configured"))
		return
	}

	state := oauth.NewState()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(oauthStateCookie, state, oauthStateMaxAge, "/", "", h.secureCookies, true)
	c.Redirect(http.StatusFound, h.google.AuthCodeURL(state))
}

// GoogleCallback completes Google sign-in and sends the browser to its landing page.
// Failures go back to the sign-in page with the error kind.
func (h *AuthController) GoogleCallback(c *gin.Context) {
	if h.google == nil {
		middleware.AbortWithError(c, apperror.NotFound("Google sign-in is not configured"))
		return
	}

	expected, _ := c.Cookie(oauthStateCookie)
	c.SetCookie(oauthStateCookie, "", -1, "/", "", h.secureCookies, true)
	if expected == "" || c.Query("state") != expected {
		h.redirectSignInError(c, apperror.SignInRejected("OAuth state mismatch"))
		return
	}
	if providerErr := c.Query("error"); providerErr != "" {
		h.redirectSignInError(c, apperror.SignInRejected(providerErr))
		return
	}

	identity, err := h.google.Identity(c.Request.Context(), c.Query("code"))
	if err != nil {
		h.redirectSignInError(c, err)
		return
	}

	response, err := h.authService.SignInWithOAuth(c.Request.Context(), *identity)
	if err != nil {
		h.redirectSignInError(c, err)
		return
	}

	h.setSessionCookies(c, &response.TokenPair)
	c.Redirect(http.StatusFound, response.User.Role.LandingPage())
}

func (h *AuthController) redirectSignInError(c *gin.Context, err error) {
	if log := middleware.LoggerFromGinContext(c); log != nil {
		log.Logger.Warn().Err(err).Msg("OAuth sign-in failed")
	}
	q := url.Values{"error": {string(apperror.KindOf(err))}}
	c.Redirect(http.StatusFound, auth_models.SignInPage+"?"+q.Encode())
}

func (h *AuthController) setSessionCookies(c *gin.Context, tokenPair *api_models.TokenPair) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(accessTokenCookie, tokenPair.AccessToken, maxAge(tokenPair.ExpiresAt), "/", "", h.secureCookies, true)
	c.SetCookie(refreshTokenCookie, tokenPair.RefreshToken, maxAge(tokenPair.RefreshExpiresAt), "/", "", h.secureCookies, true)
}

func (h *AuthController) clearSessionCookies(c *gin.Context) {
	c.SetCookie(accessTokenCookie, "", -1, "/", "", h.secureCookies, true)
	c.SetCookie(refreshTokenCookie, "", -1, "/", "", h.secureCookies, true)
}

func maxAge(expiresAt int64) int {
	return int(time.Until(time.Unix(expiresAt, 0)).Seconds())
}
