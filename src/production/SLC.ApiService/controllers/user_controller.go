package controllers

import (
	"net/http"

	apperror "gitlab.com/maplesense1/slc.control_server/src/production/SLC.ApiService/implementation/apperror"
	service "gitlab.com/maplesense1/slc.control_server/src/production/SLC.ApiService/implementation/auth"
	"gitlab.com/maplesense1/slc.control_server/src/production/SLC.ApiService/middleware"
	api_models "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Models/api"

	"github.com/gin-gonic/gin"
)

// UserController handles user management requests
type UserController struct {
	userService *service.UserService
}

// NewUserController creates a new user controller
func NewUserController(userService *service.UserService) *UserController {
	return &UserController{
		userService: userService,
	}
}

// RegisterRoutes registers the user routes with Gin
func (h *UserController) RegisterRoutes(router gin.IRouter, authMiddleware *middleware.AuthMiddleware) {
	// Protected routes
	users := router.Group("/users", authMiddleware.Authenticate())
	{
		// Own ThingSpeak key - any session may read, only admins may set
		users.GET("/me/api-key", h.GetOwnAPIKey)
		users.PUT("/me/api-key", middleware.RequireAdmin(), h.SetOwnAPIKey)

		// Everything else requires admin role
		admin := users.Group("", middleware.RequireAdmin())
		admin.GET("", h.GetAllUsers)
		admin.POST("", h.CreateUser)
		admin.GET("/:id", h.GetUserByID)
		admin.PUT("/:id", h.UpdateUser)
		admin.DELETE("/:id", h.DeleteUser)
		admin.PUT("/:id/api-key", h.SetUserAPIKey)
	}
}

// GetAllUsers retrieves all users
func (h *UserController) GetAllUsers(c *gin.Context) {
	accounts, err := h.userService.GetAllUsers(c.Request.Context())
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	views := make([]api_models.AccountView, 0, len(accounts))
	for _, a := range accounts {
		views = append(views, api_models.NewAccountView(a))
	}
	c.JSON(http.StatusOK, gin.H{"users": views})
}

// CreateUser creates an account with any role
func (h *UserController) CreateUser(c *gin.Context) {
	var req api_models.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithError(c, apperror.Validation(err.Error()))
		return
	}

	account, err := h.userService.CreateUser(c.Request.Context(), req)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, api_models.NewAccountView(account))
}

// GetUserByID retrieves a user by ID
func (h *UserController) GetUserByID(c *gin.Context) {
	account, err := h.userService.GetUserByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, api_models.NewAccountView(account))
}

// UpdateUser handles updating a user
func (h *UserController) UpdateUser(c *gin.Context) {
	var req api_models.UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithError(c, apperror.Validation(err.Error()))
		return
	}

	session, _ := middleware.GetSessionFromGinContext(c)
	account, err := h.userService.UpdateUser(c.Request.Context(), session, c.Param("id"), req)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, api_models.NewAccountView(account))
}

// DeleteUser deletes a user. Deleting your own account is refused.
func (h *UserController) DeleteUser(c *gin.Context) {
	session, _ := middleware.GetSessionFromGinContext(c)
	if err := h.userService.DeleteUser(c.Request.Context(), session, c.Param("id")); err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}

// SetUserAPIKey sets another account's ThingSpeak key
func (h *UserController) SetUserAPIKey(c *gin.Context) {
	h.setAPIKey(c, c.Param("id"))
}

// SetOwnAPIKey sets the caller's ThingSpeak key
func (h *UserController) SetOwnAPIKey(c *gin.Context) {
	session, _ := middleware.GetSessionFromGinContext(c)
	h.setAPIKey(c, session.UserID)
}

// GetOwnAPIKey returns the caller's ThingSpeak key
func (h *UserController) GetOwnAPIKey(c *gin.Context) {
	session, _ := middleware.GetSessionFromGinContext(c)
	resp, err := h.userService.GetAPIToken(c.Request.Context(), session.UserID)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *UserController) setAPIKey(c *gin.Context, accountID string) {
	var req api_models.SetAPIKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithError(c, apperror.Validation(err.Error()))
		return
	}

	account, err := h.userService.SetAPIToken(c.Request.Context(), accountID, req.APIKey)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, api_models.APIKeyResponse{APIKey: account.APIToken, HasAPIKey: account.HasAPIToken()})
}
