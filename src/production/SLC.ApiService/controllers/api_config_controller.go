package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apperror "gitlab.com/maplesense1/slc.control_server/src/production/SLC.ApiService/implementation/apperror"
	telemetry "gitlab.com/maplesense1/slc.control_server/src/production/SLC.ApiService/implementation/telemetry"
	"gitlab.com/maplesense1/slc.control_server/src/production/SLC.ApiService/middleware"
	api_models "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Models/api"
)

// APIConfigController handles ThingSpeak credential administration
type APIConfigController struct {
	credentials    *telemetry.CredentialService
	authMiddleware *middleware.AuthMiddleware
}

// NewAPIConfigController creates a new API config controller
func NewAPIConfigController(credentials *telemetry.CredentialService, authMiddleware *middleware.AuthMiddleware) *APIConfigController {
	return &APIConfigController{
		credentials:    credentials,
		authMiddleware: authMiddleware,
	}
}

// RegisterRoutes registers the credential routes with Gin. All require admin role.
func (c *APIConfigController) RegisterRoutes(router gin.IRouter) {
	configs := router.Group("/api-configs", c.authMiddleware.Authenticate(), middleware.RequireAdmin())
	{
		configs.GET("", c.ListConfigs)
		configs.POST("", c.CreateConfig)
		configs.PUT("/:id", c.UpdateConfig)
		configs.DELETE("/:id", c.DeleteConfig)
		configs.POST("/:id/activate", c.ActivateConfig)
	}
}

func (c *APIConfigController) ListConfigs(ctx *gin.Context) {
	configs, err := c.credentials.List(ctx.Request.Context())
	if err != nil {
		middleware.AbortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"configs": configs})
}

func (c *APIConfigController) CreateConfig(ctx *gin.Context) {
	var req api_models.CredentialRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithError(ctx, apperror.Validation(err.Error()))
		return
	}

	session, _ := middleware.GetSessionFromGinContext(ctx)
	config, err := c.credentials.Create(ctx.Request.Context(), session.UserID, req)
	if err != nil {
		middleware.AbortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, config)
}

func (c *APIConfigController) UpdateConfig(ctx *gin.Context) {
	var req api_models.CredentialRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithError(ctx, apperror.Validation(err.Error()))
		return
	}

	config, err := c.credentials.Update(ctx.Request.Context(), ctx.Param("id"), req)
	if err != nil {
		middleware.AbortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, config)
}

func (c *APIConfigController) DeleteConfig(ctx *gin.Context) {
	if err := c.credentials.Delete(ctx.Request.Context(), ctx.Param("id")); err != nil {
		middleware.AbortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "API configuration deleted successfully"})
}

func (c *APIConfigController) ActivateConfig(ctx *gin.Context) {
	config, err := c.credentials.Activate(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		middleware.AbortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, config)
}
