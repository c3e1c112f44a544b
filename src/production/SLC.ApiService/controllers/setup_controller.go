package controllers

import (
	"net/http"

	apperror "gitlab.com/maplesense1/slc.control_server/src/production/SLC.ApiService/implementation/apperror"
	service "gitlab.com/maplesense1/slc.control_server/src/production/SLC.ApiService/implementation/auth"
	"gitlab.com/maplesense1/slc.control_server/src/production/SLC.ApiService/middleware"
	api_models "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Models/api"

	"github.com/gin-gonic/gin"
)

// SetupController handles first-run setup
type SetupController struct {
	setupService *service.SetupService
}

// NewSetupController creates a new setup controller
func NewSetupController(setupService *service.SetupService) *SetupController {
	return &SetupController{setupService: setupService}
}

// RegisterRoutes registers the setup routes with Gin. Both are public.
func (h *SetupController) RegisterRoutes(router gin.IRouter) {
	router.GET("/setup", h.Status)
	router.POST("/setup", h.Setup)
}

// Status reports whether an admin exists
func (h *SetupController) Status(c *gin.Context) {
	status, err := h.setupService.Status(c.Request.Context())
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// Setup creates the first admin
func (h *SetupController) Setup(c *gin.Context) {
	var req api_models.SetupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithError(c, apperror.Validation(err.Error()))
		return
	}

	admin, err := h.setupService.Setup(c.Request.Context(), req)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Setup completed successfully",
		"user":    api_models.NewSessionUser(admin),
	})
}
