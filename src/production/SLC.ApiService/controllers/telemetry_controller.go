package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apperror "gitlab.com/maplesense1/slc.control_server/src/production/SLC.ApiService/implementation/apperror"
	control "gitlab.com/maplesense1/slc.control_server/src/production/SLC.ApiService/implementation/control"
	"gitlab.com/maplesense1/slc.control_server/src/production/SLC.ApiService/middleware"
	api_models "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Models/api"
)

// TelemetryController exposes the self-service ThingSpeak write
type TelemetryController struct {
	controller     *control.Controller
	authMiddleware *middleware.AuthMiddleware
}

// NewTelemetryController creates a new telemetry controller
func NewTelemetryController(controller *control.Controller, authMiddleware *middleware.AuthMiddleware) *TelemetryController {
	return &TelemetryController{
		controller:     controller,
		authMiddleware: authMiddleware,
	}
}

// RegisterRoutes registers the telemetry routes with Gin
func (c *TelemetryController) RegisterRoutes(router gin.IRouter) {
	router.POST("/telemetry/update", c.authMiddleware.Authenticate(), c.UpdateField)
}

func (c *TelemetryController) UpdateField(ctx *gin.Context) {
	var req api_models.TelemetryUpdateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithError(ctx, apperror.Validation(err.Error()))
		return
	}

	session, _ := middleware.GetSessionFromGinContext(ctx)
	if err := c.controller.WriteOwnField(ctx.Request.Context(), session, req.Field, req.Value); err != nil {
		middleware.AbortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"success": true, "field": req.Field, "value": *req.Value})
}
