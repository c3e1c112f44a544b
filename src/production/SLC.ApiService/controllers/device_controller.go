package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apperror "gitlab.com/maplesense1/slc.control_server/src/production/SLC.ApiService/implementation/apperror"
	control "gitlab.com/maplesense1/slc.control_server/src/production/SLC.ApiService/implementation/control"
	"gitlab.com/maplesense1/slc.control_server/src/production/SLC.ApiService/middleware"
	api_models "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Models/api"
)

// DeviceController handles street light registry and control requests
type DeviceController struct {
	registry       *control.DeviceService
	controller     *control.Controller
	authMiddleware *middleware.AuthMiddleware
}

// NewDeviceController creates a new device controller
func NewDeviceController(registry *control.DeviceService, controller *control.Controller, authMiddleware *middleware.AuthMiddleware) *DeviceController {
	return &DeviceController{
		registry:       registry,
		controller:     controller,
		authMiddleware: authMiddleware,
	}
}

// RegisterRoutes registers the device routes with Gin
func (c *DeviceController) RegisterRoutes(router gin.IRouter) {
	devices := router.Group("/devices", c.authMiddleware.Authenticate())
	{
		// Admin and operator: all devices, User: own personal devices
		devices.GET("", c.ListDevices)
		devices.GET("/:id", c.GetDevice)

		// Admin only - create/delete
		devices.POST("", middleware.RequireAdmin(), c.CreateDevices)
		devices.DELETE("/:id", middleware.RequireAdmin(), c.DeleteDevice)

		// Admin and operator - registry edits and bulk control
		devices.PUT("/:id", middleware.RequireStaff(), c.UpdateDevice)
		devices.POST("/master-toggle", middleware.RequireStaff(), c.MasterToggle)

		// Staff, or the owner of a personal device
		devices.POST("/:id/toggle", c.Toggle)
	}
}

// createDevicesBody accepts a single device or {"devices": [...]}
type createDevicesBody struct {
	api_models.DeviceRequest
	Devices []api_models.DeviceRequest `json:"devices"`
}

func (c *DeviceController) ListDevices(ctx *gin.Context) {
	session, _ := middleware.GetSessionFromGinContext(ctx)
	devices, err := c.registry.List(ctx.Request.Context(), session)
	if err != nil {
		middleware.AbortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"devices": devices})
}

func (c *DeviceController) GetDevice(ctx *gin.Context) {
	session, _ := middleware.GetSessionFromGinContext(ctx)
	device, err := c.registry.Get(ctx.Request.Context(), session, ctx.Param("id"))
	if err != nil {
		middleware.AbortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, device)
}

func (c *DeviceController) CreateDevices(ctx *gin.Context) {
	var body createDevicesBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		middleware.AbortWithError(ctx, apperror.Validation(err.Error()))
		return
	}

	reqs := body.Devices
	if len(reqs) == 0 {
		reqs = []api_models.DeviceRequest{body.DeviceRequest}
	}

	session, _ := middleware.GetSessionFromGinContext(ctx)
	devices, err := c.registry.Create(ctx.Request.Context(), session, reqs)
	if err != nil {
		middleware.AbortWithError(ctx, err)
		return
	}

	if len(body.Devices) == 0 {
		ctx.JSON(http.StatusCreated, devices[0])
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"devices": devices, "count": len(devices)})
}

func (c *DeviceController) UpdateDevice(ctx *gin.Context) {
	var req api_models.DeviceRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithError(ctx, apperror.Validation(err.Error()))
		return
	}

	device, err := c.registry.Update(ctx.Request.Context(), ctx.Param("id"), req)
	if err != nil {
		middleware.AbortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, device)
}

func (c *DeviceController) DeleteDevice(ctx *gin.Context) {
	if err := c.registry.Delete(ctx.Request.Context(), ctx.Param("id")); err != nil {
		middleware.AbortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "Street light deleted successfully"})
}

func (c *DeviceController) Toggle(ctx *gin.Context) {
	var req api_models.ToggleRequest
	if !bindOptionalJSON(ctx, &req) {
		return
	}

	session, _ := middleware.GetSessionFromGinContext(ctx)
	result, err := c.controller.Toggle(ctx.Request.Context(), session, ctx.Param("id"), req.Value)
	if err != nil {
		middleware.AbortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, result)
}

func (c *DeviceController) MasterToggle(ctx *gin.Context) {
	var req api_models.ToggleRequest
	if !bindOptionalJSON(ctx, &req) {
		return
	}

	session, _ := middleware.GetSessionFromGinContext(ctx)
	result, err := c.controller.MasterToggle(ctx.Request.Context(), session, req.Value)
	if err != nil {
		middleware.AbortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, result)
}

// bindOptionalJSON binds the body when there is one. An empty body is fine.
func bindOptionalJSON(ctx *gin.Context, obj interface{}) bool {
	if ctx.Request.ContentLength == 0 {
		return true
	}
	if err := ctx.ShouldBindJSON(obj); err != nil {
		middleware.AbortWithError(ctx, apperror.Validation(err.Error()))
		return false
	}
	return true
}
