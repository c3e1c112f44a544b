package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gitlab.com/maplesense1/slc.control_server/src/production/SLC.ApiService/health"
	analytics "gitlab.com/maplesense1/slc.control_server/src/production/SLC.ApiService/implementation/analytics"
	"gitlab.com/maplesense1/slc.control_server/src/production/SLC.ApiService/middleware"
)

// RelayStatus reports the state of the outbound telemetry client
type RelayStatus interface {
	GetCircuitBreakerStatus() map[string]interface{}
}

// HealthController handles health and stats requests
type HealthController struct {
	checker        *health.HealthChecker
	analytics      *analytics.Service
	relay          RelayStatus
	authMiddleware *middleware.AuthMiddleware
}

// NewHealthController creates a new health controller
func NewHealthController(checker *health.HealthChecker, analyticsService *analytics.Service, relay RelayStatus, authMiddleware *middleware.AuthMiddleware) *HealthController {
	return &HealthController{
		checker:        checker,
		analytics:      analyticsService,
		relay:          relay,
		authMiddleware: authMiddleware,
	}
}

// RegisterRoutes registers the public health routes on root and the stats
// routes on api
func (c *HealthController) RegisterRoutes(root gin.IRouter, api gin.IRouter) {
	// Public health endpoints
	root.GET("/health/live", c.HealthLive)
	root.GET("/health/ready", c.HealthReady)

	// Stats endpoints with RBAC
	api.GET("/analytics", c.authMiddleware.Authenticate(), middleware.RequireStaff(), c.GetAnalytics)
	api.GET("/telemetry/status", c.authMiddleware.Authenticate(), middleware.RequireAdmin(), c.GetTelemetryStatus)
}

func (c *HealthController) HealthLive(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

func (c *HealthController) HealthReady(ctx *gin.Context) {
	status, ready := c.checker.GetHealthStatus(ctx.Request.Context())
	if !ready {
		ctx.JSON(http.StatusServiceUnavailable, status)
		return
	}
	ctx.JSON(http.StatusOK, status)
}

func (c *HealthController) GetAnalytics(ctx *gin.Context) {
	result, err := c.analytics.Summary(ctx.Request.Context())
	if err != nil {
		middleware.AbortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, result)
}

func (c *HealthController) GetTelemetryStatus(ctx *gin.Context) {
	if c.relay == nil {
		ctx.JSON(http.StatusOK, gin.H{"circuitBreaker": nil})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"circuitBreaker": c.relay.GetCircuitBreakerStatus()})
}
