package container

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gitlab.com/maplesense1/slc.control_server/src/production/SLC.ApiService/controllers"
	"gitlab.com/maplesense1/slc.control_server/src/production/SLC.ApiService/middleware"
)

// Router builds the HTTP router. Health routes are served on the root, the
// API under /api.
func (c *ApiContainer) Router() *gin.Engine {
	s := c.Services()
	cfg := c.config

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID(c.logger))

	// Configure CORS from config
	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    cfg.CORS.ExposedHeaders,
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           time.Duration(cfg.CORS.MaxAge) * time.Second,
	}
	if len(corsConfig.AllowOrigins) > 0 {
		router.Use(cors.New(corsConfig))
	}

	var google controllers.OAuthProvider
	if s.Google != nil {
		google = s.Google
	}

	// Create controllers and register routes
	api := router.Group("/api")
	controllers.NewSetupController(s.SetupService).RegisterRoutes(api)
	controllers.NewAuthController(s.AuthService, s.RBAC, google, cfg.Auth.SecureCookies).RegisterRoutes(api, s.AuthMiddleware)
	controllers.NewUserController(s.UserService).RegisterRoutes(api, s.AuthMiddleware)
	controllers.NewDeviceController(s.DeviceService, s.Controller, s.AuthMiddleware).RegisterRoutes(api)
	controllers.NewAPIConfigController(s.CredentialService, s.AuthMiddleware).RegisterRoutes(api)
	controllers.NewTelemetryController(s.Controller, s.AuthMiddleware).RegisterRoutes(api)
	controllers.NewHealthController(s.HealthChecker, s.Analytics, s.Relay, s.AuthMiddleware).RegisterRoutes(router, api)

	return router
}
