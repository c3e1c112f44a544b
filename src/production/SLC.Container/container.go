package container

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"gitlab.com/maplesense1/slc.control_server/src/production/SLC.ApiService/health"
	analytics "gitlab.com/maplesense1/slc.control_server/src/production/SLC.ApiService/implementation/analytics"
	auth "gitlab.com/maplesense1/slc.control_server/src/production/SLC.ApiService/implementation/auth"
	control "gitlab.com/maplesense1/slc.control_server/src/production/SLC.ApiService/implementation/control"
	events "gitlab.com/maplesense1/slc.control_server/src/production/SLC.ApiService/implementation/events"
	jwt "gitlab.com/maplesense1/slc.control_server/src/production/SLC.ApiService/implementation/jwt"
	oauth "gitlab.com/maplesense1/slc.control_server/src/production/SLC.ApiService/implementation/oauth"
	rbac "gitlab.com/maplesense1/slc.control_server/src/production/SLC.ApiService/implementation/rbac"
	revocation "gitlab.com/maplesense1/slc.control_server/src/production/SLC.ApiService/implementation/revocation"
	telemetry "gitlab.com/maplesense1/slc.control_server/src/production/SLC.ApiService/implementation/telemetry"
	"gitlab.com/maplesense1/slc.control_server/src/production/SLC.ApiService/middleware"
	config "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Config"
	logger "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Logger"
	api_models "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Models/api"
	implementation "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Repository/Implementation"
	interfaces "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Repository/Interfaces"
	mongohealth "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Startup/health"
	"go.mongodb.org/mongo-driver/mongo"
)

// Services holds the wired application services
type Services struct {
	Accounts    interfaces.AccountRepository
	Devices     interfaces.DeviceRepository
	Credentials interfaces.CredentialRepository

	JWT         *jwt.Service
	RBAC        *rbac.Service
	Revocations revocation.Store
	Relay       *telemetry.ThingSpeakClient
	Publisher   events.Publisher

	CredentialService *telemetry.CredentialService
	Resolver          *telemetry.Resolver
	AuthService       *auth.AuthService
	UserService       *auth.UserService
	SetupService      *auth.SetupService
	DeviceService     *control.DeviceService
	Controller        *control.Controller
	Analytics         *analytics.Service
	Google            *oauth.GoogleProvider

	HealthChecker  *health.HealthChecker
	AuthMiddleware *middleware.AuthMiddleware
}

// ApiContainer manages dependencies for the API service
type ApiContainer struct {
	config *config.Config
	logger *logger.Logger

	mongoClient *mongo.Client
	redisClient *redis.Client

	services *Services

	// Mutex for thread-safe access
	mu sync.Mutex

	// Cleanup functions
	cleanupFuncs []func() error
}

// NewApiContainer creates a new container for the API service
func NewApiContainer() (*ApiContainer, error) {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	log := logger.NewLogger(&cfg.Logging)

	return NewApiContainerWithConfig(cfg, log), nil
}

// NewApiContainerWithConfig creates a container from an already loaded configuration
func NewApiContainerWithConfig(cfg *config.Config, log *logger.Logger) *ApiContainer {
	return &ApiContainer{
		config: cfg,
		logger: log,
	}
}

// GetConfig returns the configuration
func (c *ApiContainer) GetConfig() *config.Config {
	return c.config
}

// GetLogger returns the logger
func (c *ApiContainer) GetLogger() *logger.Logger {
	return c.logger
}

// Services returns the wired services. Initialize must have succeeded.
func (c *ApiContainer) Services() *Services {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.services
}

// Initialize connects to the configured stores and brokers, wires every
// service and bootstraps the configured admin
func (c *ApiContainer) Initialize(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.services != nil {
		return nil
	}

	s := &Services{HealthChecker: health.NewHealthChecker()}

	if err := c.initStores(ctx, s); err != nil {
		return err
	}
	if err := c.initRevocation(ctx, s); err != nil {
		return err
	}
	c.initPublisher(s)

	cfg := c.config
	s.JWT = jwt.NewService(api_models.Config{
		SecretKey:            cfg.Auth.JWTSecretKey,
		AccessTokenDuration:  cfg.Auth.AccessTokenDuration,
		RefreshTokenDuration: cfg.Auth.RefreshTokenDuration,
		Issuer:               cfg.Auth.JWTIssuer,
	})
	s.RBAC = rbac.NewService()
	s.Relay = telemetry.NewThingSpeakClient(cfg.ThingSpeak.BaseURL, cfg.ThingSpeak.Timeout, c.logger)

	s.CredentialService = telemetry.NewCredentialService(s.Credentials, c.logger)
	s.Resolver = telemetry.NewResolver(s.CredentialService, s.Accounts)

	authService, err := auth.NewAuthService(s.Accounts, s.JWT, s.Revocations, cfg.Auth.BcryptCost, c.logger)
	if err != nil {
		return err
	}
	s.AuthService = authService
	s.UserService = auth.NewUserService(s.Accounts, cfg.Auth.BcryptCost, cfg.Auth.PasswordMinLength, c.logger)
	s.SetupService = auth.NewSetupService(s.Accounts, s.UserService, s.CredentialService, c.logger)

	deviceLocks := control.NewKeyedMutex()
	s.DeviceService = control.NewDeviceService(s.Devices, s.Accounts, s.Resolver, deviceLocks, c.logger)
	s.Controller = control.NewController(s.Devices, s.Resolver, s.Relay, s.Publisher, deviceLocks, c.logger)
	s.Analytics = analytics.NewService(s.Accounts, s.Devices, s.Credentials)

	if cfg.OAuth.Enabled() {
		s.Google = oauth.NewGoogleProvider(cfg.OAuth)
		c.logger.Info("Google sign-in enabled")
	}

	s.AuthMiddleware = middleware.NewAuthMiddleware(s.AuthService, middleware.DefaultConfig())

	// Initialize admin user
	if err := s.SetupService.InitializeAdminUser(ctx, cfg.Auth.Admin); err != nil {
		return fmt.Errorf("failed to initialize admin user: %w", err)
	}

	c.services = s
	return nil
}

func (c *ApiContainer) initStores(ctx context.Context, s *Services) error {
	if c.config.Database.Driver == config.StoreDriverMemory {
		c.logger.Warn("Using in-memory store; data is lost on restart")
		s.Accounts = implementation.NewMemoryAccountRepository()
		s.Devices = implementation.NewMemoryDeviceRepository()
		s.Credentials = implementation.NewMemoryCredentialRepository()
		return nil
	}

	client, err := mongohealth.ConnectDBWithTimeout(&c.config.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	c.mongoClient = client
	c.cleanupFuncs = append(c.cleanupFuncs, func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return client.Disconnect(ctx)
	})

	dbName := c.config.Database.Name
	accounts := implementation.NewMongoAccountRepository(mongohealth.GetCollection(client, dbName, mongohealth.AccountsCollection))
	devices := implementation.NewMongoDeviceRepository(mongohealth.GetCollection(client, dbName, mongohealth.DevicesCollection))
	if err := accounts.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("failed to create account indexes: %w", err)
	}
	if err := devices.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("failed to create device indexes: %w", err)
	}
	s.Accounts = accounts
	s.Devices = devices
	s.Credentials = implementation.NewMongoCredentialRepository(mongohealth.GetCollection(client, dbName, mongohealth.CredentialsCollection))

	s.HealthChecker.Register("mongo", func(ctx context.Context) error {
		return mongohealth.Ping(ctx, client)
	})
	c.logger.Logger.Info().Str("db", dbName).Msg("Connected to MongoDB")
	return nil
}

func (c *ApiContainer) initRevocation(ctx context.Context, s *Services) error {
	if c.config.Redis.Addr == "" {
		c.logger.Warn("REDIS_ADDR not set; session revocations are kept in memory")
		s.Revocations = revocation.NewMemoryStore()
		return nil
	}

	rdb, err := revocation.NewRedisClient(ctx, c.config.Redis.Addr, c.config.Redis.Password, c.config.Redis.DB)
	if err != nil {
		return err
	}
	c.redisClient = rdb
	c.cleanupFuncs = append(c.cleanupFuncs, rdb.Close)
	s.Revocations = revocation.NewRedisStore(rdb, c.config.Redis.KeyPrefix)

	s.HealthChecker.Register("redis", func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})
	c.logger.Logger.Info().Str("addr", c.config.Redis.Addr).Msg("Connected to Redis")
	return nil
}

func (c *ApiContainer) initPublisher(s *Services) {
	if c.config.MQTT.BrokerHost == "" {
		s.Publisher = events.NopPublisher{}
		return
	}

	publisher := events.NewMQTTPublisher(c.config.MQTT, c.config.GetMQTTBrokerURL(), c.logger)
	if err := publisher.Start(); err != nil {
		// state events are best effort; the API keeps serving without them
		c.logger.ErrorWithError(err, "MQTT publisher unavailable, continuing without state events")
	}
	s.Publisher = publisher
	c.cleanupFuncs = append(c.cleanupFuncs, func() error {
		publisher.Stop()
		return nil
	})

	s.HealthChecker.Register("mqtt", func(context.Context) error {
		if !publisher.IsConnected() {
			return fmt.Errorf("not connected to %s", c.config.GetMQTTBrokerURL())
		}
		return nil
	})
}

// AddCleanupFunc adds a cleanup function
func (c *ApiContainer) AddCleanupFunc(fn func() error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cleanupFuncs = append(c.cleanupFuncs, fn)
}

// Shutdown gracefully shuts down the container and all its dependencies
func (c *ApiContainer) Shutdown(ctx context.Context) error {
	c.logger.Info("Shutting down container...")

	c.mu.Lock()
	funcs := c.cleanupFuncs
	c.cleanupFuncs = nil
	c.mu.Unlock()

	// Execute cleanup functions in reverse order
	for i := len(funcs) - 1; i >= 0; i-- {
		if err := funcs[i](); err != nil {
			c.logger.ErrorWithError(err, "Error during cleanup")
		}
	}

	c.logger.Info("Container shutdown complete")
	return nil
}
