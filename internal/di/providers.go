package di

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/sandeepkv93/bearer-auth-api/internal/app"
	"github.com/sandeepkv93/bearer-auth-api/internal/config"
	"github.com/sandeepkv93/bearer-auth-api/internal/database"
	"github.com/sandeepkv93/bearer-auth-api/internal/health"
	"github.com/sandeepkv93/bearer-auth-api/internal/http/handler"
	"github.com/sandeepkv93/bearer-auth-api/internal/http/router"
	"github.com/sandeepkv93/bearer-auth-api/internal/observability"
	"github.com/sandeepkv93/bearer-auth-api/internal/repository"
	"github.com/sandeepkv93/bearer-auth-api/internal/service"
)

var ConfigSet = wire.NewSet(config.Load)

var ObservabilitySet = wire.NewSet(
	provideObservabilityRuntime,
	provideAppLogger,
)

var RuntimeInfraSet = wire.NewSet(
	provideRuntimeDB,
	provideRedisClient,
	provideReadinessProbeRunner,
)

var RepositorySet = wire.NewSet(
	repository.NewUserRepository,
	provideAccessTokenStore,
)

var ServiceSet = wire.NewSet(
	provideTokenService,
	service.NewAuthService,
	wire.Bind(new(service.AuthServiceInterface), new(*service.AuthService)),
	wire.Bind(new(service.Authenticator), new(*service.AuthService)),
)

var HTTPSet = wire.NewSet(
	handler.NewAuthHandler,
	handler.NewUserHandler,
	provideRouterDependencies,
	router.NewRouter,
	provideHTTPServer,
)

var AppSet = wire.NewSet(provideApp)

// MigrationRunner applies the schema without starting the HTTP stack.
type MigrationRunner struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewMigrationRunner(db *gorm.DB, logger *slog.Logger) *MigrationRunner {
	return &MigrationRunner{db: db, logger: logger}
}

func (m *MigrationRunner) Run() error {
	if err := database.Migrate(m.db); err != nil {
		return err
	}
	m.logger.Info("migration complete", "tables", len(database.Models()))
	return nil
}

func provideObservabilityRuntime(cfg *config.Config) (*observability.Runtime, error) {
	bootstrapLogger := observability.NewBootstrapLogger(cfg)
	return observability.InitRuntime(context.Background(), cfg, bootstrapLogger)
}

func provideAppLogger(cfg *config.Config, runtime *observability.Runtime) *slog.Logger {
	return observability.InitLogger(cfg, runtime.LoggerProvider)
}

func provideBootstrapLogger(cfg *config.Config) *slog.Logger {
	return observability.NewBootstrapLogger(cfg)
}

func provideOpenDB(cfg *config.Config) (*gorm.DB, error) {
	return database.Open(cfg)
}

func provideRuntimeDB(cfg *config.Config) (*gorm.DB, error) {
	db, err := database.Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func provideRedisClient(cfg *config.Config, logger *slog.Logger) *redis.Client {
	if !cfg.RedisEnabled() {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	observability.InstrumentRedisClient(client, logger)
	return client
}

func provideAccessTokenStore(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) repository.AccessTokenStore {
	if cfg.RedisEnabled() && redisClient != nil {
		return repository.NewRedisAccessTokenStore(redisClient, cfg.RedisKeyPrefix, cfg.AccessTokenTTL)
	}
	return repository.NewAccessTokenRepository(db)
}

func provideTokenService(cfg *config.Config, store repository.AccessTokenStore) *service.TokenService {
	return service.NewTokenService(store, cfg.AccessTokenTTL)
}

func provideRouterDependencies(
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	authenticator service.Authenticator,
	readiness *health.ProbeRunner,
	cfg *config.Config,
) router.Dependencies {
	return router.Dependencies{
		AuthHandler:    authHandler,
		UserHandler:    userHandler,
		Authenticator:  authenticator,
		CORSOrigins:    cfg.CORSAllowedOrigins,
		BodyLimitBytes: cfg.RequestBodyLimitBytes,
		RequestTimeout: cfg.RequestTimeout,
		Readiness:      readiness,
		EnableOTelHTTP: cfg.OTELMetricsEnabled || cfg.OTELTracingEnabled,
	}
}

func provideHTTPServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           h,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func provideReadinessProbeRunner(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) *health.ProbeRunner {
	checkers := []health.Checker{
		health.NewDBChecker(db),
		health.NewSchemaChecker(db),
	}
	if cfg.RedisEnabled() {
		checkers = append(checkers, health.NewRedisChecker(redisClient))
	}
	return health.NewProbeRunner(cfg.ReadinessProbeTimeout, cfg.ServerStartGracePeriod, checkers...)
}

func provideApp(
	cfg *config.Config,
	logger *slog.Logger,
	server *http.Server,
	runtime *observability.Runtime,
	db *gorm.DB,
	redisClient *redis.Client,
) *app.App {
	return app.New(cfg, logger, server, runtime, db, redisClient)
}
