package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/sandeepkv93/bearer-auth-api/internal/config"
	"github.com/sandeepkv93/bearer-auth-api/internal/observability"
)

type App struct {
	Config        *config.Config
	Logger        *slog.Logger
	Server        *http.Server
	Observability *observability.Runtime
	DB            *gorm.DB
	Redis         *redis.Client
}

func New(
	cfg *config.Config,
	logger *slog.Logger,
	server *http.Server,
	runtime *observability.Runtime,
	db *gorm.DB,
	redisClient *redis.Client,
) *App {
	return &App{
		Config:        cfg,
		Logger:        logger,
		Server:        server,
		Observability: runtime,
		DB:            db,
		Redis:         redisClient,
	}
}

// Run serves HTTP until ctx is cancelled or the listener fails, then shuts down.
func (a *App) Run(ctx context.Context) error {
	serveErr := make(chan error, 1)
	go func() {
		a.Logger.Info("server starting", "addr", a.Server.Addr, "token_store", a.Config.TokenStore)
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.Logger.Info("shutdown signal received")
	case err := <-serveErr:
		if err != nil {
			runErr = fmt.Errorf("http server: %w", err)
		}
	}
	return errors.Join(runErr, a.Shutdown(context.Background()))
}

// Shutdown drains HTTP, flushes telemetry, then closes redis and the database.
func (a *App) Shutdown(parent context.Context) error {
	totalTimeout := durationOr(a.Config.ShutdownTimeout, 20*time.Second)
	totalCtx, totalCancel := context.WithTimeout(parent, totalTimeout)
	defer totalCancel()

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(totalCtx, durationOr(a.Config.ShutdownHTTPDrainTimeout, 10*time.Second))
	if err := a.Server.Shutdown(httpCtx); err != nil {
		a.Logger.Error("failed to shutdown http server", "error", err)
		errs = append(errs, fmt.Errorf("shutdown http: %w", err))
	}
	httpCancel()

	if a.Observability != nil {
		obsCtx, obsCancel := context.WithTimeout(totalCtx, durationOr(a.Config.ShutdownObservabilityTimeout, 8*time.Second))
		if err := a.Observability.Shutdown(obsCtx); err != nil {
			a.Logger.Error("failed to shutdown observability", "error", err)
			errs = append(errs, fmt.Errorf("shutdown observability: %w", err))
		}
		obsCancel()
	}

	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Logger.Error("failed to close redis client", "error", err)
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	if a.DB != nil {
		sqlDB, err := a.DB.DB()
		if err == nil {
			err = sqlDB.Close()
		}
		if err != nil {
			a.Logger.Error("failed to close database connection", "error", err)
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}
	a.Logger.Info("shutdown complete")
	return errors.Join(errs...)
}

func durationOr(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}
