package common

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/sandeepkv93/bearer-auth-api/internal/config"
	"github.com/sandeepkv93/bearer-auth-api/internal/database"
	"github.com/sandeepkv93/bearer-auth-api/internal/observability"
	"github.com/sandeepkv93/bearer-auth-api/internal/repository"
	"github.com/sandeepkv93/bearer-auth-api/internal/tools/ui"
)

// ExitError carries the process exit code a tool command wants.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string { return e.Err.Error() }
func (e *ExitError) Unwrap() error { return e.Err }

// ExitCode maps a command error to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return 1
}

type Action func(ctx context.Context) ([]string, error)

// Options are the flags every tool shares.
type Options struct {
	Tool    string
	EnvFile string
	Timeout time.Duration
	CI      bool
	Out     io.Writer
}

func (o *Options) Bind(cmd *cobra.Command, defaultTimeout time.Duration) {
	cmd.PersistentFlags().StringVar(&o.EnvFile, "env-file", ".env", "path to env file")
	cmd.PersistentFlags().DurationVar(&o.Timeout, "timeout", defaultTimeout, "operation timeout")
	cmd.PersistentFlags().BoolVar(&o.CI, "ci", false, "non-interactive machine-readable output")
}

// Execute runs action through the interactive UI, or directly with JSON
// output in CI mode. Failures come back as *ExitError with failCode.
func (o *Options) Execute(command string, failCode int, action Action) error {
	title := o.Tool + " " + command
	start := time.Now()

	var (
		details []string
		err     error
	)
	if o.CI {
		ctx, cancel := context.WithTimeout(context.Background(), o.timeout())
		details, err = action(ctx)
		cancel()
		result := CIResult{OK: err == nil, Title: title, Details: details, DurationMS: time.Since(start).Milliseconds()}
		if err != nil {
			result.Error = err.Error()
		}
		PrintCIResult(o.out(), result)
	} else {
		details, err = ui.Run(title, o.timeout(), action)
	}

	status := "success"
	if err != nil {
		status = "failure"
	}
	observability.RecordToolCommandRun(context.Background(), o.Tool, command, status)
	if err != nil {
		return &ExitError{Code: failCode, Err: err}
	}
	return nil
}

func (o *Options) timeout() time.Duration {
	if o.Timeout <= 0 {
		return 30 * time.Second
	}
	return o.Timeout
}

func (o *Options) out() io.Writer {
	if o.Out == nil {
		return os.Stdout
	}
	return o.Out
}

func LoadConfig(envFile string) (*config.Config, error) {
	if _, err := LoadEnvFile(envFile); err != nil {
		return nil, err
	}
	return config.Load()
}

func LoadConfigDB(envFile string) (*config.Config, *gorm.DB, error) {
	cfg, err := LoadConfig(envFile)
	if err != nil {
		return nil, nil, err
	}
	db, err := database.Open(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}

// CloseDB closes the pool behind db, ignoring a nil handle.
func CloseDB(db *gorm.DB) {
	if db == nil {
		return
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// OpenTokenStore returns the store TOKEN_STORE selects and a release func.
func OpenTokenStore(ctx context.Context, cfg *config.Config, db *gorm.DB) (repository.AccessTokenStore, func(), error) {
	if !cfg.RedisEnabled() {
		return repository.NewAccessTokenRepository(db), func() {}, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("redis ping: %w", err)
	}
	return repository.NewRedisAccessTokenStore(client, cfg.RedisKeyPrefix, cfg.AccessTokenTTL), func() { _ = client.Close() }, nil
}
