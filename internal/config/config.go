package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	TokenStoreDatabase = "database"
	TokenStoreRedis    = "redis"
)

type Config struct {
	Env      string
	HTTPPort string

	DatabaseURL string

	TokenStore     string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	RedisKeyPrefix string

	// AccessTokenTTL of zero means tokens live until revoked.
	AccessTokenTTL                   time.Duration
	AuthRevokeTokensOnPasswordChange bool

	CORSAllowedOrigins    []string
	RequestTimeout        time.Duration
	RequestBodyLimitBytes int64

	ReadinessProbeTimeout        time.Duration
	ServerStartGracePeriod       time.Duration
	ShutdownTimeout              time.Duration
	ShutdownHTTPDrainTimeout     time.Duration
	ShutdownObservabilityTimeout time.Duration

	OTELServiceName           string
	OTELEnvironment           string
	OTELExporterOTLPEndpoint  string
	OTELExporterOTLPInsecure  bool
	OTELMetricsExportInterval time.Duration
	OTELTraceSamplingRatio    float64
	OTELMetricsEnabled        bool
	OTELTracingEnabled        bool
	OTELLogsEnabled           bool
	OTELLogLevel              string
}

func Load() (*Config, error) {
	env := getEnv("APP_ENV", "development")
	otelDefault := !isLocalLikeEnv(env)

	cfg := &Config{
		Env:                              env,
		HTTPPort:                         getEnv("HTTP_PORT", "8080"),
		DatabaseURL:                      os.Getenv("DATABASE_URL"),
		TokenStore:                       strings.ToLower(strings.TrimSpace(getEnv("TOKEN_STORE", TokenStoreDatabase))),
		RedisAddr:                        getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:                    os.Getenv("REDIS_PASSWORD"),
		RedisDB:                          getEnvInt("REDIS_DB", 0),
		RedisKeyPrefix:                   getEnv("REDIS_KEY_PREFIX", "bearer_auth"),
		AuthRevokeTokensOnPasswordChange: getEnvBool("AUTH_REVOKE_TOKENS_ON_PASSWORD_CHANGE", false),
		CORSAllowedOrigins:               splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		RequestBodyLimitBytes:            int64(getEnvInt("REQUEST_BODY_LIMIT_BYTES", 1<<20)),

		OTELServiceName:          getEnv("OTEL_SERVICE_NAME", "bearer-auth-api"),
		OTELEnvironment:          getEnv("OTEL_ENVIRONMENT", env),
		OTELExporterOTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OTELExporterOTLPInsecure: getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", true),
		OTELTraceSamplingRatio:   getEnvFloat("OTEL_TRACE_SAMPLING_RATIO", 1.0),
		OTELMetricsEnabled:       getEnvBool("OTEL_METRICS_ENABLED", otelDefault),
		OTELTracingEnabled:       getEnvBool("OTEL_TRACING_ENABLED", otelDefault),
		OTELLogsEnabled:          getEnvBool("OTEL_LOGS_ENABLED", otelDefault),
		OTELLogLevel:             strings.ToLower(getEnv("OTEL_LOG_LEVEL", "info")),
	}

	durations := []struct {
		key string
		def string
		dst *time.Duration
	}{
		{"ACCESS_TOKEN_TTL", "0s", &cfg.AccessTokenTTL},
		{"REQUEST_TIMEOUT", "10s", &cfg.RequestTimeout},
		{"READINESS_PROBE_TIMEOUT", "1s", &cfg.ReadinessProbeTimeout},
		{"SERVER_START_GRACE_PERIOD", "0s", &cfg.ServerStartGracePeriod},
		{"SHUTDOWN_TIMEOUT", "20s", &cfg.ShutdownTimeout},
		{"SHUTDOWN_HTTP_DRAIN_TIMEOUT", "10s", &cfg.ShutdownHTTPDrainTimeout},
		{"SHUTDOWN_OBSERVABILITY_TIMEOUT", "8s", &cfg.ShutdownObservabilityTimeout},
		{"OTEL_METRICS_EXPORT_INTERVAL", "10s", &cfg.OTELMetricsExportInterval},
	}
	for _, d := range durations {
		v, err := time.ParseDuration(getEnv(d.key, d.def))
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", d.key, err)
		}
		*d.dst = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []string
	if c.DatabaseURL == "" {
		errs = append(errs, "DATABASE_URL is required")
	}
	switch c.TokenStore {
	case TokenStoreDatabase:
	case TokenStoreRedis:
		if strings.TrimSpace(c.RedisAddr) == "" {
			errs = append(errs, "REDIS_ADDR is required when TOKEN_STORE=redis")
		}
		if strings.TrimSpace(c.RedisKeyPrefix) == "" {
			errs = append(errs, "REDIS_KEY_PREFIX must not be empty when TOKEN_STORE=redis")
		}
	default:
		errs = append(errs, "TOKEN_STORE must be one of database, redis")
	}
	if c.RedisDB < 0 {
		errs = append(errs, "REDIS_DB must be >= 0")
	}
	if c.AccessTokenTTL < 0 {
		errs = append(errs, "ACCESS_TOKEN_TTL must be >= 0 (0 disables expiry)")
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, "REQUEST_TIMEOUT must be > 0")
	}
	if c.RequestBodyLimitBytes <= 0 {
		errs = append(errs, "REQUEST_BODY_LIMIT_BYTES must be > 0")
	}
	if c.ReadinessProbeTimeout <= 0 {
		errs = append(errs, "READINESS_PROBE_TIMEOUT must be > 0")
	}
	if c.ServerStartGracePeriod < 0 {
		errs = append(errs, "SERVER_START_GRACE_PERIOD must be >= 0")
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, "SHUTDOWN_TIMEOUT must be > 0")
	}
	if c.ShutdownHTTPDrainTimeout <= 0 || c.ShutdownHTTPDrainTimeout > c.ShutdownTimeout {
		errs = append(errs, "SHUTDOWN_HTTP_DRAIN_TIMEOUT must be > 0 and <= SHUTDOWN_TIMEOUT")
	}
	if c.ShutdownObservabilityTimeout <= 0 || c.ShutdownObservabilityTimeout > c.ShutdownTimeout {
		errs = append(errs, "SHUTDOWN_OBSERVABILITY_TIMEOUT must be > 0 and <= SHUTDOWN_TIMEOUT")
	}
	if (c.OTELMetricsEnabled || c.OTELTracingEnabled || c.OTELLogsEnabled) && c.OTELExporterOTLPEndpoint == "" {
		errs = append(errs, "OTEL_EXPORTER_OTLP_ENDPOINT is required when OTel is enabled")
	}
	if c.OTELTraceSamplingRatio < 0 || c.OTELTraceSamplingRatio > 1 {
		errs = append(errs, "OTEL_TRACE_SAMPLING_RATIO must be between 0 and 1")
	}
	if c.OTELMetricsExportInterval <= 0 {
		errs = append(errs, "OTEL_METRICS_EXPORT_INTERVAL must be > 0")
	}
	if !isValidLogLevel(c.OTELLogLevel) {
		errs = append(errs, "OTEL_LOG_LEVEL must be one of debug, info, warn, error")
	}
	if !isLocalLikeEnv(c.Env) {
		for _, origin := range c.CORSAllowedOrigins {
			if origin == "*" {
				errs = append(errs, "CORS_ALLOWED_ORIGINS must not contain * outside local environments")
				break
			}
		}
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) RedisEnabled() bool {
	return c.TokenStore == TokenStoreRedis
}

func isLocalLikeEnv(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "development", "dev", "local", "test":
		return true
	default:
		return false
	}
}

func isValidLogLevel(v string) bool {
	switch strings.ToLower(v) {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

func getEnv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getEnvFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		trim := strings.TrimSpace(p)
		if trim != "" {
			out = append(out, trim)
		}
	}
	return out
}
