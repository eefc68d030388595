package di

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/sandeepkv93/bearer-auth-api/internal/config"
	"github.com/sandeepkv93/bearer-auth-api/internal/database"
	"github.com/sandeepkv93/bearer-auth-api/internal/http/handler"
	"github.com/sandeepkv93/bearer-auth-api/internal/http/router"
	"github.com/sandeepkv93/bearer-auth-api/internal/observability"
	"github.com/sandeepkv93/bearer-auth-api/internal/repository"
	"github.com/sandeepkv93/bearer-auth-api/internal/service"
)

func TestProvideHTTPServer(t *testing.T) {
	cfg := &config.Config{HTTPPort: "9999", RequestTimeout: 10 * time.Second}
	srv := provideHTTPServer(cfg, nil)
	if srv.Addr != ":9999" {
		t.Fatalf("unexpected addr: %s", srv.Addr)
	}
	if srv.ReadTimeout.Seconds() != 10 {
		t.Fatalf("unexpected read timeout: %v", srv.ReadTimeout)
	}
	if srv.WriteTimeout <= cfg.RequestTimeout {
		t.Fatalf("write timeout %v must exceed request timeout %v", srv.WriteTimeout, cfg.RequestTimeout)
	}
}

func TestProvideRouterDependencies(t *testing.T) {
	cfg := &config.Config{
		CORSAllowedOrigins:    []string{"http://localhost:3000"},
		RequestBodyLimitBytes: 4096,
		RequestTimeout:        3 * time.Second,
		OTELMetricsEnabled:    true,
	}
	dep := provideRouterDependencies(nil, nil, nil, nil, cfg)
	if dep.BodyLimitBytes != 4096 || dep.RequestTimeout != 3*time.Second {
		t.Fatalf("unexpected limits: %+v", dep)
	}
	if !dep.EnableOTelHTTP {
		t.Fatal("expected otel http enabled")
	}
	if len(dep.CORSOrigins) != 1 || dep.CORSOrigins[0] != "http://localhost:3000" {
		t.Fatalf("unexpected cors origins: %+v", dep.CORSOrigins)
	}
	_ = router.Dependencies(dep)
}

func TestProvideRedisClient(t *testing.T) {
	disabled := &config.Config{TokenStore: config.TokenStoreDatabase}
	if c := provideRedisClient(disabled, slog.Default()); c != nil {
		t.Fatal("expected no redis client for database token store")
	}

	enabled := &config.Config{
		TokenStore:    config.TokenStoreRedis,
		RedisAddr:     "redis.internal:6379",
		RedisPassword: "redis-pass",
		RedisDB:       2,
	}
	c := provideRedisClient(enabled, slog.Default())
	if c == nil {
		t.Fatal("expected redis client")
	}
	t.Cleanup(func() { _ = c.Close() })
	opts := c.Options()
	if opts.Addr != "redis.internal:6379" || opts.Password != "redis-pass" || opts.DB != 2 {
		t.Fatalf("unexpected redis options: addr=%s db=%d", opts.Addr, opts.DB)
	}
}

func TestProvideAccessTokenStoreSelectsBackend(t *testing.T) {
	db := newDIUnitTestDB(t)

	dbStore := provideAccessTokenStore(&config.Config{TokenStore: config.TokenStoreDatabase}, db, nil)
	if _, ok := dbStore.(*repository.GormAccessTokenRepository); !ok {
		t.Fatalf("expected gorm store, got %T", dbStore)
	}

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	redisCfg := &config.Config{TokenStore: config.TokenStoreRedis, RedisKeyPrefix: "di_test"}
	redisStore := provideAccessTokenStore(redisCfg, db, client)
	if _, ok := redisStore.(*repository.RedisAccessTokenStore); !ok {
		t.Fatalf("expected redis store, got %T", redisStore)
	}

	fallback := provideAccessTokenStore(redisCfg, db, nil)
	if _, ok := fallback.(*repository.GormAccessTokenRepository); !ok {
		t.Fatalf("expected gorm fallback without a client, got %T", fallback)
	}
}

func TestProvideReadinessProbeRunner(t *testing.T) {
	db := newDIUnitTestDB(t)
	cfg := &config.Config{TokenStore: config.TokenStoreDatabase, ReadinessProbeTimeout: time.Second}

	ready, results := provideReadinessProbeRunner(cfg, db, nil).Ready(context.Background())
	if !ready {
		t.Fatalf("expected ready: %+v", results)
	}
	if len(results) != 2 || results[0].Name != "db" || results[1].Name != "schema" {
		t.Fatalf("unexpected checks: %+v", results)
	}

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cfg.TokenStore = config.TokenStoreRedis
	ready, results = provideReadinessProbeRunner(cfg, db, client).Ready(context.Background())
	if !ready || len(results) != 3 || results[2].Name != "redis" {
		t.Fatalf("expected redis check included: ready=%v %+v", ready, results)
	}

	mr.Close()
	ready, _ = provideReadinessProbeRunner(cfg, db, client).Ready(context.Background())
	if ready {
		t.Fatal("expected unready once redis is down")
	}
}

func TestProvideApp(t *testing.T) {
	cfg := &config.Config{HTTPPort: "8080"}
	logger := slog.Default()
	srv := &http.Server{Addr: ":8080", ReadHeaderTimeout: time.Second}
	runtime := &observability.Runtime{}

	app := provideApp(cfg, logger, srv, runtime, nil, nil)
	if app == nil {
		t.Fatal("expected app")
	}
	if app.Config != cfg || app.Logger != logger || app.Server != srv || app.Observability != runtime {
		t.Fatal("app dependencies not wired as expected")
	}
}

func TestMigrationRunnerCreatesSchema(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := NewMigrationRunner(db, slog.Default()).Run(); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	missing, err := database.MissingTables(db)
	if err != nil {
		t.Fatalf("missing tables: %v", err)
	}
	if len(missing) != 0 {
		t.Fatalf("expected schema complete, missing %v", missing)
	}
}

func TestProvidersComposeServingRouter(t *testing.T) {
	db := newDIUnitTestDB(t)
	cfg := &config.Config{
		Env:                   "test",
		TokenStore:            config.TokenStoreDatabase,
		CORSAllowedOrigins:    []string{"http://localhost:3000"},
		RequestBodyLimitBytes: 1 << 20,
		RequestTimeout:        5 * time.Second,
		ReadinessProbeTimeout: time.Second,
	}

	store := provideAccessTokenStore(cfg, db, nil)
	authSvc := service.NewAuthService(cfg, repository.NewUserRepository(db), provideTokenService(cfg, store))
	dep := provideRouterDependencies(
		handler.NewAuthHandler(authSvc),
		handler.NewUserHandler(authSvc),
		authSvc,
		provideReadinessProbeRunner(cfg, db, nil),
		cfg,
	)
	h := router.NewRouter(dep)

	body := `{"name":"Ann","email":"ann@x.io","password":"Secret123"}`
	req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected ready, got %d: %s", rr.Code, rr.Body.String())
	}
}

func newDIUnitTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}
