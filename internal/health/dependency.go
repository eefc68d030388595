package health

import (
	"context"
	"strings"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/sandeepkv93/bearer-auth-api/internal/database"
)

type DBChecker struct {
	db *gorm.DB
}

func NewDBChecker(db *gorm.DB) Checker {
	if db == nil {
		return nil
	}
	return &DBChecker{db: db}
}

func (c *DBChecker) Check(ctx context.Context) CheckResult {
	res := CheckResult{Name: "db", Healthy: true}
	sqlDB, err := c.db.DB()
	if err != nil {
		res.Healthy = false
		res.Error = err.Error()
		return res
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		res.Healthy = false
		res.Error = err.Error()
	}
	return res
}

// SchemaChecker reports unready until the users and access_tokens tables exist.
type SchemaChecker struct {
	db *gorm.DB
}

func NewSchemaChecker(db *gorm.DB) Checker {
	if db == nil {
		return nil
	}
	return &SchemaChecker{db: db}
}

func (c *SchemaChecker) Check(ctx context.Context) CheckResult {
	res := CheckResult{Name: "schema", Healthy: true}
	missing, err := database.MissingTables(c.db.WithContext(ctx))
	if err != nil {
		res.Healthy = false
		res.Error = err.Error()
		return res
	}
	if len(missing) > 0 {
		res.Healthy = false
		res.Error = "missing tables: " + strings.Join(missing, ",")
	}
	return res
}

type RedisChecker struct {
	client redis.UniversalClient
}

func NewRedisChecker(client redis.UniversalClient) Checker {
	if client == nil {
		return nil
	}
	return &RedisChecker{client: client}
}

func (c *RedisChecker) Check(ctx context.Context) CheckResult {
	res := CheckResult{Name: "redis", Healthy: true}
	if err := c.client.Ping(ctx).Err(); err != nil {
		res.Healthy = false
		res.Error = err.Error()
	}
	return res
}
