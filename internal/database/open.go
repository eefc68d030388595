package database

import (
	"fmt"
	"strings"
	"time"

	"github.com/sandeepkv93/bearer-auth-api/internal/config"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const sqliteScheme = "sqlite://"

// Open picks the driver from DATABASE_URL: "sqlite://<path>" or "file:<dsn>" open
// SQLite, anything else is handed to the postgres driver.
func Open(cfg *config.Config) (*gorm.DB, error) {
	dialector, driver := dialectorFor(cfg.DatabaseURL)
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}
	if driver == "sqlite" {
		// One writer at a time; also keeps shared in-memory databases alive.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}
	return db, nil
}

func dialectorFor(url string) (gorm.Dialector, string) {
	switch {
	case strings.HasPrefix(url, sqliteScheme):
		return sqlite.Open(strings.TrimPrefix(url, sqliteScheme)), "sqlite"
	case strings.HasPrefix(url, "file:"):
		return sqlite.Open(url), "sqlite"
	default:
		return postgres.Open(url), "postgres"
	}
}
