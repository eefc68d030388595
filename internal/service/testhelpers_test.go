package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sandeepkv93/bearer-auth-api/internal/config"
	"github.com/sandeepkv93/bearer-auth-api/internal/database"
	"github.com/sandeepkv93/bearer-auth-api/internal/domain"
	"github.com/sandeepkv93/bearer-auth-api/internal/repository"
	"github.com/sandeepkv93/bearer-auth-api/internal/security"
)

const fixturePassword = "Secret123"

type authServiceFixture struct {
	cfg      *config.Config
	db       *gorm.DB
	users    repository.UserRepository
	tokens   repository.AccessTokenStore
	tokenSvc *TokenService
	auth     *AuthService
}

func newAuthServiceFixture(t *testing.T) *authServiceFixture {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
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

	cfg := &config.Config{Env: "test"}
	users := repository.NewUserRepository(db)
	tokens := repository.NewAccessTokenRepository(db)
	tokenSvc := NewTokenService(tokens, 0)
	return &authServiceFixture{
		cfg:      cfg,
		db:       db,
		users:    users,
		tokens:   tokens,
		tokenSvc: tokenSvc,
		auth:     NewAuthService(cfg, users, tokenSvc),
	}
}

func (fx *authServiceFixture) seedUser(t *testing.T, name, email, password string) *domain.User {
	t.Helper()
	hash, err := security.HashPassword(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	u := &domain.User{Name: name, Email: email, PasswordHash: hash}
	if err := fx.users.Create(context.Background(), u); err != nil {
		t.Fatalf("seed user %s: %v", email, err)
	}
	return u
}

func (fx *authServiceFixture) tokenCount(t *testing.T, userID uint) int64 {
	t.Helper()
	var n int64
	if err := fx.db.Model(&domain.AccessToken{}).Where("user_id = ?", userID).Count(&n).Error; err != nil {
		t.Fatalf("count tokens: %v", err)
	}
	return n
}

func fieldErrors(t *testing.T, err error) map[string][]string {
	t.Helper()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %T (%v)", err, err)
	}
	return verr.Fields
}
