package service

//go:generate mockgen -source=interfaces.go -destination=gomock/interfaces_mock.go -package=gomock

import (
	"context"

	"github.com/sandeepkv93/bearer-auth-api/internal/domain"
)

type AuthServiceInterface interface {
	Register(ctx context.Context, in RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, in LoginInput) (*AuthResult, error)
	Logout(ctx context.Context, p Principal) error
	Authenticate(ctx context.Context, presented string) (*Principal, error)
	ValidateToken(ctx context.Context, presented string) (*domain.User, error)
	Profile(ctx context.Context, userID uint) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID uint, in ProfileUpdate) (*domain.User, error)
	ChangePassword(ctx context.Context, userID uint, in ChangePasswordInput) error
}

// Authenticator resolves a presented bearer token to a Principal.
type Authenticator interface {
	Authenticate(ctx context.Context, presented string) (*Principal, error)
}

var (
	_ AuthServiceInterface = (*AuthService)(nil)
	_ Authenticator        = (*AuthService)(nil)
)
