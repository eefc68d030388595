package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sandeepkv93/bearer-auth-api/internal/config"
	"github.com/sandeepkv93/bearer-auth-api/internal/domain"
	"github.com/sandeepkv93/bearer-auth-api/internal/repository"
	"github.com/sandeepkv93/bearer-auth-api/internal/security"
)

const TokenTypeBearer = "Bearer"

type AuthService struct {
	cfg      *config.Config
	userRepo repository.UserRepository
	tokenSvc *TokenService
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

type LoginInput struct {
	Email    string
	Password string
}

type AuthResult struct {
	User        *domain.User
	AccessToken string
	TokenType   string
}

// Principal is the identity resolved from a verified bearer token.
type Principal struct {
	UserID  uint
	TokenID string
	User    *domain.User
}

func NewAuthService(cfg *config.Config, userRepo repository.UserRepository, tokenSvc *TokenService) *AuthService {
	return &AuthService{cfg: cfg, userRepo: userRepo, tokenSvc: tokenSvc}
}

// Validate reports field problems without touching storage.
func (in RegisterInput) Validate() error {
	v := &ValidationError{}
	validateName(v, "name", strings.TrimSpace(in.Name))
	validateEmail(v, "email", normalizeEmail(in.Email))
	validatePassword(v, "password", "password", in.Password)
	return v.OrNil()
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	email := normalizeEmail(in.Email)

	if _, err := s.userRepo.FindByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, fmt.Errorf("lookup user by email: %w", err)
	}

	hash, err := security.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &domain.User{Name: name, Email: email, PasswordHash: hash}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	plaintext, _, err := s.tokenSvc.Issue(ctx, user.ID)
	if err != nil {
		// Drop the account so the client can retry with the same email.
		if delErr := s.userRepo.Delete(ctx, user.ID); delErr != nil {
			slog.ErrorContext(ctx, "rollback registered user failed", "user_id", user.ID, "error", delErr)
			return nil, errors.Join(err, fmt.Errorf("rollback user: %w", delErr))
		}
		return nil, err
	}
	return &AuthResult{User: user, AccessToken: plaintext, TokenType: TokenTypeBearer}, nil
}

// Login verifies credentials and replaces every existing token of the user with a new one.
// Unknown email and wrong password both yield ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	email := normalizeEmail(in.Email)

	v := &ValidationError{}
	validateEmail(v, "email", email)
	requirePresent(v, "password", in.Password)
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			security.BurnPasswordCheck(in.Password)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user by email: %w", err)
	}
	ok, err := security.VerifyPassword(user.PasswordHash, in.Password)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	plaintext, _, err := s.tokenSvc.Rotate(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, AccessToken: plaintext, TokenType: TokenTypeBearer}, nil
}

// Logout revokes only the token the request was authenticated with.
func (s *AuthService) Logout(ctx context.Context, p Principal) error {
	return s.tokenSvc.RevokeOne(ctx, p.TokenID)
}

func (s *AuthService) Authenticate(ctx context.Context, presented string) (*Principal, error) {
	token, err := s.tokenSvc.Verify(ctx, presented)
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.FindByID(ctx, token.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("load token owner: %w", err)
	}
	return &Principal{UserID: user.ID, TokenID: token.ID, User: user}, nil
}

func (s *AuthService) ValidateToken(ctx context.Context, presented string) (*domain.User, error) {
	p, err := s.Authenticate(ctx, presented)
	if err != nil {
		return nil, err
	}
	return p.User, nil
}

// RevokeUserTokens revokes every token of the account with the given email.
func (s *AuthService) RevokeUserTokens(ctx context.Context, email string) (int64, error) {
	user, err := s.userRepo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return 0, err
	}
	return s.tokenSvc.RevokeAll(ctx, user.ID)
}
