package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sandeepkv93/bearer-auth-api/internal/domain"
	"github.com/sandeepkv93/bearer-auth-api/internal/repository"
	"github.com/sandeepkv93/bearer-auth-api/internal/security"
)

// ProfileUpdate holds the whitelisted profile fields. A nil field is left unchanged.
type ProfileUpdate struct {
	Name  *string
	Email *string
}

type ChangePasswordInput struct {
	CurrentPassword         string
	NewPassword             string
	NewPasswordConfirmation string
}

func (s *AuthService) Profile(ctx context.Context, userID uint) (*domain.User, error) {
	return s.userRepo.FindByID(ctx, userID)
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID uint, in ProfileUpdate) (*domain.User, error) {
	updates := make(map[string]any, 2)
	v := &ValidationError{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		validateName(v, "name", name)
		updates["name"] = name
	}
	if in.Email != nil {
		email := normalizeEmail(*in.Email)
		validateEmail(v, "email", email)
		updates["email"] = email
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	if email, ok := updates["email"].(string); ok {
		owner, err := s.userRepo.FindByEmail(ctx, email)
		switch {
		case err == nil && owner.ID != userID:
			return nil, ErrEmailTaken
		case err != nil && !errors.Is(err, repository.ErrUserNotFound):
			return nil, fmt.Errorf("lookup user by email: %w", err)
		}
	}

	user, err := s.userRepo.UpdateProfile(ctx, userID, updates)
	if err != nil {
		if errors.Is(err, repository.ErrEmailTaken) || errors.Is(err, repository.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return user, nil
}

// ChangePassword replaces the stored hash after checking the current password.
// Existing tokens stay valid unless AUTH_REVOKE_TOKENS_ON_PASSWORD_CHANGE is set.
func (s *AuthService) ChangePassword(ctx context.Context, userID uint, in ChangePasswordInput) error {
	v := &ValidationError{}
	requirePresent(v, "current_password", in.CurrentPassword)
	validatePassword(v, "new_password", "new password", in.NewPassword)
	if in.NewPasswordConfirmation != "" && in.NewPasswordConfirmation != in.NewPassword {
		v.Add("new_password", "The new password field confirmation does not match.")
	}
	if in.CurrentPassword != "" && in.CurrentPassword == in.NewPassword {
		v.Add("new_password", "The new password field and current password must be different.")
	}
	if err := v.OrNil(); err != nil {
		return err
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	ok, err := security.VerifyPassword(user.PasswordHash, in.CurrentPassword)
	if err != nil {
		return fmt.Errorf("verify current password: %w", err)
	}
	if !ok {
		return ErrCurrentPasswordIncorrect
	}

	hash, err := security.HashPassword(in.NewPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.userRepo.UpdatePasswordHash(ctx, userID, hash); err != nil {
		return fmt.Errorf("store password hash: %w", err)
	}
	if s.cfg != nil && s.cfg.AuthRevokeTokensOnPasswordChange {
		if _, err := s.tokenSvc.RevokeAll(ctx, userID); err != nil {
			return err
		}
	}
	return nil
}
