package repository

//go:generate mockgen -source=user_repository.go -destination=gomock/user_repository_mock.go -package=gomock

import (
	"context"
	"errors"
	"strings"

	"github.com/sandeepkv93/bearer-auth-api/internal/domain"
	"github.com/sandeepkv93/bearer-auth-api/internal/observability"

	"gorm.io/gorm"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already taken")
)

type UserRepository interface {
	FindByID(ctx context.Context, id uint) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id uint) error
	UpdateProfile(ctx context.Context, id uint, updates map[string]any) (*domain.User, error)
	UpdatePasswordHash(ctx context.Context, id uint, hash string) error
}

type GormUserRepository struct{ db *gorm.DB }

func NewUserRepository(db *gorm.DB) UserRepository { return &GormUserRepository{db: db} }

func (r *GormUserRepository) FindByID(ctx context.Context, id uint) (*domain.User, error) {
	var u domain.User
	if err := r.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, r.result(ctx, "find_by_id", mapUserError(err))
	}
	observability.RecordRepositoryOperation(ctx, "user", "find_by_id", "success")
	return &u, nil
}

func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, r.result(ctx, "find_by_email", mapUserError(err))
	}
	observability.RecordRepositoryOperation(ctx, "user", "find_by_email", "success")
	return &u, nil
}

func (r *GormUserRepository) Create(ctx context.Context, user *domain.User) error {
	return r.result(ctx, "create", mapUserError(r.db.WithContext(ctx).Create(user).Error))
}

func (r *GormUserRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&domain.User{}, id)
	if res.Error != nil {
		return r.result(ctx, "delete", res.Error)
	}
	if res.RowsAffected == 0 {
		return r.result(ctx, "delete", ErrUserNotFound)
	}
	return r.result(ctx, "delete", nil)
}

// UpdateProfile applies whitelisted column updates and returns the fresh row.
func (r *GormUserRepository) UpdateProfile(ctx context.Context, id uint, updates map[string]any) (*domain.User, error) {
	var u domain.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			res := tx.Model(&domain.User{}).Where("id = ?", id).Updates(updates)
			if res.Error != nil {
				return res.Error
			}
		}
		return tx.First(&u, id).Error
	})
	if err != nil {
		return nil, r.result(ctx, "update_profile", mapUserError(err))
	}
	observability.RecordRepositoryOperation(ctx, "user", "update_profile", "success")
	return &u, nil
}

func (r *GormUserRepository) UpdatePasswordHash(ctx context.Context, id uint, hash string) error {
	res := r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).Update("password_hash", hash)
	if res.Error != nil {
		return r.result(ctx, "update_password", res.Error)
	}
	if res.RowsAffected == 0 {
		return r.result(ctx, "update_password", ErrUserNotFound)
	}
	return r.result(ctx, "update_password", nil)
}

func (r *GormUserRepository) result(ctx context.Context, op string, err error) error {
	switch {
	case err == nil:
		observability.RecordRepositoryOperation(ctx, "user", op, "success")
	case errors.Is(err, ErrUserNotFound):
		observability.RecordRepositoryOperation(ctx, "user", op, "not_found")
	case errors.Is(err, ErrEmailTaken):
		observability.RecordRepositoryOperation(ctx, "user", op, "conflict")
	default:
		observability.RecordRepositoryOperation(ctx, "user", op, "error")
	}
	return err
}

func mapUserError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrUserNotFound
	case isUniqueViolation(err):
		return ErrEmailTaken
	default:
		return err
	}
}

// isUniqueViolation covers drivers opened without TranslateError.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
