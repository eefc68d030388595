package repository

//go:generate mockgen -source=access_token_repository.go -destination=gomock/access_token_store_mock.go -package=gomock

import (
	"context"
	"errors"
	"time"

	"github.com/sandeepkv93/bearer-auth-api/internal/domain"
	"github.com/sandeepkv93/bearer-auth-api/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrAccessTokenNotFound = errors.New("access token not found")

type AccessTokenStore interface {
	Create(ctx context.Context, token *domain.AccessToken) error
	FindByID(ctx context.Context, id string) (*domain.AccessToken, error)
	DeleteByID(ctx context.Context, id string) (int64, error)
	DeleteByUserID(ctx context.Context, userID uint) (int64, error)
	// ReplaceForUser revokes every token of token.UserID and stores token as one atomic unit.
	ReplaceForUser(ctx context.Context, token *domain.AccessToken) (int64, error)
	TouchLastUsed(ctx context.Context, id string, at time.Time) error
	DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type GormAccessTokenRepository struct{ db *gorm.DB }

func NewAccessTokenRepository(db *gorm.DB) AccessTokenStore {
	return &GormAccessTokenRepository{db: db}
}

func (r *GormAccessTokenRepository) Create(ctx context.Context, token *domain.AccessToken) error {
	normalizeTokenTimes(token)
	err := r.db.WithContext(ctx).Create(token).Error
	recordTokenOp(ctx, "create", err)
	return err
}

func (r *GormAccessTokenRepository) FindByID(ctx context.Context, id string) (*domain.AccessToken, error) {
	var t domain.AccessToken
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = ErrAccessTokenNotFound
		}
		recordTokenOp(ctx, "find_by_id", err)
		return nil, err
	}
	recordTokenOp(ctx, "find_by_id", nil)
	return &t, nil
}

func (r *GormAccessTokenRepository) DeleteByID(ctx context.Context, id string) (int64, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.AccessToken{})
	recordTokenOp(ctx, "delete_by_id", res.Error)
	return res.RowsAffected, res.Error
}

func (r *GormAccessTokenRepository) DeleteByUserID(ctx context.Context, userID uint) (int64, error) {
	res := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&domain.AccessToken{})
	recordTokenOp(ctx, "delete_by_user_id", res.Error)
	return res.RowsAffected, res.Error
}

// ReplaceForUser locks the owning user row so concurrent logins for the same
// account serialize. SQLite ignores the locking clause; its write transaction
// already holds the database lock.
func (r *GormAccessTokenRepository) ReplaceForUser(ctx context.Context, token *domain.AccessToken) (int64, error) {
	normalizeTokenTimes(token)
	var revoked int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owner domain.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").First(&owner, token.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		res := tx.Where("user_id = ?", token.UserID).Delete(&domain.AccessToken{})
		if res.Error != nil {
			return res.Error
		}
		revoked = res.RowsAffected
		return tx.Create(token).Error
	})
	recordTokenOp(ctx, "replace_for_user", err)
	if err != nil {
		return 0, err
	}
	return revoked, nil
}

func (r *GormAccessTokenRepository) TouchLastUsed(ctx context.Context, id string, at time.Time) error {
	err := r.db.WithContext(ctx).Model(&domain.AccessToken{}).Where("id = ?", id).
		UpdateColumns(map[string]any{"last_used_at": at.UTC(), "updated_at": at.UTC()}).Error
	recordTokenOp(ctx, "touch_last_used", err)
	return err
}

func (r *GormAccessTokenRepository) DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("created_at < ?", cutoff.UTC()).Delete(&domain.AccessToken{})
	recordTokenOp(ctx, "delete_created_before", res.Error)
	return res.RowsAffected, res.Error
}

// normalizeTokenTimes stores timestamps in UTC. SQLite keeps them as text, so
// created_at comparisons only order correctly when every row shares one zone.
func normalizeTokenTimes(token *domain.AccessToken) {
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now()
	}
	token.CreatedAt = token.CreatedAt.UTC()
	if token.UpdatedAt.IsZero() {
		token.UpdatedAt = token.CreatedAt
	}
	token.UpdatedAt = token.UpdatedAt.UTC()
	if token.LastUsedAt != nil {
		at := token.LastUsedAt.UTC()
		token.LastUsedAt = &at
	}
}

func recordTokenOp(ctx context.Context, op string, err error) {
	switch {
	case err == nil:
		observability.RecordRepositoryOperation(ctx, "access_token", op, "success")
	case errors.Is(err, ErrAccessTokenNotFound), errors.Is(err, ErrUserNotFound):
		observability.RecordRepositoryOperation(ctx, "access_token", op, "not_found")
	default:
		observability.RecordRepositoryOperation(ctx, "access_token", op, "error")
	}
}
