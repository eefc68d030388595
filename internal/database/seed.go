package database

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/sandeepkv93/bearer-auth-api/internal/domain"
)

// MarkEmailVerified stamps email_verified_at on the user with the given email.
// It is a no-op when the user is already verified.
func MarkEmailVerified(db *gorm.DB, email string, at time.Time) error {
	email = strings.ToLower(strings.TrimSpace(email))
	res := db.Model(&domain.User{}).
		Where("email = ? AND email_verified_at IS NULL", email).
		Update("email_verified_at", at.UTC())
	if res.Error != nil {
		return fmt.Errorf("mark email verified: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := db.Model(&domain.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
			return fmt.Errorf("lookup user: %w", err)
		}
		if count == 0 {
			return fmt.Errorf("user %s not found", email)
		}
	}
	return nil
}
