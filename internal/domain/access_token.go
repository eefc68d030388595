package domain

import "time"

const DefaultAccessTokenName = "auth_token"

// AccessToken is a persisted bearer credential. Only the digest of the secret is stored;
// the plaintext "<id>|<secret>" form is handed to the client once at issue time.
type AccessToken struct {
	ID         string     `gorm:"primaryKey;size:36" json:"id"`
	UserID     uint       `gorm:"index;not null" json:"user_id"`
	Name       string     `gorm:"size:255;not null" json:"name"`
	TokenHash  string     `gorm:"uniqueIndex;size:64;not null" json:"-"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (t *AccessToken) ExpiredAt(now time.Time, ttl time.Duration) bool {
	if ttl <= 0 {
		return false
	}
	return !now.Before(t.CreatedAt.Add(ttl))
}
