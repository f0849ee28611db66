package models

import "time"

// RefreshToken stores a hashed representation of a refresh token for session
// rotation and revocation. The raw value is never persisted.
type RefreshToken struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	TokenHash string    `gorm:"size:128;not null;uniqueIndex" json:"-"`
	ExpiresAt time.Time `gorm:"index;not null" json:"expires_at"`
	// IsActive flips false exactly once (logout, logout-everywhere or
	// rotation) and never back.
	IsActive  bool       `gorm:"default:true;not null;index" json:"is_active"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
}
