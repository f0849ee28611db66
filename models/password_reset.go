package models

import "time"

// PasswordResetToken is a single-use, time-boxed reset token, hashed at rest.
type PasswordResetToken struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	UserID    uint       `gorm:"index;not null" json:"user_id"`
	TokenHash string     `gorm:"size:128;not null;uniqueIndex" json:"-"`
	ExpiresAt time.Time  `gorm:"index;not null" json:"expires_at"`
	Used      bool       `gorm:"default:false;not null" json:"used"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
}
