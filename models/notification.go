package models

import "time"

// Notification is an in-app message for a single user.
// Type is one of info, success, warning, error.
type Notification struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	UserID    uint       `gorm:"index;not null" json:"user_id"`
	Title     string     `gorm:"size:255;not null" json:"title"`
	Message   string     `gorm:"size:1024;not null" json:"message"`
	Type      string     `gorm:"size:16;default:info" json:"type"`
	Link      string     `gorm:"size:512" json:"link"`
	Read      bool       `gorm:"default:false;not null;index" json:"read"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
}
