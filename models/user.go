package models

import (
	"time"
)

// User model. Role-specific columns (roll number, employee id, ...) stay
// empty for roles they do not apply to.
type User struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	Name           string     `gorm:"size:255;not null" json:"name"`
	Email          string     `gorm:"size:255;not null;uniqueIndex" json:"email"`
	HashedPassword []byte     `gorm:"not null" json:"-"`
	Role           string     `gorm:"size:32;not null;index" json:"role"`
	Phone          string     `gorm:"size:64" json:"phone"`
	ProfilePic     string     `gorm:"size:512" json:"profile_pic"`
	IsActive       bool       `gorm:"default:true;not null" json:"is_active"`
	LastLogin      *time.Time `json:"last_login,omitempty"`
	// TokensValidAfter invalidates every access token issued before it,
	// independent of the in-memory denylist. Set by logout-everywhere and by
	// admin deactivation; once set it only moves forward.
	TokensValidAfter *time.Time `json:"-"`

	// Student fields
	RollNumber  string  `gorm:"size:64;index" json:"roll_number,omitempty"`
	Department  string  `gorm:"size:255" json:"department,omitempty"`
	Year        string  `gorm:"size:32" json:"year,omitempty"`
	Semester    string  `gorm:"size:32" json:"semester,omitempty"`
	TotalPoints float64 `gorm:"default:0" json:"total_points"`

	// Teacher / admin fields
	EmployeeID  string `gorm:"size:64;index" json:"employee_id,omitempty"`
	Designation string `gorm:"size:255" json:"designation,omitempty"`
}
