package models

import "time"

// Course is taught by exactly one teacher. MaxStudents 0 means unlimited.
type Course struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Description string    `gorm:"size:2048" json:"description"`
	Category    string    `gorm:"size:128;index" json:"category"`
	TeacherID   uint      `gorm:"index;not null" json:"teacher_id"`
	Difficulty  string    `gorm:"size:32;default:Beginner" json:"difficulty"`
	Duration    string    `gorm:"size:64" json:"duration"`
	Thumbnail   string    `gorm:"size:512" json:"thumbnail"`
	IsActive    bool      `gorm:"default:true;not null" json:"is_active"`
	IsPublic    bool      `gorm:"default:true;not null" json:"is_public"`
	MaxStudents int       `gorm:"default:0" json:"max_students"`
}

// Material is a course content item: pdf, video, document or link.
type Material struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	CourseID    uint      `gorm:"index;not null" json:"course_id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Description string    `gorm:"size:1024" json:"description"`
	Type        string    `gorm:"size:32;not null" json:"type"`
	Content     string    `gorm:"size:1024;not null" json:"content"` // file path or URL
	Position    int       `gorm:"default:0" json:"position"`
	IsRequired  bool      `gorm:"default:false" json:"is_required"`
	UploadedBy  uint      `gorm:"index" json:"uploaded_by"`
}
