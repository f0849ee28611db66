package models

import "time"

// Enrollment links a student to a course. Progress is a 0..100 percentage of
// completed materials, recomputed on each completion.
type Enrollment struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	CourseID     uint       `gorm:"index;not null;uniqueIndex:idx_course_student" json:"course_id"`
	StudentID    uint       `gorm:"index;not null;uniqueIndex:idx_course_student" json:"student_id"`
	EnrolledAt   time.Time  `gorm:"not null" json:"enrolled_at"`
	Progress     float64    `gorm:"default:0" json:"progress"`
	LastAccessed *time.Time `json:"last_accessed,omitempty"`
	IsActive     bool       `gorm:"default:true;not null" json:"is_active"`
}

// MaterialCompletion marks a single material as completed inside an enrollment.
type MaterialCompletion struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	EnrollmentID uint      `gorm:"index;not null;uniqueIndex:idx_enrollment_material" json:"enrollment_id"`
	MaterialID   uint      `gorm:"index;not null;uniqueIndex:idx_enrollment_material" json:"material_id"`
	CompletedAt  time.Time `gorm:"not null" json:"completed_at"`
}
