package models

import "time"

// Assignment belongs to a course. SubmissionType is "text", "file" or "both".
type Assignment struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	CourseID       uint      `gorm:"index;not null" json:"course_id"`
	Title          string    `gorm:"size:255;not null" json:"title"`
	Description    string    `gorm:"size:2048" json:"description"`
	DueDate        time.Time `gorm:"not null" json:"due_date"`
	MaxPoints      float64   `gorm:"default:100" json:"max_points"`
	SubmissionType string    `gorm:"size:16;default:file" json:"submission_type"`
	IsActive       bool      `gorm:"default:true;not null" json:"is_active"`
}

// Submission is a student's answer to an assignment; one per student.
type Submission struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	AssignmentID uint       `gorm:"index;not null;uniqueIndex:idx_assignment_student" json:"assignment_id"`
	StudentID    uint       `gorm:"index;not null;uniqueIndex:idx_assignment_student" json:"student_id"`
	CourseID     uint       `gorm:"index;not null" json:"course_id"`
	TextContent  string     `gorm:"size:8192" json:"text_content"`
	FilePath     string     `gorm:"size:512" json:"file_path"`
	FileName     string     `gorm:"size:255" json:"file_name"`
	SubmittedAt  time.Time  `gorm:"not null" json:"submitted_at"`
	Status       string     `gorm:"size:16;default:submitted" json:"status"` // submitted | graded
	Grade        *float64   `json:"grade"`
	Feedback     string     `gorm:"size:2048" json:"feedback"`
	GradedAt     *time.Time `json:"graded_at,omitempty"`
	GradedBy     *uint      `json:"graded_by,omitempty"`
}
