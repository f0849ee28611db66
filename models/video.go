package models

import "time"

// Video is an uploaded lecture recording attached to a course.
type Video struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	CourseID    uint      `gorm:"index;not null" json:"course_id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Description string    `gorm:"size:2048" json:"description"`
	FilePath    string    `gorm:"size:512;not null" json:"file_path"`
	ContentType string    `gorm:"size:128" json:"content_type"`
	Size        int64     `json:"size"`
	UploadedBy  uint      `gorm:"index" json:"uploaded_by"`
}

// VideoProgress accumulates a student's watch time for one video.
type VideoProgress struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UpdatedAt      time.Time `json:"updated_at"`
	VideoID        uint      `gorm:"index;not null;uniqueIndex:idx_video_student" json:"video_id"`
	StudentID      uint      `gorm:"index;not null;uniqueIndex:idx_video_student" json:"student_id"`
	WatchedSeconds int       `gorm:"default:0" json:"watched_seconds"`
}
