package models

import "time"

// Quiz belongs to a course and carries an ordered set of questions.
// StartTime/EndTime bound when attempts are accepted; nil means unbounded.
type Quiz struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CourseID    uint       `gorm:"index;not null" json:"course_id"`
	Title       string     `gorm:"size:255;not null" json:"title"`
	Description string     `gorm:"size:2048" json:"description"`
	MaxAttempts int        `gorm:"default:1" json:"max_attempts"`
	StartTime   *time.Time `json:"start_time,omitempty"`
	EndTime     *time.Time `json:"end_time,omitempty"`
	ShowResults bool       `gorm:"default:true" json:"show_results"`
	IsActive    bool       `gorm:"default:true;not null" json:"is_active"`
	Questions   []Question `gorm:"foreignKey:QuizID;constraint:OnDelete:CASCADE;" json:"questions,omitempty"`
}

// Question types.
const (
	QuestionMCQ         = "mcq"
	QuestionTrueFalse   = "true_false"
	QuestionShortAnswer = "short_answer"
)

// Question is one quiz question. Options holds a JSON-encoded string array
// for mcq questions and stays empty otherwise.
type Question struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	QuizID        uint   `gorm:"index;not null" json:"quiz_id"`
	Position      int    `gorm:"not null" json:"position"`
	Type          string `gorm:"size:32;not null" json:"type"`
	Prompt        string `gorm:"size:2048;not null" json:"question"`
	Options       string `gorm:"size:4096" json:"options,omitempty"`
	CorrectAnswer string `gorm:"size:1024" json:"correct_answer,omitempty"`
	Explanation   string `gorm:"size:2048" json:"explanation,omitempty"`
}

// QuizAttempt records a grading run. Answers and Results are JSON blobs;
// Results stays empty when the quiz hides results.
type QuizAttempt struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	QuizID         uint      `gorm:"index;not null" json:"quiz_id"`
	StudentID      uint      `gorm:"index;not null" json:"student_id"`
	CourseID       uint      `gorm:"index;not null" json:"course_id"`
	Score          float64   `gorm:"not null" json:"score"`
	CorrectAnswers int       `json:"correct_answers"`
	TotalQuestions int       `json:"total_questions"`
	AttemptedAt    time.Time `gorm:"not null" json:"attempted_at"`
	TimeTaken      int       `json:"time_taken"` // seconds
	Answers        string    `gorm:"size:8192" json:"-"`
	Results        string    `gorm:"size:16384" json:"-"`
}
