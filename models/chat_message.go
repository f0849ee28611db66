package models

import "time"

// ChatMessage is one side of a tutor-chat exchange.
// Sender is "user" or "assistant".
type ChatMessage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	Sender    string    `gorm:"size:16;not null" json:"sender"`
	Content   string    `gorm:"size:16384;not null" json:"content"`
}
