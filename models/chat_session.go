package models

import (
	"time"
)

// ChatSession groups the messages of one AI assistant conversation.
type ChatSession struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID       uint   `json:"user_id" gorm:"not null;index"`
	Title        string `json:"title" gorm:"size:255;not null"`
	Model        string `json:"model" gorm:"size:100;not null"`
	SystemPrompt string `json:"system_prompt,omitempty" gorm:"type:text"`
	IsActive     bool   `json:"is_active" gorm:"default:true"`
}

// TableName sets the explicit table name for GORM.
func (ChatSession) TableName() string {
	return "chat_sessions"
}
