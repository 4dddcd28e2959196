package models

import (
	"time"
)

// ChatMessage is one turn of a chat session. Token and cost accounting is only
// filled in on assistant messages, where the provider reports usage.
type ChatMessage struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	SessionID  uint    `json:"session_id" gorm:"not null;index"`
	Role       string  `json:"role" gorm:"size:50;not null"` // user, assistant, system
	Content    string  `json:"content" gorm:"type:text;not null"`
	TokensUsed int     `json:"tokens_used,omitempty"`
	Cost       float64 `json:"cost,omitempty"`
	Model      string  `json:"model,omitempty" gorm:"size:100"`
}

// TableName sets the explicit table name for GORM.
func (ChatMessage) TableName() string {
	return "chat_messages"
}
