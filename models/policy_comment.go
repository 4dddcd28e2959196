package models

import (
	"time"
)

// PolicyComment is citizen or official feedback attached to a policy document,
// optionally answered by a moderator. Comment visibility is independent of the
// parent document's visibility.
type PolicyComment struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	PolicyDocumentID uint   `json:"policy_document_id" gorm:"not null;index"`
	CommentText      string `json:"comment_text" gorm:"type:text;not null"`
	CommentType      string `json:"comment_type" gorm:"size:50;default:'feedback'"` // feedback, question, suggestion, objection
	IsPublic         bool   `json:"is_public"`

	CommenterID uint   `json:"commenter_id" gorm:"not null"`
	Response    string `json:"response,omitempty" gorm:"type:text"`
	RespondedBy *uint  `json:"responded_by,omitempty"`
}

// TableName sets the explicit table name for GORM.
func (PolicyComment) TableName() string {
	return "policy_comments"
}
