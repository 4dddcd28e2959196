package models

import (
	"time"
)

// PolicyAmendment is a proposed change to a policy document. Its status
// (proposed, approved, rejected, implemented) is independent of the parent
// document's status.
type PolicyAmendment struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	PolicyDocumentID uint   `json:"policy_document_id" gorm:"not null;index"`
	AmendmentNumber  string `json:"amendment_number" gorm:"size:50;not null"`
	Title            string `json:"title" gorm:"size:500;not null"`
	Description      string `json:"description" gorm:"type:text;not null"`
	ChangesSummary   string `json:"changes_summary" gorm:"type:text;not null"`

	EffectiveDate time.Time `json:"effective_date" gorm:"not null"`
	Status        string    `json:"status" gorm:"size:50;default:'proposed'"`

	ProposedBy uint  `json:"proposed_by" gorm:"not null"`
	ApprovedBy *uint `json:"approved_by,omitempty"`
}

// TableName sets the explicit table name for GORM.
func (PolicyAmendment) TableName() string {
	return "policy_amendments"
}
