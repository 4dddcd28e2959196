package models

import (
	"time"
)

// PolicyDocument is the unit of published policy content (laws, regulations,
// guidelines). Documents are never deleted; their lifecycle runs through the
// status field (draft, active, superseded, repealed).
type PolicyDocument struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Title          string `json:"title" gorm:"size:500;not null;index"`
	DocumentNumber string `json:"document_number" gorm:"size:100;uniqueIndex;not null"`
	DocumentType   string `json:"document_type" gorm:"size:100;not null"` // law, regulation, policy, guideline, ...
	Category       string `json:"category" gorm:"size:100;not null;index"`
	Department     string `json:"department" gorm:"size:100;not null"`

	Summary  string `json:"summary" gorm:"type:text;not null"`
	Content  string `json:"content" gorm:"type:text;not null"`
	Keywords string `json:"keywords,omitempty" gorm:"type:text"` // comma-separated

	EffectiveDate time.Time  `json:"effective_date" gorm:"not null"`
	ExpiryDate    *time.Time `json:"expiry_date,omitempty"`

	Status   string `json:"status" gorm:"size:50;default:'active';index"`
	Version  string `json:"version" gorm:"size:20;default:'1.0'"`
	Language string `json:"language" gorm:"size:10;default:'en'"`
	FileURL  string `json:"file_url,omitempty" gorm:"size:500"`

	CreatedBy  uint  `json:"created_by" gorm:"not null"`
	ReviewedBy *uint `json:"reviewed_by,omitempty"`

	// Default is applied by the create handler; a gorm default would clobber
	// an explicit false on insert.
	IsPublic bool `json:"is_public"`
	// Only ever incremented, and only by document reads.
	ViewCount int `json:"view_count" gorm:"default:0"`
}

// TableName sets the explicit table name for GORM.
func (PolicyDocument) TableName() string {
	return "policy_documents"
}
