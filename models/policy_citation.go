package models

import (
	"time"
)

// PolicyCitation models a directed edge: the citing document cites the cited
// document (A cites B). Both ends reference policy_documents, so the table is
// the adjacency list of a self-referencing graph.
type PolicyCitation struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	CitingDocumentID uint   `json:"citing_document_id" gorm:"not null;index"`
	CitedDocumentID  uint   `json:"cited_document_id" gorm:"not null;index"`
	CitationContext  string `json:"citation_context,omitempty" gorm:"type:text"`
}

// TableName sets the explicit table name for GORM.
func (PolicyCitation) TableName() string {
	return "policy_citations"
}
