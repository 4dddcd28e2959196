package models

import (
	"time"

	"gorm.io/datatypes"
)

// AIAnalysis stores the result of a one-shot AI analysis run over supplied
// content (document summary, sentiment, extraction, classification).
type AIAnalysis struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	AnalysisType   string `json:"analysis_type" gorm:"size:100;not null;index"`
	InputData      string `json:"input_data" gorm:"type:text;not null"`
	AnalysisResult string `json:"analysis_result" gorm:"type:text;not null"`
	Model          string `json:"model" gorm:"size:100;not null"`

	ConfidenceScore float64        `json:"confidence_score,omitempty"`
	TokensUsed      int            `json:"tokens_used,omitempty"`
	Cost            float64        `json:"cost,omitempty"`
	KeyPoints       datatypes.JSON `json:"key_points,omitempty" gorm:"type:jsonb"`

	RequestedBy uint `json:"requested_by" gorm:"not null"`
}

// TableName sets the explicit table name for GORM.
func (AIAnalysis) TableName() string {
	return "ai_analyses"
}
