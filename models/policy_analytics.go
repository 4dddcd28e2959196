package models

import (
	"time"
)

// PolicyAnalytics is the per-document, per-calendar-day counter bucket.
// AnalyticsDate is always truncated to midnight UTC; the unique index on
// (document, day) is what makes the increment-or-insert upsert atomic.
type PolicyAnalytics struct {
	ID uint `json:"id" gorm:"primaryKey"`

	PolicyDocumentID uint      `json:"policy_document_id" gorm:"not null;index:idx_policy_analytics_day,unique"`
	AnalyticsDate    time.Time `json:"analytics_date" gorm:"not null;index:idx_policy_analytics_day,unique"`

	Views             int `json:"views" gorm:"default:0"`
	Downloads         int `json:"downloads" gorm:"default:0"`
	CommentsCount     int `json:"comments_count" gorm:"default:0"`
	CitationsCount    int `json:"citations_count" gorm:"default:0"`
	SearchAppearances int `json:"search_appearances" gorm:"default:0"`
}

// TableName sets the explicit table name for GORM.
func (PolicyAnalytics) TableName() string {
	return "policy_analytics"
}
