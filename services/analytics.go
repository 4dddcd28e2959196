package services

import (
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"wakanda-gov/models"
)

// EventKind identifies which analytics counter an event increments.
type EventKind string

const (
	EventView             EventKind = "view"
	EventDownload         EventKind = "download"
	EventComment          EventKind = "comment"
	EventCitation         EventKind = "citation"
	EventSearchAppearance EventKind = "search_appearance"
)

// column returns the counter column for the event kind.
func (k EventKind) column() string {
	switch k {
	case EventView:
		return "views"
	case EventDownload:
		return "downloads"
	case EventComment:
		return "comments_count"
	case EventCitation:
		return "citations_count"
	case EventSearchAppearance:
		return "search_appearances"
	}
	return ""
}

// AnalyticsReport summarizes a document's engagement over a date range.
type AnalyticsReport struct {
	PolicyID          uint      `json:"policy_id"`
	PolicyTitle       string    `json:"policy_title"`
	PeriodStart       time.Time `json:"period_start"`
	PeriodEnd         time.Time `json:"period_end"`
	TotalViews        int       `json:"total_views"`
	TotalDownloads    int       `json:"total_downloads"`
	TotalComments     int       `json:"total_comments"`
	TotalCitations    int       `json:"total_citations"`
	SearchAppearances int       `json:"search_appearances"`
	EngagementScore   float64   `json:"engagement_score"`
	TrendingKeywords  []string  `json:"trending_keywords"`
}

// AnalyticsService owns the per-(document, day) counter rows. All writes go
// through RecordEvent; reporting queries only read.
type AnalyticsService struct {
	DB     *gorm.DB
	Logger *zap.Logger
}

// NewAnalyticsService creates a new AnalyticsService.
func NewAnalyticsService(db *gorm.DB, logger *zap.Logger) *AnalyticsService {
	return &AnalyticsService{DB: db, Logger: logger}
}

// Day buckets a timestamp to its calendar day (midnight UTC). The time-of-day
// component is deliberately discarded.
func Day(at time.Time) time.Time {
	return at.UTC().Truncate(24 * time.Hour)
}

// RecordEvent increments the counter for the given event kind in the
// document's bucket for the event's calendar day, creating the bucket on the
// first event of the day. The increment runs as a single ON CONFLICT upsert,
// so concurrent same-day events cannot lose updates.
func (s *AnalyticsService) RecordEvent(documentID uint, at time.Time, kind EventKind) error {
	col := kind.column()
	if col == "" {
		return gorm.ErrInvalidValue
	}

	row := models.PolicyAnalytics{
		PolicyDocumentID: documentID,
		AnalyticsDate:    Day(at),
	}
	switch kind {
	case EventView:
		row.Views = 1
	case EventDownload:
		row.Downloads = 1
	case EventComment:
		row.CommentsCount = 1
	case EventCitation:
		row.CitationsCount = 1
	case EventSearchAppearance:
		row.SearchAppearances = 1
	}

	err := s.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "policy_document_id"}, {Name: "analytics_date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			col: gorm.Expr(col + " + 1"),
		}),
	}).Create(&row).Error
	if err != nil {
		s.Logger.Error("Failed to record analytics event",
			zap.Uint("document_id", documentID),
			zap.String("kind", string(kind)),
			zap.Error(err))
	}
	return err
}

// Report sums all counters for the document across buckets whose day falls in
// [start, end] inclusive. A range without any rows yields zero counters, not
// an error.
func (s *AnalyticsService) Report(documentID uint, start, end time.Time) (*AnalyticsReport, error) {
	var doc models.PolicyDocument
	if err := s.DB.First(&doc, documentID).Error; err != nil {
		return nil, err
	}

	var rows []models.PolicyAnalytics
	if err := s.DB.
		Where("policy_document_id = ? AND analytics_date >= ? AND analytics_date <= ?",
			documentID, Day(start), Day(end)).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	report := &AnalyticsReport{
		PolicyID:    documentID,
		PolicyTitle: doc.Title,
		PeriodStart: start,
		PeriodEnd:   end,
	}
	for _, r := range rows {
		report.TotalViews += r.Views
		report.TotalDownloads += r.Downloads
		report.TotalComments += r.CommentsCount
		report.TotalCitations += r.CitationsCount
		report.SearchAppearances += r.SearchAppearances
	}

	// Fixed-weight engagement signal: citations > comments > views.
	days := int(end.Sub(start).Hours() / 24)
	if days < 1 {
		days = 1
	}
	report.EngagementScore = float64(report.TotalViews+report.TotalComments*5+report.TotalCitations*10) / float64(days)

	// First five keywords of the document, not a frequency computation.
	if doc.Keywords != "" {
		for _, kw := range strings.Split(doc.Keywords, ",") {
			if len(report.TrendingKeywords) >= 5 {
				break
			}
			report.TrendingKeywords = append(report.TrendingKeywords, strings.TrimSpace(kw))
		}
	}

	return report, nil
}
