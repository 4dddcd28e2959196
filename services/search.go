package services

import (
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"wakanda-gov/models"
)

// ErrEmptyQuery is returned when Search is called without a query term.
var ErrEmptyQuery = errors.New("search query must not be empty")

// Relevance scores of the three match tiers.
const (
	ScoreTitleMatch   = 1.0
	ScoreSummaryMatch = 0.7
	ScoreContentMatch = 0.5
)

// SearchFilters are optional equality predicates applied before matching.
type SearchFilters struct {
	DocumentType string
	Category     string
	Department   string
	Status       string
}

// SearchResult is one ranked hit of a document search.
type SearchResult struct {
	ID             uint      `json:"id"`
	Title          string    `json:"title"`
	DocumentNumber string    `json:"document_number"`
	DocumentType   string    `json:"document_type"`
	Category       string    `json:"category"`
	Department     string    `json:"department"`
	Summary        string    `json:"summary"`
	EffectiveDate  time.Time `json:"effective_date"`
	Status         string    `json:"status"`
	RelevanceScore float64   `json:"relevance_score"`
}

// SearchService ranks public policy documents against a free-text query using
// three mutually exclusive relevance tiers: title match (1.0), summary match
// (0.7), content match (0.5).
type SearchService struct {
	DB        *gorm.DB
	Analytics *AnalyticsService
	Logger    *zap.Logger
}

// NewSearchService creates a new SearchService.
func NewSearchService(db *gorm.DB, analytics *AnalyticsService, logger *zap.Logger) *SearchService {
	return &SearchService{DB: db, Analytics: analytics, Logger: logger}
}

// Search returns ranked matches for query among public documents satisfying
// the filters, and records one search_appearance analytics event per returned
// document.
//
// Pagination is tiered: offset/limit apply to the title tier, then summary and
// content matches only fill whatever of limit is still unused. Callers paging
// past the first page therefore never see offset applied to the lower tiers.
func (s *SearchService) Search(query string, filters SearchFilters, offset, limit int) ([]SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	pattern := "%" + strings.ToLower(query) + "%"

	base := s.DB.Model(&models.PolicyDocument{}).Where("is_public = ?", true)
	if filters.Status != "" {
		base = base.Where("status = ?", filters.Status)
	}
	if filters.DocumentType != "" {
		base = base.Where("document_type = ?", filters.DocumentType)
	}
	if filters.Category != "" {
		base = base.Where("category = ?", filters.Category)
	}
	if filters.Department != "" {
		base = base.Where("department = ?", filters.Department)
	}

	results := make([]SearchResult, 0, limit)

	// Tier A: title matches.
	var docs []models.PolicyDocument
	if err := base.Session(&gorm.Session{}).
		Where("LOWER(title) LIKE ?", pattern).
		Order("id asc").Offset(offset).Limit(limit).
		Find(&docs).Error; err != nil {
		return nil, err
	}
	for _, d := range docs {
		results = append(results, toSearchResult(d, ScoreTitleMatch))
	}

	// Tier B: summary matches, excluding documents already matched on title.
	if remaining := limit - len(results); remaining > 0 {
		docs = docs[:0]
		if err := base.Session(&gorm.Session{}).
			Where("LOWER(summary) LIKE ? AND LOWER(title) NOT LIKE ?", pattern, pattern).
			Order("id asc").Limit(remaining).
			Find(&docs).Error; err != nil {
			return nil, err
		}
		for _, d := range docs {
			results = append(results, toSearchResult(d, ScoreSummaryMatch))
		}
	}

	// Tier C: content matches, excluding both higher tiers.
	if remaining := limit - len(results); remaining > 0 {
		docs = docs[:0]
		if err := base.Session(&gorm.Session{}).
			Where("LOWER(content) LIKE ? AND LOWER(title) NOT LIKE ? AND LOWER(summary) NOT LIKE ?",
				pattern, pattern, pattern).
			Order("id asc").Limit(remaining).
			Find(&docs).Error; err != nil {
			return nil, err
		}
		for _, d := range docs {
			results = append(results, toSearchResult(d, ScoreContentMatch))
		}
	}

	// Every returned document counts one search appearance, whichever tier
	// matched. Best effort: a failed analytics write never fails the search.
	now := time.Now()
	for _, r := range results {
		if err := s.Analytics.RecordEvent(r.ID, now, EventSearchAppearance); err != nil {
			s.Logger.Warn("Search appearance not recorded",
				zap.Uint("document_id", r.ID), zap.Error(err))
		}
	}

	return results, nil
}

func toSearchResult(d models.PolicyDocument, score float64) SearchResult {
	return SearchResult{
		ID:             d.ID,
		Title:          d.Title,
		DocumentNumber: d.DocumentNumber,
		DocumentType:   d.DocumentType,
		Category:       d.Category,
		Department:     d.Department,
		Summary:        d.Summary,
		EffectiveDate:  d.EffectiveDate,
		Status:         d.Status,
		RelevanceScore: score,
	}
}
