package services

import (
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"wakanda-gov/models"
)

// newTestDB opens a fresh in-memory database with the full schema. The shared
// cache keeps the database alive across pooled connections.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(
		&models.PolicyDocument{},
		&models.PolicyAmendment{},
		&models.PolicyComment{},
		&models.PolicyCitation{},
		&models.PolicyAnalytics{},
		&models.ChatSession{},
		&models.ChatMessage{},
		&models.AIAnalysis{},
	); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func newTestDoc(t *testing.T, db *gorm.DB, number string) *models.PolicyDocument {
	t.Helper()
	doc := models.PolicyDocument{
		Title:          "Test Policy " + number,
		DocumentNumber: number,
		DocumentType:   "regulation",
		Category:       "environment",
		Department:     "Ministry of Environment",
		Summary:        "A summary for " + number,
		Content:        "Full content for " + number,
		EffectiveDate:  time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Status:         "active",
		IsPublic:       true,
		CreatedBy:      1,
	}
	if err := db.Create(&doc).Error; err != nil {
		t.Fatalf("failed to create test document: %v", err)
	}
	return &doc
}

func TestRecordEventAccumulatesInOneDayBucket(t *testing.T) {
	db := newTestDB(t)
	svc := NewAnalyticsService(db, zap.NewNop())
	doc := newTestDoc(t, db, "POL-2025-001")

	at := time.Date(2025, 6, 15, 14, 30, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		if err := svc.RecordEvent(doc.ID, at, EventView); err != nil {
			t.Fatalf("RecordEvent failed on iteration %d: %v", i, err)
		}
	}

	var rows []models.PolicyAnalytics
	if err := db.Where("policy_document_id = ?", doc.ID).Find(&rows).Error; err != nil {
		t.Fatalf("failed to load analytics rows: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 bucket row, got %d", len(rows))
	}
	if rows[0].Views != 7 {
		t.Errorf("expected 7 views, got %d", rows[0].Views)
	}
	if !rows[0].AnalyticsDate.Equal(Day(at)) {
		t.Errorf("expected bucket date %v, got %v", Day(at), rows[0].AnalyticsDate)
	}
}

func TestRecordEventSeparatesDays(t *testing.T) {
	db := newTestDB(t)
	svc := NewAnalyticsService(db, zap.NewNop())
	doc := newTestDoc(t, db, "POL-2025-002")

	day1 := time.Date(2025, 6, 15, 23, 59, 0, 0, time.UTC)
	day2 := time.Date(2025, 6, 16, 0, 1, 0, 0, time.UTC)
	if err := svc.RecordEvent(doc.ID, day1, EventDownload); err != nil {
		t.Fatalf("RecordEvent failed: %v", err)
	}
	if err := svc.RecordEvent(doc.ID, day2, EventDownload); err != nil {
		t.Fatalf("RecordEvent failed: %v", err)
	}

	var count int64
	db.Model(&models.PolicyAnalytics{}).Where("policy_document_id = ?", doc.ID).Count(&count)
	if count != 2 {
		t.Errorf("expected 2 bucket rows across midnight, got %d", count)
	}
}

func TestRecordEventMixedKindsShareBucket(t *testing.T) {
	db := newTestDB(t)
	svc := NewAnalyticsService(db, zap.NewNop())
	doc := newTestDoc(t, db, "POL-2025-003")

	at := time.Date(2025, 6, 20, 10, 0, 0, 0, time.UTC)
	events := []EventKind{EventView, EventView, EventComment, EventCitation, EventSearchAppearance}
	for _, kind := range events {
		if err := svc.RecordEvent(doc.ID, at, kind); err != nil {
			t.Fatalf("RecordEvent(%s) failed: %v", kind, err)
		}
	}

	var row models.PolicyAnalytics
	if err := db.Where("policy_document_id = ?", doc.ID).First(&row).Error; err != nil {
		t.Fatalf("failed to load bucket row: %v", err)
	}
	if row.Views != 2 || row.CommentsCount != 1 || row.CitationsCount != 1 || row.SearchAppearances != 1 {
		t.Errorf("unexpected counters: views=%d comments=%d citations=%d appearances=%d",
			row.Views, row.CommentsCount, row.CitationsCount, row.SearchAppearances)
	}
}

func TestReportEngagementScore(t *testing.T) {
	db := newTestDB(t)
	svc := NewAnalyticsService(db, zap.NewNop())
	doc := newTestDoc(t, db, "POL-2025-004")

	at := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
	// 10 views + 2 comments + 1 citation = 10 + 10 + 10 = 30 weighted.
	for i := 0; i < 10; i++ {
		svc.RecordEvent(doc.ID, at, EventView)
	}
	svc.RecordEvent(doc.ID, at, EventComment)
	svc.RecordEvent(doc.ID, at, EventComment)
	svc.RecordEvent(doc.ID, at, EventCitation)

	start := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)
	report, err := svc.Report(doc.ID, start, end)
	if err != nil {
		t.Fatalf("Report failed: %v", err)
	}
	if report.TotalViews != 10 || report.TotalComments != 2 || report.TotalCitations != 1 {
		t.Fatalf("unexpected totals: views=%d comments=%d citations=%d",
			report.TotalViews, report.TotalComments, report.TotalCitations)
	}
	if report.EngagementScore != 30.0 {
		t.Errorf("expected engagement score 30.0 over 1 day, got %f", report.EngagementScore)
	}
}

func TestReportZeroRangeClampsToOneDay(t *testing.T) {
	db := newTestDB(t)
	svc := NewAnalyticsService(db, zap.NewNop())
	doc := newTestDoc(t, db, "POL-2025-005")

	at := time.Date(2025, 7, 2, 9, 0, 0, 0, time.UTC)
	svc.RecordEvent(doc.ID, at, EventView)

	report, err := svc.Report(doc.ID, at, at)
	if err != nil {
		t.Fatalf("Report failed: %v", err)
	}
	if report.TotalViews != 1 {
		t.Errorf("expected 1 view in zero-width range, got %d", report.TotalViews)
	}
	if report.EngagementScore != 1.0 {
		t.Errorf("expected score 1.0 with day clamp, got %f", report.EngagementScore)
	}
}

func TestReportEmptyRangeIsZeroNotError(t *testing.T) {
	db := newTestDB(t)
	svc := NewAnalyticsService(db, zap.NewNop())
	doc := newTestDoc(t, db, "POL-2025-006")

	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2020, 1, 31, 0, 0, 0, 0, time.UTC)
	report, err := svc.Report(doc.ID, start, end)
	if err != nil {
		t.Fatalf("Report on empty range failed: %v", err)
	}
	if report.TotalViews != 0 || report.EngagementScore != 0 {
		t.Errorf("expected zeroed report, got views=%d score=%f", report.TotalViews, report.EngagementScore)
	}
}

func TestReportUnknownDocument(t *testing.T) {
	db := newTestDB(t)
	svc := NewAnalyticsService(db, zap.NewNop())

	_, err := svc.Report(9999, time.Now().AddDate(0, 0, -7), time.Now())
	if err != gorm.ErrRecordNotFound {
		t.Errorf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestReportTrendingKeywordsFirstFive(t *testing.T) {
	db := newTestDB(t)
	svc := NewAnalyticsService(db, zap.NewNop())
	doc := newTestDoc(t, db, "POL-2025-007")
	db.Model(doc).Update("keywords", "water, energy, climate, waste, transport, housing")

	report, err := svc.Report(doc.ID, time.Now().AddDate(0, 0, -1), time.Now())
	if err != nil {
		t.Fatalf("Report failed: %v", err)
	}
	want := []string{"water", "energy", "climate", "waste", "transport"}
	if len(report.TrendingKeywords) != len(want) {
		t.Fatalf("expected %d keywords, got %d", len(want), len(report.TrendingKeywords))
	}
	for i, kw := range want {
		if report.TrendingKeywords[i] != kw {
			t.Errorf("keyword %d: expected %q, got %q", i, kw, report.TrendingKeywords[i])
		}
	}
}

func TestDayBucketsToMidnightUTC(t *testing.T) {
	at := time.Date(2025, 3, 10, 23, 45, 12, 0, time.UTC)
	got := Day(at)
	want := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Day(%v) = %v, want %v", at, got, want)
	}
}
