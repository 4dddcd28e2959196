package services

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"wakanda-gov/models"
)

func newCitationFixture(t *testing.T) (*CitationService, []*models.PolicyDocument) {
	t.Helper()
	db := newTestDB(t)
	analytics := NewAnalyticsService(db, zap.NewNop())
	svc := NewCitationService(db, analytics, zap.NewNop())

	docs := make([]*models.PolicyDocument, 0, 4)
	for _, number := range []string{"CIT-001", "CIT-002", "CIT-003", "CIT-004"} {
		docs = append(docs, newTestDoc(t, db, number))
	}
	return svc, docs
}

func TestAddCitationUnknownDocument(t *testing.T) {
	svc, docs := newCitationFixture(t)

	if _, err := svc.AddCitation(docs[0].ID, 9999, ""); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("expected ErrRecordNotFound for unknown cited document, got %v", err)
	}
	if _, err := svc.AddCitation(9999, docs[0].ID, ""); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("expected ErrRecordNotFound for unknown citing document, got %v", err)
	}
}

func TestAddCitationSelfCitationAllowed(t *testing.T) {
	svc, docs := newCitationFixture(t)

	edge, err := svc.AddCitation(docs[0].ID, docs[0].ID, "refers to its own annex")
	if err != nil {
		t.Fatalf("self-citation rejected: %v", err)
	}
	if edge.CitingDocumentID != docs[0].ID || edge.CitedDocumentID != docs[0].ID {
		t.Errorf("unexpected edge endpoints: %d -> %d", edge.CitingDocumentID, edge.CitedDocumentID)
	}
}

func TestAddCitationRecordsAnalyticsForCitedDocument(t *testing.T) {
	svc, docs := newCitationFixture(t)

	if _, err := svc.AddCitation(docs[0].ID, docs[1].ID, ""); err != nil {
		t.Fatalf("AddCitation failed: %v", err)
	}

	var row models.PolicyAnalytics
	if err := svc.DB.Where("policy_document_id = ?", docs[1].ID).First(&row).Error; err != nil {
		t.Fatalf("expected analytics bucket for cited document: %v", err)
	}
	if row.CitationsCount != 1 {
		t.Errorf("expected 1 citation counted, got %d", row.CitationsCount)
	}
}

func TestNetworkEdgesAndScore(t *testing.T) {
	svc, docs := newCitationFixture(t)

	// docs[0] is cited by 1, 2 and 3; docs[1] is cited by 2.
	svc.AddCitation(docs[1].ID, docs[0].ID, "builds on the framework")
	svc.AddCitation(docs[2].ID, docs[0].ID, "")
	svc.AddCitation(docs[3].ID, docs[0].ID, "")
	svc.AddCitation(docs[2].ID, docs[1].ID, "")
	svc.AddCitation(docs[0].ID, docs[3].ID, "supersedes section 2")

	network, err := svc.Network(docs[0].ID)
	if err != nil {
		t.Fatalf("Network failed: %v", err)
	}
	if len(network.InboundCitations) != 3 {
		t.Errorf("expected 3 inbound citations, got %d", len(network.InboundCitations))
	}
	if len(network.OutboundCitations) != 1 {
		t.Errorf("expected 1 outbound citation, got %d", len(network.OutboundCitations))
	}
	if network.OutboundCitations[0].DocumentID != docs[3].ID {
		t.Errorf("expected outbound edge to doc %d, got %d", docs[3].ID, network.OutboundCitations[0].DocumentID)
	}
	if network.OutboundCitations[0].DocumentNumber != "CIT-004" {
		t.Errorf("expected resolved document number CIT-004, got %q", network.OutboundCitations[0].DocumentNumber)
	}
	// docs[0] is the most-cited document, so its score is the maximum.
	if network.CitationScore != 1.0 {
		t.Errorf("expected citation score 1.0, got %f", network.CitationScore)
	}
	if network.InfluenceRank != 1 {
		t.Errorf("expected influence rank 1, got %d", network.InfluenceRank)
	}
}

func TestNetworkScoreNormalizedAgainstMax(t *testing.T) {
	svc, docs := newCitationFixture(t)

	svc.AddCitation(docs[1].ID, docs[0].ID, "")
	svc.AddCitation(docs[2].ID, docs[0].ID, "")
	svc.AddCitation(docs[2].ID, docs[1].ID, "")

	network, err := svc.Network(docs[1].ID)
	if err != nil {
		t.Fatalf("Network failed: %v", err)
	}
	// 1 inbound against a maximum of 2.
	if network.CitationScore != 0.5 {
		t.Errorf("expected citation score 0.5, got %f", network.CitationScore)
	}
	if network.InfluenceRank != 2 {
		t.Errorf("expected influence rank 2, got %d", network.InfluenceRank)
	}
}

func TestNetworkUncitedDocument(t *testing.T) {
	svc, docs := newCitationFixture(t)

	svc.AddCitation(docs[1].ID, docs[0].ID, "")

	network, err := svc.Network(docs[2].ID)
	if err != nil {
		t.Fatalf("Network failed: %v", err)
	}
	if network.CitationScore != 0 {
		t.Errorf("expected score 0 for uncited document, got %f", network.CitationScore)
	}
	// Ties at zero inbound break by id ascending: docs[1] ranks 2nd, docs[2] 3rd.
	if network.InfluenceRank != 3 {
		t.Errorf("expected influence rank 3, got %d", network.InfluenceRank)
	}
	if len(network.InboundCitations) != 0 || len(network.OutboundCitations) != 0 {
		t.Errorf("expected empty edge lists, got %d inbound / %d outbound",
			len(network.InboundCitations), len(network.OutboundCitations))
	}
}

func TestNetworkUnknownDocument(t *testing.T) {
	svc, _ := newCitationFixture(t)

	if _, err := svc.Network(9999); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("expected ErrRecordNotFound, got %v", err)
	}
}
