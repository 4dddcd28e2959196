package services

import (
	"sort"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"wakanda-gov/models"
)

// CitationRef is one edge endpoint as presented in a citation network report.
type CitationRef struct {
	DocumentID      uint   `json:"document_id"`
	DocumentNumber  string `json:"document_number"`
	Title           string `json:"title"`
	CitationContext string `json:"citation_context,omitempty"`
}

// CitationNetwork describes a document's position in the citation graph.
type CitationNetwork struct {
	PolicyID          uint          `json:"policy_id"`
	Title             string        `json:"title"`
	InboundCitations  []CitationRef `json:"inbound_citations"`
	OutboundCitations []CitationRef `json:"outbound_citations"`
	CitationScore     float64       `json:"citation_score"`
	InfluenceRank     int           `json:"influence_rank"`
}

// CitationService maintains the directed cites-graph between policy documents.
// Edges live in a plain adjacency table; self-citations and duplicate edges
// are not rejected.
type CitationService struct {
	DB        *gorm.DB
	Analytics *AnalyticsService
	Logger    *zap.Logger
}

// NewCitationService creates a new CitationService.
func NewCitationService(db *gorm.DB, analytics *AnalyticsService, logger *zap.Logger) *CitationService {
	return &CitationService{DB: db, Analytics: analytics, Logger: logger}
}

// AddCitation creates a directed edge citing -> cited and records a citation
// analytics event for the cited document. Both documents must exist.
func (s *CitationService) AddCitation(citingID, citedID uint, context string) (*models.PolicyCitation, error) {
	var count int64
	if err := s.DB.Model(&models.PolicyDocument{}).
		Where("id IN ?", []uint{citingID, citedID}).
		Distinct("id").Count(&count).Error; err != nil {
		return nil, err
	}
	wanted := int64(2)
	if citingID == citedID {
		wanted = 1
	}
	if count < wanted {
		return nil, gorm.ErrRecordNotFound
	}

	edge := models.PolicyCitation{
		CitingDocumentID: citingID,
		CitedDocumentID:  citedID,
		CitationContext:  context,
	}
	if err := s.DB.Create(&edge).Error; err != nil {
		return nil, err
	}

	if err := s.Analytics.RecordEvent(citedID, time.Now(), EventCitation); err != nil {
		s.Logger.Warn("Citation event not recorded",
			zap.Uint("cited_document_id", citedID), zap.Error(err))
	}
	return &edge, nil
}

// Inbound returns all edges where the document is the cited target.
func (s *CitationService) Inbound(documentID uint) ([]models.PolicyCitation, error) {
	var edges []models.PolicyCitation
	err := s.DB.Where("cited_document_id = ?", documentID).Find(&edges).Error
	return edges, err
}

// Outbound returns all edges where the document is the citing source.
func (s *CitationService) Outbound(documentID uint) ([]models.PolicyCitation, error) {
	var edges []models.PolicyCitation
	err := s.DB.Where("citing_document_id = ?", documentID).Find(&edges).Error
	return edges, err
}

// Network builds the citation network report for one document: resolved
// inbound/outbound edges, a citation score normalized against the most-cited
// document in the corpus, and the influence rank.
func (s *CitationService) Network(documentID uint) (*CitationNetwork, error) {
	var doc models.PolicyDocument
	if err := s.DB.First(&doc, documentID).Error; err != nil {
		return nil, err
	}

	inbound, err := s.Inbound(documentID)
	if err != nil {
		return nil, err
	}
	outbound, err := s.Outbound(documentID)
	if err != nil {
		return nil, err
	}

	network := &CitationNetwork{
		PolicyID:          documentID,
		Title:             doc.Title,
		InboundCitations:  make([]CitationRef, 0, len(inbound)),
		OutboundCitations: make([]CitationRef, 0, len(outbound)),
	}
	for _, e := range inbound {
		network.InboundCitations = append(network.InboundCitations, s.resolveRef(e.CitingDocumentID, e.CitationContext))
	}
	for _, e := range outbound {
		network.OutboundCitations = append(network.OutboundCitations, s.resolveRef(e.CitedDocumentID, e.CitationContext))
	}

	counts, maxInbound, err := s.inboundCounts()
	if err != nil {
		return nil, err
	}
	if maxInbound > 0 {
		network.CitationScore = float64(counts[documentID]) / float64(maxInbound)
	}
	network.InfluenceRank, err = s.influenceRank(documentID, counts)
	if err != nil {
		return nil, err
	}

	return network, nil
}

// resolveRef loads the referenced document's display fields; an edge pointing
// at a missing id still yields a ref with the bare id.
func (s *CitationService) resolveRef(documentID uint, context string) CitationRef {
	ref := CitationRef{DocumentID: documentID, CitationContext: context}
	var doc models.PolicyDocument
	if err := s.DB.Select("id", "document_number", "title").First(&doc, documentID).Error; err == nil {
		ref.DocumentNumber = doc.DocumentNumber
		ref.Title = doc.Title
	}
	return ref
}

// inboundCounts returns the inbound-citation count per document and the
// corpus-wide maximum.
func (s *CitationService) inboundCounts() (map[uint]int, int, error) {
	type row struct {
		CitedDocumentID uint
		N               int
	}
	var rows []row
	err := s.DB.Model(&models.PolicyCitation{}).
		Select("cited_document_id, COUNT(*) AS n").
		Group("cited_document_id").
		Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	counts := make(map[uint]int, len(rows))
	max := 0
	for _, r := range rows {
		counts[r.CitedDocumentID] = r.N
		if r.N > max {
			max = r.N
		}
	}
	return counts, max, nil
}

// influenceRank is the document's ordinal position (1-based) when the whole
// corpus is sorted by inbound-citation count descending, ties broken by
// document id ascending.
func (s *CitationService) influenceRank(documentID uint, counts map[uint]int) (int, error) {
	var ids []uint
	if err := s.DB.Model(&models.PolicyDocument{}).Order("id asc").Pluck("id", &ids).Error; err != nil {
		return 0, err
	}
	sort.SliceStable(ids, func(i, j int) bool {
		ci, cj := counts[ids[i]], counts[ids[j]]
		if ci != cj {
			return ci > cj
		}
		return ids[i] < ids[j]
	})
	for i, id := range ids {
		if id == documentID {
			return i + 1, nil
		}
	}
	return 0, gorm.ErrRecordNotFound
}
