package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"wakanda-gov/config"
	"wakanda-gov/models"
	"wakanda-gov/services"
	"wakanda-gov/storage"
)

// PolicyStats is the corpus-wide statistics payload.
type PolicyStats struct {
	TotalDocuments        int64            `json:"total_documents"`
	ActiveDocuments       int64            `json:"active_documents"`
	DraftDocuments        int64            `json:"draft_documents"`
	DocumentsByType       map[string]int64 `json:"documents_by_type"`
	DocumentsByCategory   map[string]int64 `json:"documents_by_category"`
	DocumentsByDepartment map[string]int64 `json:"documents_by_department"`
	RecentDocuments       int64            `json:"recent_documents"`
	TotalViews            int64            `json:"total_views"`
	TotalComments         int64            `json:"total_comments"`
}

// PolicyRecommendation is one entry of the popularity-based recommendation list.
type PolicyRecommendation struct {
	PolicyID        uint    `json:"policy_id"`
	Title           string  `json:"title"`
	Reason          string  `json:"reason"`
	ConfidenceScore float64 `json:"confidence_score"`
	Category        string  `json:"category"`
}

func setupPolicyRoutes(router *gin.Engine, db *gorm.DB, search *services.SearchService,
	analytics *services.AnalyticsService, citations *services.CitationService,
	s3Client *s3.Client, cfg *config.Config, log *zap.Logger) {

	rg := router.Group("/api/v1/policy")

	// POST - Create a policy document (officials and admins only)
	rg.POST("/documents", func(c *gin.Context) {
		p := mustPrincipal(c)
		if p == nil {
			return
		}
		if !authorize(p, ActionManageDocuments) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Not enough permissions"})
			return
		}

		var req struct {
			Title          string     `json:"title" binding:"required"`
			DocumentNumber string     `json:"document_number" binding:"required"`
			DocumentType   string     `json:"document_type" binding:"required"`
			Category       string     `json:"category" binding:"required"`
			Department     string     `json:"department" binding:"required"`
			Summary        string     `json:"summary" binding:"required"`
			Content        string     `json:"content" binding:"required"`
			Keywords       string     `json:"keywords"`
			EffectiveDate  time.Time  `json:"effective_date" binding:"required"`
			ExpiryDate     *time.Time `json:"expiry_date"`
			Status         string     `json:"status"`
			Version        string     `json:"version"`
			Language       string     `json:"language"`
			FileURL        string     `json:"file_url"`
			IsPublic       *bool      `json:"is_public"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		var existing int64
		if err := db.Model(&models.PolicyDocument{}).
			Where("document_number = ?", req.DocumentNumber).
			Count(&existing).Error; err != nil {
			log.Error("DB error checking document number", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		if existing > 0 {
			c.JSON(http.StatusConflict, gin.H{"error": "Document number already exists"})
			return
		}

		doc := models.PolicyDocument{
			Title:          req.Title,
			DocumentNumber: req.DocumentNumber,
			DocumentType:   req.DocumentType,
			Category:       req.Category,
			Department:     req.Department,
			Summary:        req.Summary,
			Content:        req.Content,
			Keywords:       req.Keywords,
			EffectiveDate:  req.EffectiveDate,
			ExpiryDate:     req.ExpiryDate,
			Status:         req.Status,
			Version:        req.Version,
			Language:       req.Language,
			FileURL:        req.FileURL,
			IsPublic:       true,
			CreatedBy:      p.UserID,
		}
		if req.IsPublic != nil {
			doc.IsPublic = *req.IsPublic
		}

		if err := db.Create(&doc).Error; err != nil {
			log.Error("Failed to create policy document", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create document"})
			return
		}
		log.Info("Policy document created",
			zap.Uint("id", doc.ID), zap.String("document_number", doc.DocumentNumber))
		c.JSON(http.StatusCreated, doc)
	})

	// GET - Ranked search over public documents
	rg.GET("/documents/search", func(c *gin.Context) {
		query := c.Query("query")
		if query == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter is required"})
			return
		}
		filters := services.SearchFilters{
			DocumentType: c.Query("document_type"),
			Category:     c.Query("category"),
			Department:   c.Query("department"),
			Status:       c.DefaultQuery("status", "active"),
		}
		skip, _ := strconv.Atoi(c.DefaultQuery("skip", "0"))
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

		searchQueriesCounter.Inc()
		results, err := search.Search(query, filters, skip, limit)
		if err != nil {
			if errors.Is(err, services.ErrEmptyQuery) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter is required"})
				return
			}
			log.Error("Document search failed", zap.String("query", query), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, results)
	})

	// GET - Filtered listing, newest first
	rg.GET("/documents", func(c *gin.Context) {
		query := db.Model(&models.PolicyDocument{})
		if v := c.Query("document_type"); v != "" {
			query = query.Where("document_type = ?", v)
		}
		if v := c.Query("category"); v != "" {
			query = query.Where("category = ?", v)
		}
		if v := c.Query("department"); v != "" {
			query = query.Where("department = ?", v)
		}
		if v := c.Query("status"); v != "" {
			query = query.Where("status = ?", v)
		}
		if v := c.Query("is_public"); v != "" {
			isPublic, err := strconv.ParseBool(v)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid is_public value"})
				return
			}
			query = query.Where("is_public = ?", isPublic)
		}
		skip, _ := strconv.Atoi(c.DefaultQuery("skip", "0"))
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

		var docs []models.PolicyDocument
		if err := query.Order("created_at desc").Offset(skip).Limit(limit).Find(&docs).Error; err != nil {
			log.Error("Database query for documents failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, docs)
	})

	// GET - Single document. Reading has a side effect: the view counter and
	// the daily view bucket are incremented on every call.
	rg.GET("/documents/:id", func(c *gin.Context) {
		id, ok := paramID(c)
		if !ok {
			return
		}
		var doc models.PolicyDocument
		if err := db.First(&doc, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Policy document not found"})
				return
			}
			log.Error("DB error fetching document", zap.Uint("id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		if !doc.IsPublic {
			p := principalFrom(c)
			if p == nil || !p.Elevated() {
				c.JSON(http.StatusForbidden, gin.H{"error": "Document is not public"})
				return
			}
		}

		if err := db.Model(&doc).UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error; err != nil {
			log.Error("Failed to increment view count", zap.Uint("id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		doc.ViewCount++
		documentViewsCounter.Inc()
		// Best effort: a failed analytics write does not fail the read.
		if err := analytics.RecordEvent(doc.ID, time.Now(), services.EventView); err != nil {
			log.Warn("View event not recorded", zap.Uint("id", id), zap.Error(err))
		}

		c.JSON(http.StatusOK, doc)
	})

	// PUT - Partial update; only supplied fields change. Creator or admin.
	rg.PUT("/documents/:id", func(c *gin.Context) {
		p := mustPrincipal(c)
		if p == nil {
			return
		}
		if !authorize(p, ActionManageDocuments) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Not enough permissions"})
			return
		}
		id, ok := paramID(c)
		if !ok {
			return
		}

		var doc models.PolicyDocument
		if err := db.First(&doc, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Policy document not found"})
				return
			}
			log.Error("DB error fetching document for update", zap.Uint("id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		if p.Role != RoleAdmin && doc.CreatedBy != p.UserID {
			c.JSON(http.StatusForbidden, gin.H{"error": "Not enough permissions to edit this document"})
			return
		}

		var req struct {
			Title      *string    `json:"title"`
			Summary    *string    `json:"summary"`
			Content    *string    `json:"content"`
			Keywords   *string    `json:"keywords"`
			ExpiryDate *time.Time `json:"expiry_date"`
			Status     *string    `json:"status"`
			FileURL    *string    `json:"file_url"`
			IsPublic   *bool      `json:"is_public"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		updates := map[string]interface{}{}
		if req.Title != nil {
			updates["title"] = *req.Title
		}
		if req.Summary != nil {
			updates["summary"] = *req.Summary
		}
		if req.Content != nil {
			updates["content"] = *req.Content
		}
		if req.Keywords != nil {
			updates["keywords"] = *req.Keywords
		}
		if req.ExpiryDate != nil {
			updates["expiry_date"] = *req.ExpiryDate
		}
		if req.Status != nil {
			updates["status"] = *req.Status
		}
		if req.FileURL != nil {
			updates["file_url"] = *req.FileURL
		}
		if req.IsPublic != nil {
			updates["is_public"] = *req.IsPublic
		}
		if len(updates) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No updatable fields provided"})
			return
		}

		if err := db.Model(&doc).Updates(updates).Error; err != nil {
			log.Error("DB error updating document", zap.Uint("id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update document"})
			return
		}
		c.JSON(http.StatusOK, doc)
	})

	// POST - Add a comment (any authenticated caller)
	rg.POST("/documents/:id/comments", func(c *gin.Context) {
		p := mustPrincipal(c)
		if p == nil {
			return
		}
		id, ok := paramID(c)
		if !ok {
			return
		}
		if !documentExists(c, db, log, id) {
			return
		}

		var req struct {
			CommentText string `json:"comment_text" binding:"required"`
			CommentType string `json:"comment_type"`
			IsPublic    *bool  `json:"is_public"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body. 'comment_text' field is required."})
			return
		}

		comment := models.PolicyComment{
			PolicyDocumentID: id,
			CommentText:      req.CommentText,
			CommentType:      req.CommentType,
			IsPublic:         true,
			CommenterID:      p.UserID,
		}
		if req.IsPublic != nil {
			comment.IsPublic = *req.IsPublic
		}
		if err := db.Create(&comment).Error; err != nil {
			log.Error("Failed to create comment", zap.Uint("document_id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save comment"})
			return
		}
		if err := analytics.RecordEvent(id, time.Now(), services.EventComment); err != nil {
			log.Warn("Comment event not recorded", zap.Uint("document_id", id), zap.Error(err))
		}
		c.JSON(http.StatusCreated, comment)
	})

	// GET - Public comments, newest first
	rg.GET("/documents/:id/comments", func(c *gin.Context) {
		id, ok := paramID(c)
		if !ok {
			return
		}
		skip, _ := strconv.Atoi(c.DefaultQuery("skip", "0"))
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

		var comments []models.PolicyComment
		if err := db.Where("policy_document_id = ? AND is_public = ?", id, true).
			Order("created_at desc").Offset(skip).Limit(limit).
			Find(&comments).Error; err != nil {
			log.Error("Database query for comments failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, comments)
	})

	// POST - Propose an amendment (officials and admins only)
	rg.POST("/documents/:id/amendments", func(c *gin.Context) {
		p := mustPrincipal(c)
		if p == nil {
			return
		}
		if !authorize(p, ActionManageDocuments) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Not enough permissions"})
			return
		}
		id, ok := paramID(c)
		if !ok {
			return
		}
		if !documentExists(c, db, log, id) {
			return
		}

		var req struct {
			AmendmentNumber string    `json:"amendment_number" binding:"required"`
			Title           string    `json:"title" binding:"required"`
			Description     string    `json:"description" binding:"required"`
			ChangesSummary  string    `json:"changes_summary" binding:"required"`
			EffectiveDate   time.Time `json:"effective_date" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		amendment := models.PolicyAmendment{
			PolicyDocumentID: id,
			AmendmentNumber:  req.AmendmentNumber,
			Title:            req.Title,
			Description:      req.Description,
			ChangesSummary:   req.ChangesSummary,
			EffectiveDate:    req.EffectiveDate,
			ProposedBy:       p.UserID,
		}
		if err := db.Create(&amendment).Error; err != nil {
			log.Error("Failed to create amendment", zap.Uint("document_id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save amendment"})
			return
		}
		c.JSON(http.StatusCreated, amendment)
	})

	// GET - Amendments of a document
	rg.GET("/documents/:id/amendments", func(c *gin.Context) {
		id, ok := paramID(c)
		if !ok {
			return
		}
		var amendments []models.PolicyAmendment
		if err := db.Where("policy_document_id = ?", id).
			Order("created_at desc").Find(&amendments).Error; err != nil {
			log.Error("Database query for amendments failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, amendments)
	})

	// POST - Record that this document cites another one
	rg.POST("/documents/:id/citations", func(c *gin.Context) {
		p := mustPrincipal(c)
		if p == nil {
			return
		}
		if !authorize(p, ActionManageDocuments) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Not enough permissions"})
			return
		}
		id, ok := paramID(c)
		if !ok {
			return
		}

		var req struct {
			CitedDocumentID uint   `json:"cited_document_id" binding:"required"`
			CitationContext string `json:"citation_context"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body. 'cited_document_id' field is required."})
			return
		}

		edge, err := citations.AddCitation(id, req.CitedDocumentID, req.CitationContext)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Policy document not found"})
				return
			}
			log.Error("Failed to add citation", zap.Uint("citing", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save citation"})
			return
		}
		citationsAddedCounter.Inc()
		c.JSON(http.StatusCreated, edge)
	})

	// GET - Citation network and influence rank of a document
	rg.GET("/documents/:id/citations/network", func(c *gin.Context) {
		id, ok := paramID(c)
		if !ok {
			return
		}
		network, err := citations.Network(id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Policy document not found"})
				return
			}
			log.Error("Failed to build citation network", zap.Uint("id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, network)
	})

	// GET - Analytics report over a date range (officials and admins only)
	rg.GET("/documents/:id/analytics", func(c *gin.Context) {
		p := mustPrincipal(c)
		if p == nil {
			return
		}
		if !authorize(p, ActionViewAnalytics) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Not enough permissions"})
			return
		}
		id, ok := paramID(c)
		if !ok {
			return
		}
		start, err := parseDate(c.Query("start_date"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start_date"})
			return
		}
		end, err := parseDate(c.Query("end_date"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end_date"})
			return
		}

		report, err := analytics.Report(id, start, end)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Policy document not found"})
				return
			}
			log.Error("Failed to build analytics report", zap.Uint("id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, report)
	})

	// GET - Most-viewed active documents, optionally per category
	rg.GET("/recommendations", func(c *gin.Context) {
		p := mustPrincipal(c)
		if p == nil {
			return
		}
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

		query := db.Model(&models.PolicyDocument{}).
			Where("status = ? AND is_public = ?", "active", true)
		if v := c.Query("category"); v != "" {
			query = query.Where("category = ?", v)
		}

		var docs []models.PolicyDocument
		if err := query.Order("view_count desc").Limit(limit).Find(&docs).Error; err != nil {
			log.Error("Database query for recommendations failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		recommendations := make([]PolicyRecommendation, 0, len(docs))
		for _, doc := range docs {
			confidence := float64(doc.ViewCount) / 100
			if confidence > 1.0 {
				confidence = 1.0
			}
			recommendations = append(recommendations, PolicyRecommendation{
				PolicyID:        doc.ID,
				Title:           doc.Title,
				Reason:          fmt.Sprintf("Popular policy in %s with %d views", doc.Category, doc.ViewCount),
				ConfidenceScore: confidence,
				Category:        doc.Category,
			})
		}
		c.JSON(http.StatusOK, recommendations)
	})

	// GET - Corpus statistics (officials and admins only)
	rg.GET("/stats", func(c *gin.Context) {
		p := mustPrincipal(c)
		if p == nil {
			return
		}
		if !authorize(p, ActionViewStats) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Not enough permissions"})
			return
		}

		stats := PolicyStats{
			DocumentsByType:       map[string]int64{},
			DocumentsByCategory:   map[string]int64{},
			DocumentsByDepartment: map[string]int64{},
		}
		docs := db.Model(&models.PolicyDocument{})
		if err := docs.Session(&gorm.Session{}).Count(&stats.TotalDocuments).Error; err != nil {
			log.Error("Stats query failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		docs.Session(&gorm.Session{}).Where("status = ?", "active").Count(&stats.ActiveDocuments)
		docs.Session(&gorm.Session{}).Where("status = ?", "draft").Count(&stats.DraftDocuments)

		for column, into := range map[string]map[string]int64{
			"document_type": stats.DocumentsByType,
			"category":      stats.DocumentsByCategory,
			"department":    stats.DocumentsByDepartment,
		} {
			var rows []struct {
				Key string
				N   int64
			}
			if err := docs.Session(&gorm.Session{}).
				Select(column + " AS key, COUNT(*) AS n").
				Group(column).Scan(&rows).Error; err != nil {
				log.Error("Stats group-by failed", zap.String("column", column), zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
				return
			}
			for _, r := range rows {
				into[r.Key] = r.N
			}
		}

		thirtyDaysAgo := time.Now().AddDate(0, 0, -30)
		docs.Session(&gorm.Session{}).Where("created_at >= ?", thirtyDaysAgo).Count(&stats.RecentDocuments)
		docs.Session(&gorm.Session{}).Select("COALESCE(SUM(view_count), 0)").Scan(&stats.TotalViews)
		db.Model(&models.PolicyComment{}).Count(&stats.TotalComments)

		c.JSON(http.StatusOK, stats)
	})

	// POST - Attach a file to a document (multipart upload to object storage)
	rg.POST("/documents/:id/file", func(c *gin.Context) {
		p := mustPrincipal(c)
		if p == nil {
			return
		}
		if !authorize(p, ActionManageDocuments) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Not enough permissions"})
			return
		}
		id, ok := paramID(c)
		if !ok {
			return
		}
		var doc models.PolicyDocument
		if err := db.First(&doc, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Policy document not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		fileHeader, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file field is required"})
			return
		}
		f, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read file"})
			return
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read file"})
			return
		}

		key := fmt.Sprintf("policy-documents/%d/%s", doc.ID, fileHeader.Filename)
		link, err := storage.UploadFile(c.Request.Context(), s3Client, cfg, key, data,
			fileHeader.Header.Get("Content-Type"))
		if err != nil {
			log.Error("S3 upload failed", zap.Uint("id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store file"})
			return
		}

		if err := db.Model(&doc).Update("file_url", link).Error; err != nil {
			log.Error("Failed to persist file url", zap.Uint("id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		log.Info("Document file uploaded", zap.Uint("id", doc.ID), zap.String("key", key))
		c.JSON(http.StatusOK, gin.H{"file_url": link})
	})

	// GET - Redirect to the document's file; counts as a download
	rg.GET("/documents/:id/file", func(c *gin.Context) {
		id, ok := paramID(c)
		if !ok {
			return
		}
		var doc models.PolicyDocument
		if err := db.First(&doc, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Policy document not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		if !doc.IsPublic {
			p := principalFrom(c)
			if p == nil || !p.Elevated() {
				c.JSON(http.StatusForbidden, gin.H{"error": "Document is not public"})
				return
			}
		}
		if doc.FileURL == "" {
			c.JSON(http.StatusNotFound, gin.H{"error": "Document has no file attached"})
			return
		}
		if err := analytics.RecordEvent(doc.ID, time.Now(), services.EventDownload); err != nil {
			log.Warn("Download event not recorded", zap.Uint("id", id), zap.Error(err))
		}
		c.Redirect(http.StatusFound, doc.FileURL)
	})
}

// paramID parses the :id path parameter; responds 400 and returns false on junk.
func paramID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return uint(id), true
}

// documentExists answers 404/500 itself when the document cannot be loaded.
func documentExists(c *gin.Context, db *gorm.DB, log *zap.Logger, id uint) bool {
	var count int64
	if err := db.Model(&models.PolicyDocument{}).Where("id = ?", id).Count(&count).Error; err != nil {
		log.Error("DB error checking document", zap.Uint("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
		return false
	}
	if count == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Policy document not found"})
		return false
	}
	return true
}

// parseDate accepts RFC3339 timestamps or plain dates (2006-01-02).
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("missing date")
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
