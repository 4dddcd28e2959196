package main

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"wakanda-gov/models"
	"wakanda-gov/providers/openrouter"
	"wakanda-gov/services"
)

// AIStats is the assistant usage summary for administrators.
type AIStats struct {
	TotalSessions int64            `json:"total_sessions"`
	TotalMessages int64            `json:"total_messages"`
	TotalAnalyses int64            `json:"total_analyses"`
	TotalTokens   int64            `json:"total_tokens"`
	TotalCost     float64          `json:"total_cost"`
	PopularModels map[string]int64 `json:"popular_models"`
}

func setupAIRoutes(router *gin.Engine, db *gorm.DB, chat *services.ChatService,
	orClient *openrouter.Client, log *zap.Logger) {

	rg := router.Group("/api/v1/ai")

	// POST - One chat turn; creates a session when none is given
	rg.POST("/chat", func(c *gin.Context) {
		p := mustPrincipal(c)
		if p == nil {
			return
		}
		var in services.ChatInput
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body. 'message' field is required."})
			return
		}

		out, err := chat.Chat(c.Request.Context(), p.UserID, in)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Chat session not found"})
				return
			}
			if errors.Is(err, services.ErrUpstream) {
				log.Error("AI provider call failed", zap.Error(err))
				c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
				return
			}
			log.Error("Chat turn failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		aiTokensUsedCounter.Add(float64(out.TokensUsed))
		c.JSON(http.StatusOK, out)
	})

	// POST - Create an empty chat session
	rg.POST("/chat/sessions", func(c *gin.Context) {
		p := mustPrincipal(c)
		if p == nil {
			return
		}
		var req struct {
			Title        string `json:"title"`
			Model        string `json:"model"`
			SystemPrompt string `json:"system_prompt"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if req.Title == "" {
			req.Title = "New Chat"
		}
		if req.Model == "" {
			req.Model = chat.Config.DefaultChatModel
		}
		if req.SystemPrompt == "" {
			req.SystemPrompt = services.GovernmentSystemPrompt()
		}

		session := models.ChatSession{
			UserID:       p.UserID,
			Title:        req.Title,
			Model:        req.Model,
			SystemPrompt: req.SystemPrompt,
			IsActive:     true,
		}
		if err := db.Create(&session).Error; err != nil {
			log.Error("Failed to create chat session", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
			return
		}
		c.JSON(http.StatusCreated, session)
	})

	// GET - The caller's active sessions, most recently used first
	rg.GET("/chat/sessions", func(c *gin.Context) {
		p := mustPrincipal(c)
		if p == nil {
			return
		}
		skip, _ := strconv.Atoi(c.DefaultQuery("skip", "0"))
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

		var sessions []models.ChatSession
		if err := db.Where("user_id = ? AND is_active = ?", p.UserID, true).
			Order("updated_at desc").Offset(skip).Limit(limit).
			Find(&sessions).Error; err != nil {
			log.Error("Database query for chat sessions failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, sessions)
	})

	// GET - Messages of one of the caller's sessions. A foreign session id
	// answers 404, not 403, so session ids are not probeable.
	rg.GET("/chat/sessions/:id/messages", func(c *gin.Context) {
		p := mustPrincipal(c)
		if p == nil {
			return
		}
		id, ok := paramID(c)
		if !ok {
			return
		}

		var session models.ChatSession
		if err := db.Where("id = ? AND user_id = ?", id, p.UserID).First(&session).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Chat session not found"})
				return
			}
			log.Error("DB error fetching chat session", zap.Uint("id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		var messages []models.ChatMessage
		if err := db.Where("session_id = ?", session.ID).
			Order("created_at asc, id asc").Find(&messages).Error; err != nil {
			log.Error("Database query for chat messages failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, messages)
	})

	// POST - One-shot document analysis (officials and admins only)
	rg.POST("/analyze/document", func(c *gin.Context) {
		p := mustPrincipal(c)
		if p == nil {
			return
		}
		if !authorize(p, ActionAnalyze) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Not enough permissions"})
			return
		}

		var req struct {
			DocumentContent string `json:"document_content" binding:"required"`
			AnalysisType    string `json:"analysis_type" binding:"required"`
			Instructions    string `json:"instructions"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body. 'document_content' and 'analysis_type' are required."})
			return
		}

		analysis, err := chat.AnalyzeDocument(c.Request.Context(), p.UserID,
			req.DocumentContent, req.AnalysisType, req.Instructions)
		if err != nil {
			if errors.Is(err, services.ErrUpstream) {
				log.Error("AI provider call failed", zap.Error(err))
				c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
				return
			}
			log.Error("Document analysis failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		aiTokensUsedCounter.Add(float64(analysis.TokensUsed))
		c.JSON(http.StatusOK, analysis)
	})

	// POST - Templated AI recommendations (officials and admins only)
	rg.POST("/recommend", func(c *gin.Context) {
		p := mustPrincipal(c)
		if p == nil {
			return
		}
		if !authorize(p, ActionRecommend) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Not enough permissions"})
			return
		}

		var in services.RecommendationInput
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body. 'context' and 'request_type' are required."})
			return
		}

		out, err := chat.Recommend(c.Request.Context(), p.UserID, in)
		if err != nil {
			if errors.Is(err, services.ErrUpstream) {
				log.Error("AI provider call failed", zap.Error(err))
				c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
				return
			}
			log.Error("Recommendation failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, out)
	})

	// GET - Models available through the provider
	rg.GET("/models", func(c *gin.Context) {
		aiModels, err := orClient.Models(c.Request.Context())
		if err != nil {
			log.Error("Failed to list AI models", zap.Error(err))
			c.JSON(http.StatusBadGateway, gin.H{"error": "AI provider unavailable"})
			return
		}
		c.JSON(http.StatusOK, aiModels)
	})

	// GET - Usage statistics (officials and admins only)
	rg.GET("/stats", func(c *gin.Context) {
		p := mustPrincipal(c)
		if p == nil {
			return
		}
		if !authorize(p, ActionViewStats) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Not enough permissions"})
			return
		}

		stats := AIStats{PopularModels: map[string]int64{}}
		if err := db.Model(&models.ChatSession{}).Count(&stats.TotalSessions).Error; err != nil {
			log.Error("AI stats query failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		db.Model(&models.ChatMessage{}).Count(&stats.TotalMessages)
		db.Model(&models.AIAnalysis{}).Count(&stats.TotalAnalyses)
		db.Model(&models.ChatMessage{}).Select("COALESCE(SUM(tokens_used), 0)").Scan(&stats.TotalTokens)
		db.Model(&models.ChatMessage{}).Select("COALESCE(SUM(cost), 0)").Scan(&stats.TotalCost)

		var rows []struct {
			Model string
			N     int64
		}
		if err := db.Model(&models.ChatMessage{}).
			Select("model, COUNT(*) AS n").
			Where("model <> ''").
			Group("model").Scan(&rows).Error; err != nil {
			log.Error("AI stats group-by failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		for _, r := range rows {
			stats.PopularModels[r.Model] = r.N
		}
		c.JSON(http.StatusOK, stats)
	})
}
