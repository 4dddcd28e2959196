package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"wakanda-gov/config"
	"wakanda-gov/models"
	"wakanda-gov/providers/openrouter"
)

// ErrUpstream marks failures of the external chat-completion provider so
// handlers can surface them as upstream errors instead of internal ones.
var ErrUpstream = errors.New("upstream ai provider error")

const defaultTemperature = 0.7

// Flat confidence reported on analysis and recommendation results; the
// provider gives us no per-answer signal to derive a real one from.
const analysisConfidence = 0.85

const maxKeyPoints = 10

// costPer1kTokens is an approximation used for usage accounting; unknown
// models fall back to the cheapest bucket.
var costPer1kTokens = map[string]float64{
	"openai/gpt-3.5-turbo":           0.002,
	"openai/gpt-4":                   0.03,
	"anthropic/claude-3-haiku":       0.0015,
	"anthropic/claude-3-sonnet":      0.015,
	"meta-llama/llama-3-8b-instruct": 0.001,
}

// CalculateCost converts a token count into an approximate dollar cost.
func CalculateCost(tokens int, model string) float64 {
	base, ok := costPer1kTokens[model]
	if !ok {
		base = 0.002
	}
	return float64(tokens) / 1000 * base
}

// GovernmentSystemPrompt is the default system prompt for assistant sessions.
func GovernmentSystemPrompt() string {
	return `You are an AI assistant for the Wakanda Digital Government Platform. You help government officials, employees, and citizens with:

1. Government service information and procedures
2. Policy analysis and recommendations
3. Data analysis and insights
4. Administrative assistance
5. Public service guidance

Guidelines:
- Provide accurate, helpful, and politically neutral information
- Respect privacy and confidentiality
- Follow government communication standards
- Be transparent about limitations
- Recommend appropriate human contact when needed
- Focus on efficiency and citizen service improvement

Always maintain professional tone and ensure information is accessible to diverse audiences.`
}

// ChatInput is one user turn, optionally continuing an existing session.
type ChatInput struct {
	Message      string `json:"message" binding:"required"`
	SessionID    *uint  `json:"session_id"`
	Model        string `json:"model"`
	SystemPrompt string `json:"system_prompt"`
}

// ChatOutput is the assistant's reply plus usage accounting.
type ChatOutput struct {
	SessionID  uint    `json:"session_id"`
	Response   string  `json:"response"`
	TokensUsed int     `json:"tokens_used"`
	Cost       float64 `json:"cost"`
	Model      string  `json:"model"`
}

// ChatService orchestrates assistant conversations: session handling, history
// reconstruction, the provider call, and token/cost bookkeeping.
type ChatService struct {
	Config *config.Config
	DB     *gorm.DB
	Client *openrouter.Client
	Logger *zap.Logger
}

// NewChatService creates a new ChatService.
func NewChatService(cfg *config.Config, db *gorm.DB, client *openrouter.Client, logger *zap.Logger) *ChatService {
	return &ChatService{Config: cfg, DB: db, Client: client, Logger: logger}
}

// Chat appends a user message to the session (creating one if needed),
// replays the full conversation to the provider, and persists both the user
// turn and the assistant's reply with its token usage and cost.
func (s *ChatService) Chat(ctx context.Context, userID uint, in ChatInput) (*ChatOutput, error) {
	model := in.Model
	if model == "" {
		model = s.Config.DefaultChatModel
	}

	session, err := s.resolveSession(userID, in, model)
	if err != nil {
		return nil, err
	}

	var history []models.ChatMessage
	if err := s.DB.Where("session_id = ?", session.ID).
		Order("created_at asc, id asc").Find(&history).Error; err != nil {
		return nil, err
	}

	apiMessages := make([]openrouter.Message, 0, len(history)+2)
	if session.SystemPrompt != "" {
		apiMessages = append(apiMessages, openrouter.Message{Role: "system", Content: session.SystemPrompt})
	}
	for _, m := range history {
		apiMessages = append(apiMessages, openrouter.Message{Role: m.Role, Content: m.Content})
	}
	apiMessages = append(apiMessages, openrouter.Message{Role: "user", Content: in.Message})

	resp, err := s.Client.ChatCompletion(ctx, model, apiMessages, defaultTemperature, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	tokens := resp.Usage.TotalTokens
	cost := CalculateCost(tokens, model)

	userMsg := models.ChatMessage{SessionID: session.ID, Role: "user", Content: in.Message}
	if err := s.DB.Create(&userMsg).Error; err != nil {
		return nil, err
	}
	aiMsg := models.ChatMessage{
		SessionID:  session.ID,
		Role:       "assistant",
		Content:    resp.Content(),
		TokensUsed: tokens,
		Cost:       cost,
		Model:      model,
	}
	if err := s.DB.Create(&aiMsg).Error; err != nil {
		return nil, err
	}
	// Bump the session's updated_at so listings sort by recent activity.
	if err := s.DB.Model(session).Update("updated_at", time.Now()).Error; err != nil {
		s.Logger.Warn("Session activity timestamp not updated",
			zap.Uint("session_id", session.ID), zap.Error(err))
	}

	s.Logger.Info("Chat turn completed",
		zap.Uint("session_id", session.ID),
		zap.String("model", model),
		zap.Int("tokens_used", tokens))

	return &ChatOutput{
		SessionID:  session.ID,
		Response:   resp.Content(),
		TokensUsed: tokens,
		Cost:       cost,
		Model:      model,
	}, nil
}

// resolveSession loads the caller's session or starts a fresh one.
func (s *ChatService) resolveSession(userID uint, in ChatInput, model string) (*models.ChatSession, error) {
	if in.SessionID != nil {
		var session models.ChatSession
		if err := s.DB.Where("id = ? AND user_id = ?", *in.SessionID, userID).
			First(&session).Error; err != nil {
			return nil, err
		}
		return &session, nil
	}

	prompt := in.SystemPrompt
	if prompt == "" {
		prompt = GovernmentSystemPrompt()
	}
	session := models.ChatSession{
		UserID:       userID,
		Title:        "Chat " + time.Now().Format("2006-01-02 15:04"),
		Model:        model,
		SystemPrompt: prompt,
		IsActive:     true,
	}
	if err := s.DB.Create(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

// AnalyzeDocument runs a one-shot analysis prompt over the supplied content
// and stores the result.
func (s *ChatService) AnalyzeDocument(ctx context.Context, userID uint, content, analysisType, instructions string) (*models.AIAnalysis, error) {
	model := s.Config.AnalysisModel
	messages := buildAnalysisMessages(analysisType, content, instructions)

	resp, err := s.Client.ChatCompletion(ctx, model, messages, defaultTemperature, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	tokens := resp.Usage.TotalTokens
	analysis := models.AIAnalysis{
		AnalysisType:    analysisType,
		InputData:       content,
		AnalysisResult:  resp.Content(),
		Model:           model,
		ConfidenceScore: analysisConfidence,
		TokensUsed:      tokens,
		Cost:            CalculateCost(tokens, model),
		RequestedBy:     userID,
	}
	if analysisType == "extraction" {
		if points := extractKeyPoints(resp.Content()); len(points) > 0 {
			if raw, err := json.Marshal(points); err == nil {
				analysis.KeyPoints = datatypes.JSON(raw)
			}
		}
	}
	if err := s.DB.Create(&analysis).Error; err != nil {
		return nil, err
	}
	return &analysis, nil
}

// extractKeyPoints pulls the "- " bullet lines out of an extraction answer,
// capped at maxKeyPoints.
func extractKeyPoints(text string) []string {
	var points []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "- ") {
			continue
		}
		points = append(points, strings.TrimSpace(strings.TrimPrefix(line, "- ")))
		if len(points) == maxKeyPoints {
			break
		}
	}
	return points
}

// buildAnalysisMessages templates the analysis request for the provider.
func buildAnalysisMessages(analysisType, content, instructions string) []openrouter.Message {
	var userPrompt string
	switch analysisType {
	case "summary":
		userPrompt = "Please provide a concise summary of the following document:\n\n" + content
	case "sentiment":
		userPrompt = "Analyze the sentiment of the following content and provide insights:\n\n" + content
	case "extraction":
		userPrompt = "Extract key information, dates, numbers, and important entities from:\n\n" + content
	case "classification":
		userPrompt = "Classify the following document by type, topic, and urgency level:\n\n" + content
	default:
		userPrompt = "Analyze the following content:\n\n" + content
	}
	if instructions != "" {
		userPrompt += "\n\nAdditional instructions: " + instructions
	}
	return []openrouter.Message{
		{Role: "system", Content: GovernmentSystemPrompt()},
		{Role: "user", Content: userPrompt},
	}
}

// RecommendationInput asks for AI recommendations on a free-form context.
type RecommendationInput struct {
	Context     string                 `json:"context" binding:"required"`
	RequestType string                 `json:"request_type" binding:"required"` // policy, budget, efficiency, ...
	Parameters  map[string]interface{} `json:"parameters"`
}

// RecommendationItem is one entry of a recommendation response.
type RecommendationItem struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	Category    string `json:"category"`
}

// RecommendationOutput is the structured recommendation answer.
type RecommendationOutput struct {
	Recommendations     []RecommendationItem `json:"recommendations"`
	Reasoning           string               `json:"reasoning"`
	ConfidenceScore     float64              `json:"confidence_score"`
	ImplementationSteps []string             `json:"implementation_steps"`
}

// Recommend runs a templated recommendation prompt over the supplied context
// and stores the run as an AIAnalysis of type "recommendation".
func (s *ChatService) Recommend(ctx context.Context, userID uint, in RecommendationInput) (*RecommendationOutput, error) {
	model := s.Config.AnalysisModel
	messages := buildRecommendationMessages(in)

	resp, err := s.Client.ChatCompletion(ctx, model, messages, defaultTemperature, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	tokens := resp.Usage.TotalTokens
	inputData, err := json.Marshal(in)
	if err != nil {
		return nil, err
	}
	analysis := models.AIAnalysis{
		AnalysisType:    "recommendation",
		InputData:       string(inputData),
		AnalysisResult:  resp.Content(),
		Model:           model,
		ConfidenceScore: analysisConfidence,
		TokensUsed:      tokens,
		Cost:            CalculateCost(tokens, model),
		RequestedBy:     userID,
	}
	if err := s.DB.Create(&analysis).Error; err != nil {
		return nil, err
	}

	return &RecommendationOutput{
		Recommendations: []RecommendationItem{{
			Title:       "Recommendation for " + in.RequestType,
			Description: resp.Content(),
			Priority:    "high",
			Category:    in.RequestType,
		}},
		Reasoning:       resp.Content(),
		ConfidenceScore: analysisConfidence,
		ImplementationSteps: []string{
			"Review recommendations",
			"Consult stakeholders",
			"Develop implementation plan",
		},
	}, nil
}

// buildRecommendationMessages templates the recommendation request.
func buildRecommendationMessages(in RecommendationInput) []openrouter.Message {
	userPrompt := "Based on the following context, provide recommendations for " + in.RequestType + ":\n\n" +
		"Context: " + in.Context + "\n\n" +
		"Please provide:\n" +
		"1. Specific, actionable recommendations\n" +
		"2. Reasoning for each recommendation\n" +
		"3. Implementation steps\n" +
		"4. Potential challenges and mitigation strategies\n" +
		"5. Expected outcomes and benefits\n\n"
	if len(in.Parameters) > 0 {
		if raw, err := json.MarshalIndent(in.Parameters, "", "  "); err == nil {
			userPrompt += "Additional parameters to consider: " + string(raw)
		}
	}
	return []openrouter.Message{
		{Role: "system", Content: GovernmentSystemPrompt()},
		{Role: "user", Content: userPrompt},
	}
}
