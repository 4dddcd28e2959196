package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"wakanda-gov/config"
)

var httpClient = &http.Client{Timeout: 60 * time.Second}

// Client talks to the OpenRouter chat-completion API.
type Client struct {
	Config *config.Config
	Logger *zap.Logger
}

// NewClient creates a new OpenRouter client.
func NewClient(cfg *config.Config, logger *zap.Logger) *Client {
	return &Client{Config: cfg, Logger: logger}
}

// ChatCompletion sends the message list to /chat/completions and returns the
// decoded response. maxTokens <= 0 leaves the limit to the provider.
func (c *Client) ChatCompletion(ctx context.Context, model string, messages []Message, temperature float64, maxTokens int) (*ChatResponse, error) {
	if c.Config.OpenRouterAPIKey == "" {
		return nil, fmt.Errorf("openrouter api key not configured")
	}

	body, err := json.Marshal(chatRequest{
		Model:       model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.Config.OpenRouterBaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	log := c.Logger.With(zap.String("model", model), zap.Int("messages", len(messages)))
	log.Debug("Calling OpenRouter chat completion")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("openrouter api error: %d - %s", resp.StatusCode, string(detail))
	}

	var cr ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return nil, err
	}
	if len(cr.Choices) == 0 {
		return nil, fmt.Errorf("openrouter returned no choices")
	}

	log.Debug("OpenRouter completion received", zap.Int("total_tokens", cr.Usage.TotalTokens))
	return &cr, nil
}

// Models lists the models available through the provider.
func (c *Client) Models(ctx context.Context) ([]Model, error) {
	if c.Config.OpenRouterAPIKey == "" {
		return nil, fmt.Errorf("openrouter api key not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Config.OpenRouterBaseURL+"/models", nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("openrouter api error: %d - %s", resp.StatusCode, string(detail))
	}

	var mr modelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&mr); err != nil {
		return nil, err
	}
	return mr.Data, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.Config.OpenRouterAPIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("HTTP-Referer", c.Config.OpenRouterReferer)
	req.Header.Set("X-Title", "Wakanda Digital Government Platform")
}
