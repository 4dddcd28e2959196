package openrouter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"wakanda-gov/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	cfg := &config.Config{
		OpenRouterBaseURL: server.URL,
		OpenRouterAPIKey:  "test-key",
		OpenRouterReferer: "https://example.gov",
	}
	return NewClient(cfg, zap.NewNop())
}

func TestChatCompletionSendsAuthAndBody(t *testing.T) {
	var gotAuth, gotPath string
	var gotReq struct {
		Model       string    `json:"model"`
		Messages    []Message `json:"messages"`
		Temperature float64   `json:"temperature"`
	}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotReq)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": "ok"}},
			},
			"usage": map[string]int{"total_tokens": 12},
		})
	})

	resp, err := client.ChatCompletion(context.Background(), "openai/gpt-4",
		[]Message{{Role: "user", Content: "hi"}}, 0.7, 0)
	if err != nil {
		t.Fatalf("ChatCompletion failed: %v", err)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("expected bearer auth header, got %q", gotAuth)
	}
	if gotPath != "/chat/completions" {
		t.Errorf("unexpected path %q", gotPath)
	}
	if gotReq.Model != "openai/gpt-4" || len(gotReq.Messages) != 1 {
		t.Errorf("unexpected request body: %+v", gotReq)
	}
	if resp.Content() != "ok" || resp.Usage.TotalTokens != 12 {
		t.Errorf("unexpected response: content=%q tokens=%d", resp.Content(), resp.Usage.TotalTokens)
	}
}

func TestChatCompletionNonOKStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": "rate limited"}`))
	})

	_, err := client.ChatCompletion(context.Background(), "openai/gpt-4",
		[]Message{{Role: "user", Content: "hi"}}, 0.7, 0)
	if err == nil {
		t.Fatal("expected error on 429")
	}
	if !strings.Contains(err.Error(), "429") {
		t.Errorf("expected status code in error, got %v", err)
	}
}

func TestChatCompletionEmptyChoices(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"choices": []interface{}{}})
	})

	_, err := client.ChatCompletion(context.Background(), "openai/gpt-4",
		[]Message{{Role: "user", Content: "hi"}}, 0.7, 0)
	if err == nil {
		t.Fatal("expected error on empty choices")
	}
}

func TestChatCompletionWithoutAPIKey(t *testing.T) {
	client := NewClient(&config.Config{OpenRouterBaseURL: "http://unused"}, zap.NewNop())
	_, err := client.ChatCompletion(context.Background(), "openai/gpt-4", nil, 0.7, 0)
	if err == nil {
		t.Fatal("expected error without api key")
	}
}

func TestModels(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{
				{"id": "openai/gpt-4", "name": "GPT-4", "context_length": 8192},
				{"id": "anthropic/claude-3-haiku", "name": "Claude 3 Haiku", "context_length": 200000},
			},
		})
	})

	models, err := client.Models(context.Background())
	if err != nil {
		t.Fatalf("Models failed: %v", err)
	}
	if len(models) != 2 {
		t.Fatalf("expected 2 models, got %d", len(models))
	}
	if models[0].ID != "openai/gpt-4" || models[1].ContextLength != 200000 {
		t.Errorf("unexpected models: %+v", models)
	}
}
