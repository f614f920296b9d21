package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"mindwave/internal/models"
)

// OpenAIEngine calls the chat completions API. It is the fallback lane,
// reached when both Claude and Gemini are unavailable or failing.
type OpenAIEngine struct {
	apiKey string
	model  string
	client *http.Client
}

// NewOpenAIEngine creates the fallback engine adapter.
func NewOpenAIEngine(apiKey, model string, timeout time.Duration) *OpenAIEngine {
	return &OpenAIEngine{
		apiKey: apiKey,
		model:  model,
		client: newEngineClient(timeout),
	}
}

// Name implements Engine.
func (e *OpenAIEngine) Name() models.EngineName {
	return models.EngineOpenAI
}

// Generate implements Engine.
func (e *OpenAIEngine) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	reqBody, err := json.Marshal(map[string]interface{}{
		"model": e.model,
		"messages": []map[string]string{
			{"role": "system", "content": "You are Mindwave, a helpful personal AI companion. Be concise and helpful."},
			{"role": "user", "content": prompt},
		},
		"max_tokens": maxTokens,
	})
	if err != nil {
		return "", &EngineError{Engine: e.Name(), Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, "POST", "https://api.openai.com/v1/chat/completions", bytes.NewBuffer(reqBody))
	if err != nil {
		return "", &EngineError{Engine: e.Name(), Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return "", &EngineError{Engine: e.Name(), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &EngineError{Engine: e.Name(), Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &EngineError{Engine: e.Name(), Err: fmt.Errorf("status %d: %s", resp.StatusCode, truncateBody(body))}
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", &EngineError{Engine: e.Name(), Err: fmt.Errorf("failed to parse response: %w", err)}
	}
	if len(result.Choices) == 0 || result.Choices[0].Message.Content == "" {
		return "", &EngineError{Engine: e.Name(), Err: fmt.Errorf("empty response")}
	}
	return result.Choices[0].Message.Content, nil
}
