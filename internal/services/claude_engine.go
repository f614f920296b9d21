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

// claudeSystemPrompt is the companion persona injected on every Claude
// call. Claude handles the premium lanes: deep reasoning, Arabic, creative.
const claudeSystemPrompt = `You are Mindwave, a personal AI companion.

How to respond:
- Be concise but deep when the query calls for it
- Answer in Arabic when the user writes in Arabic
- Think in systems — connect ideas to the user's ongoing projects
- Prefer actionable suggestions over abstract advice
- Augment the user's thinking, never replace it`

// ClaudeEngine calls the Anthropic messages API.
type ClaudeEngine struct {
	apiKey string
	model  string
	client *http.Client
}

// NewClaudeEngine creates the premium reasoning engine adapter.
func NewClaudeEngine(apiKey, model string, timeout time.Duration) *ClaudeEngine {
	return &ClaudeEngine{
		apiKey: apiKey,
		model:  model,
		client: newEngineClient(timeout),
	}
}

// Name implements Engine.
func (e *ClaudeEngine) Name() models.EngineName {
	return models.EngineClaude
}

// Generate implements Engine.
func (e *ClaudeEngine) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	reqBody, err := json.Marshal(map[string]interface{}{
		"model":      e.model,
		"max_tokens": maxTokens,
		"system":     claudeSystemPrompt,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	})
	if err != nil {
		return "", &EngineError{Engine: e.Name(), Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, "POST", "https://api.anthropic.com/v1/messages", bytes.NewBuffer(reqBody))
	if err != nil {
		return "", &EngineError{Engine: e.Name(), Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", e.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

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
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", &EngineError{Engine: e.Name(), Err: fmt.Errorf("failed to parse response: %w", err)}
	}
	for _, block := range result.Content {
		if block.Type == "text" && block.Text != "" {
			return block.Text, nil
		}
	}
	return "", &EngineError{Engine: e.Name(), Err: fmt.Errorf("empty response")}
}

// truncateBody keeps provider error bodies readable in logs
func truncateBody(body []byte) string {
	const max = 300
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}
