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

// GeminiEngine calls the Google generateContent API. It is the fast lane:
// simple queries, data and research tasks.
type GeminiEngine struct {
	apiKey string
	model  string
	client *http.Client
}

// NewGeminiEngine creates the fast/cheap engine adapter.
func NewGeminiEngine(apiKey, model string, timeout time.Duration) *GeminiEngine {
	return &GeminiEngine{
		apiKey: apiKey,
		model:  model,
		client: newEngineClient(timeout),
	}
}

// Name implements Engine.
func (e *GeminiEngine) Name() models.EngineName {
	return models.EngineGemini
}

// Generate implements Engine.
func (e *GeminiEngine) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	reqBody, err := json.Marshal(map[string]interface{}{
		"contents": []map[string]interface{}{
			{"parts": []map[string]string{{"text": prompt}}},
		},
		"generationConfig": map[string]interface{}{
			"maxOutputTokens": maxTokens,
		},
	})
	if err != nil {
		return "", &EngineError{Engine: e.Name(), Err: err}
	}

	url := fmt.Sprintf("https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent", e.model)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(reqBody))
	if err != nil {
		return "", &EngineError{Engine: e.Name(), Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", e.apiKey)

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
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", &EngineError{Engine: e.Name(), Err: fmt.Errorf("failed to parse response: %w", err)}
	}
	for _, cand := range result.Candidates {
		for _, part := range cand.Content.Parts {
			if part.Text != "" {
				return part.Text, nil
			}
		}
	}
	return "", &EngineError{Engine: e.Name(), Err: fmt.Errorf("empty response")}
}
