package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// embeddingInputLimit caps the text sent to the embedding API.
const embeddingInputLimit = 8000

// EmbeddingService turns text into fixed-dimension vectors. It exists
// only for the semantic-search sub-path: a nil service simply means that
// section is omitted from assembled context.
type EmbeddingService struct {
	apiKey  string
	model   string
	client  *http.Client
	limiter *rate.Limiter
}

// NewEmbeddingService creates the embedding client, or nil when no API
// key is configured.
func NewEmbeddingService(apiKey, model string) *EmbeddingService {
	if apiKey == "" {
		log.Println("⚠️  [EMBED] No API key, semantic search disabled")
		return nil
	}
	return &EmbeddingService{
		apiKey: apiKey,
		model:  model,
		client: &http.Client{Timeout: 20 * time.Second},
		// Embeddings fire on every stored conversation and every
		// semantic lookup; keep the call rate bounded.
		limiter: rate.NewLimiter(rate.Limit(5), 10),
	}
}

// Embed returns the embedding vector for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if s == nil {
		return nil, fmt.Errorf("embedding service not configured")
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	if len(text) > embeddingInputLimit {
		text = text[:embeddingInputLimit]
	}

	reqBody, err := json.Marshal(map[string]interface{}{
		"model": s.model,
		"input": text,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", "https://api.openai.com/v1/embeddings", bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding API returned %d: %s", resp.StatusCode, truncateBody(body))
	}

	var result struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse embedding response: %w", err)
	}
	if len(result.Data) == 0 {
		return nil, fmt.Errorf("empty embedding response")
	}
	return result.Data[0].Embedding, nil
}
