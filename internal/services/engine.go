package services

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"mindwave/internal/models"
)

// DefaultMaxTokens is the generation budget used when no mode is active.
const DefaultMaxTokens = 2048

// Engine is a backend text-generation provider. Adapters do not retry;
// retry-via-fallback belongs to the orchestrator.
type Engine interface {
	Name() models.EngineName
	Generate(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// EngineError wraps any transport or provider failure from an engine.
type EngineError struct {
	Engine models.EngineName
	Err    error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("engine %s: %v", e.Engine, e.Err)
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

// newEngineClient builds the HTTP client shared by all engine adapters.
// The timeout covers the whole generation call; a timeout is treated the
// same as any other engine failure by the orchestrator.
func newEngineClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &http.Client{Timeout: timeout}
}
