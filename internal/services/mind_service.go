package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"mindwave/internal/models"
)

// DegradedResponse is returned when every engine in the fallback chain is
// unready or failing. The caller must always get some answer, so
// exhaustion is a soft failure, never an error.
const DegradedResponse = "I hit turbulence — all engines are unavailable right now. Please try again in a moment."

// AttemptOutcome classifies one step of the fallback walk.
type AttemptOutcome string

const (
	AttemptSuccess AttemptOutcome = "success"
	AttemptFailed  AttemptOutcome = "failed"
	AttemptSkipped AttemptOutcome = "skipped" // engine not configured
)

// Attempt records which engine was tried and how it went. The trail is a
// first-class part of the result so callers and tests can see the walk,
// not just its outcome.
type Attempt struct {
	Engine  models.EngineName `json:"engine"`
	Outcome AttemptOutcome    `json:"outcome"`
	Error   string            `json:"error,omitempty"`
}

// ThinkResult is the typed outcome of one think call.
type ThinkResult struct {
	Response  string            `json:"response"`
	Engine    models.EngineName `json:"engine"`
	Category  models.Category   `json:"category"`
	Mode      string            `json:"mode"`
	Exhausted bool              `json:"exhausted"`
	Attempts  []Attempt         `json:"attempts"`
}

// MindService owns the live engine adapters and walks the fallback chain
// for each query. It holds no per-request state; the session counters and
// the default mode are its only shared mutable state.
type MindService struct {
	router  *Router
	modes   *ModeRegistry
	metrics *Metrics

	mu             sync.RWMutex
	engines        map[models.EngineName]Engine
	sessionQueries map[models.EngineName]int64
	defaultMode    string
}

// NewMindService wires the ensemble. Zero configured engines is fatal:
// the service could never answer anything.
func NewMindService(router *Router, modes *ModeRegistry, engines []Engine, metrics *Metrics) (*MindService, error) {
	if len(engines) == 0 {
		return nil, fmt.Errorf("no engines configured, check API keys")
	}

	engineMap := make(map[models.EngineName]Engine, len(engines))
	for _, e := range engines {
		engineMap[e.Name()] = e
	}

	log.Printf("🧠 [MIND] Ensemble ready: %d/%d engines online", len(engineMap), len(models.CanonicalEngineOrder))

	return &MindService{
		router:         router,
		modes:          modes,
		metrics:        metrics,
		engines:        engineMap,
		sessionQueries: make(map[models.EngineName]int64),
		defaultMode:    ModeDefault,
	}, nil
}

// ReplaceEngines swaps the live engine set, keeping session counters.
// Used by the definition-file hot reload. Swapping to zero engines is
// rejected; a broken reload must not take the ensemble down.
func (s *MindService) ReplaceEngines(engines []Engine) error {
	if len(engines) == 0 {
		return fmt.Errorf("refusing to replace engines with an empty set")
	}

	engineMap := make(map[models.EngineName]Engine, len(engines))
	for _, e := range engines {
		engineMap[e.Name()] = e
	}

	s.mu.Lock()
	s.engines = engineMap
	s.mu.Unlock()

	log.Printf("🧠 [MIND] Engines reloaded: %d/%d online", len(engineMap), len(models.CanonicalEngineOrder))
	return nil
}

// Route exposes the router decision for introspection and testing.
func (s *MindService) Route(query string) (models.EngineName, models.Category) {
	return s.router.Route(query)
}

// Modes returns the mode registry.
func (s *MindService) Modes() *ModeRegistry {
	return s.modes
}

// DefaultMode returns the process-wide default mode name.
func (s *MindService) DefaultMode() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.defaultMode
}

// SetDefaultMode changes the process-wide default mode. Unknown names are
// rejected; in-flight think calls are unaffected.
func (s *MindService) SetDefaultMode(name string) error {
	if _, err := s.modes.Lookup(name); err != nil {
		return err
	}
	s.mu.Lock()
	s.defaultMode = strings.ToLower(strings.TrimSpace(name))
	s.mu.Unlock()
	log.Printf("🎛️  [MIND] Default mode set to %q", name)
	return nil
}

// Think routes the query, applies the mode, composes the prompt and walks
// the fallback chain until one engine answers or the chain is exhausted.
// It returns an error only for invalid caller input (unknown mode);
// engine trouble degrades, it does not propagate.
func (s *MindService) Think(ctx context.Context, query, contextBlock, modeName string) (*ThinkResult, error) {
	if modeName == "" {
		modeName = s.DefaultMode()
	}
	mode, err := s.modes.Lookup(modeName)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	if s.metrics != nil {
		s.metrics.ThinkRequests.Inc()
		defer func() { s.metrics.ThinkLatency.Observe(time.Since(start).Seconds()) }()
	}

	target, category := s.router.Route(query)

	// A mode may force an engine, but only one that is actually
	// configured; readiness is known up front and not retried mid-chain.
	if mode.Engine != "" && s.isConfigured(mode.Engine) {
		target = mode.Engine
		category = models.Category(string(category) + "+" + mode.Name)
	}

	if s.metrics != nil {
		s.metrics.RoutedByCategory.WithLabelValues(string(category)).Inc()
	}

	chain := buildFallbackChain(target)
	prompt := composePrompt(contextBlock, mode, query)

	result := &ThinkResult{
		Category: category,
		Mode:     mode.Name,
	}

	for _, name := range chain {
		engine, ok := s.lookupEngine(name)
		if !ok {
			// Absence is a degraded-but-valid state, not a failure.
			result.Attempts = append(result.Attempts, Attempt{Engine: name, Outcome: AttemptSkipped})
			continue
		}

		response, err := engine.Generate(ctx, prompt, mode.MaxTokens)
		if err != nil {
			log.Printf("⚠️  [MIND] %s failed: %v, trying next engine", name, err)
			result.Attempts = append(result.Attempts, Attempt{Engine: name, Outcome: AttemptFailed, Error: err.Error()})
			if s.metrics != nil {
				s.metrics.EngineFailures.WithLabelValues(string(name)).Inc()
			}
			continue
		}

		result.Attempts = append(result.Attempts, Attempt{Engine: name, Outcome: AttemptSuccess})
		result.Response = response
		result.Engine = name
		s.recordSuccess(name)
		log.Printf("🧩 [MIND] [%s] → [%s]", strings.ToUpper(string(category)), strings.ToUpper(string(name)))
		return result, nil
	}

	// Terminal soft failure: every engine unready or failed.
	log.Printf("🌊 [MIND] Chain exhausted for category %q, returning degraded response", category)
	if s.metrics != nil {
		s.metrics.FallbackExhausted.Inc()
	}
	result.Response = DegradedResponse
	result.Exhausted = true
	return result, nil
}

// Stats reports session statistics since process start.
type Stats struct {
	EnginesOnline   int              `json:"engines_online"`
	Engines         []string         `json:"engines"`
	QueriesByEngine map[string]int64 `json:"queries_by_engine"`
	TotalQueries    int64            `json:"total_queries"`
	DefaultMode     string           `json:"default_mode"`
}

// Stats returns the session counters. Counters reset only on restart and
// are never used for routing decisions.
func (s *MindService) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{
		EnginesOnline:   len(s.engines),
		QueriesByEngine: make(map[string]int64, len(s.sessionQueries)),
		DefaultMode:     s.defaultMode,
	}
	for _, name := range models.CanonicalEngineOrder {
		if _, ok := s.engines[name]; ok {
			stats.Engines = append(stats.Engines, string(name))
		}
	}
	for name, count := range s.sessionQueries {
		stats.QueriesByEngine[string(name)] = count
		stats.TotalQueries += count
	}
	return stats
}

// FallbackEngine returns the least-preferred configured engine, used by
// background enrichment (insight extraction, digests) to keep the premium
// lane free. Falls back to any configured engine.
func (s *MindService) FallbackEngine() Engine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(models.CanonicalEngineOrder) - 1; i >= 0; i-- {
		if e, ok := s.engines[models.CanonicalEngineOrder[i]]; ok {
			return e
		}
	}
	return nil
}

func (s *MindService) isConfigured(name models.EngineName) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.engines[name]
	return ok
}

func (s *MindService) lookupEngine(name models.EngineName) (Engine, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.engines[name]
	return e, ok
}

func (s *MindService) recordSuccess(name models.EngineName) {
	s.mu.Lock()
	s.sessionQueries[name]++
	s.mu.Unlock()
	if s.metrics != nil {
		s.metrics.EngineSuccesses.WithLabelValues(string(name)).Inc()
	}
}

// buildFallbackChain returns the deterministic engine try-order: the
// preferred engine first, then the remaining engines in canonical
// priority order, each exactly once.
func buildFallbackChain(preferred models.EngineName) []models.EngineName {
	chain := []models.EngineName{preferred}
	for _, name := range models.CanonicalEngineOrder {
		if name != preferred {
			chain = append(chain, name)
		}
	}
	return chain
}

// composePrompt assembles the final prompt: context block, mode addon,
// then the raw query, each wrapped in its marker, blank-line separated.
// Empty sections are omitted entirely.
func composePrompt(contextBlock string, mode Mode, query string) string {
	var sb strings.Builder

	if contextBlock != "" {
		sb.WriteString("[CONTEXT FROM MEMORY]\n")
		sb.WriteString(contextBlock)
		sb.WriteString("\n[END CONTEXT]\n\n")
	}

	if mode.PromptAddon != "" {
		sb.WriteString("[MODE: ")
		sb.WriteString(mode.Name)
		sb.WriteString("]\n")
		sb.WriteString(mode.PromptAddon)
		sb.WriteString("\n[END MODE]\n\n")
	}

	sb.WriteString("User query: ")
	sb.WriteString(query)
	return sb.String()
}
