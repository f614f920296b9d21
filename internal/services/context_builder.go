package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"mindwave/internal/models"
)

// Per-item character budgets and per-section item caps. These bound the
// assembled block no matter what the store returns.
const (
	historyQueryBudget    = 200
	historyResponseBudget = 300
	insightBudget         = 150
	matchBudget           = 200
	suggestionBudget      = 200

	insightCap    = 8
	suggestionCap = 5

	semanticCacheTTL = 5 * time.Minute
)

// ContextBuilder assembles the memory context injected ahead of every
// query: recent history, unresolved insights, semantic matches and
// proactive suggestions, in that fixed order. Each source is fetched
// concurrently and is independently fault-tolerant: a failing source
// drops its section, never the assembly.
type ContextBuilder struct {
	memory      *MemoryService
	embedder    *EmbeddingService
	suggestions *SuggestionService
	redis       *RedisService
	metrics     *Metrics

	retrievalTimeout time.Duration
	matchThreshold   float64
	matchCount       int
}

// NewContextBuilder creates the context assembler. embedder and redis may
// be nil: the semantic section is skipped without an embedder, and the
// semantic cache is skipped without Redis.
func NewContextBuilder(
	memory *MemoryService,
	embedder *EmbeddingService,
	suggestions *SuggestionService,
	redis *RedisService,
	retrievalTimeout time.Duration,
	matchThreshold float64,
	matchCount int,
) *ContextBuilder {
	if retrievalTimeout <= 0 {
		retrievalTimeout = 8 * time.Second
	}
	if matchCount <= 0 {
		matchCount = 3
	}
	return &ContextBuilder{
		memory:           memory,
		embedder:         embedder,
		suggestions:      suggestions,
		redis:            redis,
		metrics:          GetMetrics(),
		retrievalTimeout: retrievalTimeout,
		matchThreshold:   matchThreshold,
		matchCount:       matchCount,
	}
}

// Build assembles the context block. historyLimit bounds the recent
// exchanges section; query, when non-empty, drives the semantic section.
// All sources empty yields an empty string, never a placeholder.
func (b *ContextBuilder) Build(ctx context.Context, historyLimit int, query string) string {
	if b.memory == nil {
		return ""
	}
	if historyLimit <= 0 {
		historyLimit = 5
	}

	var (
		wg       sync.WaitGroup
		history  []models.Conversation
		insights []models.Insight
		matches  []models.SemanticMatch
		suggests []models.Suggestion
	)

	fetch := func(name string, fn func(context.Context)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					log.Printf("⚠️  [CONTEXT] %s source panicked: %v", name, r)
				}
			}()
			sctx, cancel := context.WithTimeout(ctx, b.retrievalTimeout)
			defer cancel()
			fn(sctx)
		}()
	}

	fetch("history", func(sctx context.Context) {
		history = b.memory.RecentConversations(sctx, historyLimit, 0)
	})
	fetch("insights", func(sctx context.Context) {
		insights = b.memory.ActiveInsights(sctx, insightCap)
	})
	if query != "" && b.embedder != nil {
		fetch("semantic", func(sctx context.Context) {
			matches = b.semanticMatches(sctx, query)
		})
	}
	if b.suggestions != nil {
		fetch("suggestions", func(sctx context.Context) {
			suggests = b.suggestions.Suggestions(sctx, suggestionCap)
		})
	}

	wg.Wait()

	b.recordSection("history", len(history))
	b.recordSection("insights", len(insights))
	b.recordSection("semantic", len(matches))
	b.recordSection("suggestions", len(suggests))

	return assembleContext(history, insights, matches, suggests)
}

func (b *ContextBuilder) recordSection(source string, n int) {
	if b.metrics == nil {
		return
	}
	outcome := "included"
	if n == 0 {
		outcome = "empty"
	}
	b.metrics.ContextSections.WithLabelValues(source, outcome).Inc()
}

// semanticMatches embeds the query and runs the similarity search,
// consulting the Redis cache first. Embedding calls are the expensive
// part of context assembly.
func (b *ContextBuilder) semanticMatches(ctx context.Context, query string) []models.SemanticMatch {
	cacheKey := "semctx:" + hashQuery(query)
	if b.redis != nil {
		if cached, ok := b.redis.GetJSON(ctx, cacheKey); ok {
			var matches []models.SemanticMatch
			if err := json.Unmarshal(cached, &matches); err == nil {
				return matches
			}
		}
	}

	embedding, err := b.embedder.Embed(ctx, query)
	if err != nil {
		log.Printf("⚠️  [CONTEXT] Semantic section skipped: %v", err)
		return nil
	}
	matches := b.memory.SemanticSearch(ctx, embedding, b.matchCount, b.matchThreshold)

	if b.redis != nil && matches != nil {
		if data, err := json.Marshal(matches); err == nil {
			b.redis.SetJSON(ctx, cacheKey, data, semanticCacheTTL)
		}
	}
	return matches
}

func hashQuery(query string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(query))))
	return hex.EncodeToString(sum[:8])
}

// assembleContext concatenates the non-empty sections in fixed order:
// history, insights, semantic matches, suggestions. History reads
// chronologically (oldest first); insights and suggestions read newest
// first.
func assembleContext(
	history []models.Conversation,
	insights []models.Insight,
	matches []models.SemanticMatch,
	suggestions []models.Suggestion,
) string {
	var sections []string

	if len(history) > 0 {
		var sb strings.Builder
		sb.WriteString("[Recent conversation history]")
		for i := len(history) - 1; i >= 0; i-- {
			conv := history[i]
			sb.WriteString("\nUser: ")
			sb.WriteString(truncateItem(conv.Query, historyQueryBudget))
			sb.WriteString("\nAssistant: ")
			sb.WriteString(truncateItem(conv.Response, historyResponseBudget))
		}
		sections = append(sections, sb.String())
	}

	if len(insights) > 0 {
		var sb strings.Builder
		sb.WriteString("[Active insights from past conversations]")
		for _, ins := range insights {
			sb.WriteString("\n- [")
			sb.WriteString(ins.Type)
			sb.WriteString("]")
			if len(ins.ProjectTags) > 0 {
				sb.WriteString(" [")
				sb.WriteString(strings.Join(ins.ProjectTags, ", "))
				sb.WriteString("]")
			}
			sb.WriteString(" ")
			sb.WriteString(truncateItem(ins.Content, insightBudget))
		}
		sections = append(sections, sb.String())
	}

	if len(matches) > 0 {
		var sb strings.Builder
		sb.WriteString("[Relevant past context (semantic match)]")
		for _, m := range matches {
			sb.WriteString(fmt.Sprintf("\n- (%.0f%%) ", m.Similarity*100))
			sb.WriteString(truncateItem(m.ChunkText, matchBudget))
		}
		sections = append(sections, sb.String())
	}

	if len(suggestions) > 0 {
		var sb strings.Builder
		sb.WriteString("[Proactive suggestions]")
		for _, sug := range suggestions {
			sb.WriteString("\n- ")
			sb.WriteString(truncateItem(sug.Content, suggestionBudget))
		}
		sections = append(sections, sb.String())
	}

	return strings.Join(sections, "\n\n")
}

// truncateItem bounds a single context item, rune-safe. Hard cut: the
// budget is an invariant, not a target.
func truncateItem(text string, budget int) string {
	runes := []rune(text)
	if len(runes) <= budget {
		return text
	}
	return string(runes[:budget])
}
