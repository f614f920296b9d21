package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"mindwave/internal/models"
)

// insightExtractionPrompt asks for machine-readable insights only.
const insightExtractionPrompt = `Extract insights from this exchange between the user and their assistant. Return ONLY a JSON array. Each object: {"type":"decision|idea|task|question|connection|preference","content":"concise text","projects":["ProjectName"]}. If nothing notable, return []. No markdown.`

// maxInsightsPerExchange caps what one conversation may contribute.
const maxInsightsPerExchange = 5

// InsightExtractor is the post-commit enrichment queue. Storing a
// conversation enqueues it here; a background worker extracts insights
// with the cheapest engine and writes the embedding row. The queue can
// never block or fail the response path: enqueue is non-blocking and
// worker errors only log.
type InsightExtractor struct {
	memory   *MemoryService
	embedder *EmbeddingService
	engineFn func() Engine

	queue  chan models.Conversation
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewInsightExtractor creates the enrichment worker. engineFn supplies
// the generation engine lazily so the extractor follows engine
// availability at call time.
func NewInsightExtractor(memory *MemoryService, embedder *EmbeddingService, engineFn func() Engine) *InsightExtractor {
	return &InsightExtractor{
		memory:   memory,
		embedder: embedder,
		engineFn: engineFn,
		queue:    make(chan models.Conversation, 64),
		stopCh:   make(chan struct{}),
	}
}

// Start launches the background worker.
func (x *InsightExtractor) Start() {
	x.wg.Add(1)
	go func() {
		defer x.wg.Done()
		for {
			select {
			case conv := <-x.queue:
				x.process(conv)
			case <-x.stopCh:
				return
			}
		}
	}()
	log.Println("💡 [INSIGHTS] Extraction worker started")
}

// Stop shuts the worker down. Queued items that have not started are
// dropped; enrichment is best-effort by design.
func (x *InsightExtractor) Stop() {
	close(x.stopCh)
	x.wg.Wait()
}

// Enqueue submits a stored conversation for enrichment. Never blocks:
// when the queue is full the item is dropped with a log line.
func (x *InsightExtractor) Enqueue(conv models.Conversation) {
	select {
	case x.queue <- conv:
	default:
		log.Printf("⚠️  [INSIGHTS] Queue full, dropping enrichment for conversation %s", conv.ID)
	}
}

func (x *InsightExtractor) process(conv models.Conversation) {
	ctx, cancel := context.WithTimeout(context.Background(), 45*time.Second)
	defer cancel()

	x.extractInsights(ctx, conv)
	x.storeEmbedding(ctx, conv)
}

func (x *InsightExtractor) extractInsights(ctx context.Context, conv models.Conversation) {
	engine := x.engineFn()
	if engine == nil || x.memory == nil {
		return
	}

	response := truncateItem(conv.Response, 800)
	prompt := fmt.Sprintf("%s\n\nUser: %s\nAssistant: %s", insightExtractionPrompt, conv.Query, response)

	raw, err := engine.Generate(ctx, prompt, 400)
	if err != nil {
		log.Printf("⚠️  [INSIGHTS] Extraction call failed: %v", err)
		return
	}

	extracted, err := parseInsightJSON(raw)
	if err != nil {
		log.Printf("⚠️  [INSIGHTS] Extraction returned invalid JSON: %v", err)
		return
	}

	stored := 0
	for _, ins := range extracted {
		if stored >= maxInsightsPerExchange {
			break
		}
		if ins.Content == "" {
			continue
		}
		ins.Content = truncateItem(ins.Content, 500)
		err := x.memory.StoreInsight(ctx, models.Insight{
			ConversationID: conv.ID,
			SessionID:      conv.SessionID,
			Type:           ins.Type,
			Content:        ins.Content,
			ProjectTags:    ins.Projects,
			Confidence:     0.8,
		})
		if err == nil {
			stored++
		}
	}
	if stored > 0 {
		log.Printf("💡 [INSIGHTS] Extracted %d insights from conversation %s", stored, conv.ID)
	}
}

func (x *InsightExtractor) storeEmbedding(ctx context.Context, conv models.Conversation) {
	if x.embedder == nil || x.memory == nil {
		return
	}

	response := truncateItem(conv.Response, 500)
	chunk := fmt.Sprintf("User: %s\nAssistant: %s", conv.Query, response)

	embedding, err := x.embedder.Embed(ctx, chunk)
	if err != nil {
		log.Printf("⚠️  [INSIGHTS] Embedding skipped: %v", err)
		return
	}
	if err := x.memory.StoreEmbedding(ctx, conv.ID, "conversation", chunk, embedding); err != nil {
		log.Printf("⚠️  [INSIGHTS] Store embedding failed: %v", err)
	}
}

// extractedInsight is the shape the extraction prompt asks for.
type extractedInsight struct {
	Type     string   `json:"type"`
	Content  string   `json:"content"`
	Projects []string `json:"projects"`
}

// parseInsightJSON parses the engine's reply, tolerating markdown code
// fences around the array.
func parseInsightJSON(raw string) ([]extractedInsight, error) {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		if idx := strings.Index(raw, "\n"); idx >= 0 {
			raw = raw[idx+1:]
		}
		if idx := strings.LastIndex(raw, "```"); idx >= 0 {
			raw = raw[:idx]
		}
		raw = strings.TrimSpace(raw)
	}

	var out []extractedInsight
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, err
	}
	return out, nil
}
