package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"mindwave/internal/models"
)

const digestPrompt = `You are summarizing one day of a user's conversations with their assistant. Produce ONLY a JSON object: {"summary":"2-3 sentence narrative of the day","key_decisions":["..."],"open_tasks":["..."],"projects_mentioned":["..."]}. Keep lists short and concrete. No markdown.`

// DigestService builds the end-of-day summary from the day's
// conversations and insights.
type DigestService struct {
	memory   *MemoryService
	engineFn func() Engine
	push     *PushService
}

func NewDigestService(memory *MemoryService, engineFn func() Engine, push *PushService) *DigestService {
	return &DigestService{memory: memory, engineFn: engineFn, push: push}
}

// GenerateDaily composes, stores and announces today's digest. When the
// day had no conversations it stores a minimal digest and skips the
// engine call.
func (s *DigestService) GenerateDaily(ctx context.Context) (*models.Digest, error) {
	if s.memory == nil {
		return nil, fmt.Errorf("memory store not configured")
	}

	conversations := s.memory.TodayConversations(ctx)
	insights := s.memory.TodayInsights(ctx)

	digest := models.Digest{
		Date:              time.Now().UTC().Format("2006-01-02"),
		ConversationCount: len(conversations),
	}

	if len(conversations) == 0 {
		digest.Summary = "A quiet day. No conversations recorded."
	} else {
		summarized, err := s.summarize(ctx, conversations, insights)
		if err != nil {
			log.Printf("⚠️  [DIGEST] Summarization failed, storing raw digest: %v", err)
			digest.Summary = fmt.Sprintf("%d conversations today. Summary unavailable.", len(conversations))
		} else {
			digest.Summary = summarized.Summary
			digest.KeyDecisions = summarized.KeyDecisions
			digest.OpenTasks = summarized.OpenTasks
			digest.ProjectsMentioned = summarized.ProjectsMentioned
		}
	}

	if err := s.memory.StoreDigest(ctx, digest); err != nil {
		return nil, fmt.Errorf("store digest: %w", err)
	}
	log.Printf("📰 [DIGEST] Stored digest for %s (%d conversations)", digest.Date, digest.ConversationCount)

	if s.push != nil && digest.ConversationCount > 0 {
		s.push.NotifyAll(ctx, "Daily digest ready", digest.Summary)
	}
	return &digest, nil
}

type digestSummary struct {
	Summary           string   `json:"summary"`
	KeyDecisions      []string `json:"key_decisions"`
	OpenTasks         []string `json:"open_tasks"`
	ProjectsMentioned []string `json:"projects_mentioned"`
}

func (s *DigestService) summarize(ctx context.Context, conversations []models.Conversation, insights []models.Insight) (*digestSummary, error) {
	engine := s.engineFn()
	if engine == nil {
		return nil, fmt.Errorf("no engine available")
	}

	var b strings.Builder
	b.WriteString(digestPrompt)
	b.WriteString("\n\nConversations:\n")
	for i, conv := range conversations {
		if i >= 30 {
			b.WriteString(fmt.Sprintf("... and %d more\n", len(conversations)-i))
			break
		}
		query := truncateItem(conv.Query, 150)
		b.WriteString(fmt.Sprintf("- [%s] %s\n", conv.Category, query))
	}
	if len(insights) > 0 {
		b.WriteString("\nExtracted insights:\n")
		for i, ins := range insights {
			if i >= 20 {
				break
			}
			b.WriteString(fmt.Sprintf("- (%s) %s\n", ins.Type, ins.Content))
		}
	}

	raw, err := engine.Generate(ctx, b.String(), 800)
	if err != nil {
		return nil, err
	}

	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		if idx := strings.Index(raw, "\n"); idx >= 0 {
			raw = raw[idx+1:]
		}
		if idx := strings.LastIndex(raw, "```"); idx >= 0 {
			raw = raw[:idx]
		}
	}

	var out digestSummary
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("digest JSON: %w", err)
	}
	return &out, nil
}
