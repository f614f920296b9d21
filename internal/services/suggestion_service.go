package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"mindwave/internal/models"
)

// Suggestion types.
const (
	SuggestionStaleTask  = "stale_task"
	SuggestionConnection = "connection"
	SuggestionContinuity = "continuity"
)

// staleTaskAge is how old an unactioned task must be before it is
// surfaced as a stale-task suggestion.
const staleTaskAge = 3 * 24 * time.Hour

// continuityGap is how long a conversation lull must last before the last
// topic is surfaced as a continuity prompt.
const continuityGap = 8 * time.Hour

// SuggestionService builds proactive nudges from stored memory: stale
// tasks, cross-project connections, continuity prompts. Nothing here is
// requested by the user directly; suggestions ride along in assembled
// context and in scheduled reminders.
type SuggestionService struct {
	memory *MemoryService
}

// NewSuggestionService creates the suggestion service.
func NewSuggestionService(memory *MemoryService) *SuggestionService {
	return &SuggestionService{memory: memory}
}

// Suggestions returns up to limit proactive suggestions, newest first.
// Empty when the store is absent or has nothing to say.
func (s *SuggestionService) Suggestions(ctx context.Context, limit int) []models.Suggestion {
	if s.memory == nil {
		return nil
	}
	if limit <= 0 {
		limit = 5
	}

	now := time.Now().UTC()
	insights := s.memory.ActiveInsights(ctx, 20)

	suggestions := staleTaskSuggestions(insights, now)
	suggestions = append(suggestions, connectionSuggestions(insights)...)

	if recent := s.memory.RecentConversations(ctx, 1, 0); len(recent) > 0 {
		if c := continuitySuggestion(recent[0], now); c != nil {
			suggestions = append(suggestions, *c)
		}
	}

	sort.Slice(suggestions, func(i, j int) bool {
		return suggestions[i].CreatedAt.After(suggestions[j].CreatedAt)
	})
	if len(suggestions) > limit {
		suggestions = suggestions[:limit]
	}
	return suggestions
}

// StaleTasks returns only the stale-task suggestions, used by the
// reminder job.
func (s *SuggestionService) StaleTasks(ctx context.Context) []models.Suggestion {
	if s.memory == nil {
		return nil
	}
	return staleTaskSuggestions(s.memory.ActiveInsights(ctx, 20), time.Now().UTC())
}

// staleTaskSuggestions flags unactioned tasks older than staleTaskAge.
func staleTaskSuggestions(insights []models.Insight, now time.Time) []models.Suggestion {
	var out []models.Suggestion
	for _, ins := range insights {
		if ins.Type != "task" || ins.Actioned {
			continue
		}
		age := now.Sub(ins.CreatedAt)
		if age < staleTaskAge {
			continue
		}
		out = append(out, models.Suggestion{
			Type:      SuggestionStaleTask,
			Content:   fmt.Sprintf("Task still open after %d days: %s", int(age.Hours()/24), ins.Content),
			CreatedAt: ins.CreatedAt,
		})
	}
	return out
}

// connectionSuggestions surfaces project tags that show up across
// different insight types, a sign that threads are converging.
func connectionSuggestions(insights []models.Insight) []models.Suggestion {
	type tagInfo struct {
		types  map[string]bool
		latest time.Time
	}
	byTag := make(map[string]*tagInfo)
	for _, ins := range insights {
		for _, tag := range ins.ProjectTags {
			info := byTag[tag]
			if info == nil {
				info = &tagInfo{types: make(map[string]bool)}
				byTag[tag] = info
			}
			info.types[ins.Type] = true
			if ins.CreatedAt.After(info.latest) {
				info.latest = ins.CreatedAt
			}
		}
	}

	var out []models.Suggestion
	for tag, info := range byTag {
		if len(info.types) < 2 {
			continue
		}
		kinds := make([]string, 0, len(info.types))
		for t := range info.types {
			kinds = append(kinds, t+"s")
		}
		sort.Strings(kinds)
		out = append(out, models.Suggestion{
			Type:      SuggestionConnection,
			Content:   fmt.Sprintf("Several threads converging on %s (%s) — worth a review?", tag, strings.Join(kinds, ", ")),
			CreatedAt: info.latest,
		})
	}
	return out
}

// continuitySuggestion surfaces the last topic after a conversation lull.
func continuitySuggestion(last models.Conversation, now time.Time) *models.Suggestion {
	if now.Sub(last.Timestamp) < continuityGap {
		return nil
	}
	topic := last.Query
	if r := []rune(topic); len(r) > 120 {
		topic = string(r[:120]) + "..."
	}
	return &models.Suggestion{
		Type:      SuggestionContinuity,
		Content:   "Last time you were on: " + topic,
		CreatedAt: last.Timestamp,
	}
}
