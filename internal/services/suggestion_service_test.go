package services

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"mindwave/internal/models"
)

func TestStaleTaskSuggestions(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		insight  models.Insight
		expected bool
	}{
		{
			name:     "old unactioned task is stale",
			insight:  models.Insight{Type: "task", Content: "renew domain", CreatedAt: now.Add(-4 * 24 * time.Hour)},
			expected: true,
		},
		{
			name:     "exactly at the threshold is stale",
			insight:  models.Insight{Type: "task", Content: "pay invoice", CreatedAt: now.Add(-staleTaskAge)},
			expected: true,
		},
		{
			name:     "fresh task is not stale",
			insight:  models.Insight{Type: "task", Content: "reply to mail", CreatedAt: now.Add(-2 * 24 * time.Hour)},
			expected: false,
		},
		{
			name:     "actioned task never surfaces",
			insight:  models.Insight{Type: "task", Content: "done already", Actioned: true, CreatedAt: now.Add(-10 * 24 * time.Hour)},
			expected: false,
		},
		{
			name:     "old decision is not a task",
			insight:  models.Insight{Type: "decision", Content: "chose sqlite", CreatedAt: now.Add(-10 * 24 * time.Hour)},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := staleTaskSuggestions([]models.Insight{tt.insight}, now)
			if (len(got) == 1) != tt.expected {
				t.Errorf("staleTaskSuggestions returned %d suggestions, expected surfacing=%v", len(got), tt.expected)
			}
			if tt.expected && got[0].Type != SuggestionStaleTask {
				t.Errorf("suggestion type = %s, want %s", got[0].Type, SuggestionStaleTask)
			}
		})
	}
}

func TestStaleTaskSuggestions_AgeInContent(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	insights := []models.Insight{
		{Type: "task", Content: "renew domain", CreatedAt: now.Add(-5 * 24 * time.Hour)},
	}

	got := staleTaskSuggestions(insights, now)
	if len(got) != 1 {
		t.Fatalf("expected 1 suggestion, got %d", len(got))
	}
	if !strings.Contains(got[0].Content, "5 days") {
		t.Errorf("content should state the age: %q", got[0].Content)
	}
}

func TestConnectionSuggestions(t *testing.T) {
	now := time.Now().UTC()
	insights := []models.Insight{
		{Type: "task", ProjectTags: []string{"Atlas"}, CreatedAt: now.Add(-time.Hour)},
		{Type: "decision", ProjectTags: []string{"Atlas"}, CreatedAt: now},
		{Type: "task", ProjectTags: []string{"Solo"}, CreatedAt: now},
	}

	got := connectionSuggestions(insights)
	if len(got) != 1 {
		t.Fatalf("expected 1 connection, got %d", len(got))
	}
	if !strings.Contains(got[0].Content, "Atlas") {
		t.Errorf("connection should name the tag: %q", got[0].Content)
	}
	if got[0].Type != SuggestionConnection {
		t.Errorf("type = %s, want %s", got[0].Type, SuggestionConnection)
	}
	// Latest contributing insight stamps the suggestion
	if !got[0].CreatedAt.Equal(now) {
		t.Errorf("CreatedAt = %v, want %v", got[0].CreatedAt, now)
	}
}

func TestConnectionSuggestions_SameTypeDoesNotConnect(t *testing.T) {
	now := time.Now().UTC()
	insights := []models.Insight{
		{Type: "task", ProjectTags: []string{"Atlas"}, CreatedAt: now},
		{Type: "task", ProjectTags: []string{"Atlas"}, CreatedAt: now},
	}

	if got := connectionSuggestions(insights); len(got) != 0 {
		t.Errorf("a single insight type must not form a connection, got %d", len(got))
	}
}

func TestContinuitySuggestion(t *testing.T) {
	now := time.Date(2026, 8, 31, 20, 0, 0, 0, time.UTC)

	recent := models.Conversation{Query: "planning the launch", Timestamp: now.Add(-time.Hour)}
	if got := continuitySuggestion(recent, now); got != nil {
		t.Errorf("recent conversation must not trigger continuity, got %+v", got)
	}

	lull := models.Conversation{Query: "planning the launch", Timestamp: now.Add(-9 * time.Hour)}
	got := continuitySuggestion(lull, now)
	if got == nil {
		t.Fatal("a lull past the gap must trigger continuity")
	}
	if got.Type != SuggestionContinuity {
		t.Errorf("type = %s, want %s", got.Type, SuggestionContinuity)
	}
	if !strings.Contains(got.Content, "planning the launch") {
		t.Errorf("content should carry the last topic: %q", got.Content)
	}
}

func TestContinuitySuggestion_TruncatesTopic(t *testing.T) {
	now := time.Now().UTC()
	long := strings.Repeat("q", 300)
	got := continuitySuggestion(models.Conversation{Query: long, Timestamp: now.Add(-10 * time.Hour)}, now)
	if got == nil {
		t.Fatal("expected a suggestion")
	}
	if !strings.HasSuffix(got.Content, "...") {
		t.Errorf("long topics should be truncated with an ellipsis: %q", got.Content[:50])
	}
}

func TestContinuitySuggestion_TruncatesArabicTopicCleanly(t *testing.T) {
	now := time.Now().UTC()
	long := strings.Repeat("سؤال ", 60)
	got := continuitySuggestion(models.Conversation{Query: long, Timestamp: now.Add(-10 * time.Hour)}, now)
	if got == nil {
		t.Fatal("expected a suggestion")
	}
	if !utf8.ValidString(got.Content) {
		t.Errorf("truncated topic must stay valid UTF-8: %q", got.Content)
	}
	if !strings.HasSuffix(got.Content, "...") {
		t.Errorf("long topics should be truncated with an ellipsis: %q", got.Content)
	}
}
