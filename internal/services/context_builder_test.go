package services

import (
	"strings"
	"testing"

	"mindwave/internal/models"
)

func TestAssembleContext_Empty(t *testing.T) {
	got := assembleContext(nil, nil, nil, nil)
	if got != "" {
		t.Errorf("all-empty sources must yield an empty string, got %q", got)
	}
}

func TestAssembleContext_SectionOrder(t *testing.T) {
	history := []models.Conversation{{Query: "q1", Response: "r1"}}
	insights := []models.Insight{{Type: "task", Content: "ship the release"}}
	matches := []models.SemanticMatch{{ChunkText: "old exchange", Similarity: 0.87}}
	suggestions := []models.Suggestion{{Content: "revisit the budget"}}

	got := assembleContext(history, insights, matches, suggestions)

	headers := []string{
		"[Recent conversation history]",
		"[Active insights from past conversations]",
		"[Relevant past context (semantic match)]",
		"[Proactive suggestions]",
	}
	pos := 0
	for _, header := range headers {
		idx := strings.Index(got[pos:], header)
		if idx < 0 {
			t.Fatalf("missing or out-of-order header %q in:\n%s", header, got)
		}
		pos += idx
	}

	// Sections are blank-line separated
	if !strings.Contains(got, "\n\n[Active insights") {
		t.Error("sections must be separated by a blank line")
	}
}

func TestAssembleContext_SkipsEmptySections(t *testing.T) {
	history := []models.Conversation{{Query: "q", Response: "r"}}

	got := assembleContext(history, nil, nil, nil)
	if strings.Contains(got, "[Active insights") ||
		strings.Contains(got, "[Relevant past context") ||
		strings.Contains(got, "[Proactive suggestions]") {
		t.Errorf("empty sections must be omitted entirely:\n%s", got)
	}
}

func TestAssembleContext_HistoryOldestFirst(t *testing.T) {
	// The store returns newest first; the block reads chronologically
	history := []models.Conversation{
		{Query: "newest", Response: "n"},
		{Query: "oldest", Response: "o"},
	}

	got := assembleContext(history, nil, nil, nil)
	oldestIdx := strings.Index(got, "oldest")
	newestIdx := strings.Index(got, "newest")
	if oldestIdx < 0 || newestIdx < 0 {
		t.Fatalf("both exchanges must appear:\n%s", got)
	}
	if oldestIdx > newestIdx {
		t.Error("history must read oldest first")
	}
}

func TestAssembleContext_SimilarityPercent(t *testing.T) {
	matches := []models.SemanticMatch{{ChunkText: "note", Similarity: 0.87}}

	got := assembleContext(nil, nil, matches, nil)
	if !strings.Contains(got, "(87%)") {
		t.Errorf("similarity must render as a whole percent, got:\n%s", got)
	}
}

func TestAssembleContext_InsightTags(t *testing.T) {
	insights := []models.Insight{
		{Type: "decision", Content: "use sqlite", ProjectTags: []string{"Mindwave", "Infra"}},
	}

	got := assembleContext(nil, insights, nil, nil)
	if !strings.Contains(got, "[decision] [Mindwave, Infra] use sqlite") {
		t.Errorf("insight line format wrong:\n%s", got)
	}
}

func TestTruncateItem(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		budget int
		want   int
	}{
		{name: "under budget untouched", text: "short", budget: 10, want: 5},
		{name: "exactly at budget untouched", text: strings.Repeat("a", 10), budget: 10, want: 10},
		{name: "over budget hard cut", text: strings.Repeat("a", 50), budget: 10, want: 10},
		{name: "multibyte runes counted as runes", text: strings.Repeat("ع", 50), budget: 10, want: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncateItem(tt.text, tt.budget)
			if n := len([]rune(got)); n != tt.want {
				t.Errorf("truncateItem length = %d runes, want %d", n, tt.want)
			}
		})
	}
}

func TestAssembleContext_BudgetsHold(t *testing.T) {
	long := strings.Repeat("x", 2000)
	history := []models.Conversation{{Query: long, Response: long}}
	insights := []models.Insight{{Type: "task", Content: long}}

	got := assembleContext(history, insights, nil, nil)
	for _, line := range strings.Split(got, "\n") {
		if len([]rune(line)) > historyResponseBudget+20 {
			t.Errorf("line exceeds the largest per-item budget: %d runes", len([]rune(line)))
		}
	}
}

func TestHashQuery_Normalizes(t *testing.T) {
	if hashQuery("  What Changed?  ") != hashQuery("what changed?") {
		t.Error("hash must normalize case and whitespace")
	}
	if hashQuery("a") == hashQuery("b") {
		t.Error("distinct queries must hash differently")
	}
}
