package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"mindwave/internal/models"
)

func TestNewMemoryService_Unconfigured(t *testing.T) {
	if s := NewMemoryService("", ""); s != nil {
		t.Error("missing credentials must yield a nil service")
	}
	if s := NewMemoryService("https://x.test", ""); s != nil {
		t.Error("missing key must yield a nil service")
	}
}

func TestNilMemoryService_Safe(t *testing.T) {
	// Every method on a nil receiver degrades to empty, never panics
	var s *MemoryService
	ctx := context.Background()

	if got := s.RecentConversations(ctx, 5, 0); got != nil {
		t.Error("nil service conversations should be nil")
	}
	if got := s.ActiveInsights(ctx, 5); got != nil {
		t.Error("nil service insights should be nil")
	}
	if _, err := s.StoreConversation(ctx, models.Conversation{Query: "q"}); err != nil {
		t.Errorf("nil service store should be a no-op, got %v", err)
	}
	if err := s.StoreInsight(ctx, models.Insight{}); err != nil {
		t.Errorf("nil service store insight should be a no-op, got %v", err)
	}
	stats := s.Stats(ctx)
	if stats["status"] != "disconnected" {
		t.Errorf("nil service stats status = %v", stats["status"])
	}
}

func TestStoreConversation(t *testing.T) {
	var gotPath, gotAuth string
	var gotPayload map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotPayload)
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	s := NewMemoryService(server.URL, "secret")
	id, err := s.StoreConversation(context.Background(), models.Conversation{
		Query:    "hello",
		Response: "hi there",
		Engine:   "gemini",
		Category: "simple",
	})
	if err != nil {
		t.Fatalf("StoreConversation failed: %v", err)
	}
	if id == "" {
		t.Error("an ID must be assigned when none is given")
	}
	if gotPath != "/rest/v1/conversations" {
		t.Errorf("path = %s", gotPath)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("auth header = %s", gotAuth)
	}
	if gotPayload["session_id"] != "web" {
		t.Errorf("default session_id = %v, want web", gotPayload["session_id"])
	}
	if gotPayload["query"] != "hello" {
		t.Errorf("query = %v", gotPayload["query"])
	}
}

func TestStoreConversation_HooksFireAfterCommit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	s := NewMemoryService(server.URL, "secret")
	var hooked []models.Conversation
	s.AddPostStoreHook(func(conv models.Conversation) {
		hooked = append(hooked, conv)
	})

	if _, err := s.StoreConversation(context.Background(), models.Conversation{Query: "q"}); err != nil {
		t.Fatalf("StoreConversation failed: %v", err)
	}
	if len(hooked) != 1 {
		t.Fatalf("hook fired %d times, want 1", len(hooked))
	}
	if hooked[0].ID == "" {
		t.Error("hook must see the assigned ID")
	}
}

func TestStoreConversation_HooksSkippedOnFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	s := NewMemoryService(server.URL, "secret")
	fired := false
	s.AddPostStoreHook(func(models.Conversation) { fired = true })

	if _, err := s.StoreConversation(context.Background(), models.Conversation{Query: "q"}); err == nil {
		t.Fatal("expected store failure")
	}
	if fired {
		t.Error("hooks must not fire when the store rejects the row")
	}
}

func TestStoreConversation_TruncatesResponse(t *testing.T) {
	var gotPayload map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotPayload)
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	s := NewMemoryService(server.URL, "secret")
	long := strings.Repeat("r", storedResponseLimit+500)
	if _, err := s.StoreConversation(context.Background(), models.Conversation{Query: "q", Response: long}); err != nil {
		t.Fatalf("StoreConversation failed: %v", err)
	}

	stored, _ := gotPayload["response"].(string)
	if len(stored) != storedResponseLimit {
		t.Errorf("stored response length = %d, want %d", len(stored), storedResponseLimit)
	}
}

func TestStoreConversation_TruncatesOnRuneBoundary(t *testing.T) {
	var gotPayload map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotPayload)
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	s := NewMemoryService(server.URL, "secret")
	long := strings.Repeat("م", storedResponseLimit+500)
	if _, err := s.StoreConversation(context.Background(), models.Conversation{Query: "q", Response: long}); err != nil {
		t.Fatalf("StoreConversation failed: %v", err)
	}

	stored, _ := gotPayload["response"].(string)
	if got := utf8.RuneCountInString(stored); got != storedResponseLimit {
		t.Errorf("stored response runes = %d, want %d", got, storedResponseLimit)
	}
	if strings.ContainsRune(stored, utf8.RuneError) {
		t.Error("truncation must not split a rune")
	}
}

func TestSemanticSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/v1/rpc/match_embeddings" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var payload map[string]interface{}
		json.NewDecoder(r.Body).Decode(&payload)
		if payload["match_count"] != float64(3) {
			t.Errorf("match_count = %v", payload["match_count"])
		}
		if payload["match_threshold"] != 0.5 {
			t.Errorf("match_threshold = %v", payload["match_threshold"])
		}
		json.NewEncoder(w).Encode([]models.SemanticMatch{
			{ChunkText: "past exchange", Similarity: 0.91},
		})
	}))
	defer server.Close()

	s := NewMemoryService(server.URL, "secret")
	matches := s.SemanticSearch(context.Background(), []float32{0.1, 0.2}, 3, 0.5)
	if len(matches) != 1 {
		t.Fatalf("matches = %d, want 1", len(matches))
	}
	if matches[0].Similarity != 0.91 {
		t.Errorf("similarity = %v", matches[0].Similarity)
	}
}

func TestSemanticSearch_FailureIsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	s := NewMemoryService(server.URL, "secret")
	if matches := s.SemanticSearch(context.Background(), []float32{0.1}, 3, 0.5); matches != nil {
		t.Errorf("failure must degrade to empty, got %v", matches)
	}
}

func TestStats_CountsFromContentRange(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Range", "0-0/42")
		w.Write([]byte("[]"))
	}))
	defer server.Close()

	s := NewMemoryService(server.URL, "secret")
	stats := s.Stats(context.Background())
	if stats["status"] != "connected" {
		t.Errorf("status = %v", stats["status"])
	}
	if stats["conversations"] != 42 {
		t.Errorf("conversations = %v, want 42", stats["conversations"])
	}
}
