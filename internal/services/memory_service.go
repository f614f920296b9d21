package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"mindwave/internal/models"

	"github.com/google/uuid"
)

// storedResponseLimit caps how much of a response is persisted per
// exchange.
const storedResponseLimit = 5000

// MemoryService is the client for the persistent store: a REST-accessible
// relational store with vector search support. The store is an external
// collaborator; this client treats it as opaque and degrades to empty
// results when it is absent or failing.
type MemoryService struct {
	baseURL string
	apiKey  string
	client  *http.Client
	hooks   []func(models.Conversation)
}

// NewMemoryService creates the store client. Returns nil when the store
// is not configured; callers treat a nil service as a valid degraded
// state.
func NewMemoryService(storeURL, storeKey string) *MemoryService {
	if storeURL == "" || storeKey == "" {
		log.Println("⚠️  [MEMORY] Store not configured, memory disabled")
		return nil
	}
	return &MemoryService{
		baseURL: strings.TrimSuffix(storeURL, "/") + "/rest/v1",
		apiKey:  storeKey,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// Verify checks store connectivity at startup. Failure is logged, not
// fatal: the store may come up later.
func (s *MemoryService) Verify(ctx context.Context) {
	if s == nil {
		return
	}
	var probe []map[string]interface{}
	params := url.Values{"select": {"id"}, "limit": {"1"}}
	if err := s.get(ctx, "/conversations", params, &probe); err != nil {
		log.Printf("⚠️  [MEMORY] Store connection test failed: %v", err)
		return
	}
	log.Println("💾 [MEMORY] Store connected")
}

// AddPostStoreHook registers an enrichment hook run after every
// successfully stored conversation. Hooks must not block: heavy work goes
// through a queue on the hook's side.
func (s *MemoryService) AddPostStoreHook(fn func(models.Conversation)) {
	if s == nil {
		return
	}
	s.hooks = append(s.hooks, fn)
}

// StoreConversation persists one exchange and returns its ID. Hooks fire
// only after the row is committed.
func (s *MemoryService) StoreConversation(ctx context.Context, conv models.Conversation) (string, error) {
	if s == nil {
		return "", nil
	}

	if conv.ID == "" {
		conv.ID = uuid.New().String()
	}
	conv.Response = truncateItem(conv.Response, storedResponseLimit)
	if conv.SessionID == "" {
		conv.SessionID = "web"
	}

	payload := map[string]interface{}{
		"id":         conv.ID,
		"query":      conv.Query,
		"response":   conv.Response,
		"engine":     conv.Engine,
		"category":   conv.Category,
		"session_id": conv.SessionID,
		"mode":       conv.Mode,
	}
	if err := s.post(ctx, "/conversations", payload, nil); err != nil {
		return "", fmt.Errorf("failed to store conversation: %w", err)
	}

	for _, hook := range s.hooks {
		hook(conv)
	}
	return conv.ID, nil
}

// RecentConversations returns the latest exchanges, newest first. Empty
// on failure.
func (s *MemoryService) RecentConversations(ctx context.Context, limit, offset int) []models.Conversation {
	if s == nil {
		return nil
	}
	params := url.Values{
		"select": {"id,query,response,engine,category,timestamp,session_id,mode"},
		"order":  {"timestamp.desc"},
		"limit":  {strconv.Itoa(limit)},
		"offset": {strconv.Itoa(offset)},
	}
	var out []models.Conversation
	if err := s.get(ctx, "/conversations", params, &out); err != nil {
		log.Printf("⚠️  [MEMORY] Get conversations failed: %v", err)
		return nil
	}
	return out
}

// InsightFilter narrows an insight query. Zero values mean "any".
type InsightFilter struct {
	Type     string
	Project  string
	Actioned *bool
	Limit    int
}

// ActiveInsights returns recent unactioned insights, newest first.
func (s *MemoryService) ActiveInsights(ctx context.Context, limit int) []models.Insight {
	actioned := false
	return s.Insights(ctx, InsightFilter{Actioned: &actioned, Limit: limit})
}

// Insights returns insights matching the filter, newest first. Empty on
// failure.
func (s *MemoryService) Insights(ctx context.Context, filter InsightFilter) []models.Insight {
	if s == nil {
		return nil
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	params := url.Values{
		"select": {"id,conversation_id,session_id,insight_type,content,project_tags,confidence,actioned,created_at"},
		"order":  {"created_at.desc"},
		"limit":  {strconv.Itoa(filter.Limit)},
	}
	if filter.Type != "" {
		params.Set("insight_type", "eq."+filter.Type)
	}
	if filter.Project != "" {
		params.Set("project_tags", fmt.Sprintf("cs.{%q}", filter.Project))
	}
	if filter.Actioned != nil {
		params.Set("actioned", "eq."+strconv.FormatBool(*filter.Actioned))
	}

	var out []models.Insight
	if err := s.get(ctx, "/insights", params, &out); err != nil {
		log.Printf("⚠️  [MEMORY] Get insights failed: %v", err)
		return nil
	}
	return out
}

// StoreInsight persists one extracted insight.
func (s *MemoryService) StoreInsight(ctx context.Context, ins models.Insight) error {
	if s == nil {
		return nil
	}
	payload := map[string]interface{}{
		"conversation_id": ins.ConversationID,
		"session_id":      ins.SessionID,
		"insight_type":    ins.Type,
		"content":         ins.Content,
		"project_tags":    ins.ProjectTags,
		"confidence":      ins.Confidence,
	}
	return s.post(ctx, "/insights", payload, nil)
}

// ActionInsight marks an insight as actioned.
func (s *MemoryService) ActionInsight(ctx context.Context, id string) error {
	if s == nil {
		return nil
	}
	return s.patch(ctx, "/insights?id=eq."+url.QueryEscape(id), map[string]interface{}{"actioned": true})
}

// StoreIdea persists a free-standing idea and returns its ID.
func (s *MemoryService) StoreIdea(ctx context.Context, idea, category string) (string, error) {
	id := uuid.New().String()
	if s == nil {
		return id, nil
	}
	payload := map[string]interface{}{"id": id, "idea": idea, "category": category}
	if err := s.post(ctx, "/ideas", payload, nil); err != nil {
		return "", fmt.Errorf("failed to store idea: %w", err)
	}
	return id, nil
}

// Ideas returns stored ideas, newest first, optionally filtered by
// category.
func (s *MemoryService) Ideas(ctx context.Context, category string, limit int) []models.Idea {
	if s == nil {
		return nil
	}
	if limit <= 0 {
		limit = 20
	}
	params := url.Values{
		"select": {"id,idea,category,created_at"},
		"order":  {"created_at.desc"},
		"limit":  {strconv.Itoa(limit)},
	}
	if category != "" {
		params.Set("category", "eq."+category)
	}
	var out []models.Idea
	if err := s.get(ctx, "/ideas", params, &out); err != nil {
		log.Printf("⚠️  [MEMORY] Get ideas failed: %v", err)
		return nil
	}
	return out
}

// StoreEmbedding persists an embedding row for later similarity search.
func (s *MemoryService) StoreEmbedding(ctx context.Context, sourceID, sourceType, chunk string, embedding []float32) error {
	if s == nil {
		return nil
	}
	chunk = truncateItem(chunk, 1000)
	payload := map[string]interface{}{
		"source_id":   sourceID,
		"source_type": sourceType,
		"embedding":   embedding,
		"chunk_text":  chunk,
	}
	return s.post(ctx, "/embeddings", payload, nil)
}

// SemanticSearch runs the store's similarity RPC against a precomputed
// query embedding. Empty on failure.
func (s *MemoryService) SemanticSearch(ctx context.Context, embedding []float32, limit int, threshold float64) []models.SemanticMatch {
	if s == nil {
		return nil
	}
	payload := map[string]interface{}{
		"query_embedding": embedding,
		"match_count":     limit,
		"match_threshold": threshold,
	}
	var out []models.SemanticMatch
	if err := s.post(ctx, "/rpc/match_embeddings", payload, &out); err != nil {
		log.Printf("⚠️  [MEMORY] Semantic search failed: %v", err)
		return nil
	}
	return out
}

// TodayConversations returns today's exchanges, oldest first.
func (s *MemoryService) TodayConversations(ctx context.Context) []models.Conversation {
	if s == nil {
		return nil
	}
	today := time.Now().UTC().Format("2006-01-02")
	params := url.Values{
		"select":    {"id,query,response,engine,category,timestamp,session_id,mode"},
		"timestamp": {"gte." + today + "T00:00:00Z"},
		"order":     {"timestamp.asc"},
		"limit":     {"50"},
	}
	var out []models.Conversation
	if err := s.get(ctx, "/conversations", params, &out); err != nil {
		log.Printf("⚠️  [MEMORY] Get today's conversations failed: %v", err)
		return nil
	}
	return out
}

// TodayInsights returns today's insights.
func (s *MemoryService) TodayInsights(ctx context.Context) []models.Insight {
	if s == nil {
		return nil
	}
	today := time.Now().UTC().Format("2006-01-02")
	params := url.Values{
		"select":     {"id,conversation_id,session_id,insight_type,content,project_tags,confidence,actioned,created_at"},
		"created_at": {"gte." + today + "T00:00:00Z"},
		"limit":      {"30"},
	}
	var out []models.Insight
	if err := s.get(ctx, "/insights", params, &out); err != nil {
		log.Printf("⚠️  [MEMORY] Get today's insights failed: %v", err)
		return nil
	}
	return out
}

// StoreDigest persists a daily digest.
func (s *MemoryService) StoreDigest(ctx context.Context, digest models.Digest) error {
	if s == nil {
		return nil
	}
	payload := map[string]interface{}{
		"digest_date":        digest.Date,
		"summary":            digest.Summary,
		"key_decisions":      digest.KeyDecisions,
		"open_tasks":         digest.OpenTasks,
		"projects_mentioned": digest.ProjectsMentioned,
		"conversation_count": digest.ConversationCount,
	}
	return s.post(ctx, "/digests", payload, nil)
}

// Stats returns per-table row counts. Missing tables count as zero.
func (s *MemoryService) Stats(ctx context.Context) map[string]interface{} {
	stats := map[string]interface{}{
		"status":        "disconnected",
		"conversations": 0,
		"insights":      0,
		"ideas":         0,
		"embeddings":    0,
		"digests":       0,
	}
	if s == nil {
		return stats
	}

	for _, table := range []string{"conversations", "insights", "ideas", "embeddings", "digests"} {
		count, err := s.count(ctx, "/"+table)
		if err != nil {
			continue // table might not exist yet
		}
		stats[table] = count
	}
	stats["status"] = "connected"
	return stats
}

// ── HTTP plumbing ──

func (s *MemoryService) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", s.apiKey)
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (s *MemoryService) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	full := path
	if len(params) > 0 {
		full += "?" + params.Encode()
	}
	req, err := s.newRequest(ctx, "GET", full, nil)
	if err != nil {
		return err
	}
	return s.do(req, out)
}

func (s *MemoryService) post(ctx context.Context, path string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := s.newRequest(ctx, "POST", path, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Prefer", "return=representation")
	return s.do(req, out)
}

func (s *MemoryService) patch(ctx context.Context, path string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := s.newRequest(ctx, "PATCH", path, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	return s.do(req, nil)
}

func (s *MemoryService) count(ctx context.Context, path string) (int, error) {
	req, err := s.newRequest(ctx, "GET", path+"?select=id&limit=1", nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Prefer", "count=exact")

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	// Content-Range: 0-0/42
	cr := resp.Header.Get("Content-Range")
	idx := strings.LastIndex(cr, "/")
	if idx < 0 || cr[idx+1:] == "*" {
		return 0, fmt.Errorf("no count in response")
	}
	return strconv.Atoi(cr[idx+1:])
}

func (s *MemoryService) do(req *http.Request, out interface{}) error {
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("store returned %d: %s", resp.StatusCode, truncateBody(body))
	}
	if out != nil && len(body) > 0 {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("failed to parse store response: %w", err)
		}
	}
	return nil
}
