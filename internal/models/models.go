package models

import "time"

// EngineName identifies a backend text-generation engine.
type EngineName string

const (
	EngineClaude EngineName = "claude"
	EngineGemini EngineName = "gemini"
	EngineOpenAI EngineName = "openai"
)

// CanonicalEngineOrder is the fixed priority order used when building
// fallback chains: premium first, then fast, then fallback.
var CanonicalEngineOrder = []EngineName{EngineClaude, EngineGemini, EngineOpenAI}

// Category is the diagnostic label explaining why the router picked an
// engine for a query. It may be suffixed with "+<mode>" when a mode
// override was applied.
type Category string

const (
	CategoryCreative Category = "creative"
	CategoryComplex  Category = "complex"
	CategoryData     Category = "data"
	CategoryArabic   Category = "arabic"
	CategoryLong     Category = "long"
	CategorySimple   Category = "simple"
	CategoryDefault  Category = "default"
)

// Conversation is one stored query/response exchange.
type Conversation struct {
	ID        string    `json:"id"`
	Query     string    `json:"query"`
	Response  string    `json:"response"`
	Engine    string    `json:"engine"`
	Category  string    `json:"category"`
	SessionID string    `json:"session_id"`
	Mode      string    `json:"mode"`
	Timestamp time.Time `json:"timestamp"`
}

// Insight is a structured note extracted from a conversation: a decision,
// task, idea, question, connection or preference.
type Insight struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	SessionID      string    `json:"session_id"`
	Type           string    `json:"insight_type"`
	Content        string    `json:"content"`
	ProjectTags    []string  `json:"project_tags"`
	Confidence     float64   `json:"confidence"`
	Actioned       bool      `json:"actioned"`
	CreatedAt      time.Time `json:"created_at"`
}

// Idea is a free-standing stored idea.
type Idea struct {
	ID        string    `json:"id"`
	Idea      string    `json:"idea"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"created_at"`
}

// SemanticMatch is one result of a similarity search over stored
// embeddings.
type SemanticMatch struct {
	SourceID   string  `json:"source_id"`
	SourceType string  `json:"source_type"`
	ChunkText  string  `json:"chunk_text"`
	Similarity float64 `json:"similarity"`
}

// Suggestion is a proactive nudge the system generates without being
// asked: a stale task, a cross-project connection, a continuity prompt.
type Suggestion struct {
	Type      string    `json:"type"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Digest summarizes one day of conversations and insights.
type Digest struct {
	Date              string   `json:"digest_date"`
	Summary           string   `json:"summary"`
	KeyDecisions      []string `json:"key_decisions"`
	OpenTasks         []string `json:"open_tasks"`
	ProjectsMentioned []string `json:"projects_mentioned"`
	ConversationCount int      `json:"conversation_count"`
}

// PushSubscription is a Web Push subscription registered by a client.
type PushSubscription struct {
	ID        int64     `json:"id"`
	Endpoint  string    `json:"endpoint"`
	P256DH    string    `json:"p256dh"`
	Auth      string    `json:"auth"`
	UserAgent string    `json:"user_agent,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// GuardCheck is one health-check result for a monitored service.
type GuardCheck struct {
	ID          int64     `json:"id,omitempty"`
	ServiceName string    `json:"service_name"`
	ServiceURL  string    `json:"service_url"`
	Status      string    `json:"status"` // healthy, degraded, down
	ResponseMS  int64     `json:"response_ms"`
	Error       string    `json:"error,omitempty"`
	CheckedAt   time.Time `json:"checked_at"`
}

// MonitoredService describes one external service the guard pings.
type MonitoredService struct {
	Name string `json:"name" yaml:"name"`
	URL  string `json:"url" yaml:"url"`
	Kind string `json:"kind" yaml:"kind"` // "http" or "json"
}
