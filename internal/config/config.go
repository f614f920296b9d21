package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Port        string
	Environment string

	// Persistent store (Supabase-style REST API)
	StoreURL string
	StoreKey string

	// Engine API keys and model overrides
	AnthropicAPIKey string
	ClaudeModel     string
	GeminiAPIKey    string
	GeminiModel     string
	OpenAIAPIKey    string
	OpenAIModel     string

	// Embeddings (semantic search sub-path)
	EmbeddingModel         string
	SemanticMatchThreshold float64
	SemanticMatchCount     int

	// Timeouts
	GenerateTimeout  time.Duration
	RetrievalTimeout time.Duration

	// Local state + caches
	DatabasePath string
	RedisURL     string

	// Engines/modes/guard definition file (hot-reloaded)
	EnginesFile string

	// Voice (text-to-speech)
	ElevenLabsAPIKey  string
	ElevenLabsVoice   string
	ElevenLabsVoiceAR string

	// Web push
	VAPIDPublicKey   string
	VAPIDPrivateKey  string
	VAPIDClaimsEmail string
}

// Load loads configuration from environment variables with defaults
func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "3001"),
		Environment: strings.ToLower(getEnv("ENVIRONMENT", "development")),

		StoreURL: getEnv("STORE_URL", getEnv("SUPABASE_URL", "")),
		StoreKey: getEnv("STORE_KEY", getEnv("SUPABASE_KEY", "")),

		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		ClaudeModel:     getEnv("CLAUDE_MODEL", "claude-sonnet-4-20250514"),
		GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
		GeminiModel:     getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:     getEnv("OPENAI_MODEL", "gpt-4o-mini"),

		EmbeddingModel:         getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
		SemanticMatchThreshold: getFloatEnv("SEMANTIC_MATCH_THRESHOLD", 0.50),
		SemanticMatchCount:     getIntEnv("SEMANTIC_MATCH_COUNT", 3),

		GenerateTimeout:  getDurationEnv("GENERATE_TIMEOUT", 60*time.Second),
		RetrievalTimeout: getDurationEnv("RETRIEVAL_TIMEOUT", 8*time.Second),

		DatabasePath: getEnv("DATABASE_PATH", "./data/mindwave.db"),
		RedisURL:     getEnv("REDIS_URL", ""),

		EnginesFile: getEnv("ENGINES_FILE", "./engines.yaml"),

		ElevenLabsAPIKey:  getEnv("ELEVENLABS_API_KEY", ""),
		ElevenLabsVoice:   getEnv("ELEVENLABS_VOICE_ID", ""),
		ElevenLabsVoiceAR: getEnv("ELEVENLABS_VOICE_ID_AR", ""),

		VAPIDPublicKey:   getEnv("VAPID_PUBLIC_KEY", ""),
		VAPIDPrivateKey:  getEnv("VAPID_PRIVATE_KEY", ""),
		VAPIDClaimsEmail: getEnv("VAPID_CLAIMS_EMAIL", ""),
	}
}

// Validate checks that the configuration is usable at all. Zero engine
// keys means the ensemble can never answer, which is a startup failure
// rather than a degraded state.
func (c *Config) Validate() error {
	if c.AnthropicAPIKey == "" && c.GeminiAPIKey == "" && c.OpenAIAPIKey == "" {
		return fmt.Errorf("no engine API keys configured (ANTHROPIC_API_KEY, GEMINI_API_KEY, OPENAI_API_KEY all empty)")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		parsed, err := time.ParseDuration(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}
