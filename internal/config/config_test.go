package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "3001" {
		t.Errorf("Port = %s, want 3001", cfg.Port)
	}
	if cfg.SemanticMatchThreshold != 0.50 {
		t.Errorf("SemanticMatchThreshold = %v, want 0.50", cfg.SemanticMatchThreshold)
	}
	if cfg.SemanticMatchCount != 3 {
		t.Errorf("SemanticMatchCount = %d, want 3", cfg.SemanticMatchCount)
	}
	if cfg.GenerateTimeout != 60*time.Second {
		t.Errorf("GenerateTimeout = %v, want 60s", cfg.GenerateTimeout)
	}
	if cfg.RetrievalTimeout != 8*time.Second {
		t.Errorf("RetrievalTimeout = %v, want 8s", cfg.RetrievalTimeout)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("SEMANTIC_MATCH_THRESHOLD", "0.72")
	t.Setenv("GENERATE_TIMEOUT", "45s")

	cfg := Load()
	if cfg.Port != "9000" {
		t.Errorf("Port = %s, want 9000", cfg.Port)
	}
	if cfg.SemanticMatchThreshold != 0.72 {
		t.Errorf("SemanticMatchThreshold = %v, want 0.72", cfg.SemanticMatchThreshold)
	}
	if cfg.GenerateTimeout != 45*time.Second {
		t.Errorf("GenerateTimeout = %v, want 45s", cfg.GenerateTimeout)
	}
}

func TestLoad_MalformedEnvFallsBack(t *testing.T) {
	t.Setenv("SEMANTIC_MATCH_THRESHOLD", "not-a-number")
	t.Setenv("SEMANTIC_MATCH_COUNT", "three")
	t.Setenv("GENERATE_TIMEOUT", "soon")

	cfg := Load()
	if cfg.SemanticMatchThreshold != 0.50 {
		t.Errorf("malformed float should fall back, got %v", cfg.SemanticMatchThreshold)
	}
	if cfg.SemanticMatchCount != 3 {
		t.Errorf("malformed int should fall back, got %d", cfg.SemanticMatchCount)
	}
	if cfg.GenerateTimeout != 60*time.Second {
		t.Errorf("malformed duration should fall back, got %v", cfg.GenerateTimeout)
	}
}

func TestLoad_SupabaseAliases(t *testing.T) {
	t.Setenv("STORE_URL", "")
	t.Setenv("SUPABASE_URL", "https://proj.supabase.co")
	t.Setenv("SUPABASE_KEY", "svc-key")

	cfg := Load()
	if cfg.StoreURL != "https://proj.supabase.co" {
		t.Errorf("StoreURL = %s, want the SUPABASE_URL fallback", cfg.StoreURL)
	}
	if cfg.StoreKey != "svc-key" {
		t.Errorf("StoreKey = %s, want the SUPABASE_KEY fallback", cfg.StoreKey)
	}
}

func TestValidate(t *testing.T) {
	cfg := &Config{}
	if err := cfg.Validate(); err == nil {
		t.Error("zero engine keys must fail validation")
	}

	cfg.GeminiAPIKey = "key"
	if err := cfg.Validate(); err != nil {
		t.Errorf("one engine key should validate, got %v", err)
	}
}

func TestLoadEngines_Missing(t *testing.T) {
	file, err := LoadEngines(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("a missing file is not an error, got %v", err)
	}
	if len(file.Engines) != 0 || len(file.Modes) != 0 {
		t.Error("missing file must yield an empty definition")
	}
}

func TestLoadEngines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engines.yaml")
	content := `
engines:
  claude:
    model: claude-sonnet-4-20250514
    enabled: false
modes:
  brief:
    max_tokens: 512
monitored_services:
  - name: store
    url: https://example.test
    kind: http
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	file, err := LoadEngines(path)
	if err != nil {
		t.Fatalf("LoadEngines failed: %v", err)
	}

	claude, ok := file.Engines["claude"]
	if !ok {
		t.Fatal("claude override missing")
	}
	if claude.Enabled == nil || *claude.Enabled {
		t.Error("claude should be disabled")
	}
	if claude.Model != "claude-sonnet-4-20250514" {
		t.Errorf("model = %s", claude.Model)
	}

	brief, ok := file.Modes["brief"]
	if !ok || brief.MaxTokens == nil || *brief.MaxTokens != 512 {
		t.Errorf("brief override wrong: %+v", brief)
	}

	if len(file.MonitoredServices) != 1 || file.MonitoredServices[0].Name != "store" {
		t.Errorf("monitored services wrong: %+v", file.MonitoredServices)
	}
}

func TestLoadEngines_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engines.yaml")
	if err := os.WriteFile(path, []byte("engines: [broken"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadEngines(path); err == nil {
		t.Error("malformed YAML must be an error")
	}
}
