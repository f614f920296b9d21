package services

import (
	"fmt"
	"sort"
	"strings"

	"mindwave/internal/config"
	"mindwave/internal/models"
)

// Mode is a named override bundle: it changes which engine is preferred,
// what gets prepended to the prompt, and how long the answer may be. It
// never touches engine readiness.
type Mode struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	// Engine forces the preferred engine when set and that engine is
	// configured; empty means the router's choice stands.
	Engine      models.EngineName `json:"engine,omitempty"`
	PromptAddon string            `json:"prompt_addon,omitempty"`
	MaxTokens   int               `json:"max_tokens"`
}

// ModeDefault is the mode used when a request names none.
const ModeDefault = "balanced"

// builtinModes is the full enumeration. The registry validates external
// mode strings against it; internal callers hold Mode values directly, so
// an unknown mode cannot reach the orchestrator.
var builtinModes = []Mode{
	{
		Name:        ModeDefault,
		Description: "Default behavior: router decides, standard budget",
		MaxTokens:   2048,
	},
	{
		Name:        "deep",
		Description: "Extended analysis on the premium engine",
		Engine:      models.EngineClaude,
		PromptAddon: "Take your time. Reason step by step, surface trade-offs and second-order effects, and state your assumptions explicitly.",
		MaxTokens:   4096,
	},
	{
		Name:        "brief",
		Description: "Action-oriented answers, minimum prose",
		PromptAddon: "Answer in the shortest useful form: bullets, next actions, no preamble.",
		MaxTokens:   1024,
	},
	{
		Name:        "muse",
		Description: "Creative persona on the premium engine",
		Engine:      models.EngineClaude,
		PromptAddon: "Respond in a playful, image-rich voice. Everything dances; play matters more than the solution; uncertainty is a partner, not an enemy.",
		MaxTokens:   3072,
	},
	{
		Name:        "ops",
		Description: "Operational briefings on the fast engine",
		Engine:      models.EngineGemini,
		PromptAddon: "Respond as an operations brief: current state, risks, and concrete next steps in 30/60/90 day buckets.",
		MaxTokens:   1536,
	},
}

// InvalidModeError rejects an unknown mode name. This is caller input
// error, not runtime degradation: it fails fast instead of silently
// defaulting.
type InvalidModeError struct {
	Name  string
	Valid []string
}

func (e *InvalidModeError) Error() string {
	return fmt.Sprintf("unknown mode %q (valid: %s)", e.Name, strings.Join(e.Valid, ", "))
}

// ModeRegistry is the immutable set of known modes.
type ModeRegistry struct {
	modes map[string]Mode
	names []string
}

// NewModeRegistry builds the registry from the built-in enumeration,
// applying any tuning from the engines file. The file may adjust addon
// text and budgets of known modes but cannot introduce new ones.
func NewModeRegistry(overrides map[string]config.ModeOverride) (*ModeRegistry, error) {
	modes := make(map[string]Mode, len(builtinModes))
	names := make([]string, 0, len(builtinModes))
	for _, m := range builtinModes {
		modes[m.Name] = m
		names = append(names, m.Name)
	}
	sort.Strings(names)

	for name, ov := range overrides {
		m, ok := modes[name]
		if !ok {
			return nil, &InvalidModeError{Name: name, Valid: names}
		}
		if ov.PromptAddon != nil {
			m.PromptAddon = *ov.PromptAddon
		}
		if ov.MaxTokens != nil && *ov.MaxTokens > 0 {
			m.MaxTokens = *ov.MaxTokens
		}
		modes[name] = m
	}

	return &ModeRegistry{modes: modes, names: names}, nil
}

// Lookup resolves a mode name. An empty name resolves to the default
// mode; an unknown name is an *InvalidModeError.
func (r *ModeRegistry) Lookup(name string) (Mode, error) {
	if name == "" {
		name = ModeDefault
	}
	m, ok := r.modes[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Mode{}, &InvalidModeError{Name: name, Valid: r.names}
	}
	return m, nil
}

// Names returns the valid mode names, sorted.
func (r *ModeRegistry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// All returns every mode, in name order.
func (r *ModeRegistry) All() []Mode {
	out := make([]Mode, 0, len(r.names))
	for _, name := range r.names {
		out = append(out, r.modes[name])
	}
	return out
}
