package config

import (
	"fmt"
	"os"

	"mindwave/internal/models"

	"gopkg.in/yaml.v3"
)

// EngineOverride tunes a single engine from the engines file.
type EngineOverride struct {
	Model   string `yaml:"model"`
	Enabled *bool  `yaml:"enabled"`
}

// ModeOverride tunes one of the built-in modes. Only known mode names are
// accepted; the file cannot introduce new modes.
type ModeOverride struct {
	PromptAddon *string `yaml:"prompt_addon"`
	MaxTokens   *int    `yaml:"max_tokens"`
}

// EnginesFile is the YAML definition file for engines, mode tuning and
// the guard's monitored services. It is optional; a missing file yields
// an empty definition.
type EnginesFile struct {
	Engines           map[string]EngineOverride `yaml:"engines"`
	Modes             map[string]ModeOverride   `yaml:"modes"`
	MonitoredServices []models.MonitoredService `yaml:"monitored_services"`
}

// LoadEngines loads the engines definition file. A missing file is not an
// error; the built-in defaults apply.
func LoadEngines(filePath string) (*EnginesFile, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return &EnginesFile{}, nil
		}
		return nil, fmt.Errorf("failed to read engines file: %w", err)
	}

	var file EnginesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse engines YAML: %w", err)
	}

	return &file, nil
}
