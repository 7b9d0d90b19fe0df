package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Preset is a named set of conversion parameters.
type Preset map[string]string

// PresetsConfig maps preset names to parameter sets.
type PresetsConfig struct {
	Presets map[string]Preset `yaml:"presets"`
}

// ParsePresets parses preset config data from YAML bytes.
func ParsePresets(data []byte) (*PresetsConfig, error) {
	if len(data) == 0 {
		return nil, nil
	}
	if err := validateConfigSchema("presets", presetsSchemaFile, data); err != nil {
		return nil, err
	}
	var cfg PresetsConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse presets config: %w", err)
	}
	if len(cfg.Presets) == 0 {
		return nil, errors.New("presets config has no presets")
	}
	return &cfg, nil
}

// LoadPresets reads a YAML file containing named parameter presets.
// A missing file is not an error; the service runs without presets.
func LoadPresets(path string) (*PresetsConfig, error) {
	if path == "" {
		return nil, nil
	}

	// #nosec G304 -- presets path is operator-provided.
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read presets config %s: %w", path, err)
	}

	cfg, err := ParsePresets(data)
	if err != nil {
		return nil, fmt.Errorf("load presets config %s: %w", path, err)
	}
	return cfg, nil
}

// Lookup returns the parameter set for a preset name.
func (c *PresetsConfig) Lookup(name string) (Preset, bool) {
	if c == nil || len(c.Presets) == 0 {
		return nil, false
	}
	p, ok := c.Presets[name]
	return p, ok
}
