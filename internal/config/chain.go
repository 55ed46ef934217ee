package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ProviderConfig enables one classification provider and orders it within
// the chain; lower preference runs first.
type ProviderConfig struct {
	Enabled    bool `yaml:"enabled"`
	Preference int  `yaml:"preference"`
}

// ChainConfig is the optional YAML file selecting classification providers
// and sizing the AI admission gate. The permit count is fixed for the
// process lifetime.
type ChainConfig struct {
	AIConcurrency int                       `yaml:"ai_concurrency"`
	Providers     map[string]ProviderConfig `yaml:"providers"`
}

func DefaultChainConfig() ChainConfig {
	return ChainConfig{
		AIConcurrency: 1,
		Providers: map[string]ProviderConfig{
			"heuristic": {Enabled: true, Preference: 1},
			"ollama":    {Enabled: true, Preference: 2},
		},
	}
}

// LoadChainConfig reads the chain file, falling back to defaults when no
// path is configured or the file is absent.
func LoadChainConfig(path string) (ChainConfig, error) {
	cfg := DefaultChainConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read chain config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse chain config: %w", err)
	}
	if cfg.AIConcurrency < 1 {
		cfg.AIConcurrency = 1
	}
	return cfg, nil
}

// Provider returns the configuration for a provider id; unknown providers
// are disabled.
func (c ChainConfig) Provider(id string) ProviderConfig {
	if p, ok := c.Providers[id]; ok {
		return p
	}
	return ProviderConfig{Enabled: false}
}
