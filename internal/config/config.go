package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "YAVIN_"

// nestedSections are the config sections whose env keys map to a dotted
// koanf path: YAVIN_CHAT_MODEL -> chat.model.
var nestedSections = []string{"chat", "sim"}

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (YAVIN_*). A plain PORT variable, as set by
// hosting platforms, seeds the port below both.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	cfg := DefaultConfig()
	if p := os.Getenv("PORT"); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT %q: %w", p, err)
		}
		cfg.Port = port
	}

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	for _, section := range nestedSections {
		if rest, ok := strings.CutPrefix(key, section+"_"); ok {
			return section + "." + rest
		}
	}
	return key
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// validProviders is the set of recognized chat provider values.
var validProviders = map[string]bool{
	"none":   true,
	"openai": true,
	"google": true,
	"ollama": true,
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	if c.Theme != ThemeLight && c.Theme != ThemeDark {
		return fmt.Errorf("invalid theme %q: must be light or dark", c.Theme)
	}

	if !validProviders[c.Chat.Provider] {
		return fmt.Errorf("invalid chat.provider %q: must be one of none, openai, google, ollama", c.Chat.Provider)
	}
	if c.Chat.MaxTokens < 0 {
		return fmt.Errorf("chat.max_tokens must be non-negative")
	}
	if c.Chat.RequestsPerMinute < 0 {
		return fmt.Errorf("chat.requests_per_minute must be non-negative")
	}

	s := c.Sim
	if s.GDIntervalMS < 0 || s.LogisticIntervalMS < 0 || s.NetworkIntervalMS < 0 {
		return fmt.Errorf("sim intervals must be non-negative")
	}
	if s.LogisticEpochs < 0 || s.NetworkEpochs < 0 {
		return fmt.Errorf("sim epochs must be non-negative")
	}
	if s.HistoryCap < 0 || s.MaxInstances < 0 {
		return fmt.Errorf("sim.history_cap and sim.max_instances must be non-negative")
	}

	return nil
}

// APIKeyEnvVar returns the environment variable holding the API key of the
// given chat provider.
func APIKeyEnvVar(provider string) string {
	switch provider {
	case "openai":
		return "OPENAI_API_KEY"
	case "google":
		return "GEMINI_API_KEY"
	default:
		return ""
	}
}
