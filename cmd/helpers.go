package cmd

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/yavin-ai/yavin/internal/chat"
	"github.com/yavin-ai/yavin/internal/config"
	"github.com/yavin-ai/yavin/internal/llm"
	"github.com/yavin-ai/yavin/internal/viewer"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `yavin init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

// viewerSettings maps the sim section of the config onto demo defaults.
func viewerSettings(cfg *config.Config) viewer.Settings {
	s := cfg.Sim
	return viewer.Settings{
		GradientRate:     s.GDLearningRate,
		GradientInterval: time.Duration(s.GDIntervalMS) * time.Millisecond,
		BoundaryRate:     s.LogisticLearningRate,
		BoundaryEpochs:   s.LogisticEpochs,
		BoundaryInterval: time.Duration(s.LogisticIntervalMS) * time.Millisecond,
		NetworkEpochs:    s.NetworkEpochs,
		NetworkInterval:  time.Duration(s.NetworkIntervalMS) * time.Millisecond,
		HistoryCap:       s.HistoryCap,
		Theme:            string(cfg.Theme),
		MaxInstances:     s.MaxInstances,
	}
}

// createLLMProviderFromConfig creates the tutor's provider. An unconfigured
// or unusable provider yields nil, which makes the tutor answer with its
// canned greeting.
func createLLMProviderFromConfig(cfg *config.Config) llm.Provider {
	p, err := llm.NewFromConfig(cfg.Chat.Provider, cfg.Chat.Model, cfg.Chat.RequestsPerMinute)
	if errors.Is(err, llm.ErrNotConfigured) {
		return nil
	}
	if err != nil {
		log.Printf("chat: tutor disabled: %v", err)
		return nil
	}
	return p
}

func chatOptions(cfg *config.Config) chat.Options {
	return chat.Options{
		Temperature: cfg.Chat.Temperature,
		MaxTokens:   cfg.Chat.MaxTokens,
		HistoryLen:  cfg.Chat.HistoryLen,
	}
}
