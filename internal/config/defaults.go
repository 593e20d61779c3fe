package config

import "os"

// DefaultPath is the config file looked up when --config is not given.
const DefaultPath = "yavin.yml"

// hostingEnvVars are set by platforms that route external traffic to the
// process, which then has to listen on all interfaces.
var hostingEnvVars = []string{"RENDER", "FLY_APP_NAME"}

// DefaultConfig returns the configuration used when no file or environment
// overrides are present.
func DefaultConfig() *Config {
	return &Config{
		Port:    8080,
		DataDir: ".yavin",
		Theme:   ThemeLight,
		Chat: ChatConfig{
			Provider:    "none",
			Temperature: 0.7,
			MaxTokens:   500,
			HistoryLen:  10,
		},
		Sim: SimConfig{
			GDLearningRate:       0.1,
			GDIntervalMS:         100,
			LogisticLearningRate: 0.5,
			LogisticEpochs:       100,
			LogisticIntervalMS:   50,
			NetworkEpochs:        100,
			NetworkIntervalMS:    20,
			HistoryCap:           500,
			MaxInstances:         64,
		},
	}
}

// ListenHost returns Host, or the platform-appropriate default when it is
// empty.
func (c *Config) ListenHost() string {
	if c.Host != "" {
		return c.Host
	}
	for _, name := range hostingEnvVars {
		if os.Getenv(name) != "" {
			return "0.0.0.0"
		}
	}
	return "127.0.0.1"
}
