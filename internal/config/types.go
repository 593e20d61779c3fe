package config

// Theme names the canvas colour scheme.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Config is the top-level yavin configuration, corresponding to yavin.yml.
type Config struct {
	// Host is the listen address. Empty picks 127.0.0.1, or 0.0.0.0 on a
	// hosting platform; see ListenHost.
	Host            string     `yaml:"host" koanf:"host"`
	Port            int        `yaml:"port" koanf:"port"`
	DataDir         string     `yaml:"data_dir" koanf:"data_dir"`
	AllowAllOrigins bool       `yaml:"allow_all_origins" koanf:"allow_all_origins"`
	CookieSecure    bool       `yaml:"cookie_secure" koanf:"cookie_secure"`
	Theme           Theme      `yaml:"theme" koanf:"theme"`
	Chat            ChatConfig `yaml:"chat" koanf:"chat"`
	Sim             SimConfig  `yaml:"sim" koanf:"sim"`
}

// ChatConfig selects the tutor's LLM backend.
type ChatConfig struct {
	Provider          string  `yaml:"provider" koanf:"provider"`
	Model             string  `yaml:"model" koanf:"model"`
	Temperature       float64 `yaml:"temperature" koanf:"temperature"`
	MaxTokens         int     `yaml:"max_tokens" koanf:"max_tokens"`
	HistoryLen        int     `yaml:"history_len" koanf:"history_len"`
	RequestsPerMinute int     `yaml:"requests_per_minute" koanf:"requests_per_minute"`
}

// SimConfig holds the defaults applied to new demo instances. Intervals are
// in milliseconds.
type SimConfig struct {
	GDLearningRate       float64 `yaml:"gd_learning_rate" koanf:"gd_learning_rate"`
	GDIntervalMS         int     `yaml:"gd_interval_ms" koanf:"gd_interval_ms"`
	LogisticLearningRate float64 `yaml:"logistic_learning_rate" koanf:"logistic_learning_rate"`
	LogisticEpochs       int     `yaml:"logistic_epochs" koanf:"logistic_epochs"`
	LogisticIntervalMS   int     `yaml:"logistic_interval_ms" koanf:"logistic_interval_ms"`
	NetworkEpochs        int     `yaml:"network_epochs" koanf:"network_epochs"`
	NetworkIntervalMS    int     `yaml:"network_interval_ms" koanf:"network_interval_ms"`
	HistoryCap           int     `yaml:"history_cap" koanf:"history_cap"`
	MaxInstances         int     `yaml:"max_instances" koanf:"max_instances"`
}
