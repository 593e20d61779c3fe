package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard, saves the result to
// path and returns it.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to yavin! Let's configure the site.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Port.
	portPrompt := promptui.Prompt{
		Label:    "Port",
		Default:  strconv.Itoa(cfg.Port),
		Validate: validatePort,
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("port: %w", err)
	}
	cfg.Port, _ = strconv.Atoi(strings.TrimSpace(portStr))

	// 2. Theme.
	themePrompt := promptui.Select{
		Label: "Canvas theme",
		Items: []string{string(ThemeLight), string(ThemeDark)},
	}
	_, theme, err := themePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("theme selection: %w", err)
	}
	cfg.Theme = Theme(theme)

	// 3. Chat provider.
	providerPrompt := promptui.Select{
		Label: "AI tutor provider",
		Items: []string{"none", "openai", "google", "ollama"},
	}
	_, provider, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	cfg.Chat.Provider = provider

	if provider != "none" {
		modelPrompt := promptui.Prompt{
			Label:   "Model (blank for the provider default)",
			Default: "",
		}
		model, err := modelPrompt.Run()
		if err != nil {
			return nil, fmt.Errorf("model: %w", err)
		}
		cfg.Chat.Model = strings.TrimSpace(model)
	}

	// 4. Data directory.
	dataPrompt := promptui.Prompt{
		Label:   "Data directory for the SQLite database",
		Default: cfg.DataDir,
	}
	dataDir, err := dataPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}
	cfg.DataDir = strings.TrimSpace(dataDir)

	if envVar := APIKeyEnvVar(provider); envVar != "" && os.Getenv(envVar) == "" {
		fmt.Printf("\nNote: Set %s in your environment (or .env) before running yavin server.\n", envVar)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}

func validatePort(s string) error {
	p, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || p <= 0 || p > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}
	return nil
}
