package cmd

import (
	"github.com/spf13/cobra"

	"github.com/yavin-ai/yavin/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a yavin configuration with an interactive wizard",
	Long:  `Runs an interactive wizard for the port, theme, AI tutor provider and data directory, and writes the config file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard(cfgFile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
