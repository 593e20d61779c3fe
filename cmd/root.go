package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/yavin-ai/yavin/internal/config"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "yavin",
	Short: "Interactive AI fundamentals course with live simulations",
	Long: `Yavin serves an interactive course on how AI works: lessons on gradient
descent, classification, neural networks and attention, each with a live
simulation, plus accounts, progress tracking and an AI tutor.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// A missing .env is normal outside development.
		_ = godotenv.Load()
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultPath, "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
