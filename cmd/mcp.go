package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	mcpserver "github.com/yavin-ai/yavin/internal/mcp"
	"github.com/yavin-ai/yavin/internal/pages"
	"github.com/yavin-ai/yavin/internal/search"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for AI agent integration",
	Long:  `Starts a Model Context Protocol (MCP) server on stdio, exposing the course simulations and lesson search as tools for AI agents.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		lib, err := pages.LoadEmbedded()
		if err != nil {
			return fmt.Errorf("loading lessons: %w", err)
		}
		index, err := search.BuildLessonIndex(cmd.Context(), lib)
		if err != nil {
			return fmt.Errorf("indexing lessons: %w", err)
		}

		mcpserver.Version = Version

		fmt.Fprintf(os.Stderr, "yavin MCP server started on stdio (lessons=%d)\n", index.Count())

		srv := mcpserver.NewServer(index)
		return srv.Serve()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
