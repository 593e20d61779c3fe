package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/yavin-ai/yavin/internal/chat"
	"github.com/yavin-ai/yavin/internal/db"
	"github.com/yavin-ai/yavin/internal/pages"
	"github.com/yavin-ai/yavin/internal/search"
	"github.com/yavin-ai/yavin/internal/server"
	"github.com/yavin-ai/yavin/internal/viewer"
)

var serverPort int

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the course website",
	Long:  `Starts the yavin web server: lesson pages, live demos over websockets, accounts, progress tracking, newsletter, feedback and the AI tutor.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("port") {
			cfg.Port = serverPort
		}

		lib, err := pages.LoadEmbedded()
		if err != nil {
			return fmt.Errorf("loading lessons: %w", err)
		}
		index, err := search.BuildLessonIndex(cmd.Context(), lib)
		if err != nil {
			return fmt.Errorf("indexing lessons: %w", err)
		}

		dbPath := filepath.Join(cfg.DataDir, "yavin.db")
		database, err := db.Open(dbPath)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		provider := createLLMProviderFromConfig(cfg)
		assistant := chat.NewAssistant(chat.NewStore(database), provider, chatOptions(cfg))

		srv, err := server.New(server.Config{
			Host:         cfg.ListenHost(),
			Port:         cfg.Port,
			AllowAll:     cfg.AllowAllOrigins,
			CookieSecure: cfg.CookieSecure,
			Theme:        string(cfg.Theme),
		}, database, server.Deps{
			Library:   lib,
			Index:     index,
			Viewer:    viewer.NewRegistry(viewer.NewStore(database), viewerSettings(cfg)),
			Assistant: assistant,
		})
		if err != nil {
			return err
		}

		// Graceful shutdown.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			<-ctx.Done()
			fmt.Fprintln(os.Stderr, "\nShutting down server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()

		fmt.Fprintf(os.Stderr, "yavin server %s starting on %s\n", Version, srv.Addr())
		fmt.Fprintf(os.Stderr, "  Database: %s\n", dbPath)
		fmt.Fprintf(os.Stderr, "  Lessons indexed: %d\n", index.Count())
		if provider != nil {
			fmt.Fprintf(os.Stderr, "  AI tutor: %s\n", provider.Name())
		} else {
			fmt.Fprintln(os.Stderr, "  AI tutor: not configured")
		}

		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

func init() {
	serverCmd.Flags().IntVar(&serverPort, "port", 8080, "Port to listen on (overrides config)")
	rootCmd.AddCommand(serverCmd)
}
