package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"PressTopics/internal/app"
	"PressTopics/internal/config"
	"PressTopics/internal/logging"
)

func main() {
	// A missing .env is fine; the environment and config file still apply.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "presstopics",
		Short: "Crawl press releases and extract topics",
		Long: `presstopics collects press-release articles into a local SQLite store
and fits factorization and allocation topic models over them.`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newServeCmd(),
		newCrawlCmd(),
		newAnalyzeCmd(),
	)
	return root
}

// newApplication loads configuration and wires the application.
func newApplication() (*app.Application, error) {
	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)
	return app.New(cfg, logger)
}

// newServeCmd creates the serve command.
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the job control HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, err := newApplication()
			if err != nil {
				return err
			}
			return application.Serve(cmd.Context())
		},
	}
}
