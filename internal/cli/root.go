// Package cli implements the coursectl command line.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"course-assistant/internal/app"
	"course-assistant/internal/config"
)

var (
	configFile string
	verbose    bool
)

// Overridden in tests.
var (
	loadConfig = config.Load
	newApp     = func(ctx context.Context, cfg *config.Config) (*app.App, error) { return app.New(ctx, cfg) }
)

var rootCmd = &cobra.Command{
	Use:   "coursectl",
	Short: "Manage and query the course assistant",
	Long: `coursectl ingests course documents, asks questions against them and
checks the health of the services the assistant depends on.

Configuration comes from the environment, a .env file and an optional
config file, exactly as for the API server.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if configFile != "" {
			if err := os.Setenv("CONFIG_FILE", configFile); err != nil {
				return fmt.Errorf("failed to set CONFIG_FILE: %w", err)
			}
		}
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (yaml, toml or json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output to stderr")
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(rootCmd.ErrOrStderr(), "Error:", err)
		return 1
	}
	return 0
}

// openApp loads configuration and wires the application.
func openApp(ctx context.Context) (*app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	a, err := newApp(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize: %w", err)
	}
	return a, nil
}
