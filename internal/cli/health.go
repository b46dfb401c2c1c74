package cli

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check configuration, stores and model services",
	Long: `Loads the configuration, connects to every store and calls the embedding
and generative model services once. Exits with status 1 when any check fails.`,
	Args: cobra.NoArgs,
	RunE: runHealth,
}

func init() {
	rootCmd.AddCommand(healthCmd)
}

func runHealth(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		cmd.Printf("%-14s error: %v\n", "environment", err)
		return errors.New("health check failed")
	}
	cmd.Printf("%-14s ok (provider %s, vectors %s, sessions %s)\n", "environment",
		cfg.LLMProvider, cfg.VectorBackend, cfg.SessionBackend)

	a, err := newApp(ctx, cfg)
	if err != nil {
		cmd.Printf("%-14s error: %v\n", "startup", err)
		return errors.New("health check failed")
	}
	defer func() { _ = a.Close() }()

	report := a.Courses.Health(ctx, true)

	names := make([]string, 0, len(report.Checks))
	for name := range report.Checks {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		cmd.Printf("%-14s %s\n", name, report.Checks[name])
	}
	cmd.Printf("\ncatalog courses: %d, content chunks: %d, registered courses: %d\n",
		report.CatalogCourses, report.ContentChunks, report.RegisteredCourses)

	if !report.Healthy() {
		return fmt.Errorf("health check failed: %v", report.Issues)
	}
	return nil
}
