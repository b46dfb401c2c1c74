package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"course-assistant/internal/indexer"
)

var (
	ingestClear bool
	ingestJSON  bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [dir]",
	Short: "Ingest course documents",
	Long: `Reads every .txt and .md course document in dir (DOCS_PATH when omitted)
and adds the courses that are not indexed yet. Documents that fail to parse
are reported and skipped.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestClear, "clear", false, "drop all indexed courses before ingesting")
	ingestCmd.Flags().BoolVar(&ingestJSON, "json", false, "output the report as JSON")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	dir := a.Config.DocsPath
	if len(args) == 1 {
		dir = args[0]
	}

	report, err := a.Ingest(ctx, dir, ingestClear)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	if ingestJSON {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal report: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	printIngestReport(cmd, dir, report)
	return nil
}

func printIngestReport(cmd *cobra.Command, dir string, report *indexer.IngestReport) {
	cmd.Printf("Ingested %s\n\n", dir)
	for _, doc := range report.Documents {
		switch doc.Status {
		case indexer.StatusAdded:
			cmd.Printf("  + %-30s %s (%d chunks)\n", doc.ID, doc.Course, doc.Chunks)
		case indexer.StatusSkipped:
			cmd.Printf("  = %-30s %s (already indexed)\n", doc.ID, doc.Course)
		default:
			cmd.Printf("  ! %-30s %s\n", doc.ID, doc.Error)
		}
	}
	cmd.Println()
	cmd.Printf("Courses added: %d, skipped: %d, failed: %d\n", report.CoursesAdded, report.CoursesSkipped, report.Failed)
	cmd.Printf("Chunks added: %d", report.ChunksAdded)
	if report.ChunksAdded > 0 {
		s := report.ChunkStats
		cmd.Printf(" (tokens min %d, mean %.1f, p95 %d, max %d)", s.Min, s.Mean, s.P95, s.Max)
	}
	cmd.Println()
	cmd.Printf("Index version: %s\n", report.IndexVersion)
}
