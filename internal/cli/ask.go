package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"course-assistant/internal/rag"
)

var askSession string

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about the ingested courses",
	Long: `Sends one question through the assistant. Pass --session to continue a
conversation; the session id is printed after each answer. With the memory
session backend history only lives for the duration of the command.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askSession, "session", "s", "", "session id to continue")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	resp, err := a.Engine.Ask(ctx, rag.AskRequest{
		SessionID: askSession,
		Query:     strings.Join(args, " "),
	})
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	cmd.Println(resp.Answer)
	if len(resp.Sources) > 0 {
		cmd.Println()
		cmd.Println("Sources:")
		for _, s := range resp.Sources {
			if s.Link != "" {
				cmd.Printf("  - %s <%s>\n", s.Text, s.Link)
			} else {
				cmd.Printf("  - %s\n", s.Text)
			}
		}
	}
	cmd.Println()
	cmd.Printf("Session: %s\n", resp.SessionID)
	return nil
}
