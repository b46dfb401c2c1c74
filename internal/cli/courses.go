package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var coursesCmd = &cobra.Command{
	Use:   "courses [title]",
	Short: "List indexed courses, or show one course",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCourses,
}

func init() {
	rootCmd.AddCommand(coursesCmd)
}

func runCourses(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	if len(args) == 1 {
		rec, err := a.Courses.Course(ctx, args[0])
		if err != nil {
			return err
		}
		cmd.Printf("Course: %s\n", rec.Title)
		if rec.Instructor != "" {
			cmd.Printf("Instructor: %s\n", rec.Instructor)
		}
		if rec.Link != "" {
			cmd.Printf("Link: %s\n", rec.Link)
		}
		cmd.Printf("Chunks: %d\n\nLessons:\n", rec.ChunkCount)
		for _, l := range rec.Lessons {
			cmd.Printf("  %d. %s\n", l.Number, l.Title)
		}
		return nil
	}

	stats, err := a.Courses.Stats(ctx)
	if err != nil {
		return fmt.Errorf("failed to list courses: %w", err)
	}
	if stats.TotalCourses == 0 {
		cmd.Println("No courses indexed.")
		return nil
	}
	cmd.Printf("Courses (%d):\n", stats.TotalCourses)
	for _, title := range stats.CourseTitles {
		cmd.Printf("  - %s\n", title)
	}
	return nil
}
