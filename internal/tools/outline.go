package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"course-assistant/internal/llm"
	"course-assistant/internal/service"
)

// OutlineToolName is the name the model uses to request a course outline.
const OutlineToolName = "get_course_outline"

// CourseOutlineTool returns a course's header and lesson list.
type CourseOutlineTool struct {
	store CourseSearcher
}

// NewCourseOutlineTool creates the outline tool.
func NewCourseOutlineTool(store CourseSearcher) *CourseOutlineTool {
	return &CourseOutlineTool{store: store}
}

// Definition declares the tool's input schema.
func (t *CourseOutlineTool) Definition() llm.ToolSchema {
	return llm.ToolSchema{
		Name:        OutlineToolName,
		Description: "Get the complete outline of a course: title, link, instructor and every lesson",
		Parameters: []llm.ToolParam{
			{Name: "course_name", Type: "string", Description: "Course title (partial matches work)", Required: true},
		},
	}
}

// Execute formats the outline of the best matching course.
func (t *CourseOutlineTool) Execute(ctx context.Context, raw json.RawMessage) (Result, error) {
	args, err := decodeArgs(OutlineToolName, raw)
	if err != nil {
		return Result{}, err
	}
	name, err := stringArg(OutlineToolName, args, "course_name")
	if err != nil {
		return Result{}, err
	}
	if name == "" {
		return Result{}, &service.ToolDispatchError{Tool: OutlineToolName, Reason: "course_name is required"}
	}

	notFound := Result{Text: fmt.Sprintf("Course '%s' not found. Please check the course name and try again.", name)}
	title, found, err := t.store.ResolveCourse(ctx, name)
	if err != nil {
		return Result{}, err
	}
	if !found {
		return notFound, nil
	}
	crs, found, err := t.store.CatalogEntry(ctx, title)
	if err != nil {
		return Result{}, err
	}
	if !found {
		return notFound, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Course: %s\n", crs.Title)
	link := crs.Link
	if link == "" {
		link = "Not available"
	}
	fmt.Fprintf(&b, "Course Link: %s\n", link)
	if crs.Instructor != "" {
		fmt.Fprintf(&b, "Instructor: %s\n", crs.Instructor)
	}
	b.WriteString("\n")

	if len(crs.Lessons) == 0 {
		b.WriteString("No lessons found for this course")
	} else {
		b.WriteString("Lessons:")
		for _, l := range crs.Lessons {
			fmt.Fprintf(&b, "\n%d. %s", l.Number, l.Title)
			if l.Link != "" {
				fmt.Fprintf(&b, " - %s", l.Link)
			}
		}
	}

	return Result{
		Text:      b.String(),
		Citations: []Citation{{Course: crs.Title, Link: crs.Link}},
	}, nil
}
