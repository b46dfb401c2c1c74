package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"course-assistant/internal/contextutil"
	"course-assistant/internal/llm"
	"course-assistant/internal/semantic"
	"course-assistant/internal/service"
)

// SearchToolName is the name the model uses to request content retrieval.
const SearchToolName = "search_course_content"

// CourseSearchTool searches chunk content, optionally within one course and lesson.
type CourseSearchTool struct {
	store      CourseSearcher
	maxResults int
}

// NewCourseSearchTool creates the content search tool.
func NewCourseSearchTool(store CourseSearcher, maxResults int) *CourseSearchTool {
	return &CourseSearchTool{store: store, maxResults: maxResults}
}

// Definition declares the tool's input schema.
func (t *CourseSearchTool) Definition() llm.ToolSchema {
	return llm.ToolSchema{
		Name:        SearchToolName,
		Description: "Search course materials with smart course name matching and lesson filtering",
		Parameters: []llm.ToolParam{
			{Name: "query", Type: "string", Description: "What to search for in the course content", Required: true},
			{Name: "course_name", Type: "string", Description: "Course title (partial matches work, e.g. 'MCP', 'Introduction')"},
			{Name: "lesson_number", Type: "integer", Description: "Specific lesson number to search within (e.g. 1, 2, 3)"},
		},
	}
}

// Execute resolves the course, searches, and formats results with one citation
// per distinct (course, lesson).
func (t *CourseSearchTool) Execute(ctx context.Context, raw json.RawMessage) (Result, error) {
	logger := contextutil.LoggerFromContext(ctx)

	args, err := decodeArgs(SearchToolName, raw)
	if err != nil {
		return Result{}, err
	}
	query, err := stringArg(SearchToolName, args, "query")
	if err != nil {
		return Result{}, err
	}
	if query == "" {
		return Result{}, &service.ToolDispatchError{Tool: SearchToolName, Reason: "query is required"}
	}
	courseName, err := stringArg(SearchToolName, args, "course_name")
	if err != nil {
		return Result{}, err
	}
	lesson, err := intArg(SearchToolName, args, "lesson_number")
	if err != nil {
		return Result{}, err
	}

	filter := semantic.ContentFilter{Lesson: lesson}
	if courseName != "" {
		title, found, err := t.store.ResolveCourse(ctx, courseName)
		if err != nil {
			return Result{}, err
		}
		if !found {
			logger.InfoContext(ctx, "course not resolved", "course_name", courseName)
			return Result{Text: fmt.Sprintf("No course found matching '%s'", courseName)}, nil
		}
		filter.Course = title
	}

	hits, err := t.store.SearchContent(ctx, query, filter, t.maxResults)
	if err != nil {
		return Result{}, err
	}
	logger.InfoContext(ctx, "content search", "course", filter.Course, "lesson", lesson, "results", len(hits))

	if len(hits) == 0 {
		msg := "No relevant content found"
		if filter.Course != "" {
			msg += fmt.Sprintf(" in course '%s'", filter.Course)
		}
		if lesson != nil {
			msg += fmt.Sprintf(" in lesson %d", *lesson)
		}
		return Result{Text: msg + "."}, nil
	}

	links := newLinkResolver(t.store)
	blocks := make([]string, 0, len(hits))
	var citations []Citation
	seen := make(map[citationKey]bool)
	for _, h := range hits {
		c := Citation{Course: h.CourseTitle, Lesson: h.Lesson}
		blocks = append(blocks, fmt.Sprintf("[%s]\n%s", c.Label(), h.Text))

		if seen[c.key()] {
			continue
		}
		seen[c.key()] = true
		link, err := links.link(ctx, c)
		if err != nil {
			return Result{}, err
		}
		c.Link = link
		citations = append(citations, c)
	}

	return Result{Text: strings.Join(blocks, "\n\n"), Citations: citations}, nil
}

// linkResolver reads each course's catalog entry at most once per call.
type linkResolver struct {
	store   CourseSearcher
	courses map[string]*catalogLinks
}

type catalogLinks struct {
	course  string
	lessons map[int]string
}

func newLinkResolver(store CourseSearcher) *linkResolver {
	return &linkResolver{store: store, courses: make(map[string]*catalogLinks)}
}

// link prefers the lesson's link and falls back to the course link.
func (r *linkResolver) link(ctx context.Context, c Citation) (string, error) {
	entry, ok := r.courses[c.Course]
	if !ok {
		crs, found, err := r.store.CatalogEntry(ctx, c.Course)
		if err != nil {
			return "", err
		}
		entry = &catalogLinks{lessons: make(map[int]string)}
		if found {
			entry.course = crs.Link
			for _, l := range crs.Lessons {
				entry.lessons[l.Number] = l.Link
			}
		}
		r.courses[c.Course] = entry
	}
	if c.Lesson != nil {
		if l := entry.lessons[*c.Lesson]; l != "" {
			return l, nil
		}
	}
	return entry.course, nil
}
