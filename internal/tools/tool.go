// Package tools holds the capabilities the model may call during a query.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"course-assistant/internal/course"
	"course-assistant/internal/llm"
	"course-assistant/internal/semantic"
	"course-assistant/internal/service"
)

// Tool is a named capability with a declared input schema.
type Tool interface {
	Definition() llm.ToolSchema
	// Execute runs the tool. Bad arguments yield *service.ToolDispatchError;
	// infrastructure failures are returned as ordinary errors.
	Execute(ctx context.Context, args json.RawMessage) (Result, error)
}

// Result is the text handed back to the model plus its attributions.
type Result struct {
	Text      string
	Citations []Citation
}

// Citation attributes part of an answer to a course and, optionally, a lesson.
type Citation struct {
	Course string
	Lesson *int
	Link   string
}

// Label renders the citation the way it is shown to users.
func (c Citation) Label() string {
	if c.Lesson == nil {
		return c.Course
	}
	return fmt.Sprintf("%s - Lesson %d", c.Course, *c.Lesson)
}

type citationKey struct {
	course string
	lesson int
	has    bool
}

func (c Citation) key() citationKey {
	if c.Lesson == nil {
		return citationKey{course: c.Course}
	}
	return citationKey{course: c.Course, lesson: *c.Lesson, has: true}
}

// CourseSearcher is the part of the semantic store the tools need.
type CourseSearcher interface {
	ResolveCourse(ctx context.Context, name string) (string, bool, error)
	SearchContent(ctx context.Context, query string, filter semantic.ContentFilter, limit int) ([]semantic.ScoredChunk, error)
	CatalogEntry(ctx context.Context, title string) (course.Course, bool, error)
}

// decodeArgs unmarshals tool arguments into a generic map. Models sometimes
// send an empty string instead of an empty object.
func decodeArgs(tool string, raw json.RawMessage) (map[string]json.RawMessage, error) {
	args := map[string]json.RawMessage{}
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == `""` || trimmed == "null" {
		return args, nil
	}
	if err := json.Unmarshal([]byte(trimmed), &args); err != nil {
		return nil, &service.ToolDispatchError{Tool: tool, Reason: "arguments are not a JSON object"}
	}
	return args, nil
}

func stringArg(tool string, args map[string]json.RawMessage, name string) (string, error) {
	raw, ok := args[name]
	if !ok || string(raw) == "null" {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", &service.ToolDispatchError{Tool: tool, Reason: fmt.Sprintf("%s must be a string", name)}
	}
	return strings.TrimSpace(s), nil
}

// intArg accepts JSON numbers with no fractional part and numeric strings,
// both within the int32 range.
func intArg(tool string, args map[string]json.RawMessage, name string) (*int, error) {
	raw, ok := args[name]
	if !ok || string(raw) == "null" {
		return nil, nil
	}
	bad := &service.ToolDispatchError{Tool: tool, Reason: fmt.Sprintf("%s must be an integer", name)}

	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		if f != math.Trunc(f) || f < math.MinInt32 || f > math.MaxInt32 {
			return nil, bad
		}
		return course.IntPtr(int(f)), nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, nil
		}
		n, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			return nil, bad
		}
		return course.IntPtr(int(n)), nil
	}
	return nil, bad
}
