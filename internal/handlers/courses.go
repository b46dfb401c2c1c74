package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"course-assistant/internal/contextutil"
	"course-assistant/internal/service"
)

// CoursesHandler serves course analytics from the registry.
type CoursesHandler struct {
	courses service.CourseService
}

// NewCoursesHandler creates a new CoursesHandler.
func NewCoursesHandler(courses service.CourseService) *CoursesHandler {
	return &CoursesHandler{courses: courses}
}

// CourseStatsResponse is the body of GET /api/courses.
type CourseStatsResponse struct {
	TotalCourses int      `json:"total_courses"`
	CourseTitles []string `json:"course_titles"`
}

// LessonResponse is one lesson of a course.
type LessonResponse struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	Link   string `json:"link,omitempty"`
}

// CourseResponse is the body of GET /api/courses/{title}.
type CourseResponse struct {
	Title       string           `json:"title"`
	Instructor  string           `json:"instructor,omitempty"`
	Link        string           `json:"link,omitempty"`
	LessonCount int              `json:"lesson_count"`
	ChunkCount  int              `json:"chunk_count"`
	IngestedAt  string           `json:"ingested_at"`
	Lessons     []LessonResponse `json:"lessons"`
}

// List handles GET /api/courses.
func (h *CoursesHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stats, err := h.courses.Stats(ctx)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to list courses")
		return
	}

	titles := stats.CourseTitles
	if titles == nil {
		titles = []string{}
	}
	writeJSON(ctx, w, http.StatusOK, CourseStatsResponse{
		TotalCourses: stats.TotalCourses,
		CourseTitles: titles,
	})
}

// Get handles GET /api/courses/{title}.
func (h *CoursesHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	title := chi.URLParam(r, "title")

	rec, err := h.courses.Course(ctx, title)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to get course")
		return
	}
	contextutil.LoggerFromContext(ctx).DebugContext(ctx, "course fetched", "course", rec.Title, "lessons", len(rec.Lessons))

	lessons := make([]LessonResponse, 0, len(rec.Lessons))
	for _, l := range rec.Lessons {
		lessons = append(lessons, LessonResponse{Number: l.Number, Title: l.Title, Link: l.Link})
	}
	writeJSON(ctx, w, http.StatusOK, CourseResponse{
		Title:       rec.Title,
		Instructor:  rec.Instructor,
		Link:        rec.Link,
		LessonCount: rec.LessonCount,
		ChunkCount:  rec.ChunkCount,
		IngestedAt:  rec.IngestedAt.UTC().Format(time.RFC3339),
		Lessons:     lessons,
	})
}
