package handlers

import (
	"net/http"
	"time"

	"course-assistant/internal/contextutil"
	"course-assistant/internal/service"
)

// HealthHandler handles HTTP requests for health checks.
type HealthHandler struct {
	courses service.CourseService
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(courses service.CourseService) *HealthHandler {
	return &HealthHandler{courses: courses}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	// Overall health status: "healthy" or "unhealthy"
	Status string `json:"status"`

	// Timestamp of the health check
	Timestamp string `json:"timestamp"`

	// Individual check results
	Checks map[string]string `json:"checks"`

	// List of issues (only present if status is unhealthy)
	Issues []string `json:"issues,omitempty"`

	CatalogCourses    int `json:"catalog_courses"`
	ContentChunks     int `json:"content_chunks"`
	RegisteredCourses int `json:"registered_courses"`
}

// ServeHTTP handles GET /health.
// Returns 200 OK if healthy, 503 Service Unavailable otherwise.
// Model services are not probed here to keep the check cheap.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodGet {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	report := h.courses.Health(ctx, false)

	httpStatus := http.StatusOK
	if !report.Healthy() {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(ctx, w, httpStatus, HealthResponse{
		Status:            report.Status,
		Timestamp:         report.CheckedAt.Format(time.RFC3339),
		Checks:            report.Checks,
		Issues:            report.Issues,
		CatalogCourses:    report.CatalogCourses,
		ContentChunks:     report.ContentChunks,
		RegisteredCourses: report.RegisteredCourses,
	})
}
