package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"course-assistant/internal/service"
)

// SessionHandler manages conversation sessions.
type SessionHandler struct {
	courses service.CourseService
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(courses service.CourseService) *SessionHandler {
	return &SessionHandler{courses: courses}
}

// Delete handles DELETE /api/sessions/{id}. Clearing an unknown session succeeds.
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.courses.ClearSession(ctx, chi.URLParam(r, "id")); err != nil {
		handleServiceError(ctx, w, err, "Failed to clear session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
