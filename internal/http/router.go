package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"course-assistant/internal/handlers"
	"course-assistant/internal/rag"
	"course-assistant/internal/service"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	Engine  rag.Engine
	Courses service.CourseService
	// RequestTimeout bounds each API request; zero disables it.
	RequestTimeout time.Duration
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(LoggerMiddleware)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(CORS)

	queryHandler := handlers.NewQueryHandler(deps.Engine)
	coursesHandler := handlers.NewCoursesHandler(deps.Courses)
	sessionHandler := handlers.NewSessionHandler(deps.Courses)

	r.Route("/api", func(r chi.Router) {
		if deps.RequestTimeout > 0 {
			r.Use(middleware.Timeout(deps.RequestTimeout))
		}
		r.Method(http.MethodPost, "/query", queryHandler)
		r.Get("/courses", coursesHandler.List)
		r.Get("/courses/{title}", coursesHandler.Get)
		r.Delete("/sessions/{id}", sessionHandler.Delete)
	})

	r.Method(http.MethodGet, "/health", handlers.NewHealthHandler(deps.Courses))

	return r
}
