package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_course_service.go -package=mocks course-assistant/internal/service CourseService

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"course-assistant/internal/contextutil"
	"course-assistant/internal/conversation"
	"course-assistant/internal/llm"
	"course-assistant/internal/storage"
)

// Health statuses.
const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

const (
	checkOK    = "ok"
	checkError = "error"
)

// StoreStatus is the view of the semantic store that health checks need.
// This interface is defined from the service layer's perspective (consumer-first).
type StoreStatus interface {
	Ping(ctx context.Context) error
	Counts(ctx context.Context) (catalog int, content int, err error)
}

// CourseStats summarizes the course registry.
type CourseStats struct {
	TotalCourses int
	CourseTitles []string
}

// HealthReport is the result of a health check run.
type HealthReport struct {
	Status            string
	CheckedAt         time.Time
	Checks            map[string]string
	Issues            []string
	CatalogCourses    int
	ContentChunks     int
	RegisteredCourses int
}

// Healthy reports whether every check passed.
func (r HealthReport) Healthy() bool {
	return r.Status == StatusHealthy
}

// CourseService provides course analytics, health reporting and session management.
type CourseService interface {
	// Stats returns the registered course titles.
	Stats(ctx context.Context) (CourseStats, error)
	// Course returns one registered course with its lessons.
	Course(ctx context.Context, title string) (*storage.CourseRecord, error)
	// Health checks the stores. With deep set it also probes the model services.
	Health(ctx context.Context, deep bool) HealthReport
	// ClearSession drops a session's conversation history.
	ClearSession(ctx context.Context, sessionID string) error
}

// ModelProbes are the model services a deep health check calls.
// Either may be nil to skip it.
type ModelProbes struct {
	Model    llm.Model
	Embedder llm.Embedder
}

// courseService implements CourseService.
type courseService struct {
	registry storage.CourseStore
	store    StoreStatus
	history  conversation.Store
	probes   ModelProbes
	timeout  time.Duration
}

// NewCourseService creates a new CourseService.
func NewCourseService(registry storage.CourseStore, store StoreStatus, history conversation.Store, probes ModelProbes) CourseService {
	return &courseService{
		registry: registry,
		store:    store,
		history:  history,
		probes:   probes,
		timeout:  5 * time.Second,
	}
}

func (s *courseService) Stats(ctx context.Context) (CourseStats, error) {
	titles, err := s.registry.ListTitles(ctx)
	if err != nil {
		return CourseStats{}, fmt.Errorf("failed to list courses: %w", err)
	}
	return CourseStats{TotalCourses: len(titles), CourseTitles: titles}, nil
}

func (s *courseService) Course(ctx context.Context, title string) (*storage.CourseRecord, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, &ValidationError{Field: "title", Message: "title must not be empty"}
	}

	rec, err := s.registry.Get(ctx, title)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("course %q: %w", title, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get course: %w", err)
	}
	return rec, nil
}

func (s *courseService) Health(ctx context.Context, deep bool) HealthReport {
	logger := contextutil.LoggerFromContext(ctx)

	checkCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	report := HealthReport{
		CheckedAt: time.Now().UTC(),
		Checks:    make(map[string]string),
	}
	fail := func(check, issue string, err error) {
		logger.WarnContext(ctx, "health check failed", "check", check, "error", err)
		report.Checks[check] = checkError
		report.Issues = append(report.Issues, issue)
	}

	if err := s.store.Ping(checkCtx); err != nil {
		fail("vector_store", "vector_store_unavailable", err)
	} else if catalog, content, err := s.store.Counts(checkCtx); err != nil {
		fail("vector_store", "vector_store_unavailable", err)
	} else {
		report.Checks["vector_store"] = checkOK
		report.CatalogCourses = catalog
		report.ContentChunks = content
	}

	if n, err := s.registry.Count(checkCtx); err != nil {
		fail("registry", "registry_unavailable", err)
	} else {
		report.Checks["registry"] = checkOK
		report.RegisteredCourses = n
	}

	if deep {
		if s.probes.Embedder != nil {
			if _, err := s.probes.Embedder.Embed(checkCtx, []string{"health check"}); err != nil {
				fail("embedder", "embedder_unavailable", err)
			} else {
				report.Checks["embedder"] = checkOK
			}
		}
		if s.probes.Model != nil {
			_, err := s.probes.Model.Complete(checkCtx, llm.Request{
				Messages:  []llm.Message{{Role: llm.RoleUser, Content: "ping"}},
				MaxTokens: 1,
			})
			if err != nil {
				fail("model", "model_unavailable", err)
			} else {
				report.Checks["model"] = checkOK
			}
		}
	}

	report.Status = StatusHealthy
	if len(report.Issues) > 0 {
		report.Status = StatusUnhealthy
	}
	return report
}

func (s *courseService) ClearSession(ctx context.Context, sessionID string) error {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return &ValidationError{Field: "session_id", Message: "session id must not be empty"}
	}
	if err := s.history.Clear(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "session cleared", "session_id", sessionID)
	return nil
}
