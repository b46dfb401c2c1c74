package http

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"course-assistant/internal/contextutil"
	"course-assistant/internal/rag"
	ragmocks "course-assistant/internal/rag/mocks"
	"course-assistant/internal/service"
	servicemocks "course-assistant/internal/service/mocks"
)

func init() {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newTestRouter(t *testing.T) (http.Handler, *ragmocks.MockEngine, *servicemocks.MockCourseService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	engine := ragmocks.NewMockEngine(ctrl)
	courses := servicemocks.NewMockCourseService(ctrl)
	return NewRouter(&Deps{Engine: engine, Courses: courses, RequestTimeout: time.Minute}), engine, courses
}

func TestRouter_Routes(t *testing.T) {
	router, engine, courses := newTestRouter(t)

	engine.EXPECT().Ask(gomock.Any(), gomock.Any()).
		Return(rag.AskResponse{Answer: "ok", SessionID: "s"}, nil).AnyTimes()
	courses.EXPECT().Stats(gomock.Any()).Return(service.CourseStats{}, nil).AnyTimes()
	courses.EXPECT().ClearSession(gomock.Any(), "s1").Return(nil).AnyTimes()
	courses.EXPECT().Health(gomock.Any(), false).
		Return(service.HealthReport{Status: service.StatusHealthy, Checks: map[string]string{}}).AnyTimes()

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{
			name:       "POST /api/query",
			method:     http.MethodPost,
			path:       "/api/query",
			body:       `{"query":"hi"}`,
			wantStatus: http.StatusOK,
		},
		{
			name:       "POST /api/query with bad body",
			method:     http.MethodPost,
			path:       "/api/query",
			body:       "not json",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "GET /api/query method not allowed",
			method:     http.MethodGet,
			path:       "/api/query",
			wantStatus: http.StatusMethodNotAllowed,
		},
		{
			name:       "GET /api/courses",
			method:     http.MethodGet,
			path:       "/api/courses",
			wantStatus: http.StatusOK,
		},
		{
			name:       "DELETE /api/sessions/{id}",
			method:     http.MethodDelete,
			path:       "/api/sessions/s1",
			wantStatus: http.StatusNoContent,
		},
		{
			name:       "GET /health",
			method:     http.MethodGet,
			path:       "/health",
			wantStatus: http.StatusOK,
		},
		{
			name:       "unknown route",
			method:     http.MethodGet,
			path:       "/api/chat",
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "preflight",
			method:     http.MethodOptions,
			path:       "/api/query",
			wantStatus: http.StatusNoContent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Router %s %s status = %v, want %v", tt.method, tt.path, w.Code, tt.wantStatus)
			}
		})
	}
}

func TestRouter_MiddlewareApplied(t *testing.T) {
	router, engine, _ := newTestRouter(t)

	var requestID string
	engine.EXPECT().Ask(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, req rag.AskRequest) (rag.AskResponse, error) {
			requestID = contextutil.RequestIDFromContext(ctx)
			if _, ok := ctx.Deadline(); !ok {
				t.Error("API requests should carry a deadline")
			}
			return rag.AskResponse{Answer: "ok", SessionID: "s"}, nil
		})

	req := httptest.NewRequest(http.MethodPost, "/api/query", strings.NewReader(`{"query":"hi"}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Error("Router should apply CORS middleware")
	}
	if requestID == "" || w.Header().Get(RequestIDHeader) != requestID {
		t.Errorf("request id in context %q, header %q", requestID, w.Header().Get(RequestIDHeader))
	}
}

func TestRouter_RecoversFromPanic(t *testing.T) {
	router, engine, _ := newTestRouter(t)

	engine.EXPECT().Ask(gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, rag.AskRequest) (rag.AskResponse, error) {
			panic("engine exploded")
		})

	req := httptest.NewRequest(http.MethodPost, "/api/query", strings.NewReader(`{"query":"hi"}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status after panic = %v, want %v", w.Code, http.StatusInternalServerError)
	}
}
