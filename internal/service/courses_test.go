package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"maps"
	"slices"
	"testing"

	"go.uber.org/mock/gomock"

	"course-assistant/internal/conversation"
	llmmocks "course-assistant/internal/llm/mocks"
	"course-assistant/internal/service"
	"course-assistant/internal/storage"
	storagemocks "course-assistant/internal/storage/mocks"
)

func init() {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

type fakeStore struct {
	pingErr  error
	countErr error
	catalog  int
	content  int
}

func (f *fakeStore) Ping(context.Context) error { return f.pingErr }

func (f *fakeStore) Counts(context.Context) (int, int, error) {
	return f.catalog, f.content, f.countErr
}

func TestCourseService_Stats(t *testing.T) {
	ctrl := gomock.NewController(t)
	registry := storagemocks.NewMockCourseStore(ctrl)
	svc := service.NewCourseService(registry, &fakeStore{}, conversation.NewMemoryStore(2), service.ModelProbes{})
	ctx := context.Background()

	registry.EXPECT().ListTitles(gomock.Any()).Return([]string{"Advanced", "Intro"}, nil)
	stats, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.TotalCourses != 2 {
		t.Errorf("TotalCourses = %d, want 2", stats.TotalCourses)
	}
	if want := []string{"Advanced", "Intro"}; !slices.Equal(stats.CourseTitles, want) {
		t.Errorf("CourseTitles = %v, want %v", stats.CourseTitles, want)
	}

	registry.EXPECT().ListTitles(gomock.Any()).Return(nil, errors.New("disk I/O error"))
	if _, err := svc.Stats(ctx); err == nil {
		t.Error("Stats() expected error when the registry fails")
	}
}

func TestCourseService_Course(t *testing.T) {
	ctrl := gomock.NewController(t)
	registry := storagemocks.NewMockCourseStore(ctrl)
	svc := service.NewCourseService(registry, &fakeStore{}, conversation.NewMemoryStore(2), service.ModelProbes{})

	tests := []struct {
		name    string
		title   string
		setup   func()
		wantErr error
	}{
		{
			name:  "found",
			title: " Intro ",
			setup: func() {
				registry.EXPECT().Get(gomock.Any(), "Intro").Return(&storage.CourseRecord{Title: "Intro"}, nil)
			},
		},
		{
			name:  "not registered",
			title: "Missing",
			setup: func() {
				registry.EXPECT().Get(gomock.Any(), "Missing").Return(nil, storage.ErrNotFound)
			},
			wantErr: service.ErrNotFound,
		},
		{
			name:    "blank title",
			title:   "  ",
			setup:   func() {},
			wantErr: service.ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			rec, err := svc.Course(context.Background(), tt.title)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Course() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Course() error = %v", err)
			}
			if rec.Title != "Intro" {
				t.Errorf("Course() title = %q, want Intro", rec.Title)
			}
		})
	}
}

func TestCourseService_Health(t *testing.T) {
	tests := []struct {
		name        string
		store       *fakeStore
		registryErr error
		wantStatus  string
		wantChecks  map[string]string
		wantIssues  []string
	}{
		{
			name:       "all ok",
			store:      &fakeStore{catalog: 2, content: 7},
			wantStatus: service.StatusHealthy,
			wantChecks: map[string]string{"vector_store": "ok", "registry": "ok"},
		},
		{
			name:       "vector store down",
			store:      &fakeStore{pingErr: service.ErrStoreUnavailable},
			wantStatus: service.StatusUnhealthy,
			wantChecks: map[string]string{"vector_store": "error", "registry": "ok"},
			wantIssues: []string{"vector_store_unavailable"},
		},
		{
			name:       "counts fail",
			store:      &fakeStore{countErr: service.ErrStoreUnavailable},
			wantStatus: service.StatusUnhealthy,
			wantChecks: map[string]string{"vector_store": "error", "registry": "ok"},
			wantIssues: []string{"vector_store_unavailable"},
		},
		{
			name:        "registry down",
			store:       &fakeStore{catalog: 2, content: 7},
			registryErr: errors.New("database is locked"),
			wantStatus:  service.StatusUnhealthy,
			wantChecks:  map[string]string{"vector_store": "ok", "registry": "error"},
			wantIssues:  []string{"registry_unavailable"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			registry := storagemocks.NewMockCourseStore(ctrl)
			registry.EXPECT().Count(gomock.Any()).Return(2, tt.registryErr)

			svc := service.NewCourseService(registry, tt.store, conversation.NewMemoryStore(2), service.ModelProbes{})
			report := svc.Health(context.Background(), false)

			if report.Status != tt.wantStatus {
				t.Errorf("Status = %q, want %q", report.Status, tt.wantStatus)
			}
			if !maps.Equal(report.Checks, tt.wantChecks) {
				t.Errorf("Checks = %v, want %v", report.Checks, tt.wantChecks)
			}
			if !slices.Equal(report.Issues, tt.wantIssues) {
				t.Errorf("Issues = %v, want %v", report.Issues, tt.wantIssues)
			}
			if report.CheckedAt.IsZero() {
				t.Error("CheckedAt should be set")
			}
			if tt.wantStatus == service.StatusHealthy {
				if !report.Healthy() {
					t.Error("Healthy() = false, want true")
				}
				if report.CatalogCourses != 2 || report.ContentChunks != 7 || report.RegisteredCourses != 2 {
					t.Errorf("counts = %d/%d/%d, want 2/7/2",
						report.CatalogCourses, report.ContentChunks, report.RegisteredCourses)
				}
			}
		})
	}
}

func TestCourseService_HealthDeep(t *testing.T) {
	ctrl := gomock.NewController(t)
	registry := storagemocks.NewMockCourseStore(ctrl)
	registry.EXPECT().Count(gomock.Any()).Return(1, nil).Times(2)
	model := llmmocks.NewMockModel(ctrl)
	embedder := llmmocks.NewMockEmbedder(ctrl)

	svc := service.NewCourseService(registry, &fakeStore{catalog: 1, content: 3}, conversation.NewMemoryStore(2),
		service.ModelProbes{Model: model, Embedder: embedder})

	embedder.EXPECT().Embed(gomock.Any(), []string{"health check"}).Return([][]float32{{1}}, nil)
	model.EXPECT().Complete(gomock.Any(), gomock.Any()).Return(nil, service.ErrModelUnavailable)

	report := svc.Health(context.Background(), true)
	if report.Status != service.StatusUnhealthy {
		t.Errorf("Status = %q, want %q", report.Status, service.StatusUnhealthy)
	}
	if report.Checks["embedder"] != "ok" || report.Checks["model"] != "error" {
		t.Errorf("Checks = %v, want embedder ok and model error", report.Checks)
	}
	if want := []string{"model_unavailable"}; !slices.Equal(report.Issues, want) {
		t.Errorf("Issues = %v, want %v", report.Issues, want)
	}

	// A shallow check never calls the model services.
	report = svc.Health(context.Background(), false)
	if !report.Healthy() {
		t.Errorf("shallow Health() = %+v, want healthy", report)
	}
	if _, ok := report.Checks["model"]; ok {
		t.Error("shallow Health() should not check the model")
	}
}

func TestCourseService_ClearSession(t *testing.T) {
	ctx := context.Background()
	history := conversation.NewMemoryStore(2)
	if err := history.Append(ctx, "s1", conversation.Turn{Role: conversation.RoleUser, Content: "hi"}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	svc := service.NewCourseService(nil, &fakeStore{}, history, service.ModelProbes{})

	if err := svc.ClearSession(ctx, "s1"); err != nil {
		t.Fatalf("ClearSession() error = %v", err)
	}
	turns, err := history.History(ctx, "s1", 0)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(turns) != 0 {
		t.Errorf("History() after clear = %v, want empty", turns)
	}

	if err := svc.ClearSession(ctx, ""); !errors.Is(err, service.ErrInvalidInput) {
		t.Errorf("ClearSession(\"\") error = %v, want ErrInvalidInput", err)
	}
}
