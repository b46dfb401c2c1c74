package semantic

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"course-assistant/internal/course"
	"course-assistant/internal/service"
	"course-assistant/internal/testutil"
	"course-assistant/internal/vectorstore"
	vectorstore_mocks "course-assistant/internal/vectorstore/mocks"
)

func testConfig() Config {
	return Config{
		CatalogCollection: "course_catalog",
		ContentCollection: "course_content",
		VectorSize:        testutil.HashDimensions,
		MinScore:          0.6,
		MaxResults:        5,
	}
}

func introCourse() (course.Course, []course.Chunk) {
	crs := course.Course{
		Title:      "Intro",
		Instructor: "A",
		Link:       "https://example.com/intro",
		Lessons:    []course.Lesson{{Number: 0, Title: "Basics", Link: "https://example.com/intro/0"}},
	}
	chunks := []course.Chunk{
		{CourseTitle: "Intro", Lesson: course.IntPtr(0), Index: 0, Text: "Lesson 0 content: Sentence one. Sentence two."},
		{CourseTitle: "Intro", Lesson: course.IntPtr(0), Index: 1, Text: "two. Sentence three."},
	}
	return crs, chunks
}

func advancedCourse() (course.Course, []course.Chunk) {
	crs := course.Course{
		Title:   "Advanced Retrieval",
		Lessons: []course.Lesson{{Number: 1, Title: "Reranking"}, {Number: 2, Title: "Hybrid search"}},
	}
	chunks := []course.Chunk{
		{CourseTitle: crs.Title, Index: 0, Text: "Retrieval goes beyond keywords."},
		{CourseTitle: crs.Title, Lesson: course.IntPtr(1), Index: 1, Text: "Lesson 1 content: Rerankers score pairs."},
		{CourseTitle: crs.Title, Lesson: course.IntPtr(2), Index: 2, Text: "Lesson 2 content: Hybrid search mixes sparse and dense."},
	}
	return crs, chunks
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	vectors, err := vectorstore.NewChromemStore("")
	require.NoError(t, err)
	store := NewStore(vectors, &testutil.HashEmbedder{}, testConfig())
	require.NoError(t, store.Init(context.Background()))
	return store
}

func seededStore(t *testing.T) *Store {
	t.Helper()
	store := newTestStore(t)
	ctx := context.Background()
	for _, build := range []func() (course.Course, []course.Chunk){introCourse, advancedCourse} {
		crs, chunks := build()
		added, err := store.UpsertCourse(ctx, crs, chunks)
		require.NoError(t, err)
		require.True(t, added)
	}
	return store
}

func TestStore_UpsertCourse_Idempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	crs, chunks := introCourse()

	added, err := store.UpsertCourse(ctx, crs, chunks)
	require.NoError(t, err)
	assert.True(t, added)

	added, err = store.UpsertCourse(ctx, crs, chunks)
	require.NoError(t, err)
	assert.False(t, added, "second ingestion must be a no-op")

	// Title identity ignores case.
	crs.Title = "INTRO"
	added, err = store.UpsertCourse(ctx, crs, chunks)
	require.NoError(t, err)
	assert.False(t, added)

	catalog, content, err := store.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, catalog)
	assert.Equal(t, 2, content)
}

func TestStore_UpsertCourse_EmptyTitle(t *testing.T) {
	store := newTestStore(t)
	_, err := store.UpsertCourse(context.Background(), course.Course{Title: "  "}, nil)
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestStore_ResolveCourse(t *testing.T) {
	store := seededStore(t)

	tests := []struct {
		name      string
		query     string
		wantTitle string
		wantFound bool
	}{
		{name: "exact", query: "Intro", wantTitle: "Intro", wantFound: true},
		{name: "different case", query: "intro", wantTitle: "Intro", wantFound: true},
		{name: "typo", query: "Intor", wantTitle: "Intro", wantFound: true},
		{name: "partial name", query: "Advanced Retrival", wantTitle: "Advanced Retrieval", wantFound: true},
		{name: "unrelated", query: "Nonexistent", wantFound: false},
		{name: "blank", query: "   ", wantFound: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			title, found, err := store.ResolveCourse(context.Background(), tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.wantFound, found)
			if tt.wantFound {
				assert.Equal(t, tt.wantTitle, title)
			}
		})
	}
}

func TestStore_SearchContent(t *testing.T) {
	store := seededStore(t)
	ctx := context.Background()

	t.Run("course and lesson filter", func(t *testing.T) {
		results, err := store.SearchContent(ctx, "basics", ContentFilter{Course: "Intro", Lesson: course.IntPtr(0)}, 0)
		require.NoError(t, err)
		require.NotEmpty(t, results)
		for _, r := range results {
			assert.Equal(t, "Intro", r.CourseTitle)
			require.NotNil(t, r.Lesson)
			assert.Equal(t, 0, *r.Lesson)
		}
	})

	t.Run("course filter only", func(t *testing.T) {
		results, err := store.SearchContent(ctx, "search", ContentFilter{Course: "Advanced Retrieval"}, 10)
		require.NoError(t, err)
		assert.Len(t, results, 3)
		var preamble int
		for _, r := range results {
			if !r.HasLesson() {
				preamble++
			}
		}
		assert.Equal(t, 1, preamble)
	})

	t.Run("descending scores and limit", func(t *testing.T) {
		results, err := store.SearchContent(ctx, "Sentence three", ContentFilter{}, 2)
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.GreaterOrEqual(t, results[0].Score, results[1].Score)
	})

	t.Run("lesson that does not exist", func(t *testing.T) {
		results, err := store.SearchContent(ctx, "basics", ContentFilter{Course: "Intro", Lesson: course.IntPtr(9)}, 0)
		require.NoError(t, err)
		assert.Empty(t, results)
	})
}

func TestStore_CatalogEntry(t *testing.T) {
	store := seededStore(t)
	ctx := context.Background()

	crs, found, err := store.CatalogEntry(ctx, "Intro")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "A", crs.Instructor)
	assert.Equal(t, "https://example.com/intro", crs.Link)
	require.Len(t, crs.Lessons, 1)
	assert.Equal(t, "https://example.com/intro/0", crs.Lessons[0].Link)

	_, found, err = store.CatalogEntry(ctx, "Missing")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStore_Reset(t *testing.T) {
	store := seededStore(t)
	ctx := context.Background()

	require.NoError(t, store.Reset(ctx))
	catalog, content, err := store.Counts(ctx)
	require.NoError(t, err)
	assert.Zero(t, catalog)
	assert.Zero(t, content)

	// Collections are usable again after a reset.
	crs, chunks := introCourse()
	added, err := store.UpsertCourse(ctx, crs, chunks)
	require.NoError(t, err)
	assert.True(t, added)
}

func TestStore_StoreUnavailable(t *testing.T) {
	ctrl := gomock.NewController(t)
	vectors := vectorstore_mocks.NewMockVectorStore(ctrl)
	store := NewStore(vectors, &testutil.HashEmbedder{}, testConfig())
	ctx := context.Background()
	down := errors.New("connection refused")

	vectors.EXPECT().Get(gomock.Any(), "course_catalog", gomock.Any()).Return(nil, down).Times(2)
	vectors.EXPECT().Search(gomock.Any(), "course_content", gomock.Any(), 5, gomock.Nil()).Return(nil, down)

	_, err := store.UpsertCourse(ctx, course.Course{Title: "Intro"}, nil)
	assert.ErrorIs(t, err, service.ErrStoreUnavailable)
	assert.ErrorIs(t, err, down)

	_, _, err = store.ResolveCourse(ctx, "Intro")
	assert.ErrorIs(t, err, service.ErrStoreUnavailable)

	_, err = store.SearchContent(ctx, "anything", ContentFilter{}, 0)
	assert.ErrorIs(t, err, service.ErrStoreUnavailable)
}

func TestStore_UpsertWritesCatalogLast(t *testing.T) {
	ctrl := gomock.NewController(t)
	vectors := vectorstore_mocks.NewMockVectorStore(ctrl)
	store := NewStore(vectors, &testutil.HashEmbedder{}, testConfig())
	crs, chunks := introCourse()

	gomock.InOrder(
		vectors.EXPECT().Get(gomock.Any(), "course_catalog", gomock.Any()).Return(nil, nil),
		vectors.EXPECT().Upsert(gomock.Any(), "course_content", gomock.Len(2)).Return(nil),
		vectors.EXPECT().Upsert(gomock.Any(), "course_catalog", gomock.Len(1)).Return(nil),
	)

	added, err := store.UpsertCourse(context.Background(), crs, chunks)
	require.NoError(t, err)
	assert.True(t, added)
}

func TestMetaInt(t *testing.T) {
	tests := []struct {
		in     any
		want   int
		wantOK bool
	}{
		{in: 3, want: 3, wantOK: true},
		{in: int64(4), want: 4, wantOK: true},
		{in: float64(5), want: 5, wantOK: true},
		{in: "6", want: 6, wantOK: true},
		{in: "x", wantOK: false},
		{in: nil, wantOK: false},
	}
	for _, tt := range tests {
		got, ok := metaInt(tt.in)
		assert.Equal(t, tt.wantOK, ok, "metaInt(%v)", tt.in)
		if tt.wantOK {
			assert.Equal(t, tt.want, got)
		}
	}
}
