// Package semantic keeps the two vector collections behind course search:
// a catalog with one vector per course title and the chunk content.
package semantic

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"course-assistant/internal/contextutil"
	"course-assistant/internal/course"
	"course-assistant/internal/llm"
	"course-assistant/internal/service"
	"course-assistant/internal/vectorstore"
)

const embedBatchSize = 32

// Metadata keys written to the vector store.
const (
	metaTitle       = "title"
	metaInstructor  = "instructor"
	metaCourseLink  = "course_link"
	metaLessons     = "lessons_json"
	metaLessonCount = "lesson_count"

	metaCourseTitle  = "course_title"
	metaLessonNumber = "lesson_number"
	metaChunkIndex   = "chunk_index"
	metaText         = "text"
)

// Config names the collections and the resolution policy.
type Config struct {
	CatalogCollection string
	ContentCollection string
	VectorSize        int
	// MinScore is the similarity a catalog match needs to be accepted.
	MinScore float32
	// MaxResults is the default search limit.
	MaxResults int
}

// ContentFilter restricts a content search. Zero values mean no restriction.
type ContentFilter struct {
	Course string
	Lesson *int
}

// ScoredChunk is a search hit.
type ScoredChunk struct {
	course.Chunk
	Score float32
}

// Store is the catalog + content pair. It holds no cache of its own.
type Store struct {
	vectors  vectorstore.VectorStore
	embedder llm.Embedder
	cfg      Config
}

// NewStore creates a semantic store over an existing vector backend.
func NewStore(vectors vectorstore.VectorStore, embedder llm.Embedder, cfg Config) *Store {
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 5
	}
	return &Store{vectors: vectors, embedder: embedder, cfg: cfg}
}

// Init creates both collections when missing.
func (s *Store) Init(ctx context.Context) error {
	for _, name := range []string{s.cfg.CatalogCollection, s.cfg.ContentCollection} {
		if err := s.vectors.EnsureCollection(ctx, name, s.cfg.VectorSize); err != nil {
			return unavailable("ensure collection "+name, err)
		}
	}
	return nil
}

// UpsertCourse writes the course's chunks and then its catalog entry. It is a
// no-op returning false when the title is already in the catalog.
func (s *Store) UpsertCourse(ctx context.Context, crs course.Course, chunks []course.Chunk) (bool, error) {
	logger := contextutil.LoggerFromContext(ctx)

	title := strings.TrimSpace(crs.Title)
	if title == "" {
		return false, &service.ValidationError{Field: "title", Message: "cannot be empty"}
	}

	existing, err := s.vectors.Get(ctx, s.cfg.CatalogCollection, []string{catalogID(title)})
	if err != nil {
		return false, unavailable("check catalog", err)
	}
	if len(existing) > 0 {
		logger.InfoContext(ctx, "course already ingested, skipping", "course", title)
		return false, nil
	}

	for start := 0; start < len(chunks); start += embedBatchSize {
		end := min(start+embedBatchSize, len(chunks))
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, ch := range batch {
			texts[i] = ch.Text
		}
		vecs, err := s.embedder.Embed(ctx, texts)
		if err != nil {
			return false, unavailable("embed chunks", err)
		}

		points := make([]vectorstore.Point, len(batch))
		for i, ch := range batch {
			meta := map[string]any{
				metaCourseTitle: title,
				metaChunkIndex:  ch.Index,
				metaText:        ch.Text,
			}
			if ch.Lesson != nil {
				meta[metaLessonNumber] = *ch.Lesson
			}
			points[i] = vectorstore.Point{ID: contentID(title, ch.Index), Vec: vecs[i], Meta: meta}
		}
		if err := s.vectors.Upsert(ctx, s.cfg.ContentCollection, points); err != nil {
			return false, unavailable("write content", err)
		}
	}

	lessons, err := json.Marshal(toLessonRecords(crs.Lessons))
	if err != nil {
		return false, fmt.Errorf("failed to encode lessons: %w", err)
	}
	vecs, err := s.embedder.Embed(ctx, []string{title})
	if err != nil {
		return false, unavailable("embed title", err)
	}
	entry := vectorstore.Point{
		ID:  catalogID(title),
		Vec: vecs[0],
		Meta: map[string]any{
			metaTitle:       title,
			metaInstructor:  crs.Instructor,
			metaCourseLink:  crs.Link,
			metaLessons:     string(lessons),
			metaLessonCount: len(crs.Lessons),
		},
	}
	if err := s.vectors.Upsert(ctx, s.cfg.CatalogCollection, []vectorstore.Point{entry}); err != nil {
		return false, unavailable("write catalog", err)
	}

	logger.InfoContext(ctx, "course ingested", "course", title, "lessons", len(crs.Lessons), "chunks", len(chunks))
	return true, nil
}

// ResolveCourse maps a possibly misspelled course name to a known title.
// An exact case-insensitive title wins outright; otherwise the single nearest
// catalog entry is accepted only when its score reaches MinScore.
func (s *Store) ResolveCourse(ctx context.Context, name string) (string, bool, error) {
	logger := contextutil.LoggerFromContext(ctx)

	name = strings.TrimSpace(name)
	if name == "" {
		return "", false, nil
	}

	exact, err := s.vectors.Get(ctx, s.cfg.CatalogCollection, []string{catalogID(name)})
	if err != nil {
		return "", false, unavailable("lookup catalog", err)
	}
	if len(exact) > 0 {
		return metaString(exact[0].Meta, metaTitle), true, nil
	}

	vecs, err := s.embedder.Embed(ctx, []string{name})
	if err != nil {
		return "", false, unavailable("embed course name", err)
	}
	hits, err := s.vectors.Search(ctx, s.cfg.CatalogCollection, vecs[0], 1, nil)
	if err != nil {
		return "", false, unavailable("search catalog", err)
	}
	if len(hits) == 0 {
		return "", false, nil
	}

	best := hits[0]
	title := metaString(best.Meta, metaTitle)
	if best.Score < s.cfg.MinScore || title == "" {
		logger.DebugContext(ctx, "course match below floor", "name", name, "candidate", title, "score", best.Score)
		return "", false, nil
	}
	logger.DebugContext(ctx, "course resolved", "name", name, "course", title, "score", best.Score)
	return title, true, nil
}

// SearchContent returns up to limit chunks nearest to query, restricted by filter.
// A non-positive limit uses the configured default.
func (s *Store) SearchContent(ctx context.Context, query string, filter ContentFilter, limit int) ([]ScoredChunk, error) {
	if limit <= 0 {
		limit = s.cfg.MaxResults
	}

	vecs, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, unavailable("embed query", err)
	}

	var filters map[string]any
	if filter.Course != "" || filter.Lesson != nil {
		filters = make(map[string]any, 2)
		if filter.Course != "" {
			filters[metaCourseTitle] = filter.Course
		}
		if filter.Lesson != nil {
			filters[metaLessonNumber] = *filter.Lesson
		}
	}

	hits, err := s.vectors.Search(ctx, s.cfg.ContentCollection, vecs[0], limit, filters)
	if err != nil {
		return nil, unavailable("search content", err)
	}

	out := make([]ScoredChunk, 0, len(hits))
	for _, h := range hits {
		ch := course.Chunk{
			CourseTitle: metaString(h.Meta, metaCourseTitle),
			Text:        metaString(h.Meta, metaText),
		}
		if idx, ok := metaInt(h.Meta[metaChunkIndex]); ok {
			ch.Index = idx
		}
		if n, ok := metaInt(h.Meta[metaLessonNumber]); ok {
			ch.Lesson = course.IntPtr(n)
		}
		out = append(out, ScoredChunk{Chunk: ch, Score: h.Score})
	}
	return out, nil
}

// CatalogEntry rebuilds a course's header and lesson directory from the catalog.
func (s *Store) CatalogEntry(ctx context.Context, title string) (course.Course, bool, error) {
	points, err := s.vectors.Get(ctx, s.cfg.CatalogCollection, []string{catalogID(title)})
	if err != nil {
		return course.Course{}, false, unavailable("read catalog", err)
	}
	if len(points) == 0 {
		return course.Course{}, false, nil
	}

	meta := points[0].Meta
	crs := course.Course{
		Title:      metaString(meta, metaTitle),
		Instructor: metaString(meta, metaInstructor),
		Link:       metaString(meta, metaCourseLink),
	}
	if raw := metaString(meta, metaLessons); raw != "" {
		var records []lessonRecord
		if err := json.Unmarshal([]byte(raw), &records); err != nil {
			return course.Course{}, false, fmt.Errorf("failed to decode lessons for %s: %w", title, err)
		}
		for _, r := range records {
			crs.Lessons = append(crs.Lessons, course.Lesson{Number: r.Number, Title: r.Title, Link: r.Link})
		}
	}
	return crs, true, nil
}

// Reset drops and recreates both collections. It is the only delete path.
func (s *Store) Reset(ctx context.Context) error {
	for _, name := range []string{s.cfg.CatalogCollection, s.cfg.ContentCollection} {
		if err := s.vectors.DeleteCollection(ctx, name); err != nil {
			return unavailable("delete collection "+name, err)
		}
	}
	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "semantic store reset")
	return s.Init(ctx)
}

// Counts returns the number of catalog entries and content chunks.
func (s *Store) Counts(ctx context.Context) (int, int, error) {
	catalog, err := s.vectors.Count(ctx, s.cfg.CatalogCollection)
	if err != nil {
		return 0, 0, unavailable("count catalog", err)
	}
	content, err := s.vectors.Count(ctx, s.cfg.ContentCollection)
	if err != nil {
		return 0, 0, unavailable("count content", err)
	}
	return catalog, content, nil
}

// Ping checks the vector backend.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.vectors.Ping(ctx); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

type lessonRecord struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	Link   string `json:"link,omitempty"`
}

func toLessonRecords(lessons []course.Lesson) []lessonRecord {
	out := make([]lessonRecord, 0, len(lessons))
	for _, l := range lessons {
		out = append(out, lessonRecord{Number: l.Number, Title: l.Title, Link: l.Link})
	}
	return out
}

// Title identity is case-insensitive, so ids are derived from the folded title.
func catalogID(title string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("catalog:"+foldTitle(title))).String()
}

func contentID(title string, index int) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("content:%s#%d", foldTitle(title), index))).String()
}

func foldTitle(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, service.ErrStoreUnavailable, err)
}

func metaString(meta map[string]any, key string) string {
	if v, ok := meta[key]; ok && v != nil {
		if s, ok := v.(string); ok {
			return s
		}
		return fmt.Sprint(v)
	}
	return ""
}

// metaInt reads integers written by either backend: qdrant returns int64,
// chromem returns decimal strings.
func metaInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case string:
		i, err := strconv.Atoi(n)
		return i, err == nil
	default:
		return 0, false
	}
}
