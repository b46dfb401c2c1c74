package indexer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"course-assistant/internal/contextutil"
	"course-assistant/internal/course"
	"course-assistant/internal/storage"
)

// Document statuses reported by the pipeline.
const (
	StatusAdded   = "added"
	StatusSkipped = "skipped"
	StatusFailed  = "failed"
)

// CourseWriter is the semantic store side of ingestion.
type CourseWriter interface {
	// UpsertCourse writes a course and its chunks, returning false if the title is already known.
	UpsertCourse(ctx context.Context, crs course.Course, chunks []course.Chunk) (bool, error)
	// Reset drops every stored course.
	Reset(ctx context.Context) error
}

// DocumentResult is the outcome for one source document.
type DocumentResult struct {
	ID     string `json:"id"`
	Course string `json:"course,omitempty"`
	Status string `json:"status"`
	Chunks int    `json:"chunks"`
	Error  string `json:"error,omitempty"`
}

// IngestReport summarizes one ingestion run.
type IngestReport struct {
	Documents      []DocumentResult `json:"documents"`
	CoursesAdded   int              `json:"courses_added"`
	CoursesSkipped int              `json:"courses_skipped"`
	Failed         int              `json:"failed"`
	ChunksAdded    int              `json:"chunks_added"`
	ChunkStats     ChunkTokenStats  `json:"chunk_stats"`
	IndexVersion   string           `json:"index_version"`
}

// Pipeline parses course documents and writes them to the semantic store and the course registry.
type Pipeline struct {
	chunker        *Chunker
	writer         CourseWriter
	registry       storage.CourseStore
	embeddingModel string
}

// NewPipeline creates a new ingestion pipeline. registry may be nil.
func NewPipeline(chunker *Chunker, writer CourseWriter, registry storage.CourseStore, embeddingModel string) *Pipeline {
	return &Pipeline{
		chunker:        chunker,
		writer:         writer,
		registry:       registry,
		embeddingModel: embeddingModel,
	}
}

// IngestDirectory ingests every .txt and .md file directly under dir, in name order.
// With clearExisting, both collections and the registry are emptied first.
func (p *Pipeline) IngestDirectory(ctx context.Context, dir string, clearExisting bool) (*IngestReport, error) {
	logger := contextutil.LoggerFromContext(ctx)

	files, err := ScanDocuments(ctx, dir)
	if err != nil {
		return nil, err
	}

	if clearExisting {
		if err := p.clear(ctx); err != nil {
			return nil, err
		}
	}

	var (
		docs   []SourceDocument
		failed []DocumentResult
	)
	for _, f := range files {
		content, err := os.ReadFile(f.AbsPath)
		if err != nil {
			logger.ErrorContext(ctx, "failed to read document", "document", f.Name, "error", err)
			failed = append(failed, DocumentResult{ID: f.Name, Status: StatusFailed, Error: err.Error()})
			continue
		}
		docs = append(docs, SourceDocument{ID: f.Name, Text: string(content)})
	}

	logger.InfoContext(ctx, "starting ingestion", "dir", dir, "documents", len(docs))

	report, err := p.IngestDocuments(ctx, docs)
	for _, f := range failed {
		report.add(f)
	}
	return report, err
}

// IngestDocuments ingests documents in order. A bad document is recorded and
// skipped; only cancellation stops the batch.
func (p *Pipeline) IngestDocuments(ctx context.Context, docs []SourceDocument) (*IngestReport, error) {
	logger := contextutil.LoggerFromContext(ctx)
	start := time.Now()

	report := &IngestReport{
		Documents:    make([]DocumentResult, 0, len(docs)),
		IndexVersion: IndexVersion(p.chunker.Size(), p.chunker.Overlap(), p.embeddingModel),
	}
	var written []course.Chunk

	for _, doc := range docs {
		select {
		case <-ctx.Done():
			return report, ctx.Err()
		default:
		}

		result, chunks := p.ingestOne(ctx, doc)
		report.add(result)
		if result.Status == StatusAdded {
			written = append(written, chunks...)
		}
	}

	report.ChunkStats = chunkTokenStats(written)

	logger.InfoContext(ctx, "ingestion completed",
		"documents", len(docs),
		"added", report.CoursesAdded,
		"skipped", report.CoursesSkipped,
		"failed", report.Failed,
		"chunks", report.ChunksAdded,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return report, nil
}

func (p *Pipeline) ingestOne(ctx context.Context, doc SourceDocument) (DocumentResult, []course.Chunk) {
	logger := contextutil.LoggerFromContext(ctx).With("document", doc.ID)
	result := DocumentResult{ID: doc.ID}

	parsed, err := p.chunker.ParseDocument(doc)
	if err != nil {
		logger.WarnContext(ctx, "skipping malformed document", "error", err)
		result.Status = StatusFailed
		result.Error = err.Error()
		return result, nil
	}
	result.Course = parsed.Course.Title

	if len(parsed.Chunks) == 0 {
		logger.WarnContext(ctx, "no chunks generated", "course", parsed.Course.Title)
	}

	added, err := p.writer.UpsertCourse(ctx, parsed.Course, parsed.Chunks)
	if err != nil {
		logger.ErrorContext(ctx, "failed to store course", "course", parsed.Course.Title, "error", err)
		result.Status = StatusFailed
		result.Error = err.Error()
		return result, nil
	}

	if !added {
		logger.InfoContext(ctx, "course already indexed", "course", parsed.Course.Title)
		result.Status = StatusSkipped
		p.backfillRegistry(ctx, doc.ID, parsed)
		return result, nil
	}

	result.Status = StatusAdded
	result.Chunks = len(parsed.Chunks)
	p.register(ctx, doc.ID, parsed)
	logger.InfoContext(ctx, "indexed course",
		"course", parsed.Course.Title,
		"lessons", len(parsed.Course.Lessons),
		"chunks", len(parsed.Chunks),
	)
	return result, parsed.Chunks
}

// register records the course after its vectors are written. The registry only
// serves listings, so a failure here is logged rather than failing the document.
func (p *Pipeline) register(ctx context.Context, sourceID string, parsed *ParsedDocument) {
	if p.registry == nil {
		return
	}
	if err := p.registry.Upsert(ctx, toRecord(sourceID, parsed)); err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to register course",
			"course", parsed.Course.Title, "error", err)
	}
}

// backfillRegistry registers a known course that is missing from the registry,
// e.g. when the vector store outlived the registry database.
func (p *Pipeline) backfillRegistry(ctx context.Context, sourceID string, parsed *ParsedDocument) {
	if p.registry == nil {
		return
	}
	_, err := p.registry.Get(ctx, parsed.Course.Title)
	if errors.Is(err, storage.ErrNotFound) {
		p.register(ctx, sourceID, parsed)
	}
}

func (p *Pipeline) clear(ctx context.Context) error {
	logger := contextutil.LoggerFromContext(ctx)
	logger.InfoContext(ctx, "clearing existing courses")

	if err := p.writer.Reset(ctx); err != nil {
		return fmt.Errorf("failed to reset semantic store: %w", err)
	}
	if p.registry != nil {
		if err := p.registry.DeleteAll(ctx); err != nil {
			return fmt.Errorf("failed to clear course registry: %w", err)
		}
	}
	return nil
}

func (r *IngestReport) add(res DocumentResult) {
	r.Documents = append(r.Documents, res)
	switch res.Status {
	case StatusAdded:
		r.CoursesAdded++
		r.ChunksAdded += res.Chunks
	case StatusSkipped:
		r.CoursesSkipped++
	case StatusFailed:
		r.Failed++
	}
}

func toRecord(sourceID string, parsed *ParsedDocument) *storage.CourseRecord {
	lessons := make([]storage.LessonRecord, 0, len(parsed.Course.Lessons))
	for _, l := range parsed.Course.Lessons {
		lessons = append(lessons, storage.LessonRecord{Number: l.Number, Title: l.Title, Link: l.Link})
	}
	return &storage.CourseRecord{
		Title:       parsed.Course.Title,
		Instructor:  parsed.Course.Instructor,
		Link:        parsed.Course.Link,
		LessonCount: len(parsed.Course.Lessons),
		ChunkCount:  len(parsed.Chunks),
		SourceID:    sourceID,
		Lessons:     lessons,
	}
}

func isCourseDocument(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt", ".md":
		return true
	}
	return false
}
