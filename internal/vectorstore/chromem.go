package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"

	"github.com/philippgille/chromem-go"

	"course-assistant/internal/contextutil"
)

// ChromemStore implements VectorStore on an embedded chromem-go database.
// Metadata is stored as strings, so integers come back as their decimal form.
type ChromemStore struct {
	db *chromem.DB
}

// NewChromemStore opens a persistent database at path, or an in-memory one when path is empty.
func NewChromemStore(path string) (*ChromemStore, error) {
	if path == "" {
		return &ChromemStore{db: chromem.NewDB()}, nil
	}
	db, err := chromem.NewPersistentDB(path, false)
	if err != nil {
		return nil, fmt.Errorf("open vector db: %w", err)
	}
	return &ChromemStore{db: db}, nil
}

// Vectors are always computed by the caller; chromem must never embed on its own.
func precomputedOnly(_ context.Context, _ string) ([]float32, error) {
	return nil, errors.New("embeddings must be supplied by the caller")
}

func (s *ChromemStore) collection(name string) *chromem.Collection {
	return s.db.GetCollection(name, precomputedOnly)
}

// Ping always succeeds for the embedded database.
func (s *ChromemStore) Ping(_ context.Context) error {
	return nil
}

// EnsureCollection creates the collection if needed. chromem infers the dimension from the first document.
func (s *ChromemStore) EnsureCollection(ctx context.Context, collection string, vectorSize int) error {
	if _, err := s.db.GetOrCreateCollection(collection, nil, precomputedOnly); err != nil {
		return fmt.Errorf("get/create collection: %w", err)
	}
	contextutil.LoggerFromContext(ctx).DebugContext(ctx, "collection ready", "collection", collection, "vector_size", vectorSize)
	return nil
}

// Upsert adds the points as documents. Existing ids are overwritten.
func (s *ChromemStore) Upsert(ctx context.Context, collection string, points []Point) error {
	logger := contextutil.LoggerFromContext(ctx)

	if len(points) == 0 {
		return nil
	}

	col, err := s.db.GetOrCreateCollection(collection, nil, precomputedOnly)
	if err != nil {
		return fmt.Errorf("get/create collection: %w", err)
	}

	docs := make([]chromem.Document, 0, len(points))
	for _, p := range points {
		meta := stringifyMeta(p.Meta)
		content := meta["text"]
		if content == "" {
			content = p.ID
		}
		docs = append(docs, chromem.Document{
			ID:        p.ID,
			Metadata:  meta,
			Embedding: p.Vec,
			Content:   content,
		})
	}

	if err := col.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		logger.ErrorContext(ctx, "failed to upsert points", "collection", collection, "count", len(points), "error", err)
		return fmt.Errorf("failed to upsert points: %w", err)
	}

	logger.DebugContext(ctx, "upserted points", "collection", collection, "count", len(points))
	return nil
}

// Search queries by embedding. k is clamped to the collection size.
func (s *ChromemStore) Search(ctx context.Context, collection string, query []float32, k int, filters map[string]any) ([]SearchResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if k <= 0 {
		return nil, fmt.Errorf("k must be greater than 0")
	}

	col := s.collection(collection)
	if col == nil || col.Count() == 0 {
		return nil, nil
	}
	if k > col.Count() {
		k = col.Count()
	}

	var where map[string]string
	if len(filters) > 0 {
		where = stringifyMeta(filters)
	}

	docs, err := col.QueryEmbedding(ctx, query, k, where, nil)
	if err != nil {
		logger.ErrorContext(ctx, "failed to search points", "collection", collection, "k", k, "error", err)
		return nil, fmt.Errorf("query vectors: %w", err)
	}

	results := make([]SearchResult, 0, len(docs))
	for _, d := range docs {
		results = append(results, SearchResult{
			PointID: d.ID,
			Score:   d.Similarity,
			Meta:    toAnyMap(d.Metadata),
		})
	}

	logger.DebugContext(ctx, "search completed", "collection", collection, "k", k, "results", len(results))
	return results, nil
}

// Get returns the documents found among ids.
func (s *ChromemStore) Get(ctx context.Context, collection string, ids []string) ([]Point, error) {
	col := s.collection(collection)
	if col == nil {
		return nil, nil
	}

	points := make([]Point, 0, len(ids))
	for _, id := range ids {
		doc, err := col.GetByID(ctx, id)
		if err != nil {
			// GetByID only fails for unknown ids.
			continue
		}
		points = append(points, Point{ID: doc.ID, Vec: doc.Embedding, Meta: toAnyMap(doc.Metadata)})
	}
	return points, nil
}

// Count returns the number of documents, zero for a missing collection.
func (s *ChromemStore) Count(_ context.Context, collection string) (int, error) {
	col := s.collection(collection)
	if col == nil {
		return 0, nil
	}
	return col.Count(), nil
}

// DeleteCollection drops the collection.
func (s *ChromemStore) DeleteCollection(ctx context.Context, collection string) error {
	if err := s.db.DeleteCollection(collection); err != nil {
		return fmt.Errorf("failed to delete collection: %w", err)
	}
	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "deleted collection", "collection", collection)
	return nil
}

func stringifyMeta(meta map[string]any) map[string]string {
	out := make(map[string]string, len(meta))
	for k, v := range meta {
		switch val := v.(type) {
		case string:
			out[k] = val
		case int:
			out[k] = strconv.Itoa(val)
		case int64:
			out[k] = strconv.FormatInt(val, 10)
		case nil:
			continue
		default:
			out[k] = fmt.Sprint(val)
		}
	}
	return out
}

func toAnyMap(meta map[string]string) map[string]any {
	out := make(map[string]any, len(meta))
	for k, v := range meta {
		out[k] = v
	}
	return out
}
