package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_course_store.go -package=mocks course-assistant/internal/storage CourseStore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")
)

// CourseStore defines the interface for the course registry.
type CourseStore interface {
	// Upsert inserts or replaces a course and its lessons.
	Upsert(ctx context.Context, course *CourseRecord) error
	// Get returns a course with its lessons, or ErrNotFound.
	Get(ctx context.Context, title string) (*CourseRecord, error)
	// ListTitles returns all course titles sorted by title.
	ListTitles(ctx context.Context) ([]string, error)
	// Count returns the number of registered courses.
	Count(ctx context.Context) (int, error)
	// DeleteAll empties the registry.
	DeleteAll(ctx context.Context) error
}

// CourseRepo implements CourseStore on SQLite.
type CourseRepo struct {
	db *sql.DB
}

// NewCourseRepo creates a new CourseRepo.
func NewCourseRepo(db *sql.DB) *CourseRepo {
	return &CourseRepo{db: db}
}

// Upsert writes the course row and replaces its lessons in one transaction.
func (r *CourseRepo) Upsert(ctx context.Context, course *CourseRecord) error {
	if course.IngestedAt.IsZero() {
		course.IngestedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO courses (title, instructor, course_link, lesson_count, chunk_count, source_id, ingested_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (title) DO UPDATE SET
		 instructor = excluded.instructor, course_link = excluded.course_link,
		 lesson_count = excluded.lesson_count, chunk_count = excluded.chunk_count,
		 source_id = excluded.source_id, ingested_at = excluded.ingested_at`,
		course.Title, course.Instructor, course.Link, course.LessonCount, course.ChunkCount,
		course.SourceID, course.IngestedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert course: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM lessons WHERE course_title = ?", course.Title); err != nil {
		return fmt.Errorf("failed to clear lessons: %w", err)
	}
	for _, l := range course.Lessons {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO lessons (course_title, lesson_number, title, link) VALUES (?, ?, ?, ?)",
			course.Title, l.Number, l.Title, l.Link,
		)
		if err != nil {
			return fmt.Errorf("failed to insert lesson %d: %w", l.Number, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit course: %w", err)
	}
	return nil
}

// Get returns the course with its lessons ordered by number.
func (r *CourseRepo) Get(ctx context.Context, title string) (*CourseRecord, error) {
	var (
		course      CourseRecord
		ingestedStr string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT title, instructor, course_link, lesson_count, chunk_count, source_id, ingested_at
		 FROM courses WHERE title = ?`,
		title,
	).Scan(&course.Title, &course.Instructor, &course.Link, &course.LessonCount, &course.ChunkCount,
		&course.SourceID, &ingestedStr)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query course: %w", err)
	}

	course.IngestedAt, err = time.Parse(time.RFC3339, ingestedStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ingested_at timestamp: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT lesson_number, title, link FROM lessons WHERE course_title = ? ORDER BY lesson_number",
		course.Title,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query lessons: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	for rows.Next() {
		var l LessonRecord
		if err := rows.Scan(&l.Number, &l.Title, &l.Link); err != nil {
			return nil, fmt.Errorf("failed to scan lesson: %w", err)
		}
		course.Lessons = append(course.Lessons, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return &course, nil
}

// ListTitles returns all course titles sorted case-insensitively.
func (r *CourseRepo) ListTitles(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT title FROM courses ORDER BY title")
	if err != nil {
		return nil, fmt.Errorf("failed to query courses: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	titles := []string{}
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, fmt.Errorf("failed to scan course title: %w", err)
		}
		titles = append(titles, title)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return titles, nil
}

// Count returns the number of registered courses.
func (r *CourseRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM courses").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count courses: %w", err)
	}
	return n, nil
}

// DeleteAll removes every course; lessons cascade.
func (r *CourseRepo) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM courses"); err != nil {
		return fmt.Errorf("failed to delete courses: %w", err)
	}
	return nil
}
