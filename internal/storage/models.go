package storage

import "time"

// CourseRecord is a registry row for one ingested course.
type CourseRecord struct {
	Title       string // Primary key, compared case-insensitively
	Instructor  string
	Link        string
	LessonCount int
	ChunkCount  int
	SourceID    string // Document the course was ingested from
	IngestedAt  time.Time
	Lessons     []LessonRecord // Ordered by number; only filled by Get
}

// LessonRecord is one lesson of a registered course.
type LessonRecord struct {
	Number int
	Title  string
	Link   string
}
