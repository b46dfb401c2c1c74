package indexer

import "course-assistant/internal/course"

// SourceDocument is one raw course document handed to the pipeline.
type SourceDocument struct {
	ID   string // File name or caller-supplied identifier, used in reports and errors
	Text string
}

// ParsedDocument is the chunker's output for a single document.
type ParsedDocument struct {
	Course course.Course
	Chunks []course.Chunk
}
