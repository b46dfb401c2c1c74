package service

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound is returned when a requested resource is not found.
	ErrNotFound = errors.New("not found")
	// ErrStoreUnavailable is returned when the vector store or the embedder cannot be reached.
	ErrStoreUnavailable = errors.New("semantic store unavailable")
	// ErrModelUnavailable is returned when the language model fails or times out.
	ErrModelUnavailable = errors.New("language model unavailable")
)

// ValidationError represents a validation error with a field name.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field %s: %s", e.Field, e.Message)
}

// Unwrap lets callers match validation failures against ErrInvalidInput.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// DocumentFormatError reports a course document that cannot be parsed.
type DocumentFormatError struct {
	Source string
	Line   int
	Reason string
}

func (e *DocumentFormatError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("malformed document %s (line %d): %s", e.Source, e.Line, e.Reason)
	}
	return fmt.Sprintf("malformed document %s: %s", e.Source, e.Reason)
}

// ToolDispatchError describes a tool call that could not be executed.
// Its message is fed back to the model as the tool result.
type ToolDispatchError struct {
	Tool   string
	Reason string
}

func (e *ToolDispatchError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("Tool '%s' not found", e.Tool)
	}
	return fmt.Sprintf("Tool '%s' failed: %s", e.Tool, e.Reason)
}

// WrapError wraps an error with additional context.
func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}
