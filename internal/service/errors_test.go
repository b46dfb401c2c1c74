package service

import (
	"errors"
	"testing"
)

func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *ValidationError
		want string
	}{
		{
			name: "field and message",
			err: &ValidationError{
				Field:   "query",
				Message: "cannot be empty",
			},
			want: "validation error on field query: cannot be empty",
		},
		{
			name: "empty field",
			err: &ValidationError{
				Field:   "",
				Message: "invalid",
			},
			want: "validation error on field : invalid",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("ValidationError.Error() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidationError_IsInvalidInput(t *testing.T) {
	var err error = &ValidationError{Field: "query", Message: "cannot be empty"}
	if !errors.Is(err, ErrInvalidInput) {
		t.Error("ValidationError should match ErrInvalidInput")
	}
}

func TestDocumentFormatError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *DocumentFormatError
		want string
	}{
		{
			name: "with line",
			err:  &DocumentFormatError{Source: "course1.txt", Line: 7, Reason: "duplicate lesson number 2"},
			want: "malformed document course1.txt (line 7): duplicate lesson number 2",
		},
		{
			name: "without line",
			err:  &DocumentFormatError{Source: "course1.txt", Reason: "missing Course Title line"},
			want: "malformed document course1.txt: missing Course Title line",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("DocumentFormatError.Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestToolDispatchError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *ToolDispatchError
		want string
	}{
		{
			name: "unknown tool",
			err:  &ToolDispatchError{Tool: "weather"},
			want: "Tool 'weather' not found",
		},
		{
			name: "bad arguments",
			err:  &ToolDispatchError{Tool: "search_course_content", Reason: "query is required"},
			want: "Tool 'search_course_content' failed: query is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("ToolDispatchError.Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWrapError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		msg     string
		wantNil bool
		wantMsg string
	}{
		{
			name:    "nil error",
			err:     nil,
			msg:     "context",
			wantNil: true,
		},
		{
			name:    "wrapped error",
			err:     errors.New("original error"),
			msg:     "context",
			wantMsg: "context: original error",
		},
		{
			name:    "sentinel error",
			err:     ErrStoreUnavailable,
			msg:     "search",
			wantMsg: "search: semantic store unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WrapError(tt.err, tt.msg)
			if tt.wantNil {
				if got != nil {
					t.Errorf("WrapError() = %v, want nil", got)
				}
				return
			}
			if got == nil {
				t.Fatal("WrapError() = nil, want error")
			}
			if got.Error() != tt.wantMsg {
				t.Errorf("WrapError() = %v, want %v", got.Error(), tt.wantMsg)
			}
			if !errors.Is(got, tt.err) {
				t.Errorf("WrapError() should wrap original error")
			}
		})
	}
}
