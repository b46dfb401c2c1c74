package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"course-assistant/internal/contextutil"
	"course-assistant/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// writeJSON writes v with the given status code.
func writeJSON(ctx context.Context, w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

// writeError writes an error response.
func writeError(ctx context.Context, w http.ResponseWriter, statusCode int, message string) {
	writeJSON(ctx, w, statusCode, ErrorResponse{
		Error:     message,
		RequestID: contextutil.RequestIDFromContext(ctx),
	})
}

// handleServiceError maps service errors to HTTP status codes.
// Validation messages are returned as-is; infrastructure details are logged only.
func handleServiceError(ctx context.Context, w http.ResponseWriter, err error, defaultMsg string) {
	logger := contextutil.LoggerFromContext(ctx)

	var validationErr *service.ValidationError
	switch {
	case errors.As(err, &validationErr):
		logger.WarnContext(ctx, "invalid request", "field", validationErr.Field, "error", err)
		writeError(ctx, w, http.StatusBadRequest, validationErr.Message)
	case errors.Is(err, service.ErrInvalidInput):
		logger.WarnContext(ctx, "invalid request", "error", err)
		writeError(ctx, w, http.StatusBadRequest, "Invalid input")
	case errors.Is(err, service.ErrNotFound):
		logger.InfoContext(ctx, "resource not found", "error", err)
		writeError(ctx, w, http.StatusNotFound, "Not found")
	case errors.Is(err, service.ErrStoreUnavailable):
		logger.ErrorContext(ctx, "semantic store error", "error", err)
		writeError(ctx, w, http.StatusServiceUnavailable, "Vector store unavailable")
	case errors.Is(err, service.ErrModelUnavailable):
		logger.ErrorContext(ctx, "model error", "error", err)
		writeError(ctx, w, http.StatusBadGateway, "External service error")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		logger.WarnContext(ctx, "request abandoned", "error", err)
		writeError(ctx, w, http.StatusGatewayTimeout, "Request timed out")
	default:
		logger.ErrorContext(ctx, "request failed", "error", err)
		writeError(ctx, w, http.StatusInternalServerError, defaultMsg)
	}
}
