package rag

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"course-assistant/internal/contextutil"
	"course-assistant/internal/conversation"
	"course-assistant/internal/llm"
	"course-assistant/internal/service"
	"course-assistant/internal/tools"
)

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_engine.go -package=mocks course-assistant/internal/rag Engine

// Engine answers course questions with at most one tool round per query.
type Engine interface {
	// Ask answers a question, updating the session history on success.
	Ask(ctx context.Context, req AskRequest) (AskResponse, error)
}

// Config holds the engine's model parameters.
type Config struct {
	// MaxHistory is the number of past exchanges sent with each query.
	MaxHistory  int
	MaxTokens   int
	Temperature float32
}

// ragEngine implements the Engine interface.
type ragEngine struct {
	model    llm.Model
	registry *tools.Registry
	history  conversation.Store
	locker   *conversation.SessionLocker
	cfg      Config
}

// NewEngine creates a new RAG engine.
func NewEngine(model llm.Model, registry *tools.Registry, history conversation.Store, cfg Config) Engine {
	return &ragEngine{
		model:    model,
		registry: registry,
		history:  history,
		locker:   conversation.NewSessionLocker(),
		cfg:      cfg,
	}
}

// Ask runs the query through the model. If the first reply requests tools,
// every requested call is dispatched once and the model is asked exactly one
// more time, without tools. Any tool calls in that second reply are ignored.
func (e *ragEngine) Ask(ctx context.Context, req AskRequest) (AskResponse, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return AskResponse{}, &service.ValidationError{Field: "query", Message: "query must not be empty"}
	}
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	logger := contextutil.LoggerFromContext(ctx).With("session_id", sessionID)
	start := time.Now()
	logger.InfoContext(ctx, "query started", "query_preview", preview(query, 100))

	// Queries on one session are serialized so history is never interleaved.
	unlock, err := e.locker.Lock(ctx, sessionID)
	if err != nil {
		logger.WarnContext(ctx, "query abandoned waiting for session", "error", err)
		return AskResponse{}, fmt.Errorf("query cancelled: %w", err)
	}
	defer unlock()

	past, err := e.history.History(ctx, sessionID, e.cfg.MaxHistory*2)
	if err != nil {
		logger.ErrorContext(ctx, "failed to load history", "error", err)
		return AskResponse{}, fmt.Errorf("failed to load history: %w", err)
	}

	messages := make([]llm.Message, 0, len(past)+4)
	for _, t := range past {
		messages = append(messages, llm.Message{Role: llm.Role(t.Role), Content: t.Content})
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: query})

	first, err := e.complete(ctx, messages, e.registry.Definitions())
	if err != nil {
		logger.ErrorContext(ctx, "model call failed", "call", 1, "error", err)
		return AskResponse{}, err
	}

	answer := first.Content
	var (
		citations []tools.Citation
		calls     int
	)

	if first.HasToolCalls() {
		round := e.registry.NewRound()
		messages = append(messages, llm.Message{
			Role:      llm.RoleAssistant,
			Content:   first.Content,
			ToolCalls: first.ToolCalls,
		})

		for _, call := range first.ToolCalls {
			if err := ctx.Err(); err != nil {
				return AskResponse{}, fmt.Errorf("query cancelled: %w", err)
			}
			text, err := round.Dispatch(ctx, call)
			if err != nil {
				logger.ErrorContext(ctx, "tool execution failed", "tool", call.Name, "error", err)
				return AskResponse{}, err
			}
			logger.DebugContext(ctx, "tool result", "tool", call.Name, "result_preview", preview(text, 200))
			messages = append(messages, llm.Message{
				Role:       llm.RoleTool,
				Content:    text,
				ToolCallID: call.ID,
				Name:       call.Name,
			})
		}
		calls = round.Calls()

		second, err := e.complete(ctx, messages, nil)
		if err != nil {
			logger.ErrorContext(ctx, "model call failed", "call", 2, "error", err)
			return AskResponse{}, err
		}
		if second.HasToolCalls() {
			logger.WarnContext(ctx, "ignoring tool calls after the tool round", "requested", len(second.ToolCalls))
		}
		answer = second.Content
		citations = round.Drain()
	}

	if strings.TrimSpace(answer) == "" {
		logger.WarnContext(ctx, "model returned no text")
		answer = fallbackAnswer
	}

	if err := e.history.Append(ctx, sessionID,
		conversation.Turn{Role: conversation.RoleUser, Content: query},
		conversation.Turn{Role: conversation.RoleAssistant, Content: answer},
	); err != nil {
		logger.ErrorContext(ctx, "failed to save history", "error", err)
		return AskResponse{}, fmt.Errorf("failed to save history: %w", err)
	}

	logger.InfoContext(ctx, "query completed",
		"tool_calls", calls,
		"sources", len(citations),
		"answer_length", len(answer),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return AskResponse{
		Answer:    answer,
		Sources:   toSources(citations),
		SessionID: sessionID,
		ToolCalls: calls,
	}, nil
}

func (e *ragEngine) complete(ctx context.Context, messages []llm.Message, defs []llm.ToolSchema) (*llm.Response, error) {
	resp, err := e.model.Complete(ctx, llm.Request{
		System:      systemPrompt,
		Messages:    messages,
		Tools:       defs,
		MaxTokens:   e.cfg.MaxTokens,
		Temperature: e.cfg.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", service.ErrModelUnavailable, err)
	}
	if resp == nil {
		return nil, fmt.Errorf("%w: empty response", service.ErrModelUnavailable)
	}
	return resp, nil
}

func toSources(citations []tools.Citation) []Source {
	sources := make([]Source, 0, len(citations))
	for _, c := range citations {
		sources = append(sources, Source{
			Course: c.Course,
			Lesson: c.Lesson,
			Text:   c.Label(),
			Link:   c.Link,
		})
	}
	return sources
}

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
