package tools

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"course-assistant/internal/contextutil"
	"course-assistant/internal/llm"
	"course-assistant/internal/service"
)

// Registry maps tool names to tools. It is read-only once queries start.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry creates a registry holding tools.
func NewRegistry(tools ...Tool) (*Registry, error) {
	r := &Registry{tools: make(map[string]Tool)}
	for _, t := range tools {
		if err := r.Register(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a tool. Names must be unique.
func (r *Registry) Register(t Tool) error {
	name := t.Definition().Name
	if name == "" {
		return fmt.Errorf("tool must have a name")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tools[name]; ok {
		return fmt.Errorf("tool %q already registered", name)
	}
	r.tools[name] = t
	return nil
}

// Definitions returns every tool schema, sorted by name.
func (r *Registry) Definitions() []llm.ToolSchema {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]llm.ToolSchema, 0, len(r.tools))
	for _, t := range r.tools {
		defs = append(defs, t.Definition())
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

func (r *Registry) lookup(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// NewRound starts collecting citations for one query. Rounds are not shared
// between queries, so an abandoned query's citations are simply dropped.
func (r *Registry) NewRound() *Round {
	return &Round{registry: r, seen: make(map[citationKey]bool)}
}

// Round dispatches the tool calls of one query and accumulates their citations.
type Round struct {
	registry  *Registry
	citations []Citation
	seen      map[citationKey]bool
	calls     int
}

// Dispatch runs one tool call and returns the text for the model. Unknown tools
// and bad arguments come back as text so the model can recover; only
// infrastructure errors are returned as errors.
func (r *Round) Dispatch(ctx context.Context, call llm.ToolCall) (string, error) {
	logger := contextutil.LoggerFromContext(ctx)
	r.calls++

	tool, ok := r.registry.lookup(call.Name)
	if !ok {
		logger.WarnContext(ctx, "unknown tool requested", "tool", call.Name)
		return (&service.ToolDispatchError{Tool: call.Name}).Error(), nil
	}

	res, err := tool.Execute(ctx, call.Arguments)
	if err != nil {
		var dispatchErr *service.ToolDispatchError
		if errors.As(err, &dispatchErr) {
			logger.WarnContext(ctx, "tool call rejected", "tool", call.Name, "error", err)
			return dispatchErr.Error(), nil
		}
		return "", fmt.Errorf("tool %s: %w", call.Name, err)
	}

	for _, c := range res.Citations {
		if r.seen[c.key()] {
			continue
		}
		r.seen[c.key()] = true
		r.citations = append(r.citations, c)
	}
	logger.DebugContext(ctx, "tool executed", "tool", call.Name, "citations", len(res.Citations))
	return res.Text, nil
}

// Calls returns how many tool calls this round dispatched.
func (r *Round) Calls() int {
	return r.calls
}

// Drain returns the accumulated citations in first-seen order and resets them.
func (r *Round) Drain() []Citation {
	out := r.citations
	r.citations = nil
	r.seen = make(map[citationKey]bool)
	return out
}
