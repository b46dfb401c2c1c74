package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOpenAIConfig_BaseURL(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		want    string
	}{
		{name: "adds v1", baseURL: "http://localhost:8080", want: "http://localhost:8080/v1"},
		{name: "trailing slash", baseURL: "http://localhost:8080/", want: "http://localhost:8080/v1"},
		{name: "already v1", baseURL: "http://localhost:8080/v1", want: "http://localhost:8080/v1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := openAIConfig(tt.baseURL, "key").BaseURL; got != tt.want {
				t.Errorf("openAIConfig().BaseURL = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOpenAIClient_Complete(t *testing.T) {
	tests := []struct {
		name          string
		req           Request
		serverResp    func(t *testing.T, w http.ResponseWriter, r *http.Request)
		wantErr       bool
		wantContent   string
		wantToolCalls int
	}{
		{
			name: "plain text answer",
			req: Request{
				System:   "You are helpful.",
				Messages: []Message{{Role: RoleUser, Content: "Hello"}},
			},
			serverResp: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/v1/chat/completions" {
					t.Errorf("expected /v1/chat/completions, got %s", r.URL.Path)
				}
				var body map[string]any
				_ = json.NewDecoder(r.Body).Decode(&body)
				if _, ok := body["tools"]; ok {
					t.Error("tools should be omitted when none are declared")
				}
				msgs := body["messages"].([]any)
				if first := msgs[0].(map[string]any); first["role"] != "system" {
					t.Errorf("first message role = %v, want system", first["role"])
				}
				writeJSON(w, map[string]any{
					"id": "1",
					"choices": []any{map[string]any{
						"index":         0,
						"message":       map[string]any{"role": "assistant", "content": "Hi there"},
						"finish_reason": "stop",
					}},
				})
			},
			wantContent: "Hi there",
		},
		{
			name: "tool call",
			req: Request{
				Messages: []Message{{Role: RoleUser, Content: "What is in lesson 1?"}},
				Tools: []ToolSchema{{
					Name:        "search_course_content",
					Description: "Search",
					Parameters:  []ToolParam{{Name: "query", Type: "string", Required: true}},
				}},
			},
			serverResp: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				var body map[string]any
				_ = json.NewDecoder(r.Body).Decode(&body)
				if body["tool_choice"] != "auto" {
					t.Errorf("tool_choice = %v, want auto", body["tool_choice"])
				}
				writeJSON(w, map[string]any{
					"id": "2",
					"choices": []any{map[string]any{
						"index": 0,
						"message": map[string]any{
							"role": "assistant",
							"tool_calls": []any{map[string]any{
								"id":   "call_1",
								"type": "function",
								"function": map[string]any{
									"name":      "search_course_content",
									"arguments": `{"query":"lesson 1"}`,
								},
							}},
						},
						"finish_reason": "tool_calls",
					}},
				})
			},
			wantToolCalls: 1,
		},
		{
			name: "server error",
			req:  Request{Messages: []Message{{Role: RoleUser, Content: "Hello"}}},
			serverResp: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"error":{"message":"boom"}}`))
			},
			wantErr: true,
		},
		{
			name: "no choices",
			req:  Request{Messages: []Message{{Role: RoleUser, Content: "Hello"}}},
			serverResp: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				writeJSON(w, map[string]any{"id": "3", "choices": []any{}})
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				tt.serverResp(t, w, r)
			}))
			defer server.Close()

			client := NewOpenAIClient(server.URL, "test-key", "test-model", NewRateLimiter(0))
			got, err := client.Complete(context.Background(), tt.req)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Complete() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got.Content != tt.wantContent {
				t.Errorf("Complete() content = %q, want %q", got.Content, tt.wantContent)
			}
			if len(got.ToolCalls) != tt.wantToolCalls {
				t.Fatalf("Complete() tool calls = %d, want %d", len(got.ToolCalls), tt.wantToolCalls)
			}
			if tt.wantToolCalls > 0 {
				tc := got.ToolCalls[0]
				if tc.ID != "call_1" || tc.Name != "search_course_content" {
					t.Errorf("tool call = %+v", tc)
				}
				if string(tc.Arguments) != `{"query":"lesson 1"}` {
					t.Errorf("tool call arguments = %s", tc.Arguments)
				}
			}
		})
	}
}

func TestOpenAIClient_Complete_ToolRoundTrip(t *testing.T) {
	var captured []map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Messages []map[string]any `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		captured = body.Messages
		writeJSON(w, map[string]any{
			"id": "4",
			"choices": []any{map[string]any{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": "done"},
				"finish_reason": "stop",
			}},
		})
	}))
	defer server.Close()

	client := NewOpenAIClient(server.URL, "k", "m", nil)
	_, err := client.Complete(context.Background(), Request{
		Messages: []Message{
			{Role: RoleUser, Content: "q"},
			{Role: RoleAssistant, ToolCalls: []ToolCall{{ID: "c1", Name: "search_course_content", Arguments: json.RawMessage(`{"query":"x"}`)}}},
			{Role: RoleTool, ToolCallID: "c1", Name: "search_course_content", Content: "[Intro - Lesson 0]\ntext"},
		},
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if len(captured) != 3 {
		t.Fatalf("server saw %d messages, want 3", len(captured))
	}
	if captured[2]["role"] != "tool" || captured[2]["tool_call_id"] != "c1" {
		t.Errorf("tool message = %v", captured[2])
	}
	calls, ok := captured[1]["tool_calls"].([]any)
	if !ok || len(calls) != 1 {
		t.Errorf("assistant tool calls = %v", captured[1]["tool_calls"])
	}
}

func TestOpenAIEmbedder_Embed(t *testing.T) {
	tests := []struct {
		name         string
		texts        []string
		expectedSize int
		serverResp   func(w http.ResponseWriter, r *http.Request)
		wantErr      bool
		wantFirst    float32
	}{
		{
			name:         "successful embedding, out of order indices",
			texts:        []string{"Hello", "World"},
			expectedSize: 3,
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/v1/embeddings" {
					http.NotFound(w, r)
					return
				}
				writeJSON(w, map[string]any{
					"object": "list",
					"data": []any{
						map[string]any{"object": "embedding", "index": 1, "embedding": []float32{2, 2, 2}},
						map[string]any{"object": "embedding", "index": 0, "embedding": []float32{1, 1, 1}},
					},
				})
			},
			wantFirst: 1,
		},
		{
			name:         "empty input",
			texts:        []string{},
			expectedSize: 3,
			serverResp:   func(w http.ResponseWriter, r *http.Request) {},
			wantErr:      true,
		},
		{
			name:         "size mismatch",
			texts:        []string{"Hello"},
			expectedSize: 4,
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, map[string]any{
					"data": []any{map[string]any{"index": 0, "embedding": []float32{1, 1, 1}}},
				})
			},
			wantErr: true,
		},
		{
			name:         "count mismatch",
			texts:        []string{"Hello", "World"},
			expectedSize: 3,
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, map[string]any{
					"data": []any{map[string]any{"index": 0, "embedding": []float32{1, 1, 1}}},
				})
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(tt.serverResp))
			defer server.Close()

			embedder := NewOpenAIEmbedder(server.URL, "test-key", "test-model", tt.expectedSize, NewRateLimiter(0))
			got, err := embedder.Embed(context.Background(), tt.texts)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Embed() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if len(got) != len(tt.texts) {
				t.Fatalf("Embed() returned %d vectors, want %d", len(got), len(tt.texts))
			}
			if got[0][0] != tt.wantFirst {
				t.Errorf("Embed()[0][0] = %v, want %v", got[0][0], tt.wantFirst)
			}
		})
	}
}

func TestRateLimiter_Unlimited(t *testing.T) {
	limiter := NewRateLimiter(0)
	for i := 0; i < 100; i++ {
		if err := limiter.Wait(context.Background()); err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
	}

	var nilLimiter *RateLimiter
	if err := nilLimiter.Wait(context.Background()); err != nil {
		t.Errorf("nil limiter Wait() error = %v", err)
	}
}

func TestRateLimiter_CanceledContext(t *testing.T) {
	limiter := NewRateLimiter(1)
	ctx := context.Background()
	if err := limiter.Wait(ctx); err != nil {
		t.Fatalf("first Wait() error = %v", err)
	}

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	if err := limiter.Wait(canceled); err == nil {
		t.Error("Wait() on canceled context should fail")
	}
}

func TestToolSchema_JSONSchema(t *testing.T) {
	schema := ToolSchema{
		Name: "search_course_content",
		Parameters: []ToolParam{
			{Name: "query", Type: "string", Required: true},
			{Name: "lesson_number", Type: "integer"},
		},
	}.JSONSchema()

	if schema["type"] != "object" {
		t.Errorf("type = %v, want object", schema["type"])
	}
	required := schema["required"].([]string)
	if len(required) != 1 || required[0] != "query" {
		t.Errorf("required = %v, want [query]", required)
	}
	props := schema["properties"].(map[string]any)
	if props["lesson_number"].(map[string]any)["type"] != "integer" {
		t.Errorf("lesson_number type = %v", props["lesson_number"])
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
