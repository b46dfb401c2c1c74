package llm

import (
	"encoding/json"
	"testing"

	"google.golang.org/genai"
)

func TestToFunctionDeclaration(t *testing.T) {
	decl := toFunctionDeclaration(ToolSchema{
		Name:        "search_course_content",
		Description: "Search course materials",
		Parameters: []ToolParam{
			{Name: "query", Type: "string", Description: "What to search for", Required: true},
			{Name: "lesson_number", Type: "integer", Description: "Lesson filter"},
		},
	})

	if decl.Name != "search_course_content" {
		t.Errorf("Name = %q", decl.Name)
	}
	if decl.Parameters.Type != genai.TypeObject {
		t.Errorf("Parameters.Type = %v, want object", decl.Parameters.Type)
	}
	if got := decl.Parameters.Properties["lesson_number"].Type; got != genai.TypeInteger {
		t.Errorf("lesson_number type = %v, want integer", got)
	}
	if len(decl.Parameters.Required) != 1 || decl.Parameters.Required[0] != "query" {
		t.Errorf("Required = %v, want [query]", decl.Parameters.Required)
	}
}

func TestToGeminiContents(t *testing.T) {
	messages := []Message{
		{Role: RoleUser, Content: "What does lesson 2 cover?"},
		{Role: RoleAssistant, ToolCalls: []ToolCall{{
			ID:        "call_0",
			Name:      "search_course_content",
			Arguments: json.RawMessage(`{"query":"lesson 2","lesson_number":2}`),
		}}},
		{Role: RoleTool, ToolCallID: "call_0", Name: "search_course_content", Content: "[Intro - Lesson 2]\nTools."},
	}

	contents, err := toGeminiContents(messages)
	if err != nil {
		t.Fatalf("toGeminiContents() error = %v", err)
	}
	if len(contents) != 3 {
		t.Fatalf("len(contents) = %d, want 3", len(contents))
	}

	if contents[1].Role != string(genai.RoleModel) {
		t.Errorf("assistant role = %q, want model", contents[1].Role)
	}
	call := contents[1].Parts[0].FunctionCall
	if call == nil || call.Name != "search_course_content" {
		t.Fatalf("function call = %+v", call)
	}
	if call.Args["query"] != "lesson 2" {
		t.Errorf("args = %v", call.Args)
	}

	resp := contents[2].Parts[0].FunctionResponse
	if resp == nil || resp.Name != "search_course_content" || resp.Response["output"] != "[Intro - Lesson 2]\nTools." {
		t.Errorf("function response = %+v", resp)
	}
}

func TestToGeminiContents_BadArguments(t *testing.T) {
	_, err := toGeminiContents([]Message{{
		Role:      RoleAssistant,
		ToolCalls: []ToolCall{{ID: "x", Name: "search_course_content", Arguments: json.RawMessage(`{not json`)}},
	}})
	if err == nil {
		t.Error("toGeminiContents() should fail on invalid arguments")
	}
}
