package providers

import (
	"encoding/json"
	"testing"

	"github.com/lowire/lowire/internal/agent"
	"github.com/lowire/lowire/internal/agent/toolconv"
	"google.golang.org/genai"
)

func TestGoogleProviderName(t *testing.T) {
	p := &GoogleProvider{}
	if got := p.Name(); got != "google" {
		t.Errorf("Name() = %v, want google", got)
	}
}

func TestNewGoogleProviderRequiresAPIKey(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "")
	if _, err := NewGoogleProvider(); err == nil {
		t.Fatal("expected error when GOOGLE_API_KEY is unset")
	}
}

func TestToGeminiContentsSplitsFunctionResponseIntoUserTurn(t *testing.T) {
	conv := &agent.Conversation{Messages: []agent.Message{
		{Role: agent.RoleUser, UserContent: "what's 2+2?"},
		{Role: agent.RoleAssistant, Parts: []agent.ContentPart{
			{Type: agent.ContentToolCall, ToolCallID: "call_1", ToolCallName: "calc", Arguments: json.RawMessage(`{"expr":"2+2"}`),
				Result: &agent.ToolResult{Content: []agent.ContentPart{{Type: agent.ContentText, Text: "4"}}}},
		}},
	}}

	got, err := toolconv.ToGeminiContents(conv)
	if err != nil {
		t.Fatalf("ToGeminiContents() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d contents, want 3 (user, model function_call, user function_response): %+v", len(got), got)
	}
}

func TestFromGeminiContentSynthesisesToolCallID(t *testing.T) {
	nextID := func(name string) string { return "call_" + name + "_0" }
	content := &genai.Content{Parts: []*genai.Part{
		{FunctionCall: &genai.FunctionCall{Name: "get_weather", Args: map[string]any{"city": "nyc"}}},
	}}
	got := toolconv.FromGeminiContent(content, nextID)
	if len(got.Parts) != 1 || got.Parts[0].ToolCallID != "call_get_weather_0" {
		t.Errorf("Parts = %+v", got.Parts)
	}
}

func TestStripAdditionalPropertiesRemovesNestedKeyword(t *testing.T) {
	schema := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"nested": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
			},
		},
	}
	toolconv.StripAdditionalProperties(schema)
	if _, ok := schema["additionalProperties"]; ok {
		t.Error("additionalProperties not stripped at top level")
	}
	nested := schema["properties"].(map[string]any)["nested"].(map[string]any)
	if _, ok := nested["additionalProperties"]; ok {
		t.Error("additionalProperties not stripped at nested level")
	}
}
