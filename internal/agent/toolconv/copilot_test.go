package toolconv

import (
	"encoding/json"
	"testing"

	"github.com/lowire/lowire/internal/agent"
)

func TestInjectIntentToolsAddsRequiredProperty(t *testing.T) {
	tools := []agent.Tool{{Name: "navigate", InputSchema: json.RawMessage(`{"type":"object","properties":{"url":{"type":"string"}},"required":["url"]}`)}}
	got, err := InjectIntentTools(tools)
	if err != nil {
		t.Fatalf("InjectIntentTools() error = %v", err)
	}
	var schema map[string]any
	if err := json.Unmarshal(got[0].InputSchema, &schema); err != nil {
		t.Fatalf("invalid schema json: %v", err)
	}
	props := schema["properties"].(map[string]any)
	if _, ok := props["_intent"]; !ok {
		t.Error("_intent property not injected")
	}
	required := schema["required"].([]any)
	found := false
	for _, r := range required {
		if r == "_intent" {
			found = true
		}
	}
	if !found {
		t.Error("_intent not added to required")
	}
}

func TestExtractIntentIncomingMaterialisesTextPart(t *testing.T) {
	msg := agent.Message{Role: agent.RoleAssistant, Parts: []agent.ContentPart{
		{Type: agent.ContentToolCall, ToolCallID: "call_1", ToolCallName: "navigate",
			Arguments: json.RawMessage(`{"url":"x.com","_intent":"Navigating to x.com"}`)},
	}}
	got := ExtractIntentIncoming(msg)
	if len(got.Parts) != 2 {
		t.Fatalf("got %d parts, want 2 (intent text + tool call): %+v", len(got.Parts), got.Parts)
	}
	if got.Parts[0].Type != agent.ContentText || got.Parts[0].CopilotToolCallID != "call_1" || got.Parts[0].Text != "Navigating to x.com" {
		t.Errorf("intent part = %+v", got.Parts[0])
	}
	var args map[string]any
	if err := json.Unmarshal(got.Parts[1].Arguments, &args); err != nil {
		t.Fatalf("invalid args json: %v", err)
	}
	if _, ok := args["_intent"]; ok {
		t.Error("_intent not stripped from tool call arguments")
	}
}

func TestStripIntentForOutgoingReattachesIntent(t *testing.T) {
	conv := &agent.Conversation{Messages: []agent.Message{
		{Role: agent.RoleAssistant, Parts: []agent.ContentPart{
			{Type: agent.ContentText, Text: "Navigating to x.com", CopilotToolCallID: "call_1"},
			{Type: agent.ContentToolCall, ToolCallID: "call_1", ToolCallName: "navigate", Arguments: json.RawMessage(`{"url":"x.com"}`)},
		}},
	}}
	out := StripIntentForOutgoing(conv)
	if len(out.Messages[0].Parts) != 1 {
		t.Fatalf("got %d parts, want 1 (companion text merged away): %+v", len(out.Messages[0].Parts), out.Messages[0].Parts)
	}
	var args map[string]any
	if err := json.Unmarshal(out.Messages[0].Parts[0].Arguments, &args); err != nil {
		t.Fatalf("invalid args json: %v", err)
	}
	if args["_intent"] != "Navigating to x.com" {
		t.Errorf("_intent not reattached, args = %+v", args)
	}
}
