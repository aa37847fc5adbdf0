package transcript

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestSummarizeExcludesLastAssistantMessage(t *testing.T) {
	conv := Conversation{Messages: []Message{
		{Role: RoleUser, Content: "do the thing"},
		{Role: RoleAssistant, Parts: []Part{{Type: "tool_call", ToolCallName: "search", Arguments: json.RawMessage(`{"q":"x"}`)}}},
		{Role: RoleAssistant, Parts: []Part{{Type: "text", Text: "last message, should not appear in summary"}}},
	}}

	got, err := Summarize("do the thing", conv)
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if strings.Contains(got.Summary, "should not appear") {
		t.Errorf("summary should exclude the last assistant message, got: %s", got.Summary)
	}
	if got.LastMessage == nil || got.LastMessage.Parts[0].Text != "last message, should not appear in summary" {
		t.Errorf("LastMessage not preserved verbatim: %+v", got.LastMessage)
	}
	if !strings.Contains(got.Summary, "step: (turn=1)") {
		t.Errorf("expected a turn=1 step, got: %s", got.Summary)
	}
	if !strings.Contains(got.Summary, "name: search") {
		t.Errorf("expected tool call name in summary, got: %s", got.Summary)
	}
}

func TestSummarizeEmptyConversation(t *testing.T) {
	got, err := Summarize("task", Conversation{})
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if got.LastMessage != nil {
		t.Errorf("expected nil LastMessage for empty conversation")
	}
	if !strings.Contains(got.Summary, "task") {
		t.Errorf("expected task text in summary, got: %s", got.Summary)
	}
}

func TestSummarizeMergesHistoryAndState(t *testing.T) {
	conv := Conversation{Messages: []Message{
		{Role: RoleUser, Content: "do the thing"},
		{Role: RoleAssistant, Parts: []Part{
			{Type: "text", Text: "looking into it"},
			{
				Type: "tool_call", ToolCallName: "search", Arguments: json.RawMessage(`{"q":"x"}`),
				HasResult: true,
				History:   []HistoryEntry{{Category: "note", Content: "found 3 results"}},
				State:     map[string]string{"cursor": "page-2"},
			},
		}},
		{Role: RoleAssistant, Parts: []Part{{Type: "text", Text: "done"}}},
	}}

	got, err := Summarize("do the thing", conv)
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if !strings.Contains(got.Summary, "note: found 3 results") {
		t.Errorf("expected meta-history line, got: %s", got.Summary)
	}
	if !strings.Contains(got.Summary, "state: (name=cursor) page-2") {
		t.Errorf("expected merged state line, got: %s", got.Summary)
	}
}

func TestSummarizeExcludesLastMessageStateFromCombinedState(t *testing.T) {
	conv := Conversation{Messages: []Message{
		{Role: RoleUser, Content: "do the thing"},
		{Role: RoleAssistant, Parts: []Part{{
			Type: "tool_call", ToolCallName: "search", HasResult: true,
			State: map[string]string{"stale": "should-appear"},
		}}},
		{Role: RoleAssistant, Parts: []Part{{
			Type: "tool_call", ToolCallName: "search", HasResult: true,
			State: map[string]string{"fresh": "should-not-appear"},
		}}},
	}}

	got, err := Summarize("do the thing", conv)
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if !strings.Contains(got.Summary, "state: (name=stale) should-appear") {
		t.Errorf("expected non-final turn's state to be merged, got: %s", got.Summary)
	}
	if strings.Contains(got.Summary, "should-not-appear") {
		t.Errorf("last assistant message's state must be excluded from combinedState, got: %s", got.Summary)
	}
}
